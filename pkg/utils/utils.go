package utils

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"

	"golang.org/x/exp/constraints"
)

const Base36Letters = "0123456789abcdefghijklmnopqrstuvwxyz"

// GenerateRandomStringFrom draws n characters uniformly from letters.
func GenerateRandomStringFrom(letters string, n int) (string, error) {
	lettersLength := big.NewInt(int64(len(letters)))
	ret := make([]byte, n)
	for i := range n {
		num, err := rand.Int(rand.Reader, lettersLength)
		if err != nil {
			return "", err
		}
		ret[i] = letters[num.Int64()]
	}
	return string(ret), nil
}

func IfOr[T any](a bool, x, y T) T {
	if a {
		return x
	}
	return y
}

func Itoa[T constraints.Integer](i T) string {
	switch any(i).(type) {
	case int, int8, int16, int32, int64:
		return strconv.FormatInt(int64(i), 10)
	case uint, uint8, uint16, uint32, uint64:
		return strconv.FormatUint(uint64(i), 10)
	default:
		return ""
	}
}

// SplitList splits a comma separated list, dropping blank entries.
func SplitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func FirstError(errorer ...func() error) error {
	for _, fn := range errorer {
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}
