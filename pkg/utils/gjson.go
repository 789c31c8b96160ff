package utils

import (
	"errors"

	"github.com/tidwall/gjson"
)

var (
	ErrGjsonNotFound  = errors.New("specified path does not exist")
	ErrGjsonWrongType = errors.New("wrong type")
)

func GjsonGet(json []byte, path string) (gjson.Result, error) {
	result := gjson.GetBytes(json, path)
	if !result.Exists() {
		return result, ErrGjsonNotFound
	}

	return result, nil
}

// GjsonString returns the string at path, failing unless the value is a
// non-empty JSON string.
func GjsonString(json []byte, path string) (string, error) {
	if !gjson.ValidBytes(json) {
		return "", ErrGjsonWrongType
	}

	result, err := GjsonGet(json, path)
	if err != nil {
		return "", err
	}
	if result.Type != gjson.String {
		return "", ErrGjsonWrongType
	}
	if result.Str == "" {
		return "", ErrGjsonNotFound
	}

	return result.Str, nil
}
