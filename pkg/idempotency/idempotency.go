// Package idempotency generates the keys sent in the Idempotency-Key header
// of create requests.
//
// The default format is "<unix-millis>-<base36 fragment>". It is unique
// enough for one user's create attempts; the server stays the authority on
// deduplication, so a collision can at worst merge two creates.
package idempotency

import (
	"strconv"
	"time"

	"github.com/hashicorp/go-uuid"

	"github.com/shelfhq/shelf/model"
	"github.com/shelfhq/shelf/pkg/utils"
)

const (
	Header         = "Idempotency-Key"
	FragmentLength = 13
)

type Generator interface {
	NewKey() string
}

type GeneratorFunc func() string

func (f GeneratorFunc) NewKey() string {
	return f()
}

type Timestamp struct {
	Now      func() time.Time
	Fragment func() string
}

func NewTimestamp() *Timestamp {
	return &Timestamp{Now: time.Now, Fragment: randomFragment}
}

func (g *Timestamp) NewKey() string {
	now, fragment := time.Now, randomFragment
	if g.Now != nil {
		now = g.Now
	}
	if g.Fragment != nil {
		fragment = g.Fragment
	}
	return strconv.FormatInt(now().UnixMilli(), 10) + "-" + fragment()
}

func randomFragment() string {
	s, err := utils.GenerateRandomStringFrom(utils.Base36Letters, FragmentLength)
	if err != nil {
		// crypto/rand only fails when the OS source is broken; the nanosecond
		// clock still separates keys within one process.
		return strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return s
}

type UUID struct{}

func (UUID) NewKey() string {
	id, err := uuid.GenerateUUID()
	if err != nil {
		return NewTimestamp().NewKey()
	}
	return id
}

// New returns the generator for the configured key format.
func New(format model.IdempotencyFormat) Generator {
	if format == model.IdempotencyUUID {
		return UUID{}
	}
	return NewTimestamp()
}

// KeyOr returns key unless it is empty, in which case g makes a new one.
func KeyOr(g Generator, key string) string {
	if key != "" {
		return key
	}
	return g.NewKey()
}
