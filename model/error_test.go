package model

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizedError(t *testing.T) {
	t.Run("Rejected", func(t *testing.T) {
		err := NewRejectedError(http.StatusConflict, "duplicate isbn", []byte(`{"message":"duplicate isbn"}`))
		assert.Equal(t, "409: duplicate isbn", err.Error())
		assert.JSONEq(t, `{"message":"duplicate isbn"}`, string(err.Data))
		assert.True(t, IsRejected(err))
		assert.False(t, IsUnauthorized(err))
		assert.False(t, IsUnreachable(err))
	})

	t.Run("RejectedGenericMessage", func(t *testing.T) {
		err := NewRejectedError(http.StatusNotFound, "", nil)
		assert.Equal(t, "request failed: 404 Not Found", err.Message)
		assert.Nil(t, err.Data)
	})

	t.Run("Unauthorized", func(t *testing.T) {
		err := fmt.Errorf("list books: %w", NewRejectedError(http.StatusUnauthorized, "", nil))
		assert.True(t, IsUnauthorized(err))
	})

	t.Run("Unreachable", func(t *testing.T) {
		cause := errors.New("dial tcp 127.0.0.1:5042: connect: connection refused")
		err := NewUnreachableError(cause)
		assert.Equal(t, 0, err.Status)
		assert.Equal(t, MessageUnreachable, err.Error())
		assert.ErrorIs(t, err, cause)
		assert.True(t, IsUnreachable(err))
		assert.False(t, IsRejected(err))
	})

	t.Run("Malformed", func(t *testing.T) {
		err := NewMalformedError(errors.New(`parse "::": missing protocol scheme`))
		assert.Equal(t, 0, err.Status)
		assert.Equal(t, `parse "::": missing protocol scheme`, err.Message)
		assert.False(t, IsUnreachable(err))
	})
}
