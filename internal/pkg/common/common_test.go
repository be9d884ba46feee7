package common

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomErrorChain(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("wrapped: %w", NewError(ErrCodeFetchFailed, "failed to fetch URL", http.StatusInternalServerError, cause))

	assert.Equal(t, ErrCodeFetchFailed, ErrorCode(err))
	assert.True(t, IsCode(err, ErrCodeFetchFailed))
	assert.False(t, IsCode(err, ErrCodeRateLimited))
	assert.False(t, IsCode(nil, ErrCodeFetchFailed))
	assert.ErrorIs(t, err, cause)

	ce, ok := AsCustomError(err)
	require.True(t, ok)
	assert.Equal(t, "failed to fetch URL: connection reset", ce.Error())
	assert.Equal(t, http.StatusInternalServerError, ce.Status)
}

func TestNewRateLimitedError(t *testing.T) {
	err := NewRateLimitedError("slow down", 42, nil)
	assert.Equal(t, ErrCodeRateLimited, err.Code)
	assert.Equal(t, http.StatusTooManyRequests, err.Status)
	assert.Equal(t, 42, err.RetryAfter)
	assert.Equal(t, "slow down", err.Error())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", Truncate("hello", 0))
	assert.Equal(t, "hello", Truncate("hello", 10))
	assert.Equal(t, "hel", Truncate("hello", 3))
	assert.Equal(t, "蛋糕", Truncate("蛋糕食譜", 2))
}

func TestGenerateUUID(t *testing.T) {
	id := GenerateUUID()
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.NotEqual(t, id, GenerateUUID())
}
