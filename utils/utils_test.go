package utils

import (
	"context"
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode(t *testing.T) {
	code, err := GenerateCode(5)
	require.NoError(t, err)

	// n random bytes become 2n hex characters.
	assert.Len(t, code, 10)
	assert.Equal(t, strings.ToUpper(code), code)

	_, err = hex.DecodeString(code)
	assert.NoError(t, err)
}

func TestGenerateCodeUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		code, err := GenerateCode(5)
		require.NoError(t, err)
		assert.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
	}
}

func TestGenerateSecretKey(t *testing.T) {
	secret, err := GenerateSecretKey()
	require.NoError(t, err)
	assert.Len(t, secret, 32)
}

func TestCircuitBreakerPassesThrough(t *testing.T) {
	cb := NewCircuitBreaker("test")
	ctx := context.Background()

	err := cb.Execute(ctx, func() error { return nil })
	assert.NoError(t, err)

	wantErr := errors.New("downstream failed")
	err = cb.Execute(ctx, func() error { return wantErr })
	assert.ErrorIs(t, err, wantErr)
}

func TestCircuitBreakerTripsAfterFailureRatio(t *testing.T) {
	cb := NewCircuitBreaker("test")
	ctx := context.Background()
	boom := errors.New("boom")

	// Enough failing requests to cross both the volume and ratio thresholds.
	for i := 0; i < 20; i++ {
		_ = cb.Execute(ctx, func() error { return boom })
	}

	err := cb.Execute(ctx, func() error { return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestCircuitBreakerStaysClosedOnSuccesses(t *testing.T) {
	cb := NewCircuitBreaker("test")
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		require.NoError(t, cb.Execute(ctx, func() error { return nil }))
	}
}
