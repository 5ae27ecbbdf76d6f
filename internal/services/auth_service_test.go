package services

import (
	"testing"
	"time"

	"booking-system/config"
	"booking-system/internal/status"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAuthService(ttl time.Duration) *AuthService {
	return NewAuthService(nil, &config.Config{
		JWTSecret:  "test-secret",
		TokenTTL:   ttl,
		BcryptCost: 4,
	})
}

func TestHashAndVerifyPassword(t *testing.T) {
	svc := testAuthService(time.Hour)

	hash, err := svc.HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)

	assert.True(t, svc.VerifyPassword("s3cret-pass", hash))
	assert.False(t, svc.VerifyPassword("wrong-pass", hash))
}

func TestTokenRoundTrip(t *testing.T) {
	svc := testAuthService(time.Hour)

	token, err := svc.IssueToken("alice@example.com")
	require.NoError(t, err)

	email, err := svc.DecodeToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", email)
}

func TestDecodeTokenRejectsExpired(t *testing.T) {
	svc := testAuthService(-time.Minute)

	token, err := svc.IssueToken("alice@example.com")
	require.NoError(t, err)

	_, err = svc.DecodeToken(token)
	assert.ErrorIs(t, err, status.ErrInvalidToken)
}

func TestDecodeTokenRejectsWrongSignature(t *testing.T) {
	svc := testAuthService(time.Hour)

	claims := jwt.RegisteredClaims{
		Subject:   "alice@example.com",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	_, err = svc.DecodeToken(forged)
	assert.ErrorIs(t, err, status.ErrInvalidToken)
}

func TestDecodeTokenRejectsUnsignedAlgorithm(t *testing.T) {
	svc := testAuthService(time.Hour)

	claims := jwt.RegisteredClaims{
		Subject:   "alice@example.com",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.DecodeToken(unsigned)
	assert.ErrorIs(t, err, status.ErrInvalidToken)
}

func TestDecodeTokenRejectsGarbage(t *testing.T) {
	svc := testAuthService(time.Hour)

	_, err := svc.DecodeToken("not-a-token")
	assert.ErrorIs(t, err, status.ErrInvalidToken)
}

func TestIsAuthError(t *testing.T) {
	assert.True(t, IsAuthError(status.ErrInvalidToken))
	assert.True(t, IsAuthError(status.ErrBadCredentials))
	assert.False(t, IsAuthError(status.ErrNotFound))
	assert.False(t, IsAuthError(nil))
}
