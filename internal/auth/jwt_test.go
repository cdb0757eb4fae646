package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTServiceRoundTrip(t *testing.T) {
	svc, err := NewJWTService([]byte("test-secret-at-least-32-bytes-long"), "meridian", time.Hour)
	require.NoError(t, err)

	userID := uuid.New()
	token, err := svc.GenerateToken(context.Background(), userID, "+84901234567")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "+84901234567", claims.Phone)
}

func TestJWTServiceRejectsExpired(t *testing.T) {
	svc, err := NewJWTService([]byte("test-secret-at-least-32-bytes-long"), "meridian", -time.Minute)
	require.NoError(t, err)

	token, err := svc.GenerateToken(context.Background(), uuid.New(), "+84901234567")
	require.NoError(t, err)

	_, err = svc.ValidateToken(context.Background(), token)
	assert.Error(t, err)
}

func TestJWTServiceRejectsWrongKey(t *testing.T) {
	signer, err := NewJWTService([]byte("test-secret-at-least-32-bytes-long"), "meridian", time.Hour)
	require.NoError(t, err)
	verifier, err := NewJWTService([]byte("another-secret-also-32-bytes-long!"), "meridian", time.Hour)
	require.NoError(t, err)

	token, err := signer.GenerateToken(context.Background(), uuid.New(), "+84901234567")
	require.NoError(t, err)

	_, err = verifier.ValidateToken(context.Background(), token)
	assert.Error(t, err)
}

func TestJWTServiceRejectsWrongIssuer(t *testing.T) {
	signer, err := NewJWTService([]byte("test-secret-at-least-32-bytes-long"), "other-issuer", time.Hour)
	require.NoError(t, err)
	verifier, err := NewJWTService([]byte("test-secret-at-least-32-bytes-long"), "meridian", time.Hour)
	require.NoError(t, err)

	token, err := signer.GenerateToken(context.Background(), uuid.New(), "+84901234567")
	require.NoError(t, err)

	_, err = verifier.ValidateToken(context.Background(), token)
	assert.Error(t, err)
}
