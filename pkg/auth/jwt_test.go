package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *JWTService {
	t.Helper()
	svc, err := NewJWTService(JWTConfig{SecretKey: "test-secret", Issuer: "hr-backend"})
	require.NoError(t, err)
	return svc
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc := newTestService(t)

	token, err := svc.GenerateToken(42, "ana@example.com", TokenAccess)
	require.NoError(t, err)

	claims, err := svc.ValidateToken("Bearer "+token, TokenAccess)
	require.NoError(t, err)
	id, err := claims.NumericUserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, "ana@example.com", claims.Email)
}

func TestJWTService_RejectsWrongType(t *testing.T) {
	svc := newTestService(t)

	refresh, err := svc.GenerateToken(42, "", TokenRefresh)
	require.NoError(t, err)

	_, err = svc.ValidateToken(refresh, TokenAccess)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestJWTService_Expired(t *testing.T) {
	svc := newTestService(t)
	token, err := svc.GenerateToken(7, "", TokenAccess)
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.ValidateToken(token, TokenAccess)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTService_BadSignatureAndIssuer(t *testing.T) {
	svc := newTestService(t)
	other, err := NewJWTService(JWTConfig{SecretKey: "another-secret", Issuer: "hr-backend"})
	require.NoError(t, err)
	token, err := other.GenerateToken(7, "", TokenAccess)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token, TokenAccess)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	foreign, err := NewJWTService(JWTConfig{SecretKey: "test-secret", Issuer: "someone-else"})
	require.NoError(t, err)
	token, err = foreign.GenerateToken(7, "", TokenAccess)
	require.NoError(t, err)
	_, err = svc.ValidateToken(token, TokenAccess)
	assert.ErrorIs(t, err, ErrInvalidClaims)

	_, err = svc.ValidateToken("   ", TokenAccess)
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestUserContext(t *testing.T) {
	_, ok := GetUserFromContext(context.Background())
	assert.False(t, ok)

	ctx := SetUserInContext(context.Background(), &Claims{UserID: "3"})
	claims, ok := GetUserFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "3", claims.UserID)
}
