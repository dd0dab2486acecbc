package jwt

import (
	"testing"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/shramsathi/shramsathi-backend-go/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAccessToken(t *testing.T) {
	svc := NewJWTService("test-secret", 15*time.Minute)

	token, expiresAt, err := svc.GenerateAccessToken(user.NewLocalID(), "9000000002", user.RoleWorker)
	require.NoError(t, err)
	assert.Greater(t, expiresAt, time.Now().Unix())

	decoded, err := jwtauth.VerifyToken(svc.JWTAuth(), token)
	require.NoError(t, err)

	claims, err := decoded.AsMap(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "9000000002", claims["mobile"])
	assert.Equal(t, "worker", claims["role"])
	assert.Equal(t, true, claims["is_local"])
	assert.Equal(t, "access", claims["type"])
}

func TestVerifyRejectsOtherSecret(t *testing.T) {
	token, _, err := NewJWTService("one", time.Minute).GenerateAccessToken(user.RemoteID("u1"), "9000000001", user.RoleContractor)
	require.NoError(t, err)

	_, err = jwtauth.VerifyToken(NewJWTService("two", time.Minute).JWTAuth(), token)
	assert.Error(t, err)
}

func TestRevocation(t *testing.T) {
	svc := NewJWTService("test-secret", time.Minute)
	now := time.Now()

	svc.RevokeToken("expired", now.Add(-time.Minute).Unix())
	svc.RevokeToken("live", now.Add(time.Minute).Unix())
	assert.True(t, svc.IsTokenRevoked("expired"))
	assert.False(t, svc.IsTokenRevoked("other"))

	assert.Equal(t, 1, svc.PruneRevoked(now))
	assert.False(t, svc.IsTokenRevoked("expired"))
	assert.True(t, svc.IsTokenRevoked("live"))
}
