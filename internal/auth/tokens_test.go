package auth_test

import (
	"strings"
	"testing"
	"time"

	"github.com/goodreaders/goodreaders-server/internal/auth"
	"github.com/goodreaders/goodreaders-server/internal/domain"
	"github.com/stretchr/testify/require"
)

const testKeyHex = "707172737475767778797a7b7c7d7e7f808182838485868788898a8b8c8d8e8f"

func testUser() *domain.User {
	return &domain.User{
		Syncable: domain.Syncable{ID: "user-abc123"},
		Name:     "Reader",
		Email:    "reader@example.com",
		Role:     "user",
	}
}

func TestTokenService_RoundTrip(t *testing.T) {
	svc, err := auth.NewTokenService(testKeyHex, time.Hour)
	require.NoError(t, err)

	token, err := svc.GenerateAccessToken(testUser())
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(token, "v4.local."))

	claims, err := svc.VerifyAccessToken(token)
	require.NoError(t, err)
	require.Equal(t, "user-abc123", claims.UserID())
	require.Equal(t, "reader@example.com", claims.Email)
	require.Equal(t, "user", claims.Role)
	require.False(t, claims.IsAdmin())
	require.NotEmpty(t, claims.TokenID)
}

func TestTokenService_AdminRole(t *testing.T) {
	svc, err := auth.NewTokenService(testKeyHex, time.Hour)
	require.NoError(t, err)

	u := testUser()
	u.Role = "admin"

	token, err := svc.GenerateAccessToken(u)
	require.NoError(t, err)

	claims, err := svc.VerifyAccessToken(token)
	require.NoError(t, err)
	require.True(t, claims.IsAdmin())
}

func TestTokenService_ExpiredToken(t *testing.T) {
	svc, err := auth.NewTokenService(testKeyHex, -time.Minute)
	require.NoError(t, err)

	token, err := svc.GenerateAccessToken(testUser())
	require.NoError(t, err)

	_, err = svc.VerifyAccessToken(token)
	require.Error(t, err)
}

func TestTokenService_WrongKey(t *testing.T) {
	svc, err := auth.NewTokenService(testKeyHex, time.Hour)
	require.NoError(t, err)

	otherKey := strings.Repeat("00", 32)
	other, err := auth.NewTokenService(otherKey, time.Hour)
	require.NoError(t, err)

	token, err := svc.GenerateAccessToken(testUser())
	require.NoError(t, err)

	_, err = other.VerifyAccessToken(token)
	require.Error(t, err)
}

func TestNewTokenService_InvalidKey(t *testing.T) {
	_, err := auth.NewTokenService("deadbeef", time.Hour)
	require.Error(t, err)

	_, err = auth.NewTokenService(strings.Repeat("zz", 32), time.Hour)
	require.Error(t, err)
}
