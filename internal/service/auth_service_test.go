package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/uni-admission-api/internal/models"
	"github.com/noah-isme/uni-admission-api/pkg/config"
	appErrors "github.com/noah-isme/uni-admission-api/pkg/errors"
)

func newAuthService(t *testing.T, password string, ttl time.Duration) *AuthService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return NewAuthService(nil, nil, config.AuthConfig{
		JWTSecret:         "test-secret",
		TokenTTL:          ttl,
		AdminUsername:     "admin",
		AdminPasswordHash: string(hash),
	})
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	svc := newAuthService(t, "correct-horse", time.Hour)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Username: "admin", Password: "correct-horse"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	svc := newAuthService(t, "correct-horse", time.Hour)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "admin", Password: "battery-staple"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestAuthServiceLoginUnknownUsername(t *testing.T) {
	svc := newAuthService(t, "correct-horse", time.Hour)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "root", Password: "correct-horse"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestAuthServiceLoginMissingFields(t *testing.T) {
	svc := newAuthService(t, "correct-horse", time.Hour)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "admin"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestAuthServiceValidateExpiredToken(t *testing.T) {
	svc := newAuthService(t, "correct-horse", -time.Minute)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Username: "admin", Password: "correct-horse"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(resp.AccessToken)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}

func TestAuthServiceValidateGarbageToken(t *testing.T) {
	svc := newAuthService(t, "correct-horse", time.Hour)

	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
}
