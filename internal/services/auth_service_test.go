package services

import (
	"testing"

	"github.com/microlearn/whatsapp-bot-backend/internal/config"
	"github.com/microlearn/whatsapp-bot-backend/internal/models"
	"github.com/microlearn/whatsapp-bot-backend/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Admin.Username = "admin"
	cfg.Admin.Password = "s3cret"
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.ExpiresIn = 3600
	return cfg
}

func TestLoginSuccess(t *testing.T) {
	cfg := authTestConfig()
	svc, err := NewAuthService(cfg)
	require.NoError(t, err)

	resp, err := svc.Login(&models.LoginRequest{Username: "admin", Password: "s3cret"})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "admin", resp.User.Username)

	claims, err := utils.ValidateJWT(resp.Token, cfg)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, "admin", claims.Role)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, err := NewAuthService(authTestConfig())
	require.NoError(t, err)

	for _, req := range []*models.LoginRequest{
		{Username: "admin", Password: "wrong"},
		{Username: "root", Password: "s3cret"},
		{Username: "", Password: ""},
	} {
		_, err := svc.Login(req)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}
}
