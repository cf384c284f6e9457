package services

import (
	"errors"
	"fmt"

	"github.com/microlearn/whatsapp-bot-backend/internal/config"
	"github.com/microlearn/whatsapp-bot-backend/internal/models"
	"github.com/microlearn/whatsapp-bot-backend/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned when a login attempt fails.
var ErrInvalidCredentials = errors.New("invalid username or password")

// AuthService authenticates the dashboard admin account.
type AuthService struct {
	cfg          *config.Config
	username     string
	passwordHash []byte
}

// NewAuthService hashes the configured admin password once at startup so the
// plaintext never sits in memory for comparisons.
func NewAuthService(cfg *config.Config) (*AuthService, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	return &AuthService{
		cfg:          cfg,
		username:     cfg.Admin.Username,
		passwordHash: hash,
	}, nil
}

// Login verifies the credentials and returns a signed JWT on success.
func (s *AuthService) Login(req *models.LoginRequest) (*models.LoginResponse, error) {
	if req.Username != s.username {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := utils.GenerateJWT(s.username, "admin", s.cfg)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	return &models.LoginResponse{
		Success: true,
		Token:   token,
		User:    models.AdminInfo{ID: "admin", Username: s.username, Role: "admin"},
	}, nil
}
