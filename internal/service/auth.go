package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/Dan9191/rental-yield/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned by Login for any authentication failure
var ErrInvalidCredentials = errors.New("invalid credentials")

// TokenTTL is the lifetime of issued tokens
const TokenTTL = 24 * time.Hour

// AuthService authenticates brokers allowed to write analyses
type AuthService struct {
	config *config.Config
	log    *logrus.Logger
	now    func() time.Time
}

// NewAuthService initializes the auth service
func NewAuthService(cfg *config.Config, log *logrus.Logger) *AuthService {
	return &AuthService{config: cfg, log: log, now: time.Now}
}

// Login authenticates the broker and returns a JWT token
func (s *AuthService) Login(username, password string) (string, error) {
	if s.config.BrokerPasswordHash == "" || username != s.config.BrokerUsername {
		return "", ErrInvalidCredentials
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(s.config.BrokerPasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	// Generate JWT
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
	})
	tokenString, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Infof("Broker logged in: %s", username)
	return tokenString, nil
}
