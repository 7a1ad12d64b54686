// Package auth authenticates clinic administrators and issues the bearer
// tokens the admin API requires.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-booking/internal/apperr"
)

var ErrInvalidCredentials = apperr.Unauthorized("invalid credentials", nil)

type Session struct {
	Token     string
	ExpiresAt time.Time
	Admin     Admin
}

type Service struct {
	repo   Repository
	hasher PasswordHasher
	tokens *Tokens
	logger zerolog.Logger
}

func NewService(repo Repository, hasher PasswordHasher, tokens *Tokens, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		hasher: hasher,
		tokens: tokens,
		logger: logger.With().Str("component", "admin_auth").Logger(),
	}
}

// Login checks the password and returns a signed session token. Unknown
// emails and wrong passwords fail the same way.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperr.Validation("email and password are required")
	}

	admin, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAdminNotFound) {
			s.logger.Warn().Str("email", email).Msg("login for unknown admin")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load admin: %w", err)
	}

	if err := s.hasher.Compare(admin.PasswordHash, password); err != nil {
		s.logger.Warn().Str("admin_id", admin.ID.String()).Msg("login with wrong password")
		return nil, ErrInvalidCredentials
	}

	token, expires, err := s.tokens.Issue(*admin)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("admin_id", admin.ID.String()).Msg("admin logged in")
	return &Session{Token: token, ExpiresAt: expires, Admin: *admin}, nil
}

// Authenticate verifies a bearer token.
func (s *Service) Authenticate(token string) (*Claims, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, apperr.Unauthorized("invalid or expired token", err)
	}
	return claims, nil
}

// EnsureAdmin creates the admin or resets its password.
func (s *Service) EnsureAdmin(ctx context.Context, email, name, password string) (*Admin, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperr.Validation("admin email is required")
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, ErrPasswordTooShort) {
			return nil, apperr.Validation("password must be at least %d characters", MinPasswordLen)
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return s.repo.Upsert(ctx, Admin{Email: email, Name: name, PasswordHash: hash})
}
