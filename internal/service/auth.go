package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/hash"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/tokens"
	"github.com/Skotchmaster/storefront/internal/transport"
)

const minPasswordLen = 6

type AuthService struct {
	Repo      *repo.GormRepo
	JWTSecret []byte
	TokenTTL  time.Duration
	Revoker   TokenRevoker
}

type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

func (s *AuthService) issue(u *models.User) (*LoginResult, error) {
	issued, err := tokens.Issue(u.ID, u.Role, s.JWTSecret, s.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &LoginResult{Token: issued.Token, ExpiresAt: issued.ExpiresAt, User: u}, nil
}

func (s *AuthService) Register(ctx context.Context, req transport.RegisterRequest) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	ve := &ValidationError{}
	name := required(ve, "name", "Name", req.Name)
	email := strings.ToLower(required(ve, "email", "Email", req.Email))
	if email != "" {
		if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
			ve.Add("email", "Email is invalid", req.Email)
		}
	}
	if len(req.Password) < minPasswordLen {
		ve.Add("password", fmt.Sprintf("Password must be at least %d characters", minPasswordLen), nil)
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: pwHash,
		Role:         models.RoleUser,
		IsActive:     true,
	}
	if err := s.Repo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: email already registered", ErrConflict)
		}
		return nil, persistence("create user", err)
	}

	l.Info("user_registered", "user_id", u.ID)
	return s.issue(u)
}

func (s *AuthService) Login(ctx context.Context, req transport.LoginRequest) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, invalid("email", "email and password are required", nil)
	}

	u, err := s.Repo.GetUserByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: invalid credentials", ErrUnauthenticated)
	}
	if err != nil {
		return nil, persistence("load user", err)
	}
	if !hash.CheckPassword(u.PasswordHash, req.Password) {
		l.Info("login_rejected", "user_id", u.ID, "reason", "bad_password")
		return nil, fmt.Errorf("%w: invalid credentials", ErrUnauthenticated)
	}
	if !u.IsActive {
		return nil, fmt.Errorf("%w: account is disabled", ErrForbidden)
	}

	return s.issue(u)
}

// Logout revokes the token id for the rest of its lifetime. Without a
// revoker the cookie is simply dropped by the caller.
func (s *AuthService) Logout(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if s.Revoker == nil || tokenID == "" {
		return nil
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.Revoker.RevokeToken(ctx, tokenID, ttl); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	u, err := s.Repo.GetUserByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
	}
	if err != nil {
		return nil, persistence("load user", err)
	}
	return u, nil
}

// EnsureAdmin creates the admin account when no user holds that email yet.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}

	_, err := s.Repo.GetUserByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return persistence("load user", err)
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u := &models.User{
		Name:         "Administrator",
		Email:        email,
		PasswordHash: pwHash,
		Role:         models.RoleAdmin,
		IsActive:     true,
	}
	if err := s.Repo.CreateUser(ctx, u); err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
		return persistence("create admin", err)
	}
	logging.FromContext(ctx).Info("admin_seeded", "email", email)
	return nil
}
