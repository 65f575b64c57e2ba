package service

import (
	"context"
	"errors"
	"fmt"
	"go-newsroom/internal/apperr"
	"go-newsroom/internal/auth"
	"go-newsroom/internal/data"
	"go-newsroom/internal/logger"
	"strings"
	"sync"
	"time"
)

// UserRepository defines the persistence operations on console users.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*data.User, error)
	GetByEmail(ctx context.Context, email string) (*data.User, error)
	Create(ctx context.Context, user *data.User) error
	Count(ctx context.Context) (int64, error)
}

// AuthService verifies credentials and resolves session users.
type AuthService struct {
	users         UserRepository
	log           logger.Logger
	now           func() time.Time
	checkPassword func(password, encodedHash string) (bool, error)
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserRepository, log logger.Logger) *AuthService {
	return &AuthService{users: users, log: log, now: defaultNow, checkPassword: auth.CheckPassword}
}

// dummyHash is verified against when the email is unknown, so a missing
// account costs the same argon2id work as a wrong password.
var dummyHash = sync.OnceValue(func() string {
	h, err := auth.HashPassword("newsroom-unknown-account")
	if err != nil {
		return ""
	}
	return h
})

var errBadCredentials = apperr.Unauthenticated("invalid email or password")

// Login checks email and password. Unknown users, wrong passwords and
// deactivated accounts all fail the same way.
func (s *AuthService) Login(ctx context.Context, email, password string) (*data.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperr.Validation("email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, data.ErrNotFound) {
		_, _ = s.checkPassword(password, dummyHash())
		return nil, errBadCredentials
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to load user")
	}

	ok, err := s.checkPassword(password, user.PasswordHash)
	if err != nil {
		s.log.Error(err, fmt.Sprintf("stored password hash for user %d is unusable", user.ID))
		return nil, errBadCredentials
	}
	if !ok || !user.Active {
		return nil, errBadCredentials
	}
	return user, nil
}

// LoginWithIdentity maps a verified OIDC identity onto an existing active user.
func (s *AuthService) LoginWithIdentity(ctx context.Context, claims *auth.IdentityClaims) (*data.User, error) {
	if claims == nil || claims.Email == "" || !claims.EmailVerified {
		return nil, apperr.Unauthenticated("identity provider did not supply a verified email")
	}
	user, err := s.users.GetByEmail(ctx, normalizeEmail(claims.Email))
	if errors.Is(err, data.ErrNotFound) {
		return nil, apperr.Unauthenticated("no account is registered for %s", claims.Email)
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to load user")
	}
	if !user.Active {
		return nil, apperr.Unauthenticated("account is deactivated")
	}
	return user, nil
}

// SessionUser loads the user behind a session. Deactivated users lose their
// sessions immediately.
func (s *AuthService) SessionUser(ctx context.Context, id int64) (*data.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, data.ErrNotFound) {
		return nil, apperr.Unauthenticated("session user no longer exists")
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to load user")
	}
	if !user.Active {
		return nil, apperr.Unauthenticated("account is deactivated")
	}
	return user, nil
}

// Bootstrap creates a super_admin from the given credentials when no user
// exists yet. It does nothing once the users table has rows.
func (s *AuthService) Bootstrap(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil
	}
	n, err := s.users.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if n > 0 {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	user := &data.User{
		Email:        email,
		Name:         "Administrator",
		PasswordHash: hash,
		Role:         auth.RoleSuperAdmin,
		Active:       true,
		CreatedAt:    s.now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return fmt.Errorf("failed to create bootstrap user: %w", err)
	}
	s.log.Info(fmt.Sprintf("Created bootstrap super_admin %s", email))
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
