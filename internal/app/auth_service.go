// Package app holds the application services and business logic.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"jobflow/internal/domain"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is enforced at signup and password change.
const MinPasswordLength = 8

var (
	// ErrInvalidCredentials indicates that the provided email or password was incorrect.
	// It does not say which, so accounts cannot be enumerated.
	ErrInvalidCredentials = &domain.Error{Kind: domain.KindUnauthorized, Op: "auth.login", Msg: "invalid email or password"}
)

// dummyHash is compared against when the email is unknown so that a miss
// costs the same as a wrong password.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("jobflow-dummy-password"), bcrypt.DefaultCost)

// AuthService handles credentials and hands out sessions.
type AuthService struct {
	users    domain.UserRepository
	sessions *SessionManager
	cost     int
}

// NewAuthService creates a new authentication service.
func NewAuthService(users domain.UserRepository, sessions *SessionManager) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		cost:     bcrypt.DefaultCost,
	}
}

// WithHashCost overrides the bcrypt cost, for tests.
func (s *AuthService) WithHashCost(cost int) *AuthService {
	s.cost = cost
	return s
}

// Signup registers a user and logs them in.
func (s *AuthService) Signup(ctx context.Context, email, password string) (*domain.User, *domain.Session, error) {
	user, err := s.CreateUser(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}
	session, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	zerolog.Ctx(ctx).Info().Str("user_id", user.ID).Msg("user signed up")
	return user, session, nil
}

// CreateUser registers a user without starting a session.
func (s *AuthService) CreateUser(ctx context.Context, email, password string) (*domain.User, error) {
	const op = "auth.create_user"
	if err := validateEmail(op, email); err != nil {
		return nil, err
	}
	if len(password) < MinPasswordLength {
		return nil, domain.Validation(op, fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, domain.Internal(op, err)
	}
	user, err := s.users.Create(ctx, email, string(hash))
	if errors.Is(err, domain.ErrEmailTaken) {
		return nil, domain.Conflict(op, "email already registered")
	}
	if err != nil {
		return nil, domain.Internal(op, err)
	}
	return user, nil
}

// Login verifies credentials and creates a session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	const op = "auth.login"
	if err := validateEmail(op, email); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, domain.Validation(op, "password is required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, domain.Internal(op, err)
	}
	if user == nil || user.PasswordHash == "" {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	session, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Str("user_id", user.ID).Msg("login successful")
	return session, nil
}

// Logout invalidates a session. It returns only once the store has dropped
// it, so the caller can safely clear the cookie afterwards.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Invalidate(ctx, sessionID)
}

// LogoutAll invalidates every session of userID.
func (s *AuthService) LogoutAll(ctx context.Context, userID string) error {
	return s.sessions.InvalidateUser(ctx, userID)
}

// ChangePassword replaces the password hash, drops every existing session
// of the user and returns a new one for the caller.
func (s *AuthService) ChangePassword(ctx context.Context, userID, current, next string) (*domain.Session, error) {
	const op = "auth.change_password"
	if len(next) < MinPasswordLength {
		return nil, domain.Validation(op, fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, domain.Internal(op, err)
	}
	if user == nil {
		return nil, domain.Unauthorized(op)
	}
	if user.PasswordHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
			return nil, domain.Validation(op, "current password is incorrect")
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.cost)
	if err != nil {
		return nil, domain.Internal(op, err)
	}
	if err := s.users.UpdatePasswordHash(ctx, userID, string(hash)); err != nil {
		return nil, domain.Internal(op, err)
	}
	if err := s.sessions.InvalidateUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.sessions.Create(ctx, userID)
}

// ErrPasswordAccount is returned when an SSO login names the email of an
// account that signs in with a password. Such accounts are never linked.
var ErrPasswordAccount = &domain.Error{Kind: domain.KindConflict, Op: "auth.login_sso", Msg: "email belongs to a password account"}

// LoginWithUser creates a session for an email the identity provider has
// verified, provisioning a password-less user on first sight. Accounts that
// carry a password are refused.
func (s *AuthService) LoginWithUser(ctx context.Context, email string) (*domain.Session, error) {
	const op = "auth.login_sso"
	if err := validateEmail(op, email); err != nil {
		return nil, err
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, domain.Internal(op, err)
	}
	if user != nil && user.PasswordHash != "" {
		zerolog.Ctx(ctx).Warn().Str("user_id", user.ID).Msg("sso login refused for password account")
		return nil, ErrPasswordAccount
	}
	if user == nil {
		user, err = s.users.Create(ctx, email, "")
		if errors.Is(err, domain.ErrEmailTaken) {
			// Lost a race with a concurrent first login.
			user, err = s.users.GetByEmail(ctx, email)
		}
		if err != nil {
			return nil, domain.Internal(op, err)
		}
		if user == nil {
			return nil, domain.Internal(op, errors.New("user vanished after provisioning"))
		}
		if user.PasswordHash != "" {
			return nil, ErrPasswordAccount
		}
	}
	return s.sessions.Create(ctx, user.ID)
}

func validateEmail(op, email string) error {
	if strings.TrimSpace(email) == "" {
		return domain.Validation(op, "email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return domain.Validation(op, "invalid email address")
	}
	return nil
}
