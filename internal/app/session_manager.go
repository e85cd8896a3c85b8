package app

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"time"

	"jobflow/internal/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("jobflow/internal/app")

// SessionConfig controls session lifetime and the cookie that carries it.
type SessionConfig struct {
	CookieName string
	// Lifetime is how long a session lives after it is created or renewed.
	Lifetime time.Duration
	// RenewWithin triggers renewal once less than this much lifetime remains.
	RenewWithin time.Duration
	// Secure marks the cookie Secure; set in production.
	Secure bool
}

// DefaultSessionConfig returns a 30 day session renewed in its second half.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		CookieName:  "auth_session",
		Lifetime:    30 * 24 * time.Hour,
		RenewWithin: 15 * 24 * time.Hour,
	}
}

// SessionManager owns the session lifecycle: creation, validation with
// sliding renewal, invalidation and the cookies that carry session ids.
type SessionManager struct {
	sessions domain.SessionRepository
	users    domain.UserRepository
	cfg      SessionConfig
	now      func() time.Time
}

// NewSessionManager creates a session manager. Zero fields in cfg fall back
// to DefaultSessionConfig. A renewal window that is not shorter than the
// lifetime becomes half the lifetime.
func NewSessionManager(sessions domain.SessionRepository, users domain.UserRepository, cfg SessionConfig) *SessionManager {
	def := DefaultSessionConfig()
	if cfg.CookieName == "" {
		cfg.CookieName = def.CookieName
	}
	if cfg.Lifetime <= 0 {
		cfg.Lifetime = def.Lifetime
	}
	if cfg.RenewWithin <= 0 || cfg.RenewWithin >= cfg.Lifetime {
		cfg.RenewWithin = cfg.Lifetime / 2
	}
	return &SessionManager{
		sessions: sessions,
		users:    users,
		cfg:      cfg,
		now:      time.Now,
	}
}

// WithClock replaces the clock, for tests.
func (m *SessionManager) WithClock(now func() time.Time) *SessionManager {
	m.now = now
	return m
}

// CookieName returns the name of the session cookie.
func (m *SessionManager) CookieName() string {
	return m.cfg.CookieName
}

// Create starts a new session for userID. The returned session is Fresh.
func (m *SessionManager) Create(ctx context.Context, userID string) (*domain.Session, error) {
	id, err := generateToken()
	if err != nil {
		return nil, domain.Internal("session.create", err)
	}
	s := domain.Session{
		ID:        id,
		UserID:    userID,
		ExpiresAt: m.now().Add(m.cfg.Lifetime).UTC(),
	}
	if err := m.sessions.Create(ctx, s); err != nil {
		return nil, domain.Internal("session.create", err)
	}
	s.Fresh = true
	return &s, nil
}

// Validate resolves a session id. Unknown, expired and orphaned sessions
// yield (nil, nil, nil); expired and orphaned ones are deleted on the way.
// When renew is set and less than RenewWithin remains, the expiry is
// extended and the session comes back Fresh. Store failures are returned
// as KindInternal so callers fail closed.
func (m *SessionManager) Validate(ctx context.Context, id string, renew bool) (*domain.Session, *domain.User, error) {
	if id == "" {
		return nil, nil, nil
	}
	ctx, span := tracer.Start(ctx, "session.validate", trace.WithAttributes(
		attribute.Bool("session.renew_allowed", renew),
	))
	defer span.End()

	s, err := m.sessions.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, nil, domain.Internal("session.validate", err)
	}
	if s == nil {
		span.SetAttributes(attribute.Bool("session.valid", false))
		return nil, nil, nil
	}

	now := m.now()
	if !now.Before(s.ExpiresAt) {
		span.SetAttributes(attribute.Bool("session.valid", false), attribute.Bool("session.expired", true))
		if err := m.sessions.Delete(ctx, id); err != nil {
			span.RecordError(err)
		}
		return nil, nil, nil
	}

	user, err := m.users.GetByID(ctx, s.UserID)
	if err != nil {
		span.RecordError(err)
		return nil, nil, domain.Internal("session.validate", err)
	}
	if user == nil {
		if err := m.sessions.Delete(ctx, id); err != nil {
			span.RecordError(err)
		}
		return nil, nil, nil
	}

	session := *s
	session.Fresh = false
	if renew && s.ExpiresAt.Sub(now) < m.cfg.RenewWithin {
		expiresAt := now.Add(m.cfg.Lifetime).UTC()
		if err := m.sessions.UpdateExpiry(ctx, id, expiresAt); err != nil {
			span.RecordError(err)
			return nil, nil, domain.Internal("session.renew", err)
		}
		session.ExpiresAt = expiresAt
		session.Fresh = true
	}

	span.SetAttributes(
		attribute.Bool("session.valid", true),
		attribute.Bool("session.fresh", session.Fresh),
		attribute.String("user.id", user.ID),
	)
	return &session, user, nil
}

// Invalidate deletes a session. Deleting an unknown id is not an error.
func (m *SessionManager) Invalidate(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := m.sessions.Delete(ctx, id); err != nil {
		return domain.Internal("session.invalidate", err)
	}
	return nil
}

// InvalidateUser deletes every session belonging to userID.
func (m *SessionManager) InvalidateUser(ctx context.Context, userID string) error {
	if err := m.sessions.DeleteByUser(ctx, userID); err != nil {
		return domain.Internal("session.invalidate_user", err)
	}
	return nil
}

// DeleteExpired removes every session past its expiry and reports how many.
func (m *SessionManager) DeleteExpired(ctx context.Context) (int64, error) {
	n, err := m.sessions.DeleteExpired(ctx, m.now())
	if err != nil {
		return 0, domain.Internal("session.delete_expired", err)
	}
	return n, nil
}

// Cookie builds the cookie that carries s to the client.
func (m *SessionManager) Cookie(s *domain.Session) *http.Cookie {
	maxAge := int(s.ExpiresAt.Sub(m.now()).Seconds())
	if maxAge < 1 {
		maxAge = -1
	}
	return &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    s.ID,
		Path:     "/",
		Expires:  s.ExpiresAt,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// BlankCookie builds a cookie that makes the client drop its session id.
func (m *SessionManager) BlankCookie() *http.Cookie {
	return &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
