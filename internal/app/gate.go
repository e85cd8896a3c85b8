package app

import (
	"context"
	"errors"
	"net/http"

	"jobflow/internal/domain"

	"github.com/rs/zerolog"
)

// ErrHeadersWritten is returned by a CookieSink once the response headers
// have been flushed and a cookie can no longer be attached.
var ErrHeadersWritten = errors.New("response headers already written")

// CookieSink is the outgoing side of a request that can carry cookies.
type CookieSink interface {
	// Writable reports whether SetCookie can still succeed.
	Writable() bool
	SetCookie(c *http.Cookie) error
}

// Auth outcomes reported to an AuthObserver.
const (
	OutcomeAnonymous     = "anonymous"
	OutcomeAuthenticated = "authenticated"
	OutcomeRenewed       = "renewed"
	OutcomeRejected      = "rejected"
	OutcomeError         = "error"
)

// AuthObserver receives gate outcomes, typically to export them as metrics.
type AuthObserver interface {
	ObserveAuth(outcome string)
	ObserveCookieWriteFailure()
}

type nopObserver struct{}

func (nopObserver) ObserveAuth(string)         {}
func (nopObserver) ObserveCookieWriteFailure() {}

// Identity is the result of resolving a request's session. The zero value
// is anonymous.
type Identity struct {
	User    *domain.User
	Session *domain.Session
}

// Authenticated reports whether the identity carries a valid session.
func (i Identity) Authenticated() bool {
	return i.User != nil && i.Session != nil
}

// Gate turns a session cookie into an Identity. It derives the identity from
// scratch on every call; nothing is cached between requests.
type Gate struct {
	sessions *SessionManager
	observer AuthObserver
}

// NewGate creates a gate over the given session manager. observer may be nil.
func NewGate(sessions *SessionManager, observer AuthObserver) *Gate {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Gate{sessions: sessions, observer: observer}
}

// Resolve validates cookieValue and returns the identity it stands for.
//
// A renewed session has its cookie re-issued through sink; a dead session
// id gets a blank cookie so the client stops presenting it. Renewal is only
// attempted when sink is writable, so a request that cannot carry headers
// leaves the session inside its renewal window for the next one. Cookie
// write failures are logged and counted, never returned.
func (g *Gate) Resolve(ctx context.Context, cookieValue string, sink CookieSink) (Identity, error) {
	if cookieValue == "" {
		g.observer.ObserveAuth(OutcomeAnonymous)
		return Identity{}, nil
	}

	writable := sink != nil && sink.Writable()
	session, user, err := g.sessions.Validate(ctx, cookieValue, writable)
	if err != nil {
		g.observer.ObserveAuth(OutcomeError)
		return Identity{}, err
	}

	if session == nil {
		g.observer.ObserveAuth(OutcomeRejected)
		g.writeCookie(ctx, sink, g.sessions.BlankCookie())
		return Identity{}, nil
	}

	if session.Fresh {
		g.observer.ObserveAuth(OutcomeRenewed)
		g.writeCookie(ctx, sink, g.sessions.Cookie(session))
	} else {
		g.observer.ObserveAuth(OutcomeAuthenticated)
	}
	return Identity{User: user, Session: session}, nil
}

// Require is the choke point for protected operations: it returns the
// identity or a KindUnauthorized error.
func (g *Gate) Require(ctx context.Context, cookieValue string, sink CookieSink) (Identity, error) {
	id, err := g.Resolve(ctx, cookieValue, sink)
	if err != nil {
		return Identity{}, err
	}
	if !id.Authenticated() {
		return Identity{}, domain.Unauthorized("gate.require")
	}
	return id, nil
}

func (g *Gate) writeCookie(ctx context.Context, sink CookieSink, c *http.Cookie) {
	if sink == nil {
		return
	}
	if err := sink.SetCookie(c); err != nil {
		g.observer.ObserveCookieWriteFailure()
		zerolog.Ctx(ctx).Warn().Err(err).Str("cookie", c.Name).Msg("session cookie not written")
	}
}
