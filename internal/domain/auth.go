// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"errors"
	"time"
)

// ErrEmailTaken is returned by a UserRepository when the email is already registered.
var ErrEmailTaken = errors.New("email already registered")

// User represents an account holder. Every owned resource points at a User.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Session represents one authenticated client. The ID doubles as the cookie
// value, so whoever presents it is treated as the session's owner.
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time

	// Fresh is set when the session was created or its expiry extended
	// during the current call. It is never persisted.
	Fresh bool
}

// UserRepository defines the port for user persistence operations.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, email, passwordHash string) (*User, error)
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error
	Count(ctx context.Context) (int, error)
}

// SessionRepository defines the port for session persistence operations.
// Lookups return (nil, nil) when the id is unknown.
type SessionRepository interface {
	Create(ctx context.Context, s Session) error
	GetByID(ctx context.Context, id string) (*Session, error)
	UpdateExpiry(ctx context.Context, id string, expiresAt time.Time) error
	Delete(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
