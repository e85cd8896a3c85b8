package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"jobflow/internal/domain"

	"github.com/google/uuid"
)

const userColumns = "id, email, password_hash, created_at"

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.CreatedAt = utc(u.CreatedAt)
	return &u, nil
}

// GetByEmail retrieves a user by exact email.
func (d *DB) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := scanUser(d.queryRow(ctx, d.sql,
		"SELECT "+userColumns+" FROM users WHERE email = ?", email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

// GetByID retrieves a user by ID.
func (d *DB) GetByID(ctx context.Context, id string) (*domain.User, error) {
	u, err := scanUser(d.queryRow(ctx, d.sql,
		"SELECT "+userColumns+" FROM users WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

// Create creates a new user. A duplicate email yields domain.ErrEmailTaken.
func (d *DB) Create(ctx context.Context, email, passwordHash string) (*domain.User, error) {
	u, err := scanUser(d.queryRow(ctx, d.sql,
		"INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?) RETURNING "+userColumns,
		uuid.NewString(), email, passwordHash, d.now(),
	))
	if isUniqueViolation(err) {
		return nil, domain.ErrEmailTaken
	}
	return u, err
}

// UpdatePasswordHash replaces a user's password hash.
func (d *DB) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	_, err := d.exec(ctx, d.sql, "UPDATE users SET password_hash = ? WHERE id = ?", passwordHash, id)
	return err
}

// Count returns the total number of users.
func (d *DB) Count(ctx context.Context) (int, error) {
	var count int
	err := d.queryRow(ctx, d.sql, "SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

// SessionRepo implements session repository operations on DB.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo wraps a DB as a SessionRepository.
func NewSessionRepo(db *DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// Create stores a new session.
func (r *SessionRepo) Create(ctx context.Context, s domain.Session) error {
	_, err := r.db.exec(ctx, r.db.sql,
		"INSERT INTO sessions (id, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)",
		s.ID, s.UserID, s.ExpiresAt.UTC(), r.db.now(),
	)
	return err
}

// GetByID retrieves a session by id. Expiry is the caller's concern.
func (r *SessionRepo) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	var s domain.Session
	err := r.db.queryRow(ctx, r.db.sql,
		"SELECT id, user_id, expires_at FROM sessions WHERE id = ?", id,
	).Scan(&s.ID, &s.UserID, &s.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.ExpiresAt = utc(s.ExpiresAt)
	return &s, nil
}

// UpdateExpiry moves a session's expiry.
func (r *SessionRepo) UpdateExpiry(ctx context.Context, id string, expiresAt time.Time) error {
	_, err := r.db.exec(ctx, r.db.sql, "UPDATE sessions SET expires_at = ? WHERE id = ?", expiresAt.UTC(), id)
	return err
}

// Delete deletes a session by id.
func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.exec(ctx, r.db.sql, "DELETE FROM sessions WHERE id = ?", id)
	return err
}

// DeleteByUser deletes every session of userID.
func (r *SessionRepo) DeleteByUser(ctx context.Context, userID string) error {
	_, err := r.db.exec(ctx, r.db.sql, "DELETE FROM sessions WHERE user_id = ?", userID)
	return err
}

// DeleteExpired deletes all sessions expired at now.
func (r *SessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.exec(ctx, r.db.sql, "DELETE FROM sessions WHERE expires_at <= ?", now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
