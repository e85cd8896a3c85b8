package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"jobflow/internal/domain"

	"github.com/google/uuid"
)

const connectionColumns = "id, user_id, name, company, title, email, linkedin_url, notes, created_at, updated_at"

func scanConnection(row interface{ Scan(...any) error }) (*domain.Connection, error) {
	var c domain.Connection
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Company, &c.Title, &c.Email, &c.LinkedInURL,
		&c.Notes, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.CreatedAt = utc(c.CreatedAt)
	c.UpdatedAt = utc(c.UpdatedAt)
	return &c, nil
}

// CreateConnection stores a new connection for ownerID.
func (d *DB) CreateConnection(ctx context.Context, ownerID string, in domain.ConnectionInput) (*domain.Connection, error) {
	now := d.now()
	return scanConnection(d.queryRow(ctx, d.sql,
		`INSERT INTO connections (`+connectionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+connectionColumns,
		uuid.NewString(), ownerID, in.Name, in.Company, in.Title, in.Email, in.LinkedInURL, in.Notes, now, now,
	))
}

// FindConnection returns the connection only if it belongs to ownerID.
func (d *DB) FindConnection(ctx context.Context, id, ownerID string) (*domain.Connection, error) {
	c, err := scanConnection(d.queryRow(ctx, d.sql,
		"SELECT "+connectionColumns+" FROM connections WHERE id = ? AND user_id = ?", id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// ListConnections lists ownerID's connections, newest first, matching the
// query against name or company.
func (d *DB) ListConnections(ctx context.Context, ownerID string, f domain.ConnectionFilter, p domain.Page) ([]domain.Connection, int, error) {
	cond := "user_id = ?"
	args := []any{ownerID}
	if f.Query != "" {
		cond += ` AND (LOWER(name) LIKE ? ESCAPE '\' OR LOWER(company) LIKE ? ESCAPE '\')`
		pat := likePattern(f.Query)
		args = append(args, pat, pat)
	}

	var total int
	if err := d.queryRow(ctx, d.sql, "SELECT COUNT(*) FROM connections WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := d.query(ctx, d.sql,
		"SELECT "+connectionColumns+" FROM connections WHERE "+cond+" ORDER BY created_at DESC, id LIMIT ? OFFSET ?",
		append(args, p.Limit(), p.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]domain.Connection, 0, p.Limit())
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *c)
	}
	return out, total, rows.Err()
}

// UpdateConnection patches the connection in one statement scoped to ownerID.
func (d *DB) UpdateConnection(ctx context.Context, id, ownerID string, p domain.ConnectionPatch) (*domain.Connection, error) {
	var (
		set  []string
		args []any
	)
	for _, f := range []struct {
		col string
		v   *string
	}{
		{"name", p.Name},
		{"company", p.Company},
		{"title", p.Title},
		{"email", p.Email},
		{"linkedin_url", p.LinkedInURL},
		{"notes", p.Notes},
	} {
		if f.v != nil {
			set = append(set, f.col+" = ?")
			args = append(args, *f.v)
		}
	}
	set = append(set, "updated_at = ?")
	args = append(args, d.now(), id, ownerID)

	c, err := scanConnection(d.queryRow(ctx, d.sql,
		"UPDATE connections SET "+strings.Join(set, ", ")+" WHERE id = ? AND user_id = ? RETURNING "+connectionColumns,
		args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// DeleteConnection removes the connection and its outreach entries. The
// outreach rows are removed explicitly so the cascade does not depend on
// foreign key enforcement being enabled.
func (d *DB) DeleteConnection(ctx context.Context, id, ownerID string) (bool, error) {
	var deleted bool
	err := d.withTx(ctx, func(ctx context.Context, tx dbtx) error {
		if _, err := d.exec(ctx, tx,
			"DELETE FROM outreach_entries WHERE connection_id = ? AND user_id = ?", id, ownerID); err != nil {
			return err
		}
		ok, err := affected(d.exec(ctx, tx, "DELETE FROM connections WHERE id = ? AND user_id = ?", id, ownerID))
		deleted = ok
		return err
	})
	return deleted, err
}

// CountConnections counts ownerID's connections.
func (d *DB) CountConnections(ctx context.Context, ownerID string) (int, error) {
	var n int
	err := d.queryRow(ctx, d.sql, "SELECT COUNT(*) FROM connections WHERE user_id = ?", ownerID).Scan(&n)
	return n, err
}
