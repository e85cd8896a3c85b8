package sqldb

import (
	"context"
	"database/sql"
	"errors"

	"jobflow/internal/domain"

	"github.com/google/uuid"
)

const outreachColumns = "id, user_id, connection_id, type, occurred_at, notes, created_at"

func scanOutreach(row interface{ Scan(...any) error }, extra ...any) (*domain.OutreachEntry, error) {
	var o domain.OutreachEntry
	dest := append([]any{&o.ID, &o.UserID, &o.ConnectionID, &o.Type, &o.OccurredAt, &o.Notes, &o.CreatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	o.OccurredAt = utc(o.OccurredAt)
	o.CreatedAt = utc(o.CreatedAt)
	return &o, nil
}

// CreateOutreach inserts an entry only if connectionID belongs to ownerID.
// The ownership check is part of the INSERT, so it returns (nil, nil) when
// the connection is absent or foreign.
func (d *DB) CreateOutreach(ctx context.Context, ownerID, connectionID string, in domain.OutreachInput) (*domain.OutreachEntry, error) {
	ts := d.timeParam()
	o, err := scanOutreach(d.queryRow(ctx, d.sql,
		`INSERT INTO outreach_entries (`+outreachColumns+`)
		SELECT ?, c.user_id, c.id, ?, `+ts+`, ?, `+ts+`
		FROM connections c
		WHERE c.id = ? AND c.user_id = ?
		RETURNING `+outreachColumns,
		uuid.NewString(), string(in.Type), in.OccurredAt.UTC(), in.Notes, d.now(), connectionID, ownerID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return o, err
}

// ListOutreachForConnection lists entries on connectionID, newest first.
func (d *DB) ListOutreachForConnection(ctx context.Context, connectionID, ownerID string) ([]domain.OutreachEntry, error) {
	rows, err := d.query(ctx, d.sql,
		"SELECT "+outreachColumns+" FROM outreach_entries WHERE connection_id = ? AND user_id = ? ORDER BY occurred_at DESC, created_at DESC",
		connectionID, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.OutreachEntry{}
	for rows.Next() {
		o, err := scanOutreach(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

// ListRecentOutreach lists ownerID's latest entries joined with their
// connection.
func (d *DB) ListRecentOutreach(ctx context.Context, ownerID string, limit int) ([]domain.RecentOutreach, error) {
	rows, err := d.query(ctx, d.sql,
		`SELECT o.id, o.user_id, o.connection_id, o.type, o.occurred_at, o.notes, o.created_at, c.name, c.company
		FROM outreach_entries o
		JOIN connections c ON c.id = o.connection_id AND c.user_id = o.user_id
		WHERE o.user_id = ?
		ORDER BY o.occurred_at DESC, o.created_at DESC
		LIMIT ?`,
		ownerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.RecentOutreach, 0, limit)
	for rows.Next() {
		var r domain.RecentOutreach
		o, err := scanOutreach(rows, &r.ConnectionName, &r.ConnectionCompany)
		if err != nil {
			return nil, err
		}
		r.OutreachEntry = *o
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteOutreach removes an entry if it belongs to ownerID.
func (d *DB) DeleteOutreach(ctx context.Context, id, ownerID string) (bool, error) {
	return affected(d.exec(ctx, d.sql, "DELETE FROM outreach_entries WHERE id = ? AND user_id = ?", id, ownerID))
}

// CountOutreach counts ownerID's entries.
func (d *DB) CountOutreach(ctx context.Context, ownerID string) (int, error) {
	var n int
	err := d.queryRow(ctx, d.sql, "SELECT COUNT(*) FROM outreach_entries WHERE user_id = ?", ownerID).Scan(&n)
	return n, err
}
