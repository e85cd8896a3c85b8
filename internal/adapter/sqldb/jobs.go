package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"jobflow/internal/domain"

	"github.com/google/uuid"
)

const jobColumns = "id, user_id, company, role, status, url, location, salary_range, notes, applied_at, created_at, updated_at"

func scanJob(row interface{ Scan(...any) error }) (*domain.JobApplication, error) {
	var (
		j         domain.JobApplication
		appliedAt sql.NullTime
	)
	err := row.Scan(&j.ID, &j.UserID, &j.Company, &j.Role, &j.Status, &j.URL, &j.Location,
		&j.SalaryRange, &j.Notes, &appliedAt, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	j.AppliedAt = timePtr(appliedAt)
	j.CreatedAt = utc(j.CreatedAt)
	j.UpdatedAt = utc(j.UpdatedAt)
	return &j, nil
}

// CreateJob stores a new application for ownerID.
func (d *DB) CreateJob(ctx context.Context, ownerID string, in domain.JobInput) (*domain.JobApplication, error) {
	now := d.now()
	return scanJob(d.queryRow(ctx, d.sql,
		`INSERT INTO job_applications (`+jobColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+jobColumns,
		uuid.NewString(), ownerID, in.Company, in.Role, string(in.Status), in.URL, in.Location,
		in.SalaryRange, in.Notes, nullTime(in.AppliedAt), now, now,
	))
}

// FindJob returns the job only if it belongs to ownerID.
func (d *DB) FindJob(ctx context.Context, id, ownerID string) (*domain.JobApplication, error) {
	j, err := scanJob(d.queryRow(ctx, d.sql,
		"SELECT "+jobColumns+" FROM job_applications WHERE id = ? AND user_id = ?", id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return j, err
}

// ListJobs lists ownerID's jobs, newest first, with the total match count.
func (d *DB) ListJobs(ctx context.Context, ownerID string, f domain.JobFilter, p domain.Page) ([]domain.JobApplication, int, error) {
	where := []string{"user_id = ?"}
	args := []any{ownerID}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.Query != "" {
		where = append(where, `LOWER(company) LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(f.Query))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := d.queryRow(ctx, d.sql, "SELECT COUNT(*) FROM job_applications WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := d.query(ctx, d.sql,
		"SELECT "+jobColumns+" FROM job_applications WHERE "+cond+" ORDER BY created_at DESC, id LIMIT ? OFFSET ?",
		append(args, p.Limit(), p.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]domain.JobApplication, 0, p.Limit())
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *j)
	}
	return out, total, rows.Err()
}

// UpdateJob patches the job in one statement scoped to ownerID.
func (d *DB) UpdateJob(ctx context.Context, id, ownerID string, p domain.JobPatch) (*domain.JobApplication, error) {
	var (
		set  []string
		args []any
	)
	add := func(col string, v any) {
		set = append(set, col+" = ?")
		args = append(args, v)
	}
	if p.Company != nil {
		add("company", *p.Company)
	}
	if p.Role != nil {
		add("role", *p.Role)
	}
	if p.Status != nil {
		add("status", string(*p.Status))
	}
	if p.URL != nil {
		add("url", *p.URL)
	}
	if p.Location != nil {
		add("location", *p.Location)
	}
	if p.SalaryRange != nil {
		add("salary_range", *p.SalaryRange)
	}
	if p.Notes != nil {
		add("notes", *p.Notes)
	}
	if p.ClearAppliedAt {
		add("applied_at", sql.NullTime{})
	} else if p.AppliedAt != nil {
		add("applied_at", nullTime(p.AppliedAt))
	}
	add("updated_at", d.now())

	j, err := scanJob(d.queryRow(ctx, d.sql,
		"UPDATE job_applications SET "+strings.Join(set, ", ")+" WHERE id = ? AND user_id = ? RETURNING "+jobColumns,
		append(args, id, ownerID)...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return j, err
}

// DeleteJob removes the job if it belongs to ownerID.
func (d *DB) DeleteJob(ctx context.Context, id, ownerID string) (bool, error) {
	return affected(d.exec(ctx, d.sql, "DELETE FROM job_applications WHERE id = ? AND user_id = ?", id, ownerID))
}

// CountJobsByStatus counts ownerID's jobs per status.
func (d *DB) CountJobsByStatus(ctx context.Context, ownerID string) (map[domain.JobStatus]int, error) {
	rows, err := d.query(ctx, d.sql,
		"SELECT status, COUNT(*) FROM job_applications WHERE user_id = ? GROUP BY status", ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.JobStatus]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[domain.JobStatus(status)] = n
	}
	return counts, rows.Err()
}
