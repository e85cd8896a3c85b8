// Package sqldb implements the domain repositories on PostgreSQL or SQLite
// through database/sql.
package sqldb

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"jobflow/internal/domain"

	"github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrations embed.FS

// Dialect selects the SQL backend.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// DB wraps a *sql.DB and implements domain repository interfaces.
type DB struct {
	sql     *sql.DB
	dialect Dialect
	now     func() time.Time
}

// Ensure interfaces are met.
var (
	_ domain.UserRepository       = (*DB)(nil)
	_ domain.JobRepository        = (*DB)(nil)
	_ domain.ConnectionRepository = (*DB)(nil)
	_ domain.OutreachRepository   = (*DB)(nil)
	_ domain.Pinger               = (*DB)(nil)
	_ domain.SessionRepository    = (*SessionRepo)(nil)
)

// Open connects to the database, pings, and runs migrations. For SQLite,
// dsn is a file path or ":memory:".
func Open(ctx context.Context, dialect Dialect, dsn string) (*DB, error) {
	var (
		s   *sql.DB
		err error
	)
	switch dialect {
	case Postgres:
		s, err = sql.Open("postgres", dsn)
		if err != nil {
			return nil, err
		}
		s.SetMaxOpenConns(10)
		s.SetMaxIdleConns(5)
		s.SetConnMaxLifetime(5 * time.Minute)
	case SQLite:
		s, err = sql.Open("sqlite", sqliteDSN(dsn))
		if err != nil {
			return nil, err
		}
		// One writer, and an in-memory database lives on a single connection.
		s.SetMaxOpenConns(1)
	default:
		return nil, fmt.Errorf("sqldb: unknown dialect %q", dialect)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.PingContext(pingCtx); err != nil {
		_ = s.Close()
		return nil, err
	}

	d := &DB{sql: s, dialect: dialect, now: func() time.Time { return time.Now().UTC() }}
	if err := d.migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return d, nil
}

func sqliteDSN(path string) string {
	if path == "" || path == ":memory:" {
		path = ":memory:"
	}
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
}

func (d *DB) migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{zerolog.Ctx(ctx)})
	dir, gooseDialect := "migrations/postgres", "postgres"
	if d.dialect == SQLite {
		dir, gooseDialect = "migrations/sqlite", "sqlite3"
	}
	if err := goose.SetDialect(gooseDialect); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := goose.UpContext(ctx, d.sql, dir); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

type gooseLogger struct{ log *zerolog.Logger }

func (l gooseLogger) Printf(format string, v ...any) {
	l.log.Debug().Msgf(strings.TrimSpace(format), v...)
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.log.Fatal().Msgf(strings.TrimSpace(format), v...)
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

// Ping checks the database connection.
func (d *DB) Ping(ctx context.Context) error {
	return d.sql.PingContext(ctx)
}

// Dialect reports the backend in use.
func (d *DB) Dialect() Dialect {
	return d.dialect
}

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// withTx runs fn inside a transaction, committing on success and rolling
// back on error or panic.
func (d *DB) withTx(ctx context.Context, fn func(ctx context.Context, tx dbtx) error) (err error) {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()
	return fn(ctx, tx)
}

// Queries are written with ? placeholders; rebind converts them for
// PostgreSQL.
func (d *DB) rebind(q string) string {
	if d.dialect != Postgres {
		return q
	}
	var b strings.Builder
	b.Grow(len(q) + 8)
	n := 0
	for i := 0; i < len(q); i++ {
		if q[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(q[i])
	}
	return b.String()
}

// timeParam renders a timestamp placeholder. PostgreSQL cannot infer the type
// of a parameter in an INSERT ... SELECT list.
func (d *DB) timeParam() string {
	if d.dialect == Postgres {
		return "CAST(? AS TIMESTAMPTZ)"
	}
	return "?"
}

func (d *DB) exec(ctx context.Context, q dbtx, query string, args ...any) (sql.Result, error) {
	return q.ExecContext(ctx, d.rebind(query), args...)
}

func (d *DB) query(ctx context.Context, q dbtx, query string, args ...any) (*sql.Rows, error) {
	return q.QueryContext(ctx, d.rebind(query), args...)
}

func (d *DB) queryRow(ctx context.Context, q dbtx, query string, args ...any) *sql.Row {
	return q.QueryRowContext(ctx, d.rebind(query), args...)
}

func isUniqueViolation(err error) bool {
	var pe *pq.Error
	if errors.As(err, &pe) {
		return pe.Code == "23505"
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// likePattern builds a case-insensitive substring pattern for
// LOWER(col) LIKE ? ESCAPE '\'.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}

func affected(res sql.Result, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func utc(t time.Time) time.Time { return t.UTC() }

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}
