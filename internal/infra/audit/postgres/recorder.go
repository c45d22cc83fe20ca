// Package postgres stores audit entries in Postgres through the pgx
// database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"gedtree/internal/audit/core"
)

var _ core.Recorder = (*Recorder)(nil)

const (
	defaultDriver = "pgx"
	// DefaultDSN is used when no DSN is configured.
	DefaultDSN = "postgres://localhost/gedtree?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

const ddl = `CREATE TABLE IF NOT EXISTS audit_log (
	id UUID PRIMARY KEY,
	operation TEXT NOT NULL,
	subject TEXT NOT NULL,
	detail TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	error TEXT NOT NULL DEFAULT '',
	started_at TIMESTAMPTZ NOT NULL,
	duration_ns BIGINT NOT NULL
)`

// Recorder implements core.Recorder on Postgres.
type Recorder struct {
	db *sql.DB
}

// New connects to dsn (DefaultDSN when empty), pings, and ensures the table.
func New(ctx context.Context, dsn string) (*Recorder, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure audit table: %w", err)
	}
	return &Recorder{db: db}, nil
}

// Record inserts e.
func (r *Recorder) Record(ctx context.Context, e core.Entry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_log (id, operation, subject, detail, status, error, started_at, duration_ns) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID.String(), e.Operation, e.Subject, e.Detail, string(e.Status), e.Error, e.StartedAt.UTC(), int64(e.Duration),
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// Recent returns the newest entries first.
func (r *Recorder) Recent(ctx context.Context, f core.Filter) ([]core.Entry, error) {
	query := `SELECT id, operation, subject, detail, status, error, started_at, duration_ns FROM audit_log`
	var args []any
	if f.Operation != "" {
		args = append(args, f.Operation)
		query += ` WHERE operation = $1`
	}
	args = append(args, f.EffectiveLimit())
	query += ` ORDER BY started_at DESC LIMIT $` + strconv.Itoa(len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select audit entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []core.Entry
	for rows.Next() {
		var (
			e        core.Entry
			id       string
			status   string
			duration int64
		)
		if err := rows.Scan(&id, &e.Operation, &e.Subject, &e.Detail, &status, &e.Error, &e.StartedAt, &duration); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("audit entry id %q: %w", id, err)
		}
		e.Status = core.Status(status)
		e.Duration = time.Duration(duration)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close releases the pool.
func (r *Recorder) Close() error { return r.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (r *Recorder) DB() *sql.DB { return r.db }

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
