// Package sqlite stores audit entries in a single SQLite table.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // pure go sqlite driver

	"gedtree/internal/audit/core"
)

// timeLayout is fixed width so ORDER BY on the text column is chronological.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const schema = `CREATE TABLE IF NOT EXISTS audit_log (
	id          TEXT PRIMARY KEY,
	operation   TEXT NOT NULL,
	subject     TEXT NOT NULL,
	detail      TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL,
	error       TEXT NOT NULL DEFAULT '',
	started_at  TEXT NOT NULL,
	duration_ns INTEGER NOT NULL
)`

const indexDDL = `CREATE INDEX IF NOT EXISTS audit_log_started_at ON audit_log (started_at)`

// Recorder implements core.Recorder on SQLite.
type Recorder struct {
	db   *sql.DB
	path string
}

// New opens (or creates) the database at path and ensures the schema.
func New(ctx context.Context, path string) (*Recorder, error) {
	if path == "" {
		return nil, errors.New("sqlite audit: path required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent and serializes writers.
	db.SetMaxOpenConns(1)
	for _, stmt := range []string{schema, indexDDL} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create audit table: %w", err)
		}
	}
	return &Recorder{db: db, path: path}, nil
}

// Record inserts e.
func (r *Recorder) Record(ctx context.Context, e core.Entry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_log (id, operation, subject, detail, status, error, started_at, duration_ns) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID.String(), e.Operation, e.Subject, e.Detail, string(e.Status), e.Error,
		e.StartedAt.UTC().Format(timeLayout), int64(e.Duration),
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// Recent returns the newest entries first.
func (r *Recorder) Recent(ctx context.Context, f core.Filter) ([]core.Entry, error) {
	var (
		where strings.Builder
		args  []any
	)
	if f.Operation != "" {
		where.WriteString(" WHERE operation = ?")
		args = append(args, f.Operation)
	}
	args = append(args, f.EffectiveLimit())
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, operation, subject, detail, status, error, started_at, duration_ns FROM audit_log`+
			where.String()+` ORDER BY started_at DESC, rowid DESC LIMIT ?`, args...)
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
			started  string
			duration int64
		)
		if err := rows.Scan(&id, &e.Operation, &e.Subject, &e.Detail, &status, &e.Error, &started, &duration); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("audit entry id %q: %w", id, err)
		}
		if e.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("audit entry %s started_at: %w", id, err)
		}
		e.Status = core.Status(status)
		e.Duration = time.Duration(duration)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close releases the database handle.
func (r *Recorder) Close() error { return r.db.Close() }

// DB exposes the underlying sql.DB for tests.
func (r *Recorder) DB() *sql.DB { return r.db }

// Path returns the configured database path.
func (r *Recorder) Path() string { return r.path }
