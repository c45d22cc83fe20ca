// Package audit records one row per service operation. Drivers live under
// internal/infra/audit and are reached only through Open.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gedtree/internal/audit/core"
	"gedtree/internal/infra/audit/memory"
	"gedtree/internal/infra/audit/postgres"
	"gedtree/internal/infra/audit/sqlite"
)

type (
	// Driver identifies an audit backend.
	Driver = core.Driver
	// Status is the outcome of an audited operation.
	Status = core.Status
	// Entry is one audited operation.
	Entry = core.Entry
	// Filter narrows Recent.
	Filter = core.Filter
	// Recorder persists entries.
	Recorder = core.Recorder
)

// Re-exported drivers and outcomes.
const (
	DriverNone     = core.DriverNone
	DriverMemory   = core.DriverMemory
	DriverSQLite   = core.DriverSQLite
	DriverPostgres = core.DriverPostgres

	StatusOK    = core.StatusOK
	StatusError = core.StatusError

	DefaultLimit = core.DefaultLimit
)

// DefaultSQLitePath is used when the sqlite driver has no DSN.
const DefaultSQLitePath = "gedtree-audit.db"

// Settings mirrors the audit section of the application config.
type Settings struct {
	Driver Driver
	DSN    string
}

// Open returns the Recorder for s. An empty driver means none.
func Open(ctx context.Context, s Settings) (Recorder, error) {
	switch s.Driver {
	case "", DriverNone:
		return Nop(), nil
	case DriverMemory:
		return memory.New(), nil
	case DriverSQLite:
		path := s.DSN
		if path == "" {
			path = DefaultSQLitePath
		}
		return sqlite.New(ctx, path)
	case DriverPostgres:
		return postgres.New(ctx, s.DSN)
	default:
		return nil, fmt.Errorf("unknown audit driver %q", s.Driver)
	}
}

// NewEntry starts an entry for op on subject with a fresh identifier.
func NewEntry(op, subject string, started time.Time) Entry {
	return Entry{ID: uuid.New(), Operation: op, Subject: subject, StartedAt: started.UTC()}
}

// Finish stamps the outcome of e.
func Finish(e Entry, err error, elapsed time.Duration) Entry {
	e.Duration = elapsed
	e.Status = StatusOK
	if err != nil {
		e.Status = StatusError
		e.Error = err.Error()
	}
	return e
}

type nopRecorder struct{}

// Nop returns a Recorder that discards everything.
func Nop() Recorder { return nopRecorder{} }

func (nopRecorder) Record(context.Context, Entry) error             { return nil }
func (nopRecorder) Recent(context.Context, Filter) ([]Entry, error) { return nil, nil }
func (nopRecorder) Close() error                                    { return nil }
