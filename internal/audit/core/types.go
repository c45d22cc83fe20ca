// Package core defines the audit record and the Recorder contract that every
// audit driver implements.
package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Driver identifies an audit backend.
type Driver string

// Supported drivers.
const (
	DriverNone     Driver = "none"
	DriverMemory   Driver = "memory"
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Status is the outcome of an audited operation.
type Status string

// Operation outcomes.
const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// Entry is one audited service operation.
type Entry struct {
	ID        uuid.UUID     `json:"id"`
	Operation string        `json:"operation"`
	Subject   string        `json:"subject"`
	Detail    string        `json:"detail,omitempty"`
	Status    Status        `json:"status"`
	Error     string        `json:"error,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// Filter narrows Recent. A zero Limit means DefaultLimit.
type Filter struct {
	Operation string
	Limit     int
}

// DefaultLimit caps Recent when Filter.Limit is unset.
const DefaultLimit = 100

// EffectiveLimit resolves the row cap for f.
func (f Filter) EffectiveLimit() int {
	if f.Limit <= 0 {
		return DefaultLimit
	}
	return f.Limit
}

// Recorder persists audit entries. Implementations must be safe for
// concurrent use.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
	// Recent returns the newest entries first.
	Recent(ctx context.Context, f Filter) ([]Entry, error)
	Close() error
}
