// Package memory keeps audit entries in process memory.
package memory

import (
	"context"
	"sort"
	"sync"

	"gedtree/internal/audit/core"
)

// Recorder implements core.Recorder on a slice.
type Recorder struct {
	mu      sync.Mutex
	entries []core.Entry
}

// New returns an empty recorder.
func New() *Recorder { return &Recorder{} }

// Record appends e.
func (r *Recorder) Record(ctx context.Context, e core.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	r.entries = append(r.entries, e)
	r.mu.Unlock()
	return nil
}

// Recent returns matching entries newest first.
func (r *Recorder) Recent(_ context.Context, f core.Filter) ([]core.Entry, error) {
	r.mu.Lock()
	out := make([]core.Entry, 0, len(r.entries))
	for i := len(r.entries) - 1; i >= 0; i-- {
		if f.Operation == "" || r.entries[i].Operation == f.Operation {
			out = append(out, r.entries[i])
		}
	}
	r.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit := f.EffectiveLimit(); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Close is a no-op.
func (r *Recorder) Close() error { return nil }
