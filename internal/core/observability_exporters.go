package core

import (
	"context"
	"encoding/json"
	"expvar"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

var expvarSeq uint64

// ExpvarMetricsRecorder publishes per-operation totals through expvar. Each
// operation gets a map holding calls, errors and cumulative milliseconds.
type ExpvarMetricsRecorder struct {
	name string
	ops  *expvar.Map
	mu   sync.Mutex
	seen map[string]*expvar.Map
}

// OperationTotals is the aggregate for one operation.
type OperationTotals struct {
	Calls   int64   `json:"calls"`
	Errors  int64   `json:"errors"`
	TotalMS float64 `json:"total_ms"`
}

// NewExpvarMetricsRecorder publishes a recorder under name, or under a
// generated unique name when name is empty. expvar names are process global,
// so publishing the same name twice panics.
func NewExpvarMetricsRecorder(name string) *ExpvarMetricsRecorder {
	if name == "" {
		name = fmt.Sprintf("gedtree_operations_%d", atomic.AddUint64(&expvarSeq, 1))
	}
	return &ExpvarMetricsRecorder{
		name: name,
		ops:  expvar.NewMap(name),
		seen: make(map[string]*expvar.Map),
	}
}

// Name returns the expvar export name.
func (r *ExpvarMetricsRecorder) Name() string { return r.name }

// Observe implements MetricsRecorder.
func (r *ExpvarMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	m := r.operation(operation)
	m.Add("calls", 1)
	if !success {
		m.Add("errors", 1)
	}
	m.AddFloat("total_ms", float64(duration)/float64(time.Millisecond))
}

func (r *ExpvarMetricsRecorder) operation(op string) *expvar.Map {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.seen[op]
	if !ok {
		m = new(expvar.Map).Init()
		r.seen[op] = m
		r.ops.Set(op, m)
	}
	return m
}

// Totals returns a copy of the aggregates keyed by operation.
func (r *ExpvarMetricsRecorder) Totals() map[string]OperationTotals {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]OperationTotals, len(r.seen))
	for op, m := range r.seen {
		var t OperationTotals
		if v, ok := m.Get("calls").(*expvar.Int); ok {
			t.Calls = v.Value()
		}
		if v, ok := m.Get("errors").(*expvar.Int); ok {
			t.Errors = v.Value()
		}
		if v, ok := m.Get("total_ms").(*expvar.Float); ok {
			t.TotalMS = v.Value()
		}
		out[op] = t
	}
	return out
}

// JSONTraceEntry is one finished span as written by JSONTraceTracer.
type JSONTraceEntry struct {
	Operation  string    `json:"operation"`
	Subject    string    `json:"subject,omitempty"`
	Status     string    `json:"status"`
	DurationMS float64   `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
}

// JSONTraceTracer writes finished spans as JSON lines and keeps them for
// inspection.
type JSONTraceTracer struct {
	mu      sync.Mutex
	entries []JSONTraceEntry
	enc     *json.Encoder
	now     func() time.Time
}

// NewJSONTracer returns a tracer writing to w. A nil writer only retains spans.
func NewJSONTracer(w io.Writer) *JSONTraceTracer {
	t := &JSONTraceTracer{now: func() time.Time { return time.Now().UTC() }}
	if w != nil {
		t.enc = json.NewEncoder(w)
	}
	return t
}

// Entries returns a copy of the finished spans.
func (t *JSONTraceTracer) Entries() []JSONTraceEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]JSONTraceEntry(nil), t.entries...)
}

// Start implements Tracer.
func (t *JSONTraceTracer) Start(ctx context.Context, operation, subject string) (context.Context, TraceSpan) {
	return ctx, &jsonTraceSpan{tracer: t, operation: operation, subject: subject, started: t.now()}
}

type jsonTraceSpan struct {
	tracer    *JSONTraceTracer
	operation string
	subject   string
	started   time.Time
	once      sync.Once
}

func (s *jsonTraceSpan) End(err error) {
	s.once.Do(func() {
		ended := s.tracer.now()
		entry := JSONTraceEntry{
			Operation:  s.operation,
			Subject:    s.subject,
			Status:     "ok",
			DurationMS: float64(ended.Sub(s.started)) / float64(time.Millisecond),
			StartedAt:  s.started,
			EndedAt:    ended,
		}
		if err != nil {
			entry.Status = "error"
			entry.Error = err.Error()
		}
		s.tracer.mu.Lock()
		s.tracer.entries = append(s.tracer.entries, entry)
		if s.tracer.enc != nil {
			_ = s.tracer.enc.Encode(entry)
		}
		s.tracer.mu.Unlock()
	})
}
