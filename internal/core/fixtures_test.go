package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"gedtree/internal/audit"
	"gedtree/internal/blob"
	"gedtree/internal/tree"
)

const sampleGEDCOM = `0 HEAD
1 SOUR test
0 @I1@ INDI
1 NAME Joseph Patrick /Kennedy/
1 SEX M
1 BIRT
2 DATE 6 SEP 1888
2 PLAC Boston
1 FAMS @F1@
0 @I2@ INDI
1 NAME Rose /Fitzgerald/
1 FAMS @F1@
0 @I3@ INDI
1 NAME John Fitzgerald /Kennedy/
1 FAMC @F1@
1 FAMS @F2@
0 @I4@ INDI
1 NAME Jacqueline Lee /Bouvier/
1 FAMS @F2@
0 @I5@ INDI
1 NAME Caroline /Kennedy/
1 FAMC @F2@
0 @I6@ INDI
1 NAME Robert Francis /Kennedy/
1 FAMC @F1@
1 FAMS @F3@
0 @I7@ INDI
1 NAME Ethel /Skakel/
1 FAMS @F3@
0 @I8@ INDI
1 NAME Kathleen /Kennedy/
1 FAMC @F3@
0 @F1@ FAM
1 HUSB @I1@
1 WIFE @I2@
1 MARR
2 DATE 7 OCT 1914
2 PLAC Boston
1 CHIL @I3@
1 CHIL @I6@
0 @F2@ FAM
1 HUSB @I3@
1 WIFE @I4@
1 CHIL @I5@
0 @F3@ FAM
1 HUSB @I6@
1 WIFE @I7@
1 CHIL @I8@
0 TRLR
`

type captureMetrics struct {
	mu    sync.Mutex
	calls []metricsCall
}

type metricsCall struct {
	op      string
	success bool
}

func (c *captureMetrics) Observe(_ context.Context, op string, success bool, _ time.Duration) {
	c.mu.Lock()
	c.calls = append(c.calls, metricsCall{op: op, success: success})
	c.mu.Unlock()
}

func (c *captureMetrics) has(op string, success bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, call := range c.calls {
		if call.op == op && call.success == success {
			return true
		}
	}
	return false
}

type captureLogger struct {
	mu      sync.Mutex
	entries []string
}

func (l *captureLogger) log(level, msg string) {
	l.mu.Lock()
	l.entries = append(l.entries, level+" "+msg)
	l.mu.Unlock()
}

func (l *captureLogger) Debug(msg string, _ ...any) { l.log("DEBUG", msg) }
func (l *captureLogger) Info(msg string, _ ...any)  { l.log("INFO", msg) }
func (l *captureLogger) Warn(msg string, _ ...any)  { l.log("WARN", msg) }
func (l *captureLogger) Error(msg string, _ ...any) { l.log("ERROR", msg) }

func (l *captureLogger) has(entry string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e == entry {
			return true
		}
	}
	return false
}

// stepClock advances one millisecond per reading.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

type harness struct {
	svc     *Service
	store   blob.Store
	audit   audit.Recorder
	metrics *captureMetrics
	tracer  *JSONTraceTracer
	logger  *captureLogger
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	rec, err := audit.Open(context.Background(), audit.Settings{Driver: audit.DriverMemory})
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	h := &harness{
		store:   blob.NewMemory(),
		audit:   rec,
		metrics: &captureMetrics{},
		tracer:  NewJSONTracer(nil),
		logger:  &captureLogger{},
	}
	clock := &stepClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	base := []Option{
		WithAuditRecorder(rec),
		WithMetricsRecorder(h.metrics),
		WithTracer(h.tracer),
		WithLogger(h.logger),
		WithClock(clock.Now),
	}
	h.svc = NewService(h.store, append(base, opts...)...)
	return h
}

func (h *harness) loadSample(t *testing.T) *tree.Tree {
	t.Helper()
	tr, err := h.svc.LoadReader(context.Background(), "sample", stringsReader(sampleGEDCOM))
	if err != nil {
		t.Fatalf("load sample: %v", err)
	}
	return tr
}

func (h *harness) auditOps(t *testing.T, status audit.Status) []string {
	t.Helper()
	entries, err := h.audit.Recent(context.Background(), audit.Filter{})
	if err != nil {
		t.Fatalf("audit recent: %v", err)
	}
	var ops []string
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Status == status {
			ops = append(ops, entries[i].Operation)
		}
	}
	return ops
}
