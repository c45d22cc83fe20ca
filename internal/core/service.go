// Package core wires the parser and query engine to storage, audit and
// observability. Every exported operation is timed, traced, counted, logged
// and audited the same way.
package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"gedtree/internal/audit"
	"gedtree/internal/blob"
	"gedtree/internal/gedcom"
	"gedtree/internal/tree"
	"gedtree/pkg/domain"
)

// Operation names used for metrics, spans and audit rows.
const (
	OpImport      = "import"
	OpRemove      = "remove"
	OpLoad        = "load"
	OpDescendants = "descendants"
	OpAncestors   = "ancestors"
	OpCousins     = "cousins"
	OpRelated     = "related"
	OpCheck       = "check"
	OpDump        = "dump"
	OpPublish     = "publish"
	OpBatch       = "batch"
)

// ErrNoTree is returned by queries handed a nil tree.
var ErrNoTree = errors.New("core: no tree loaded")

// Service runs loads and queries against a blob store.
type Service struct {
	store      blob.Store
	logger     Logger
	metrics    MetricsRecorder
	tracer     Tracer
	audit      audit.Recorder
	maxDepth   int
	batchLimit int
	now        func() time.Time
	runID      func() string
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger; nil keeps the no-op logger.
func WithLogger(l Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetricsRecorder sets the metrics sink.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithTracer sets the tracer.
func WithTracer(t Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithAuditRecorder sets where audit entries go.
func WithAuditRecorder(r audit.Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.audit = r
		}
	}
}

// WithMaxDepth bounds every traversal. Non-positive values are ignored.
func WithMaxDepth(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxDepth = n
		}
	}
}

// WithBatchLimit caps concurrent queries in RunBatch. Non-positive means
// unlimited.
func WithBatchLimit(n int) Option {
	return func(s *Service) { s.batchLimit = n }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRunID overrides the generator of chart run identifiers.
func WithRunID(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.runID = fn
		}
	}
}

// NewService returns a Service over store. A nil store falls back to memory.
func NewService(store blob.Store, opts ...Option) *Service {
	if store == nil {
		store = blob.NewMemory()
	}
	s := &Service{
		store:      store,
		logger:     noopLogger{},
		metrics:    noopMetrics{},
		tracer:     noopTracer{},
		audit:      audit.Nop(),
		maxDepth:   tree.DefaultMaxDepth,
		batchLimit: 8,
		now:        time.Now,
		runID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying blob store.
func (s *Service) Store() blob.Store { return s.store }

// Audit returns the configured audit recorder.
func (s *Service) Audit() audit.Recorder { return s.audit }

func (s *Service) queryOpts() []tree.Option {
	return []tree.Option{tree.MaxDepth(s.maxDepth)}
}

// observe runs fn inside a span, then records metrics, an audit entry and a
// log line. fn returns a short detail string kept on the audit entry.
func (s *Service) observe(ctx context.Context, op, subject string, fn func(context.Context) (string, error)) error {
	started := s.now()
	ctx, span := s.tracer.Start(ctx, op, subject)
	detail, err := fn(ctx)
	elapsed := s.now().Sub(started)
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, elapsed)

	entry := audit.Finish(audit.NewEntry(op, subject, started), err, elapsed)
	entry.Detail = detail
	if aerr := s.audit.Record(context.WithoutCancel(ctx), entry); aerr != nil {
		s.logger.Warn("audit record failed", "operation", op, "error", aerr)
	}

	if err != nil {
		s.logger.Error("operation failed", "operation", op, "subject", subject, "duration", elapsed, "error", err)
		return err
	}
	s.logger.Debug("operation complete", "operation", op, "subject", subject, "duration", elapsed, "detail", detail)
	return nil
}

func treeDetail(t *tree.Tree) string {
	return fmt.Sprintf("persons=%d families=%d", t.NumPersons(), t.NumFamilies())
}

// Import validates a GEDCOM source and stores it under its source key. A
// source that fails to parse is never stored.
func (s *Service) Import(ctx context.Context, name string, r io.Reader) (blob.Info, error) {
	var info blob.Info
	key, err := blob.SourceKey(name)
	if err != nil {
		return info, err
	}
	err = s.observe(ctx, OpImport, key, func(ctx context.Context) (string, error) {
		raw, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("read source: %w", err)
		}
		t, err := gedcom.Parse(bytes.NewReader(raw))
		if err != nil {
			return "", err
		}
		info, err = s.store.Put(ctx, key, bytes.NewReader(raw), blob.PutOptions{
			ContentType: blob.ContentTypeGEDCOM,
			Metadata: map[string]string{
				"persons":  fmt.Sprint(t.NumPersons()),
				"families": fmt.Sprint(t.NumFamilies()),
			},
		})
		if err != nil {
			return "", fmt.Errorf("store source: %w", err)
		}
		return treeDetail(t), nil
	})
	return info, err
}

// RemoveSource deletes a stored source. A source that is not stored fails
// with blob.ErrNotFound.
func (s *Service) RemoveSource(ctx context.Context, name string) error {
	key, err := blob.SourceKey(name)
	if err != nil {
		return err
	}
	return s.observe(ctx, OpRemove, key, func(ctx context.Context) (string, error) {
		removed, err := s.store.Delete(ctx, key)
		if err != nil {
			return "", fmt.Errorf("delete source: %w", err)
		}
		if !removed {
			return "", fmt.Errorf("source %s: %w", key, blob.ErrNotFound)
		}
		return "", nil
	})
}

// Load parses the stored source name (bare name or full key).
func (s *Service) Load(ctx context.Context, name string) (*tree.Tree, error) {
	key, err := blob.SourceKey(name)
	if err != nil {
		return nil, err
	}
	var t *tree.Tree
	err = s.observe(ctx, OpLoad, key, func(ctx context.Context) (string, error) {
		_, rc, err := s.store.Get(ctx, key)
		if err != nil {
			return "", err
		}
		defer func() { _ = rc.Close() }()
		t, err = gedcom.Parse(rc)
		if err != nil {
			return "", fmt.Errorf("parse %s: %w", key, err)
		}
		return treeDetail(t), nil
	})
	return t, err
}

// LoadReader parses r directly. name only labels the operation.
func (s *Service) LoadReader(ctx context.Context, name string, r io.Reader) (*tree.Tree, error) {
	var t *tree.Tree
	err := s.observe(ctx, OpLoad, name, func(context.Context) (string, error) {
		var err error
		t, err = gedcom.Parse(r)
		if err != nil {
			return "", err
		}
		return treeDetail(t), nil
	})
	return t, err
}

// Descendants writes the descendant chart of id to sink.
func (s *Service) Descendants(ctx context.Context, t *tree.Tree, id domain.PersonID, sink tree.Sink) error {
	return s.Run(ctx, t, Query{Kind: QueryDescendants, Subject: id}, sink)
}

// Ancestors writes the ancestor chart of id to sink.
func (s *Service) Ancestors(ctx context.Context, t *tree.Tree, id domain.PersonID, sink tree.Sink) error {
	return s.Run(ctx, t, Query{Kind: QueryAncestors, Subject: id}, sink)
}

// Cousins writes the nth-cousin list of id to sink.
func (s *Service) Cousins(ctx context.Context, t *tree.Tree, id domain.PersonID, n int, sink tree.Sink) error {
	return s.Run(ctx, t, Query{Kind: QueryCousins, Subject: id, Degree: n}, sink)
}

// Run executes a single chart query.
func (s *Service) Run(ctx context.Context, t *tree.Tree, q Query, sink tree.Sink) error {
	if t == nil {
		return ErrNoTree
	}
	op, err := q.Kind.operation()
	if err != nil {
		return err
	}
	return s.observe(ctx, op, string(q.Subject), func(ctx context.Context) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		counted := &countingSink{next: sink}
		var err error
		switch q.Kind {
		case QueryDescendants:
			err = tree.Descendants(t, q.Subject, counted, s.queryOpts()...)
		case QueryAncestors:
			err = tree.Ancestors(t, q.Subject, counted, s.queryOpts()...)
		case QueryCousins:
			err = tree.Cousins(t, q.Subject, q.Degree, counted, s.queryOpts()...)
		}
		return fmt.Sprintf("lines=%d", counted.n), err
	})
}

// Related reports whether candidate descends from ancestor.
func (s *Service) Related(ctx context.Context, t *tree.Tree, ancestor, candidate domain.PersonID) (bool, error) {
	if t == nil {
		return false, ErrNoTree
	}
	var related bool
	err := s.observe(ctx, OpRelated, string(ancestor)+">"+string(candidate), func(ctx context.Context) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		var err error
		related, err = tree.IsDescendant(t, ancestor, candidate, s.queryOpts()...)
		return fmt.Sprintf("related=%t", related), err
	})
	return related, err
}

// Check runs the integrity rules over t. Findings are returned, not treated
// as an operation failure.
func (s *Service) Check(ctx context.Context, t *tree.Tree) ([]domain.Violation, error) {
	if t == nil {
		return nil, ErrNoTree
	}
	var violations []domain.Violation
	err := s.observe(ctx, OpCheck, "", func(ctx context.Context) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		violations = tree.CheckIntegrity(t)
		blocking := 0
		for _, v := range violations {
			if v.Severity == domain.SeverityBlock {
				blocking++
			}
		}
		return fmt.Sprintf("violations=%d blocking=%d", len(violations), blocking), nil
	})
	return violations, err
}

// Dump writes the diagnostic listing of t.
func (s *Service) Dump(ctx context.Context, t *tree.Tree, sink tree.Sink) error {
	if t == nil {
		return ErrNoTree
	}
	return s.observe(ctx, OpDump, "", func(ctx context.Context) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return "", tree.Dump(t, sink)
	})
}

// Publish stores rendered chart lines under a fresh chart key. When the
// driver can sign URLs, Info.URL holds a GET link to the chart.
func (s *Service) Publish(ctx context.Context, q Query, lines []string) (blob.Info, error) {
	var info blob.Info
	key := blob.ChartKey(string(q.Kind), string(q.Subject), s.runID())
	err := s.observe(ctx, OpPublish, key, func(ctx context.Context) (string, error) {
		var body strings.Builder
		for _, l := range lines {
			body.WriteString(l)
			body.WriteByte('\n')
		}
		var err error
		info, err = s.store.Put(ctx, key, strings.NewReader(body.String()), blob.PutOptions{
			ContentType: blob.ContentTypeChart,
			Metadata:    map[string]string{"query": q.String()},
		})
		if err != nil {
			return "", fmt.Errorf("store chart: %w", err)
		}
		url, err := s.store.PresignURL(ctx, key, blob.SignedURLOptions{Method: "GET"})
		switch {
		case err == nil:
			info.URL = url
		case !errors.Is(err, blob.ErrUnsupported):
			s.logger.Warn("chart url unavailable", "key", key, "error", err)
		}
		return fmt.Sprintf("bytes=%d", info.Size), nil
	})
	return info, err
}

type countingSink struct {
	next tree.Sink
	n    int
}

func (c *countingSink) WriteLine(line string) error {
	if err := c.next.WriteLine(line); err != nil {
		return err
	}
	c.n++
	return nil
}
