package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"gedtree/internal/audit"
	"gedtree/internal/blob"
	"gedtree/internal/config"
	"gedtree/internal/core"
)

// app holds what every subcommand shares once the config is loaded.
type app struct {
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string

	configPath string
	logLevel   string

	cfg      config.Config
	logger   *slog.Logger
	svc      *core.Service
	recorder audit.Recorder
	expvar   *core.ExpvarMetricsRecorder
	registry *prometheus.Registry
	provider *sdktrace.TracerProvider
}

func (a *app) setup(ctx context.Context) error {
	cfg, err := config.Load(a.configPath, a.getenv)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	a.cfg = cfg
	a.logger = newLogger(a.stderr, cfg)

	store, err := blob.Open(ctx, cfg.BlobSettings())
	if err != nil {
		return fmt.Errorf("open blob store: %w", err)
	}
	a.recorder, err = audit.Open(ctx, cfg.AuditSettings())
	if err != nil {
		return fmt.Errorf("open audit trail: %w", err)
	}

	opts := []core.Option{
		core.WithLogger(a.logger),
		core.WithAuditRecorder(a.recorder),
		core.WithMaxDepth(cfg.Query.MaxDepth),
	}
	switch cfg.Metrics.Driver {
	case config.MetricsExpvar:
		a.expvar = core.NewExpvarMetricsRecorder("")
		opts = append(opts, core.WithMetricsRecorder(a.expvar))
	case config.MetricsPrometheus:
		a.registry = prometheus.NewRegistry()
		opts = append(opts, core.WithMetricsRecorder(core.NewPrometheusMetricsRecorder(a.registry)))
	}
	switch cfg.Trace.Driver {
	case config.TraceJSON:
		opts = append(opts, core.WithTracer(core.NewJSONTracer(a.stderr)))
	case config.TraceOTel:
		a.provider = core.NewLoggingTracerProvider(a.logger)
		opts = append(opts, core.WithTracer(core.NewOTelTracer(a.provider)))
	}
	a.svc = core.NewService(store, opts...)
	a.logger.Debug("configured",
		"blob", cfg.Blob.Driver,
		"audit", cfg.Audit.Driver,
		"metrics", cfg.Metrics.Driver,
		"trace", cfg.Trace.Driver,
		"max_depth", cfg.Query.MaxDepth,
	)
	return nil
}

func newLogger(w io.Writer, cfg config.Config) *slog.Logger {
	level, _ := cfg.LogLevel()
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// close flushes metrics to the log and releases backends. Safe to call when
// setup never ran.
func (a *app) close() error {
	if a.logger == nil {
		return nil
	}
	if a.expvar != nil {
		for op, t := range a.expvar.Totals() {
			a.logger.Debug("metrics", "operation", op, "calls", t.Calls, "errors", t.Errors, "total_ms", t.TotalMS)
		}
	}
	if a.registry != nil {
		families, err := a.registry.Gather()
		if err != nil {
			a.logger.Warn("gather metrics", "error", err)
		}
		for _, mf := range families {
			a.logger.Debug("metrics", "family", mf.GetName(), "series", len(mf.GetMetric()))
		}
	}
	var errs []error
	if a.provider != nil {
		errs = append(errs, a.provider.Shutdown(context.Background()))
	}
	if a.recorder != nil {
		errs = append(errs, a.recorder.Close())
	}
	return errors.Join(errs...)
}
