// Package config loads gedtree settings from an optional YAML file and
// GEDTREE_* environment overrides.
//
//	GEDTREE_BLOB_DRIVER: fs|s3|memory (default fs)
//	GEDTREE_BLOB_FS_ROOT: directory root when driver=fs (default ./gedcom)
//	GEDTREE_BLOB_S3_BUCKET, _REGION, _ENDPOINT, _PATH_STYLE, _ACCESS_KEY_ID, _SECRET_ACCESS_KEY
//	GEDTREE_AUDIT_DRIVER: none|memory|sqlite|postgres (default none)
//	GEDTREE_AUDIT_DSN: sqlite path or postgres DSN
//	GEDTREE_METRICS_DRIVER: expvar|prometheus|none (default expvar)
//	GEDTREE_TRACE_DRIVER: none|json|otel (default none)
//	GEDTREE_LOG_LEVEL: debug|info|warn|error (default info)
//	GEDTREE_LOG_FORMAT: text|json (default text)
//	GEDTREE_MAX_DEPTH: traversal bound (default 512)
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"gedtree/internal/audit"
	"gedtree/internal/blob"
	"gedtree/internal/tree"
)

// EnvPrefix namespaces every environment override.
const EnvPrefix = "GEDTREE_"

// Metrics drivers.
const (
	MetricsNone       = "none"
	MetricsExpvar     = "expvar"
	MetricsPrometheus = "prometheus"
)

// Trace drivers.
const (
	TraceNone = "none"
	TraceJSON = "json"
	TraceOTel = "otel"
)

// Config is the full application configuration.
type Config struct {
	Blob    BlobConfig    `yaml:"blob"`
	Audit   AuditConfig   `yaml:"audit"`
	Metrics MetricsConfig `yaml:"metrics"`
	Trace   TraceConfig   `yaml:"trace"`
	Log     LogConfig     `yaml:"log"`
	Query   QueryConfig   `yaml:"query"`
}

// BlobConfig selects where sources and charts are stored.
type BlobConfig struct {
	Driver string        `yaml:"driver"`
	FSRoot string        `yaml:"fs_root"`
	S3     blob.S3Config `yaml:"s3"`
}

// AuditConfig selects the audit trail backend.
type AuditConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// MetricsConfig selects the metrics recorder.
type MetricsConfig struct {
	Driver string `yaml:"driver"`
}

// TraceConfig selects the tracer.
type TraceConfig struct {
	Driver string `yaml:"driver"`
}

// LogConfig controls the CLI logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// QueryConfig bounds traversals.
type QueryConfig struct {
	MaxDepth int `yaml:"max_depth"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Blob:    BlobConfig{Driver: string(blob.DriverFilesystem), FSRoot: blob.DefaultFSRoot},
		Audit:   AuditConfig{Driver: string(audit.DriverNone)},
		Metrics: MetricsConfig{Driver: MetricsExpvar},
		Trace:   TraceConfig{Driver: TraceNone},
		Log:     LogConfig{Level: "info", Format: "text"},
		Query:   QueryConfig{MaxDepth: tree.DefaultMaxDepth},
	}
}

// Load reads path (skipped when empty), applies environment overrides from
// getenv and validates the result. A nil getenv uses os.Getenv.
func Load(path string, getenv func(string) string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := decode(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if getenv == nil {
		getenv = os.Getenv
	}
	if err := cfg.applyEnv(getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(raw []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(EnvPrefix + key)); v != "" {
			*dst = v
		}
	}
	str("BLOB_DRIVER", &c.Blob.Driver)
	str("BLOB_FS_ROOT", &c.Blob.FSRoot)
	str("BLOB_S3_BUCKET", &c.Blob.S3.Bucket)
	str("BLOB_S3_REGION", &c.Blob.S3.Region)
	str("BLOB_S3_ENDPOINT", &c.Blob.S3.Endpoint)
	str("BLOB_S3_ACCESS_KEY_ID", &c.Blob.S3.AccessKeyID)
	str("BLOB_S3_SECRET_ACCESS_KEY", &c.Blob.S3.SecretAccessKey)
	str("AUDIT_DRIVER", &c.Audit.Driver)
	str("AUDIT_DSN", &c.Audit.DSN)
	str("METRICS_DRIVER", &c.Metrics.Driver)
	str("TRACE_DRIVER", &c.Trace.Driver)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	if v := strings.TrimSpace(getenv(EnvPrefix + "BLOB_S3_PATH_STYLE")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sBLOB_S3_PATH_STYLE: %w", EnvPrefix, err)
		}
		c.Blob.S3.PathStyle = b
	}
	if v := strings.TrimSpace(getenv(EnvPrefix + "MAX_DEPTH")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sMAX_DEPTH: %w", EnvPrefix, err)
		}
		c.Query.MaxDepth = n
	}
	return nil
}

// Validate rejects unknown drivers, an S3 driver without a bucket and a
// non-positive traversal bound.
func (c Config) Validate() error {
	var errs []error
	oneOf := func(field, v string, allowed ...string) {
		for _, a := range allowed {
			if v == a {
				return
			}
		}
		errs = append(errs, fmt.Errorf("%s: unknown value %q (want one of %s)", field, v, strings.Join(allowed, ", ")))
	}
	oneOf("blob.driver", c.Blob.Driver, string(blob.DriverFilesystem), string(blob.DriverS3), string(blob.DriverMemory))
	oneOf("audit.driver", c.Audit.Driver, string(audit.DriverNone), string(audit.DriverMemory), string(audit.DriverSQLite), string(audit.DriverPostgres))
	oneOf("metrics.driver", c.Metrics.Driver, MetricsNone, MetricsExpvar, MetricsPrometheus)
	oneOf("trace.driver", c.Trace.Driver, TraceNone, TraceJSON, TraceOTel)
	oneOf("log.format", c.Log.Format, "text", "json")
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	if c.Blob.Driver == string(blob.DriverS3) && c.Blob.S3.Bucket == "" {
		errs = append(errs, errors.New("blob.s3.bucket: required for the s3 driver"))
	}
	if c.Query.MaxDepth <= 0 {
		errs = append(errs, fmt.Errorf("query.max_depth: must be positive, got %d", c.Query.MaxDepth))
	}
	return errors.Join(errs...)
}

// LogLevel parses Log.Level.
func (c Config) LogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return lvl, nil
}

// BlobSettings converts the blob section for blob.Open.
func (c Config) BlobSettings() blob.Settings {
	return blob.Settings{Driver: blob.Driver(c.Blob.Driver), FSRoot: c.Blob.FSRoot, S3: c.Blob.S3}
}

// AuditSettings converts the audit section for audit.Open.
func (c Config) AuditSettings() audit.Settings {
	return audit.Settings{Driver: audit.Driver(c.Audit.Driver), DSN: c.Audit.DSN}
}
