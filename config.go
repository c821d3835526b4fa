package dispatcher

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ygrebnov/errorc"
	"gopkg.in/yaml.v3"

	"github.com/Swind/go-dispatcher/core"
)

// EnvPrefix prefixes the environment variables read by LoadConfig.
const EnvPrefix = "DISPATCHER"

// Config holds the settings of a Dispatcher. The pool size is not part of
// it: the background pool always has DefaultPoolWorkers workers.
type Config struct {
	// ForegroundName names the foreground runner in logs and metrics.
	ForegroundName string `yaml:"foreground_name"`

	// PoolName prefixes the id of every background pool generation.
	PoolName string `yaml:"pool_name"`

	// LockOSThread pins the foreground loop to a single OS thread.
	LockOSThread bool `yaml:"lock_os_thread"`

	// DrainTimeout bounds how long a replaced or closed pool may take to
	// finish its queued tasks.
	DrainTimeout time.Duration `yaml:"drain_timeout"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// InterfacePrefix selects wired interfaces in the local address fallback.
	InterfacePrefix string `yaml:"interface_prefix"`

	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig configures the metrics exporters.
type MetricsConfig struct {
	Namespace string `yaml:"namespace"`
	Listen    string `yaml:"listen"`
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		ForegroundName:  "foreground",
		PoolName:        "background",
		DrainTimeout:    5 * time.Second,
		LogLevel:        "info",
		InterfacePrefix: "eth",
		Metrics: MetricsConfig{
			Namespace: "dispatcher",
		},
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig, then applies
// DISPATCHER_* environment overrides and validates the result.
// An empty path skips the file.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, fmt.Errorf("failed to apply env overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overrides fields from PREFIX_FIELD variables (e.g. DISPATCHER_LOG_LEVEL).
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + "_" + name)
		return v, ok && v != ""
	}

	if v, ok := get("FOREGROUND_NAME"); ok {
		c.ForegroundName = v
	}
	if v, ok := get("POOL_NAME"); ok {
		c.PoolName = v
	}
	if v, ok := get("LOCK_OS_THREAD"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errorc.With(ErrInvalidConfig, errorc.String("lock_os_thread", err.Error()))
		}
		c.LockOSThread = b
	}
	if v, ok := get("DRAIN_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errorc.With(ErrInvalidConfig, errorc.String("drain_timeout", err.Error()))
		}
		c.DrainTimeout = d
	}
	if v, ok := get("LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if v, ok := get("INTERFACE_PREFIX"); ok {
		c.InterfacePrefix = v
	}
	if v, ok := get("METRICS_NAMESPACE"); ok {
		c.Metrics.Namespace = v
	}
	if v, ok := get("METRICS_LISTEN"); ok {
		c.Metrics.Listen = v
	}
	return nil
}

// Validate checks the invariants of c.
func (c Config) Validate() error {
	if strings.TrimSpace(c.ForegroundName) == "" {
		return errorc.With(ErrInvalidConfig, errorc.String("foreground_name", "must not be empty"))
	}
	if strings.TrimSpace(c.PoolName) == "" {
		return errorc.With(ErrInvalidConfig, errorc.String("pool_name", "must not be empty"))
	}
	if c.DrainTimeout <= 0 {
		return errorc.With(ErrInvalidConfig, errorc.String("drain_timeout", "must be positive"))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return errorc.With(ErrInvalidConfig, errorc.String("log_level", err.Error()))
	}
	return nil
}

// Logger builds the slog-backed logger for c.LogLevel.
func (c Config) Logger() core.Logger {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return core.NewSlogLogger(slog.New(handler))
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown level %q", s)
	}
}
