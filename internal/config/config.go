// Package config loads mpreachdump configuration using koanf/v2.
//
// Supports YAML files and environment variables layered over defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/jwhited/mpreach"
)

// Config holds the complete mpreachdump configuration.
type Config struct {
	Log     LogConfig     `koanf:"log"`
	Metrics MetricsConfig `koanf:"metrics"`
	Decode  DecodeConfig  `koanf:"decode"`
}

// LogConfig holds the logging configuration.
type LogConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `koanf:"level"`
	// Format is the log output format: "json" or "text".
	Format string `koanf:"format"`
}

// MetricsConfig holds the Prometheus metrics endpoint configuration. An
// empty Addr disables the endpoint.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
	Path string `koanf:"path"`
}

// DecodeConfig controls how attributes are decoded.
type DecodeConfig struct {
	// Workers is the number of goroutines decoding MRT records.
	Workers int `koanf:"workers"`
	// AddPath lists the "afi/safi" pairs for which NLRI carry a path
	// identifier, e.g. "ipv4/unicast".
	AddPath []string `koanf:"add_path"`
	// ReencodeCheck re-encodes decoded NLRI and reports a mismatch with the
	// original bytes.
	ReencodeCheck bool `koanf:"reencode_check"`
}

// AddPathTable builds an AddPathTable from AddPath.
func (dc DecodeConfig) AddPathTable() (*mpreach.AddPathTable, error) {
	t := &mpreach.AddPathTable{}
	for _, s := range dc.AddPath {
		f, err := mpreach.ParseAFISAFI(s)
		if err != nil {
			return nil, fmt.Errorf("decode.add_path: %w", err)
		}
		t.Enable(f.AFI, f.SAFI)
	}
	return t, nil
}

// DefaultConfig returns a Config populated with defaults.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Path: "/metrics",
		},
		Decode: DecodeConfig{
			Workers: 4,
		},
	}
}

// envPrefix is the environment variable prefix for mpreachdump
// configuration. Variables are named MPREACH_<section>_<key>, e.g.
// MPREACH_DECODE_ADD_PATH.
const envPrefix = "MPREACH_"

// Load reads configuration from a YAML file at path, when path is not empty,
// overlays environment variable overrides (MPREACH_ prefix), and merges on
// top of DefaultConfig(). Missing fields inherit defaults.
//
// Environment variable mapping:
//
//	MPREACH_LOG_LEVEL             -> log.level
//	MPREACH_LOG_FORMAT            -> log.format
//	MPREACH_METRICS_ADDR          -> metrics.addr
//	MPREACH_METRICS_PATH          -> metrics.path
//	MPREACH_DECODE_WORKERS        -> decode.workers
//	MPREACH_DECODE_ADD_PATH       -> decode.add_path (comma separated)
//	MPREACH_DECODE_REENCODE_CHECK -> decode.reencode_check
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k, DefaultConfig()); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config from %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Decode.AddPath = splitList(cfg.Decode.AddPath)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// envKeyMapper transforms MPREACH_DECODE_ADD_PATH -> decode.add_path. Only
// the first underscore after the prefix separates section and key.
func envKeyMapper(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	section, key, ok := strings.Cut(s, "_")
	if !ok {
		return s
	}
	return section + "." + key
}

// splitList flattens comma separated entries, as produced by environment
// variables, and drops empty ones.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func loadDefaults(k *koanf.Koanf, defaults *Config) error {
	defaultMap := map[string]any{
		"log.level":             defaults.Log.Level,
		"log.format":            defaults.Log.Format,
		"metrics.addr":          defaults.Metrics.Addr,
		"metrics.path":          defaults.Metrics.Path,
		"decode.workers":        defaults.Decode.Workers,
		"decode.reencode_check": defaults.Decode.ReencodeCheck,
	}

	for key, val := range defaultMap {
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

// Validation errors.
var (
	// ErrInvalidWorkers indicates a non-positive worker count.
	ErrInvalidWorkers = errors.New("decode.workers must be >= 1")

	// ErrInvalidLogFormat indicates an unrecognized log format.
	ErrInvalidLogFormat = errors.New("log.format must be text or json")

	// ErrInvalidMetricsPath indicates a metrics path not starting with "/".
	ErrInvalidMetricsPath = errors.New("metrics.path must start with /")
)

// Validate checks the configuration for logical errors.
// Returns the first validation error encountered.
func Validate(cfg *Config) error {
	if cfg.Decode.Workers < 1 {
		return ErrInvalidWorkers
	}

	switch cfg.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, cfg.Log.Format)
	}

	if cfg.Metrics.Addr != "" && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return ErrInvalidMetricsPath
	}

	if _, err := cfg.Decode.AddPathTable(); err != nil {
		return err
	}

	return nil
}

// ParseLogLevel maps a configuration log level string to the corresponding
// slog.Level. Unknown values default to slog.LevelInfo.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
