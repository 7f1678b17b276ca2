// Package config loads the settings that control *how* compositions are
// searched for, as opposed to *which* compositions are valid answers (that's
// queryfile.Query). This mirrors the split spec.md draws between its
// "Configuration" and "Inputs (Query)" sections.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kneasle/monument/internal/logger"
)

// FileLoggerConfig configures the rotating-file sink used when
// LoggerConfig.Mode == "file".
type FileLoggerConfig struct {
	Path       string `yaml:"path"`
	MaxSize    int    `yaml:"maxSize"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAge     int    `yaml:"maxAge"`
	Compress   bool   `yaml:"compress"`
}

// LoggerConfig configures the structured logger.
type LoggerConfig struct {
	Active   bool             `yaml:"active"`
	Level    string           `yaml:"level"`
	Encoding string           `yaml:"encoding"`
	Mode     string           `yaml:"mode"`
	File     FileLoggerConfig `yaml:"file"`
}

// TracingConfig configures the OpenTelemetry tracer.
type TracingConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"`
}

// TelemetryConfig groups tracing configuration.
type TelemetryConfig struct {
	Tracing TracingConfig `yaml:"tracing"`
}

// SuccSortStrategy is how reachable-music scores are combined across a
// node's successors when computing the successor-ordering pass (spec.md
// §4.3 pass 6).
type SuccSortStrategy string

const (
	SuccSortMax     SuccSortStrategy = "max"
	SuccSortAverage SuccSortStrategy = "average"
)

// DebugOutput controls early-exit diagnostics in the orchestrator (spec.md
// §6 "debug_output").
type DebugOutput string

const (
	DebugNone             DebugOutput = "none"
	DebugGraph            DebugOutput = "graph"
	DebugStopBeforeSearch DebugOutput = "stop_before_search"
)

// SearchConfig holds the parameters from spec.md §6 "Configuration" that
// change how compositions are found, but not which ones are valid.
type SearchConfig struct {
	NumThreads              int              `yaml:"numThreads"`
	QueueLimit              int              `yaml:"queueLimit"`
	OptimisationPasses      []string         `yaml:"optimisationPasses"`
	OptimisationIterLimit   int              `yaml:"optimisationIterLimit"`
	SuccessorLinkSortDepth  int              `yaml:"successorLinkSortDepth"`
	SuccessorLinkSortStrat  SuccSortStrategy `yaml:"successorLinkSortStrategy"`
	DebugOutput             DebugOutput      `yaml:"debugOutput"`
}

// Config is the top-level configuration file for the `compose` CLI.
type Config struct {
	Logger    LoggerConfig    `yaml:"logger"`
	Search    SearchConfig    `yaml:"search"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// LoadConfig reads and parses a YAML configuration file. It performs only
// syntactic parsing; call ValidateConfig afterwards to check structure.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnvOverrides overrides selected fields from environment variables.
//
// Supported overrides:
//
//	LOGGER_ACTIVE          -> cfg.Logger.Active
//	LOGGER_LEVEL           -> cfg.Logger.Level
//	LOGGER_ENCODING        -> cfg.Logger.Encoding
//	LOGGER_MODE            -> cfg.Logger.Mode
//	LOGGER_FILE_PATH       -> cfg.Logger.File.Path
//	SEARCH_NUM_THREADS     -> cfg.Search.NumThreads
//	SEARCH_QUEUE_LIMIT     -> cfg.Search.QueueLimit
//	TRACE_ENABLED          -> cfg.Telemetry.Tracing.Enabled
//	TRACE_EXPORTER         -> cfg.Telemetry.Tracing.Exporter
func (cfg *Config) ApplyEnvOverrides() {
	if v := os.Getenv("LOGGER_ACTIVE"); v != "" {
		cfg.Logger.Active = truthy(v)
	}
	if v := os.Getenv("LOGGER_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("LOGGER_ENCODING"); v != "" {
		cfg.Logger.Encoding = v
	}
	if v := os.Getenv("LOGGER_MODE"); v != "" {
		cfg.Logger.Mode = v
	}
	if v := os.Getenv("LOGGER_FILE_PATH"); v != "" {
		cfg.Logger.File.Path = v
	}
	if v := os.Getenv("SEARCH_NUM_THREADS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.NumThreads = n
		}
	}
	if v := os.Getenv("SEARCH_QUEUE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.QueueLimit = n
		}
	}
	if v := os.Getenv("TRACE_ENABLED"); v != "" {
		cfg.Telemetry.Tracing.Enabled = truthy(v)
	}
	if v := os.Getenv("TRACE_EXPORTER"); v != "" {
		cfg.Telemetry.Tracing.Exporter = v
	}
}

func truthy(v string) bool {
	v = strings.ToLower(v)
	return v == "true" || v == "1" || v == "yes"
}

// ValidateConfig performs structural validation, accumulating every problem
// found into a single error.
func (cfg *Config) ValidateConfig() error {
	var errs []string

	switch cfg.Logger.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("invalid logger.level: %s", cfg.Logger.Level))
	}
	switch cfg.Logger.Encoding {
	case "console", "json":
	default:
		errs = append(errs, fmt.Sprintf("invalid logger.encoding: %s", cfg.Logger.Encoding))
	}
	switch cfg.Logger.Mode {
	case "stdout":
	case "file":
		if cfg.Logger.File.Path == "" {
			errs = append(errs, "logger.file.path is required when mode=file")
		}
	default:
		errs = append(errs, fmt.Sprintf("invalid logger.mode: %s", cfg.Logger.Mode))
	}

	if cfg.Search.NumThreads < 0 {
		errs = append(errs, "search.numThreads must be >= 0 (0 means logical CPU count)")
	}
	if cfg.Search.QueueLimit <= 0 {
		errs = append(errs, "search.queueLimit must be > 0")
	}
	if cfg.Search.SuccessorLinkSortDepth < 0 {
		errs = append(errs, "search.successorLinkSortDepth must be >= 0")
	}
	switch cfg.Search.SuccessorLinkSortStrat {
	case SuccSortMax, SuccSortAverage, "":
	default:
		errs = append(errs, fmt.Sprintf("invalid search.successorLinkSortStrategy: %s", cfg.Search.SuccessorLinkSortStrat))
	}
	switch cfg.Search.DebugOutput {
	case DebugNone, DebugGraph, DebugStopBeforeSearch, "":
	default:
		errs = append(errs, fmt.Sprintf("invalid search.debugOutput: %s", cfg.Search.DebugOutput))
	}

	if cfg.Telemetry.Tracing.Enabled {
		switch cfg.Telemetry.Tracing.Exporter {
		case "stdout":
		default:
			errs = append(errs, fmt.Sprintf("invalid telemetry.tracing.exporter: %s (only stdout is supported)", cfg.Telemetry.Tracing.Exporter))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// LogConfig prints the loaded configuration at DEBUG level, useful when
// diagnosing startup issues.
func (cfg *Config) LogConfig(lgr logger.Logger) {
	lgr.Debug("loaded configuration",
		logger.F("logger.active", cfg.Logger.Active),
		logger.F("logger.level", cfg.Logger.Level),
		logger.F("logger.encoding", cfg.Logger.Encoding),
		logger.F("logger.mode", cfg.Logger.Mode),
		logger.F("search.numThreads", cfg.Search.NumThreads),
		logger.F("search.queueLimit", cfg.Search.QueueLimit),
		logger.F("search.optimisationPasses", cfg.Search.OptimisationPasses),
		logger.F("search.successorLinkSortDepth", cfg.Search.SuccessorLinkSortDepth),
		logger.F("search.successorLinkSortStrategy", cfg.Search.SuccessorLinkSortStrat),
		logger.F("search.debugOutput", cfg.Search.DebugOutput),
		logger.F("telemetry.tracing.enabled", cfg.Telemetry.Tracing.Enabled),
		logger.F("telemetry.tracing.exporter", cfg.Telemetry.Tracing.Exporter),
	)
}
