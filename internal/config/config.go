// Package config loads operational configuration from environment variables
// and defines the explicit pipeline policy struct threaded through every
// stage. Nothing in the decision path reads ambient state: PipelineConfig is
// passed by value so two jobs with the same inputs and the same config are
// indistinguishable.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// DuplicatePolicy selects how duplicate timestamps are resolved.
// The policy is always explicit in the call; it is never chosen per-dataset.
type DuplicatePolicy string

const (
	// DuplicateFail treats any duplicate timestamp as a fatal data-quality error.
	DuplicateFail DuplicatePolicy = "fail"
	// DuplicateFirstWins keeps the first sample for a timestamp and records a warning.
	DuplicateFirstWins DuplicatePolicy = "first_wins"
	// DuplicateMean averages all samples sharing a timestamp and records a warning.
	DuplicateMean DuplicatePolicy = "mean"
)

// DateOrder resolves ambiguous slash-date timestamps (both fields <= 12).
type DateOrder string

const (
	// DateOrderMDY reads 03/04/2026 as March 4 (US convention, the default).
	DateOrderMDY DateOrder = "mdy"
	// DateOrderDMY reads 03/04/2026 as 3 April.
	DateOrderDMY DateOrder = "dmy"
)

// PipelineConfig is the full set of policy knobs influencing a job. Every
// field that can change an outcome lives here so the Decision invariant
// (outcome is a pure function of series, spec, and this struct) holds.
type PipelineConfig struct {
	// SafetyMode runs the independent shadow calculator and promotes
	// borderline PASS results to INDETERMINATE.
	SafetyMode bool `json:"safety_mode"`

	// DuplicatePolicy resolves duplicate timestamps. Default: fail.
	DuplicatePolicy DuplicatePolicy `json:"duplicate_policy"`

	// DateOrder resolves ambiguous day/month slash dates. Default: mdy.
	DateOrder DateOrder `json:"date_order"`

	// DefaultTimezone is assumed (with a warning) when neither the data nor
	// the caller declares one. IANA name; default "UTC".
	DefaultTimezone string `json:"default_timezone"`

	// FailOnParserWarnings promotes timestamp-parser warnings to fatal
	// data-quality errors.
	FailOnParserWarnings bool `json:"fail_on_parser_warnings"`

	// StrictGaps makes gaps beyond the spec's allowed_gap_s fatal instead
	// of warnings.
	StrictGaps bool `json:"strict_gaps"`

	// MinSamples is the minimum number of distinct timestamps a dataset
	// must carry. Below it the job fails with a data-quality error.
	MinSamples int `json:"min_samples"`

	// MaxSamples and MaxInputBytes bound adversarially large inputs.
	// Exceeding either is a data-quality error, not a timeout (the core
	// has no internal timers; timeouts belong to the caller).
	MaxSamples    int   `json:"max_samples"`
	MaxInputBytes int64 `json:"max_input_bytes"`

	// DigestAlgorithm selects the per-file manifest digest: "sha256"
	// (default) or "blake2b-256".
	DigestAlgorithm string `json:"digest_algorithm"`
}

// DefaultPipelineConfig returns the conservative defaults: duplicates fatal,
// MDY dates, UTC fallback, safety mode off.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		SafetyMode:      false,
		DuplicatePolicy: DuplicateFail,
		DateOrder:       DateOrderMDY,
		DefaultTimezone: "UTC",
		MinSamples:      3,
		MaxSamples:      500_000,
		MaxInputBytes:   32 << 20,
		DigestAlgorithm: "sha256",
	}
}

// Validate checks that the policy values are members of their closed sets.
func (p PipelineConfig) Validate() error {
	switch p.DuplicatePolicy {
	case DuplicateFail, DuplicateFirstWins, DuplicateMean:
	default:
		return fmt.Errorf("config: unknown duplicate policy %q", p.DuplicatePolicy)
	}
	switch p.DateOrder {
	case DateOrderMDY, DateOrderDMY:
	default:
		return fmt.Errorf("config: unknown date order %q", p.DateOrder)
	}
	switch p.DigestAlgorithm {
	case "sha256", "blake2b-256":
	default:
		return fmt.Errorf("config: unknown digest algorithm %q", p.DigestAlgorithm)
	}
	if p.MinSamples < 2 {
		return fmt.Errorf("config: min samples must be at least 2, got %d", p.MinSamples)
	}
	if p.MaxSamples <= 0 || p.MaxInputBytes <= 0 {
		return fmt.Errorf("config: input size bounds must be positive")
	}
	return nil
}

// Config holds operational (non-decision) configuration for the CLI and
// embedding API: logging, telemetry, the bundle index location, and batch
// parallelism. Decision-affecting policy lives in PipelineConfig.
type Config struct {
	LogLevel     string
	StorePath    string // SQLite bundle index; empty disables the index.
	OTELEndpoint string
	OTELInsecure bool
	ServiceName  string

	BatchParallelism int
	ShutdownTimeout  time.Duration
}

// Load reads configuration from environment variables with defaults.
func Load() (Config, error) {
	cfg := Config{
		LogLevel:         envStr("CURELOG_LOG_LEVEL", "info"),
		StorePath:        envStr("CURELOG_STORE_PATH", "curelog.db"),
		OTELEndpoint:     envStr("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTELInsecure:     envBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		ServiceName:      envStr("OTEL_SERVICE_NAME", "curelog"),
		BatchParallelism: envInt("CURELOG_BATCH_PARALLELISM", 4),
		ShutdownTimeout:  envDuration("CURELOG_SHUTDOWN_TIMEOUT", 10*time.Second),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that required configuration is sane.
func (c Config) Validate() error {
	if c.BatchParallelism <= 0 {
		return fmt.Errorf("config: CURELOG_BATCH_PARALLELISM must be positive")
	}
	return nil
}

func envStr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func envBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
