package curelog

import (
	"log/slog"
	"time"
)

// Option configures a Verifier.
type Option func(*resolvedOptions)

// resolvedOptions holds all settings after applying defaults.
// Unexported — callers use the With* functions.
type resolvedOptions struct {
	logger               *slog.Logger
	safetyMode           bool
	duplicatePolicy      string
	dateOrder            string
	defaultTimezone      string
	failOnParserWarnings bool
	strictGaps           bool
	digestAlgorithm      string
	parallelism          int
	now                  func() time.Time
}

// WithLogger sets the structured logger. If not set, slog.Default is used.
func WithLogger(logger *slog.Logger) Option {
	return func(o *resolvedOptions) { o.logger = logger }
}

// WithSafetyMode enables the independent shadow calculators and borderline
// PASS promotion. Disagreement or a borderline margin yields INDETERMINATE.
func WithSafetyMode() Option {
	return func(o *resolvedOptions) { o.safetyMode = true }
}

// WithDuplicatePolicy sets how duplicate timestamps are resolved:
// "fail" (default), "first_wins", or "mean".
func WithDuplicatePolicy(policy string) Option {
	return func(o *resolvedOptions) { o.duplicatePolicy = policy }
}

// WithDateOrder sets the day/month order assumed for ambiguous slash dates:
// "mdy" (default) or "dmy". The file's own evidence always wins over this.
func WithDateOrder(order string) Option {
	return func(o *resolvedOptions) { o.dateOrder = order }
}

// WithDefaultTimezone sets the zone assumed for naive timestamps when the
// job declares none. The assumption is recorded as a warning either way.
func WithDefaultTimezone(tz string) Option {
	return func(o *resolvedOptions) { o.defaultTimezone = tz }
}

// WithFailOnParserWarnings turns unresolved parser ambiguities from
// warnings into fatal data-quality errors.
func WithFailOnParserWarnings() Option {
	return func(o *resolvedOptions) { o.failOnParserWarnings = true }
}

// WithStrictGaps turns excessive sampling gaps from warnings into fatal
// data-quality errors.
func WithStrictGaps() Option {
	return func(o *resolvedOptions) { o.strictGaps = true }
}

// WithDigestAlgorithm sets the per-file bundle digest: "sha256" (default)
// or "blake2b-256".
func WithDigestAlgorithm(alg string) Option {
	return func(o *resolvedOptions) { o.digestAlgorithm = alg }
}

// WithParallelism caps concurrent jobs in DecideBatch. Defaults to the
// number of CPUs.
func WithParallelism(n int) Option {
	return func(o *resolvedOptions) { o.parallelism = n }
}

// WithClock replaces the wall clock used for bundle timestamps. Bundles
// built with a fixed clock from identical inputs are byte-identical.
func WithClock(now func() time.Time) Option {
	return func(o *resolvedOptions) { o.now = now }
}
