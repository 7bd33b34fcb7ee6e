// Command curelog verifies industrial process sensor logs against
// declarative process specifications and manages the resulting evidence
// bundles.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/curelog/curelog"
	"github.com/curelog/curelog/internal/config"
	"github.com/curelog/curelog/internal/telemetry"
)

// version is set at build time via -ldflags.
var version = "dev"

// exitCode is set by subcommands; main applies it after shutdown hooks run.
var exitCode int

var (
	flagSafety         bool
	flagDuplicates     string
	flagDateOrder      string
	flagTimezone       string
	flagUnit           string
	flagStrictGaps     bool
	flagFailOnWarnings bool
	flagDigest         string
)

var rootCmd = &cobra.Command{
	Use:   "curelog",
	Short: "Process compliance verdicts with tamper-evident evidence",
	Long: `curelog turns a raw sensor log (CSV) and a process specification (JSON)
into a PASS / FAIL / INDETERMINATE / ERROR verdict, and packages every
artifact of that decision into a Merkle-rooted evidence bundle that any
third party can re-verify offline.

Exit codes for decide/bundle/batch: 0 PASS, 1 FAIL, 2 INDETERMINATE,
3 ERROR. For verify: 0 clean, 1 mismatch.`,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&flagSafety, "safety", false, "enable safety mode (shadow calculators, borderline promotion)")
	pf.StringVar(&flagDuplicates, "duplicates", "", "duplicate timestamp policy: fail, first_wins, mean")
	pf.StringVar(&flagDateOrder, "date-order", "", "ambiguous slash-date order: mdy, dmy")
	pf.StringVar(&flagTimezone, "tz", "", "declared IANA timezone for naive timestamps")
	pf.StringVar(&flagUnit, "unit", "", "declared temperature unit for untagged columns: C, F")
	pf.BoolVar(&flagStrictGaps, "strict-gaps", false, "treat excessive sampling gaps as fatal")
	pf.BoolVar(&flagFailOnWarnings, "fail-on-warnings", false, "treat parser ambiguities as fatal")
	pf.StringVar(&flagDigest, "digest", "", "bundle digest algorithm: sha256, blake2b-256")

	rootCmd.AddCommand(decideCmd)
	rootCmd.AddCommand(bundleCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(versionCmd)
}

// newVerifier builds the public Verifier from the persistent flags plus any
// command-specific options.
func newVerifier(extra ...curelog.Option) (*curelog.Verifier, error) {
	var opts []curelog.Option
	if flagSafety {
		opts = append(opts, curelog.WithSafetyMode())
	}
	if flagDuplicates != "" {
		opts = append(opts, curelog.WithDuplicatePolicy(flagDuplicates))
	}
	if flagDateOrder != "" {
		opts = append(opts, curelog.WithDateOrder(flagDateOrder))
	}
	if flagStrictGaps {
		opts = append(opts, curelog.WithStrictGaps())
	}
	if flagFailOnWarnings {
		opts = append(opts, curelog.WithFailOnParserWarnings())
	}
	if flagDigest != "" {
		opts = append(opts, curelog.WithDigestAlgorithm(flagDigest))
	}
	opts = append(opts, curelog.WithLogger(slog.Default()))
	opts = append(opts, extra...)
	return curelog.New(opts...)
}

// outcomeExitCode maps a terminal outcome to the documented exit code.
func outcomeExitCode(o curelog.Outcome) int {
	switch o {
	case curelog.OutcomePass:
		return 0
	case curelog.OutcomeFail:
		return 1
	case curelog.OutcomeIndeterminate:
		return 2
	}
	return 3
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func main() {
	// .env is a development convenience; production environments set real
	// variables.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(3)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	})))

	ctx := context.Background()
	otelShutdown, err := telemetry.Init(ctx, cfg.OTELEndpoint, cfg.ServiceName, version, cfg.OTELInsecure)
	if err != nil {
		slog.Error("telemetry init failed", "error", err)
		os.Exit(3)
	}

	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		if exitCode == 0 {
			exitCode = 3
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer cancel()
	if err := otelShutdown(shutdownCtx); err != nil {
		slog.Warn("telemetry shutdown failed", "error", err)
	}
	os.Exit(exitCode)
}
