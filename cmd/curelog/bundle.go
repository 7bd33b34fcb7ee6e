package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/curelog/curelog"
	"github.com/curelog/curelog/internal/config"
	"github.com/curelog/curelog/internal/store"
)

var (
	bundleCSV      string
	bundleSpec     string
	bundleIndustry string
	bundleOut      string
)

var bundleCmd = &cobra.Command{
	Use:   "bundle",
	Short: "Verify one sensor log and write the evidence bundle",
	Long: `Run the full pipeline and, for any non-ERROR outcome, write the
tamper-evident evidence archive and record it in the local bundle index.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		verifier, err := newVerifier()
		if err != nil {
			return err
		}
		in, err := readInput(bundleCSV, bundleSpec, bundleIndustry)
		if err != nil {
			return err
		}

		verdict, archive, info, err := verifier.DecideBundle(cmd.Context(), in)
		if err != nil {
			return err
		}
		printVerdict(verdict)
		exitCode = outcomeExitCode(verdict.Outcome)
		if archive == nil {
			return nil // ERROR outcome: nothing to attest
		}

		out := bundleOut
		if out == "" {
			out = fmt.Sprintf("curelog-%s.zip", info.ID)
		}
		if err := os.WriteFile(out, archive, 0o644); err != nil {
			return fmt.Errorf("write bundle: %w", err)
		}
		fmt.Printf("bundle:  %s\n", out)
		fmt.Printf("root:    %s\n", info.RootHash)

		if err := recordBundle(cmd, info, bundleIndustry, string(verdict.Outcome), out); err != nil {
			// The archive on disk is the source of truth; a broken index is
			// worth a warning, not a failed run.
			slog.Warn("bundle index update failed", "error", err)
		}
		return nil
	},
}

func init() {
	bundleCmd.Flags().StringVar(&bundleCSV, "csv", "", "path to the CSV sensor log (required)")
	bundleCmd.Flags().StringVar(&bundleSpec, "spec", "", "path to the process specification JSON (required)")
	bundleCmd.Flags().StringVar(&bundleIndustry, "industry", "", "industry: powder, autoclave, haccp, coldchain, concrete, sterile (required)")
	bundleCmd.Flags().StringVar(&bundleOut, "out", "", "output archive path (default curelog-<id>.zip)")
	bundleCmd.MarkFlagRequired("csv")
	bundleCmd.MarkFlagRequired("spec")
	bundleCmd.MarkFlagRequired("industry")
}

func recordBundle(cmd *cobra.Command, info *curelog.BundleInfo, industry, outcome, path string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.StorePath == "" {
		return nil
	}
	s, err := store.Open(cfg.StorePath)
	if err != nil {
		return err
	}
	defer s.Close()

	return s.Record(cmd.Context(), store.Bundle{
		ID:        info.ID,
		Industry:  industry,
		Outcome:   outcome,
		RootHash:  info.RootHash,
		Path:      path,
		CreatedAt: info.CreatedAt,
	})
}
