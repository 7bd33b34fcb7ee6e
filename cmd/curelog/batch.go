package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/curelog/curelog"
)

var (
	batchDir      string
	batchSpec     string
	batchIndustry string
	batchParallel int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Verify every CSV in a directory against one specification",
	Long: `Run the pipeline concurrently over every *.csv file in a directory.
Results print in filename order regardless of completion order. The exit
code is the worst outcome in the batch.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var extra []curelog.Option
		if batchParallel > 0 {
			extra = append(extra, curelog.WithParallelism(batchParallel))
		}
		verifier, err := newVerifier(extra...)
		if err != nil {
			return err
		}

		paths, err := filepath.Glob(filepath.Join(batchDir, "*.csv"))
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			return fmt.Errorf("no *.csv files in %s", batchDir)
		}
		sort.Strings(paths)

		specBytes, err := os.ReadFile(batchSpec)
		if err != nil {
			return fmt.Errorf("read spec: %w", err)
		}

		inputs := make([]curelog.Input, len(paths))
		for i, path := range paths {
			csvBytes, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			inputs[i] = curelog.Input{
				CSV:      csvBytes,
				Spec:     specBytes,
				Industry: batchIndustry,
				Timezone: flagTimezone,
				Unit:     flagUnit,
			}
		}

		verdicts, err := verifier.DecideBatch(cmd.Context(), inputs)
		if err != nil {
			return err
		}

		worst := 0
		for i, v := range verdicts {
			fmt.Printf("%-14s %s", v.Outcome, filepath.Base(paths[i]))
			if len(v.Reasons) > 0 {
				fmt.Printf("  [%s]", v.Reasons[0])
			}
			fmt.Println()
			if code := outcomeExitCode(v.Outcome); code > worst {
				worst = code
			}
		}
		exitCode = worst
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchDir, "dir", "", "directory of CSV sensor logs (required)")
	batchCmd.Flags().StringVar(&batchSpec, "spec", "", "path to the process specification JSON (required)")
	batchCmd.Flags().StringVar(&batchIndustry, "industry", "", "industry applied to every file (required)")
	batchCmd.Flags().IntVarP(&batchParallel, "parallelism", "j", 0, "max concurrent jobs (default: CPU count)")
	batchCmd.MarkFlagRequired("dir")
	batchCmd.MarkFlagRequired("spec")
	batchCmd.MarkFlagRequired("industry")
}
