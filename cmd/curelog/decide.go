package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/curelog/curelog"
)

var (
	decideCSV      string
	decideSpec     string
	decideIndustry string
)

var decideCmd = &cobra.Command{
	Use:   "decide",
	Short: "Verify one sensor log against a process specification",
	Long: `Run the full pipeline (normalize, validate, calculate, decide) on one
CSV sensor log and print the verdict with its reason codes and metrics.
No evidence bundle is written; use "curelog bundle" for that.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		verifier, err := newVerifier()
		if err != nil {
			return err
		}
		in, err := readInput(decideCSV, decideSpec, decideIndustry)
		if err != nil {
			return err
		}

		verdict, err := verifier.Decide(cmd.Context(), in)
		if err != nil {
			return err
		}
		printVerdict(verdict)
		exitCode = outcomeExitCode(verdict.Outcome)
		return nil
	},
}

func init() {
	decideCmd.Flags().StringVar(&decideCSV, "csv", "", "path to the CSV sensor log (required)")
	decideCmd.Flags().StringVar(&decideSpec, "spec", "", "path to the process specification JSON (required)")
	decideCmd.Flags().StringVar(&decideIndustry, "industry", "", "industry: powder, autoclave, haccp, coldchain, concrete, sterile (required)")
	decideCmd.MarkFlagRequired("csv")
	decideCmd.MarkFlagRequired("spec")
	decideCmd.MarkFlagRequired("industry")
}

// readInput loads the job files and attaches the persistent declarations.
func readInput(csvPath, specPath, industry string) (curelog.Input, error) {
	csvBytes, err := os.ReadFile(csvPath)
	if err != nil {
		return curelog.Input{}, fmt.Errorf("read csv: %w", err)
	}
	specBytes, err := os.ReadFile(specPath)
	if err != nil {
		return curelog.Input{}, fmt.Errorf("read spec: %w", err)
	}
	return curelog.Input{
		CSV:      csvBytes,
		Spec:     specBytes,
		Industry: industry,
		Timezone: flagTimezone,
		Unit:     flagUnit,
	}, nil
}

func printVerdict(v *curelog.Verdict) {
	fmt.Printf("outcome: %s\n", v.Outcome)
	for _, r := range v.Reasons {
		fmt.Printf("reason:  %s\n", r)
	}
	for _, w := range v.Warnings {
		fmt.Printf("warning: %s: %s\n", w.Code, w.Detail)
	}
	if len(v.MetricsJSON) > 0 {
		fmt.Println(string(v.MetricsJSON))
	}
}
