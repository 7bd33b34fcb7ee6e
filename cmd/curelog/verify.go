package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/curelog/curelog"
)

var verifyBundle string

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify an evidence bundle end to end",
	Long: `Re-hash every bundle member, recompute the Merkle root, and replay the
full pipeline from the embedded raw input and specification. Prints one
line per discrepancy; exit 0 when the bundle is clean, 1 otherwise.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(verifyBundle)
		if err != nil {
			return fmt.Errorf("read bundle: %w", err)
		}
		report, err := curelog.Verify(data)
		if err != nil {
			return err
		}

		fmt.Printf("bundle: %s\n", report.BundleID)
		fmt.Printf("root:   %s\n", report.RootHash)
		if report.OK() {
			fmt.Println("status: verified")
			return nil
		}
		fmt.Println("status: MISMATCH")
		for _, m := range report.Mismatches {
			line := m.Kind
			if m.Path != "" {
				line += " " + m.Path
			}
			if m.Want != "" || m.Got != "" {
				line += fmt.Sprintf(" (want %s, got %s)", m.Want, m.Got)
			}
			fmt.Printf("  %s\n", line)
		}
		exitCode = 1
		return nil
	},
}

func init() {
	verifyCmd.Flags().StringVar(&verifyBundle, "bundle", "", "path to the evidence bundle archive (required)")
	verifyCmd.MarkFlagRequired("bundle")
}
