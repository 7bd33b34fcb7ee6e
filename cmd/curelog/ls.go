package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/curelog/curelog/internal/config"
	"github.com/curelog/curelog/internal/store"
)

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List recorded evidence bundles",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.StorePath == "" {
			return fmt.Errorf("bundle index disabled (CURELOG_STORE_PATH is empty)")
		}
		s, err := store.Open(cfg.StorePath)
		if err != nil {
			return err
		}
		defer s.Close()

		bundles, err := s.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(bundles) == 0 {
			fmt.Println("no bundles recorded")
			return nil
		}

		fmt.Printf("%-36s  %-10s  %-13s  %-20s  %s\n", "ID", "INDUSTRY", "OUTCOME", "CREATED", "PATH")
		for _, b := range bundles {
			fmt.Printf("%-36s  %-10s  %-13s  %-20s  %s\n",
				b.ID, b.Industry, b.Outcome,
				b.CreatedAt.UTC().Format(time.RFC3339), b.Path)
		}
		return nil
	},
}
