package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/antigravity-tools/quota-monitor/internal/quota"
)

var statusFlags struct {
	compact bool
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the current quota report as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		report, err := newQuotaService(cfg).Report()
		if err != nil {
			if errors.Is(err, quota.ErrNotFound) {
				return fmt.Errorf("language server not found, is Antigravity running?")
			}
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		if !statusFlags.compact {
			enc.SetIndent("", "  ")
		}
		return enc.Encode(report)
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusFlags.compact, "compact", false, "single-line JSON output")
}
