// Command aqm monitors Antigravity model quotas via the local language server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/antigravity-tools/quota-monitor/internal/config"
	"github.com/antigravity-tools/quota-monitor/internal/langserver"
	"github.com/antigravity-tools/quota-monitor/internal/logger"
	"github.com/antigravity-tools/quota-monitor/internal/quota"
	"github.com/antigravity-tools/quota-monitor/internal/services"
	"github.com/antigravity-tools/quota-monitor/internal/version"
)

var rootFlags struct {
	configPath string
}

var rootCmd = &cobra.Command{
	Use:           "aqm",
	Short:         "aqm: quota monitor for the Antigravity language server",
	Version:       version.Info(),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlags.configPath, "config", "", "config file path (default: auto-discover)")
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(dashCmd)
	rootCmd.AddCommand(statusCmd)
}

// loadConfig loads configuration and applies the log level.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(rootFlags.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger.SetLevel(cfg.LogLevel)
	return cfg, nil
}

// newQuotaService wires the detect-probe-fetch pipeline.
func newQuotaService(cfg *config.Config) *quota.Service {
	return quota.New(langserver.NewManager(cfg.RequestTimeout))
}

// newServiceManager builds the full service stack for long-running commands.
func newServiceManager(cfg *config.Config) (*services.Manager, error) {
	return services.NewManager(cfg, newQuotaService(cfg))
}
