package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/antigravity-tools/quota-monitor/internal/logger"
	"github.com/antigravity-tools/quota-monitor/internal/ui/dashboard"
)

var dashCmd = &cobra.Command{
	Use:   "dash",
	Short: "Open the terminal dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		defer logger.Sync()

		manager, err := newServiceManager(cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := manager.Close(); err != nil {
				logger.Error("failed to close service manager", "error", err)
			}
		}()

		p := tea.NewProgram(dashboard.New(manager), tea.WithAltScreen())
		_, err = p.Run()
		return err
	},
}
