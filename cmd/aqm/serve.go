package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/antigravity-tools/quota-monitor/internal/logger"
	"github.com/antigravity-tools/quota-monitor/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the quota HTTP API",
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

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return web.New(cfg.HTTPAddr, manager).Run(ctx)
	},
}
