package main

import (
	"github.com/spf13/cobra"

	"NewsDigest/internal/app"
	"NewsDigest/internal/logging"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduler and the manual refresh endpoint",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Logging)

	application, err := app.New(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	logger.Info("newsdigest started", "hours", cfg.Scheduler.Hours, "timezone", cfg.Scheduler.Location().String())
	return application.Serve(cmd.Context())
}
