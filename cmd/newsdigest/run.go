package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"NewsDigest/internal/app"
	"NewsDigest/internal/domain"
	"NewsDigest/internal/logging"
)

var runTrigger string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline once",
	Long:  "Fetches, enriches and stores one batch. With --trigger scheduler the digest is emailed when new articles were stored.",
	RunE:  runOnce,
}

func init() {
	runCmd.Flags().StringVar(&runTrigger, "trigger", string(domain.TriggerManual), "Run trigger: manual or scheduler")
	rootCmd.AddCommand(runCmd)
}

func runOnce(cmd *cobra.Command, _ []string) error {
	trigger, ok := domain.ParseTrigger(runTrigger)
	if !ok {
		return fmt.Errorf("unknown trigger %q", runTrigger)
	}

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

	result, err := application.RunOnce(cmd.Context(), trigger)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "batch %s: %d new article(s)\n", result.BatchID, result.ArticlesAdded)
	return nil
}
