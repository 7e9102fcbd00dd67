// Package main is the newsdigest command line: scheduled ingestion, manual
// runs and maintenance tasks.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"NewsDigest/internal/config"
)

var rootCmd = &cobra.Command{
	Use:           "newsdigest",
	Short:         "Multilingual AI news ingestion and digest mailer",
	Long:          "newsdigest pulls AI news from GNews, classifies and translates each item with an LLM, stores new articles and emails personalized digests.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads configuration; pipeline commands also validate it.
func loadConfig(validate bool) (config.Config, error) {
	cfg := config.Load()
	if validate {
		if err := cfg.Validate(); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}
