package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	configFile string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "tiktok",
	Short: "Collect engagement metrics for every video on TikTok profiles",
	Long: `tiktok drives a real browser through TikTok profiles, opens every video
and records its views, likes, bookmarks and comments as CSV.

Settings are read from .tiktok-metrics.yaml or ~/.config/tiktok-metrics/config.yaml,
then .env and TIKTOK_* environment variables, then flags.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default .tiktok-metrics.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(newScrapeCmd(), newUserCmd())
}

func main() {
	// An interrupt cancels ctx; every wait unwinds and browsers are closed
	// before the process exits.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
