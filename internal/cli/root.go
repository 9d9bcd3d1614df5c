// Package cli wires the checker's subcommands: check, scrape, balances,
// serve.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kofi-labs/staker-checker/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "stakercheck",
	Short: "Kofi staker checker",
	Long: `stakercheck queries the Aptos indexer for minting-manager events,
caches the fetched event sets per day, and checks whether addresses meet
the staking threshold by their cumulative minted amount.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI. Verdicts are reportable outcomes, never exit
// failures; a non-nil error here means configuration or I/O went wrong.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("endpoint", "", "GraphQL endpoint (default: Aptos mainnet indexer)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
}

func initConfig() {
	cfg = config.Load()

	if v, _ := rootCmd.PersistentFlags().GetString("endpoint"); v != "" {
		cfg.Endpoint = v
	}
	if v, _ := rootCmd.PersistentFlags().GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	setupLogging(cfg.LogLevel)

	if cfg.AuthToken == "" {
		slog.Warn("APTOS_AUTH_TOKEN not set; API requests may fail or be rate-limited")
	}
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
