package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kofi-labs/staker-checker/internal/api"
	"github.com/kofi-labs/staker-checker/internal/api/handler"
	"github.com/kofi-labs/staker-checker/internal/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the checker as an HTTP API",
	Long: `Starts an HTTP server exposing the check pipeline. POST /api/check
runs a check for a list of addresses; GET /api/events/summary reports
the size of today's event set. Both require the API_TOKEN bearer token.`,
	Example: `  API_TOKEN=secret stakercheck serve --addr :8080`,
	RunE:    runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default: HTTP_ADDR or :8080)")
	serveCmd.Flags().String("event-type", config.DefaultEventType, "default event type for requests that omit one")
	serveCmd.Flags().Int64("threshold", config.DefaultThreshold, "default threshold for requests that omit one")
	serveCmd.Flags().Int("limit", config.DefaultLimit, "records per page (upstream max 100)")
	serveCmd.Flags().Duration("delay", config.DefaultDelay, "delay between page requests")
	serveCmd.Flags().String("cache-dir", config.DefaultCacheDir, "directory for cache files")
	serveCmd.Flags().String("cache-backend", "file", "cache backend: file or redis (needs REDIS_URL)")
	serveCmd.Flags().Bool("store-postgres", false, "mirror fetched event sets to Postgres (needs POSTGRES_URL)")
	serveCmd.Flags().Bool("publish", false, "publish verdicts to the Redis verdict stream (needs REDIS_URL)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer logger.Sync()

	runner, cleanup, err := buildRunner(ctx, cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = cfg.HTTPAddr
	}
	eventType, _ := cmd.Flags().GetString("event-type")
	threshold, _ := cmd.Flags().GetInt64("threshold")

	if cfg.APIToken == "" {
		logger.Warn("API_TOKEN not set; all protected endpoints will reject requests")
	}

	h := handler.NewHandler(runner, handler.Defaults{
		EventType: eventType,
		Threshold: threshold,
	}, logger, cfg.APIToken)

	server := api.NewServer(h, logger, addr)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(ctx)
	})
	return g.Wait()
}
