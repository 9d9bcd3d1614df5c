package cli

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/kofi-labs/staker-checker/internal/cache"
	"github.com/kofi-labs/staker-checker/internal/checker"
	"github.com/kofi-labs/staker-checker/internal/config"
	"github.com/kofi-labs/staker-checker/internal/fetcher"
	"github.com/kofi-labs/staker-checker/internal/publisher"
	"github.com/kofi-labs/staker-checker/internal/run"
	"github.com/kofi-labs/staker-checker/internal/store"
	"github.com/kofi-labs/staker-checker/pkg/graphql"
	"github.com/kofi-labs/staker-checker/pkg/output"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check addresses against the staking threshold",
	Long: `Fetches all events of the target type (or loads today's cached set),
sums each address's minted amounts, and reports whether the cumulative
amount strictly exceeds the threshold.

Failing the criteria is a reported outcome, not a command failure: the
process exits zero unless configuration or input is invalid.`,
	Example: `  # Single address with defaults
  stakercheck check --address 0xabc...

  # A list of addresses, fresh fetch, JSON report
  stakercheck check --addresses-file stakers.json --no-cache --output json

  # Publish verdicts to the Redis stream as they are decided
  stakercheck check --addresses-file stakers.json --publish`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().String("address", "", "single account address to check")
	checkCmd.Flags().String("addresses-file", "", "path to a JSON list of account addresses")
	checkCmd.MarkFlagsMutuallyExclusive("address", "addresses-file")
	checkCmd.MarkFlagsOneRequired("address", "addresses-file")

	checkCmd.Flags().String("event-type", config.DefaultEventType, "event type signature to query")
	checkCmd.Flags().Int64("threshold", config.DefaultThreshold, "cumulative amount threshold")
	checkCmd.Flags().Int("limit", config.DefaultLimit, "records per page (upstream max 100)")
	checkCmd.Flags().Duration("delay", config.DefaultDelay, "delay between page requests")
	checkCmd.Flags().String("cache-dir", config.DefaultCacheDir, "directory for cache files")
	checkCmd.Flags().String("cache-backend", "file", "cache backend: file or redis (needs REDIS_URL)")
	checkCmd.Flags().Bool("no-cache", false, "ignore existing cache, fetch fresh data and update it")
	checkCmd.Flags().Bool("store-postgres", false, "mirror the fetched event set to Postgres (needs POSTGRES_URL)")
	checkCmd.Flags().Bool("publish", false, "publish verdicts to the Redis verdict stream (needs REDIS_URL)")
	checkCmd.Flags().String("output", "text", "output format: text or json")
}

func runCheck(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	addresses, err := gatherAddresses(cmd)
	if err != nil {
		return err
	}

	eventType, _ := cmd.Flags().GetString("event-type")
	threshold, _ := cmd.Flags().GetInt64("threshold")
	noCache, _ := cmd.Flags().GetBool("no-cache")

	runner, cleanup, err := buildRunner(ctx, cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	report := runner.Check(ctx, run.Params{
		EventType: eventType,
		Threshold: threshold,
		Addresses: addresses,
		NoCache:   noCache,
	})

	format, _ := cmd.Flags().GetString("output")
	if format == "json" {
		return output.JSON(report)
	}
	printReport(report)
	return nil
}

func gatherAddresses(cmd *cobra.Command) ([]string, error) {
	if path, _ := cmd.Flags().GetString("addresses-file"); path != "" {
		addresses, err := checker.LoadAddresses(path)
		if err != nil {
			return nil, err
		}
		output.Info("Loaded %d addresses from %s", len(addresses), path)
		return addresses, nil
	}
	address, _ := cmd.Flags().GetString("address")
	return []string{address}, nil
}

// buildRunner assembles the pipeline from flags and environment. The
// returned cleanup closes whatever backends were opened.
func buildRunner(ctx context.Context, cmd *cobra.Command) (*run.Runner, func(), error) {
	limit, _ := cmd.Flags().GetInt("limit")
	delay, _ := cmd.Flags().GetDuration("delay")

	runner := &run.Runner{
		Exec: graphql.New(graphql.Opts{
			Endpoint:  cfg.Endpoint,
			AuthToken: cfg.AuthToken,
		}),
		FetchOpts: fetcher.Opts{Limit: limit, Delay: delay},
	}

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	backend, _ := cmd.Flags().GetString("cache-backend")
	switch backend {
	case "file":
		cacheDir, _ := cmd.Flags().GetString("cache-dir")
		fs, err := cache.NewFileStore(cacheDir)
		if err != nil {
			return nil, nil, err
		}
		runner.Cache = fs
	case "redis":
		if cfg.RedisURL == "" {
			return nil, nil, fmt.Errorf("cache-backend redis requires REDIS_URL")
		}
		rs, err := cache.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { rs.Close() })
		runner.Cache = rs
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", backend)
	}

	if storePg, _ := cmd.Flags().GetBool("store-postgres"); storePg {
		if cfg.PostgresURL == "" {
			cleanup()
			return nil, nil, fmt.Errorf("--store-postgres requires POSTGRES_URL")
		}
		pg, err := store.NewPostgres(ctx, cfg.PostgresURL)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		if err := pg.Init(ctx); err != nil {
			pg.Close()
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, pg.Close)
		runner.Sink = pg
	}

	if publish, _ := cmd.Flags().GetBool("publish"); publish {
		if cfg.RedisURL == "" {
			cleanup()
			return nil, nil, fmt.Errorf("--publish requires REDIS_URL")
		}
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("parse redis url: %w", err)
		}
		redisClient := redis.NewClient(redisOpts)
		closers = append(closers, func() { redisClient.Close() })

		pub, err := publisher.New(redisClient, cfg.VerdictsTopic)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, func() { pub.Close() })
		runner.Publisher = pub
	}

	return runner, cleanup, nil
}

func printReport(report *run.Report) {
	source := "live fetch"
	if report.FromCache {
		source = "cache"
	}
	output.Info("Event type: %s", report.EventType)
	output.Info("Threshold:  %d", report.Threshold)
	output.Info("Events:     %d (%s)", report.TotalEvents, source)
	if report.Truncated {
		output.Warn("Event set is partial: pagination stopped early")
	}
	output.Plain("")

	for _, res := range report.Results {
		switch {
		case res.Error != "":
			output.Error("%s: DOES NOT MEET (%s)", res.Address, res.Error)
		case res.MeetsCriteria:
			output.Success("%s: MEETS CRITERIA (amount: %d, events: %d)",
				res.Address, res.CumulativeAmount, res.EventsFound)
		default:
			output.Plain("- %s: DOES NOT MEET (amount: %d, events: %d)",
				res.Address, res.CumulativeAmount, res.EventsFound)
		}
		if res.MalformedEvents > 0 {
			output.Warn("  %d of %d events had missing or malformed amounts",
				res.MalformedEvents, res.EventsFound)
		}
	}

	output.Plain("")
	output.Info("Addresses processed: %d, meeting criteria: %d (run %s)",
		len(report.Results), report.MetCount(), report.RunID)
}
