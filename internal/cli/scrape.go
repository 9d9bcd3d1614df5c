package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kofi-labs/staker-checker/internal/cache"
	"github.com/kofi-labs/staker-checker/internal/config"
	"github.com/kofi-labs/staker-checker/internal/export"
	"github.com/kofi-labs/staker-checker/internal/fetcher"
	"github.com/kofi-labs/staker-checker/internal/store"
	"github.com/kofi-labs/staker-checker/pkg/graphql"
	"github.com/kofi-labs/staker-checker/pkg/output"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Fetch all events of a type and export them",
	Long: `Pages through every event of the given type and writes the full set
to dated JSON and CSV files. With --store-postgres the set is also
mirrored into the mint_events table.`,
	Example: `  stakercheck scrape
  stakercheck scrape --event-type 0x7e78...::event::PriceFeedUpdate --out-dir data
  stakercheck scrape --store-postgres`,
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().String("event-type", config.DefaultEventType, "event type signature to scrape")
	scrapeCmd.Flags().Int("limit", config.DefaultLimit, "records per page (upstream max 100)")
	scrapeCmd.Flags().Duration("delay", config.DefaultDelay, "delay between page requests")
	scrapeCmd.Flags().String("out-dir", "data", "directory for exported files")
	scrapeCmd.Flags().Bool("store-postgres", false, "mirror the event set to Postgres (needs POSTGRES_URL)")
}

func runScrape(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	eventType, _ := cmd.Flags().GetString("event-type")
	limit, _ := cmd.Flags().GetInt("limit")
	delay, _ := cmd.Flags().GetDuration("delay")
	outDir, _ := cmd.Flags().GetString("out-dir")

	exec := graphql.New(graphql.Opts{Endpoint: cfg.Endpoint, AuthToken: cfg.AuthToken})

	output.Info("Scraping events of type %s", eventType)
	res := fetcher.FetchEventsByType(ctx, exec, eventType, fetcher.Opts{Limit: limit, Delay: delay})
	if res.Truncated {
		output.Warn("Pagination stopped early after %d pages: %v", res.Pages, res.Cause)
	}
	output.Info("Fetched %d events in %d pages", len(res.Items), res.Pages)

	now := time.Now()
	jsonPath, err := export.DatedPath(outDir, "mint_events", "json", now)
	if err != nil {
		return err
	}
	csvPath, err := export.DatedPath(outDir, "mint_events", "csv", now)
	if err != nil {
		return err
	}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		return export.WriteJSON(jsonPath, res.Items)
	})
	g.Go(func() error {
		return export.WriteCSV(csvPath, export.EventsCSVHeader, export.EventRows(res.Items))
	})
	if err := g.Wait(); err != nil {
		return err
	}
	output.Success("Wrote %s and %s", jsonPath, csvPath)

	if storePg, _ := cmd.Flags().GetBool("store-postgres"); storePg {
		if cfg.PostgresURL == "" {
			return fmt.Errorf("--store-postgres requires POSTGRES_URL")
		}
		pg, err := store.NewPostgres(ctx, cfg.PostgresURL)
		if err != nil {
			return err
		}
		defer pg.Close()
		if err := pg.Init(ctx); err != nil {
			return err
		}
		if err := pg.Store(ctx, cache.NewKey(eventType, now), res.Items); err != nil {
			return err
		}
		output.Success("Mirrored %d events to Postgres", len(res.Items))
	}
	return nil
}
