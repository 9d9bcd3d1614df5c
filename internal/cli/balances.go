package cli

import (
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kofi-labs/staker-checker/internal/balances"
	"github.com/kofi-labs/staker-checker/internal/config"
	"github.com/kofi-labs/staker-checker/internal/export"
	"github.com/kofi-labs/staker-checker/internal/fetcher"
	"github.com/kofi-labs/staker-checker/pkg/graphql"
	"github.com/kofi-labs/staker-checker/pkg/output"
)

var balancesCmd = &cobra.Command{
	Use:   "balances",
	Short: "Fetch current fungible-asset balances for an asset type",
	Long: `Pages through every holder balance of the given asset type, largest
first, and writes the full set to dated JSON and CSV files.`,
	Example: `  stakercheck balances --asset-type 0x1::aptos_coin::AptosCoin`,
	RunE:    runBalances,
}

func init() {
	rootCmd.AddCommand(balancesCmd)

	balancesCmd.Flags().String("asset-type", "", "asset type to query (required)")
	balancesCmd.MarkFlagRequired("asset-type")
	balancesCmd.Flags().Int("limit", config.DefaultLimit, "records per page (upstream max 100)")
	balancesCmd.Flags().Duration("delay", config.DefaultDelay, "delay between page requests")
	balancesCmd.Flags().String("out-dir", "data", "directory for exported files")
}

func runBalances(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	assetType, _ := cmd.Flags().GetString("asset-type")
	limit, _ := cmd.Flags().GetInt("limit")
	delay, _ := cmd.Flags().GetDuration("delay")
	outDir, _ := cmd.Flags().GetString("out-dir")

	exec := graphql.New(graphql.Opts{Endpoint: cfg.Endpoint, AuthToken: cfg.AuthToken})

	output.Info("Fetching balances for asset type %s", assetType)
	res := balances.FetchByAssetType(ctx, exec, assetType, fetcher.Opts{Limit: limit, Delay: delay})
	if res.Truncated {
		output.Warn("Pagination stopped early after %d pages: %v", res.Pages, res.Cause)
	}
	output.Info("Fetched %d balances in %d pages", len(res.Items), res.Pages)

	now := time.Now()
	jsonPath, err := export.DatedPath(outDir, "asset_balances", "json", now)
	if err != nil {
		return err
	}
	csvPath, err := export.DatedPath(outDir, "asset_balances", "csv", now)
	if err != nil {
		return err
	}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		return export.WriteJSON(jsonPath, res.Items)
	})
	g.Go(func() error {
		return export.WriteCSV(csvPath, balances.CSVHeader, balances.CSVRows(res.Items))
	})
	if err := g.Wait(); err != nil {
		return err
	}
	output.Success("Wrote %s and %s", jsonPath, csvPath)
	return nil
}
