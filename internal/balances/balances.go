// Package balances fetches current fungible-asset balances for one asset
// type, the simpler sibling of the event fetch: same pagination contract,
// different collection.
package balances

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/kofi-labs/staker-checker/internal/fetcher"
	"github.com/kofi-labs/staker-checker/pkg/graphql"
)

// balancesQuery pages through current balances for an asset type, largest
// holders first.
const balancesQuery = `
query BalancesByAssetType($asset_type: String!, $limit: Int!, $offset: Int!) {
  current_fungible_asset_balances(
    where: {asset_type: {_eq: $asset_type}}
    limit: $limit
    offset: $offset
    order_by: {amount: desc}
  ) {
    amount
    asset_type
    owner_address
    storage_id
    is_frozen
    is_primary
    last_transaction_timestamp
    last_transaction_version
    token_standard
  }
}`

// Balance is one holder's balance row. Amount stays a json.Number: the API
// returns numerics wider than int64 for some assets.
type Balance struct {
	Amount                   json.Number `json:"amount"`
	AssetType                string      `json:"asset_type"`
	OwnerAddress             string      `json:"owner_address"`
	StorageID                string      `json:"storage_id"`
	IsFrozen                 bool        `json:"is_frozen"`
	IsPrimary                bool        `json:"is_primary"`
	LastTransactionTimestamp string      `json:"last_transaction_timestamp"`
	LastTransactionVersion   int64       `json:"last_transaction_version"`
	TokenStandard            string      `json:"token_standard"`
}

// FetchByAssetType retrieves every balance row for assetType, page by page.
func FetchByAssetType(ctx context.Context, exec graphql.Executor, assetType string, o fetcher.Opts) fetcher.Result[Balance] {
	return fetcher.Paginate[Balance](ctx, exec, fetcher.PageQuery{
		Query: balancesQuery,
		Field: "current_fungible_asset_balances",
		Vars:  map[string]any{"asset_type": assetType},
	}, o)
}

// CSVHeader is the column layout for exported balance files.
var CSVHeader = []string{
	"owner_address", "amount", "asset_type", "storage_id", "is_frozen",
	"is_primary", "last_transaction_timestamp", "last_transaction_version",
	"token_standard",
}

// CSVRows flattens balances for export.
func CSVRows(rows []Balance) [][]string {
	out := make([][]string, 0, len(rows))
	for _, b := range rows {
		out = append(out, []string{
			b.OwnerAddress,
			b.Amount.String(),
			b.AssetType,
			b.StorageID,
			boolString(b.IsFrozen),
			boolString(b.IsPrimary),
			b.LastTransactionTimestamp,
			strconv.FormatInt(b.LastTransactionVersion, 10),
			b.TokenStandard,
		})
	}
	return out
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
