package fetcher

import (
	"context"

	"github.com/kofi-labs/staker-checker/internal/events"
	"github.com/kofi-labs/staker-checker/pkg/graphql"
)

// eventsByTypeQuery fetches all events matching a full event-type signature,
// ordered by transaction version so pagination has a stable ascending key.
const eventsByTypeQuery = `
query EventsByType($event_type: String!, $limit: Int!, $offset: Int!) {
  events(
    where: {indexed_type: {_eq: $event_type}}
    limit: $limit
    offset: $offset
    order_by: {transaction_version: asc}
  ) {
    data
    indexed_type
    transaction_version
    transaction_block_height
  }
}`

// FetchEventsByType retrieves the full event set for one event-type
// signature, page by page.
func FetchEventsByType(ctx context.Context, exec graphql.Executor, eventType string, o Opts) Result[events.Event] {
	return Paginate[events.Event](ctx, exec, PageQuery{
		Query: eventsByTypeQuery,
		Field: "events",
		Vars:  map[string]any{"event_type": eventType},
	}, o)
}
