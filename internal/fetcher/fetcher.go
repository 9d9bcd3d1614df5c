// Package fetcher drives the GraphQL executor through offset pagination,
// accumulating every page of a collection into one ordered slice.
package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/kofi-labs/staker-checker/pkg/graphql"
)

const (
	// DefaultLimit is the upstream cap on records per page.
	DefaultLimit = 100
	// DefaultDelay is the pause between page requests to stay under the
	// API's rate limits.
	DefaultDelay = 100 * time.Millisecond
)

// Opts tunes pagination. Zero values pick the defaults above.
type Opts struct {
	Limit int
	Delay time.Duration
}

func (o Opts) withDefaults() Opts {
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.Delay < 0 {
		o.Delay = 0
	}
	return o
}

// PageQuery describes one paginated collection. The query must accept $limit
// and $offset variables and select a single top-level collection field named
// by Field.
type PageQuery struct {
	Query string
	Field string
	Vars  map[string]any
}

// Result is the outcome of a pagination run. Truncated distinguishes a run
// that stopped on a fault or upstream error report from natural end-of-data;
// the items gathered before the stop are still returned either way, so a
// truncated result is best-effort data, not a failure.
type Result[T any] struct {
	Items     []T
	Pages     int
	Truncated bool
	Cause     error
}

// Paginate fetches every page of q sequentially: offsets form a strictly
// increasing arithmetic sequence starting at 0 with step limit, and each
// request completes before the next begins. Stop conditions, in order:
// an upstream errors array, an empty page, a short page. Transport or decode
// failures abort the run and return what was accumulated.
//
// Records are appended in retrieval order and never deduplicated; if the
// upstream's pagination is not stable under concurrent ledger writes, a
// record can appear twice or be skipped.
func Paginate[T any](ctx context.Context, exec graphql.Executor, q PageQuery, o Opts) Result[T] {
	o = o.withDefaults()

	var res Result[T]
	offset := 0

	for {
		vars := map[string]any{
			"limit":  o.Limit,
			"offset": offset,
		}
		for k, v := range q.Vars {
			vars[k] = v
		}

		slog.Debug("fetching page", "field", q.Field, "page", res.Pages+1, "offset", offset)

		resp, err := exec.Execute(ctx, q.Query, vars)
		if err != nil {
			slog.Warn("pagination aborted, keeping partial result",
				"field", q.Field, "page", res.Pages+1, "offset", offset, "err", err)
			res.Truncated = true
			res.Cause = err
			return res
		}
		res.Pages++

		if len(resp.Errors) > 0 {
			for _, gqlErr := range resp.Errors {
				slog.Warn("graphql error", "field", q.Field, "message", gqlErr.Message)
			}
			res.Truncated = true
			res.Cause = fmt.Errorf("graphql errors: %s", resp.Errors[0].Message)
			return res
		}

		page, err := decodePage[T](resp.Data, q.Field)
		if err != nil {
			slog.Warn("pagination aborted, keeping partial result",
				"field", q.Field, "page", res.Pages, "err", err)
			res.Truncated = true
			res.Cause = err
			return res
		}

		if len(page) == 0 {
			return res
		}

		res.Items = append(res.Items, page...)
		slog.Debug("page received",
			"field", q.Field, "records", len(page), "total", len(res.Items))

		if len(page) < o.Limit {
			// Short page means end of data.
			return res
		}

		offset += o.Limit

		if o.Delay > 0 {
			select {
			case <-ctx.Done():
				res.Truncated = true
				res.Cause = ctx.Err()
				return res
			case <-time.After(o.Delay):
			}
		}
	}
}

func decodePage[T any](data json.RawMessage, field string) ([]T, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("response has no data field")
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decode data envelope: %w", err)
	}
	raw, ok := envelope[field]
	if !ok {
		return nil, fmt.Errorf("response data has no %q field", field)
	}
	var page []T
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("decode %q page: %w", field, err)
	}
	return page, nil
}
