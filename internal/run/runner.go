// Package run ties the checker pipeline together: consult the cache, fall
// back to live pagination, persist what was fetched, then evaluate every
// address against the shared event set.
package run

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kofi-labs/staker-checker/internal/cache"
	"github.com/kofi-labs/staker-checker/internal/checker"
	"github.com/kofi-labs/staker-checker/internal/events"
	"github.com/kofi-labs/staker-checker/internal/fetcher"
	"github.com/kofi-labs/staker-checker/pkg/graphql"
)

// VerdictPublisher receives each verdict after evaluation. Publish failures
// are logged by the implementation and never fail the run.
type VerdictPublisher interface {
	PublishResult(ctx context.Context, runID, eventType string, threshold int64, res checker.AddressResult) error
}

// Runner executes check runs. Cache and Sink are optional; Cache is
// consulted before fetching and updated after, Sink only receives fetched
// sets (a mirror for external consumers, never read here).
type Runner struct {
	Exec      graphql.Executor
	FetchOpts fetcher.Opts
	Cache     cache.Store
	Sink      cache.Store
	Publisher VerdictPublisher

	// Now is the clock used for cache keys; nil means time.Now.
	Now func() time.Time
}

// Params configures one check run.
type Params struct {
	EventType string
	Threshold int64
	Addresses []string
	NoCache   bool
}

// Report is the outcome of one check run.
type Report struct {
	RunID       string                  `json:"run_id"`
	EventType   string                  `json:"event_type"`
	Threshold   int64                   `json:"threshold"`
	TotalEvents int                     `json:"total_events"`
	FromCache   bool                    `json:"from_cache"`
	Truncated   bool                    `json:"truncated"`
	Results     []checker.AddressResult `json:"results"`
}

// MetCount returns how many addresses met the criteria.
func (r *Report) MetCount() int {
	n := 0
	for _, res := range r.Results {
		if res.MeetsCriteria {
			n++
		}
	}
	return n
}

// Check runs the full pipeline for one event type and a set of addresses.
// Only configuration problems surface as errors; fetch truncation and cache
// or sink failures degrade to log lines, and per-address outcomes land in
// the report.
func (r *Runner) Check(ctx context.Context, p Params) *Report {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}

	report := &Report{
		RunID:     uuid.NewString(),
		EventType: p.EventType,
		Threshold: p.Threshold,
	}
	log := slog.With("run_id", report.RunID, "event_type", p.EventType)

	key := cache.NewKey(p.EventType, now())
	evts, fromCache := r.loadOrFetch(ctx, log, key, p.NoCache, report)
	report.TotalEvents = len(evts)
	report.FromCache = fromCache

	log.Info("event set ready",
		"total_events", len(evts), "from_cache", fromCache, "truncated", report.Truncated)

	report.Results = checker.New(p.Threshold).CheckAll(evts, p.Addresses)

	if r.Publisher != nil {
		for _, res := range report.Results {
			// Logged inside; a dead stream must not invalidate verdicts.
			_ = r.Publisher.PublishResult(ctx, report.RunID, p.EventType, p.Threshold, res)
		}
	}

	return report
}

func (r *Runner) loadOrFetch(ctx context.Context, log *slog.Logger, key cache.Key, noCache bool, report *Report) ([]events.Event, bool) {
	if !noCache && r.Cache != nil {
		cached, ok, err := r.Cache.Load(ctx, key)
		if err != nil {
			log.Warn("cache load failed, fetching live", "err", err)
		} else if ok {
			return cached, true
		}
	}

	res := fetcher.FetchEventsByType(ctx, r.Exec, key.EventType, r.FetchOpts)
	report.Truncated = res.Truncated
	if res.Truncated {
		log.Warn("fetch returned partial data", "events", len(res.Items), "cause", res.Cause)
	}

	// The fetch completed (possibly short); cache it even on --no-cache runs
	// so the next cached run sees fresh data.
	if r.Cache != nil {
		if err := r.Cache.Store(ctx, key, res.Items); err != nil {
			log.Warn("cache store failed, continuing with in-memory set", "err", err)
		}
	}
	if r.Sink != nil {
		if err := r.Sink.Store(ctx, key, res.Items); err != nil {
			log.Warn("sink store failed", "err", err)
		}
	}

	return res.Items, false
}
