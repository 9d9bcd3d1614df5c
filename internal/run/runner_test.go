package run

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kofi-labs/staker-checker/internal/cache"
	"github.com/kofi-labs/staker-checker/internal/checker"
	"github.com/kofi-labs/staker-checker/internal/events"
	"github.com/kofi-labs/staker-checker/internal/fetcher"
	"github.com/kofi-labs/staker-checker/pkg/graphql"
)

const mintType = "0x2cc5::minting_manager::MintEvent"

// pagesExecutor serves a fixed event list in pages of the requested limit.
type pagesExecutor struct {
	all   []events.Event
	calls int
}

func (p *pagesExecutor) Execute(_ context.Context, _ string, vars map[string]any) (*graphql.Response, error) {
	p.calls++
	limit := vars["limit"].(int)
	offset := vars["offset"].(int)

	end := min(offset+limit, len(p.all))
	page := []events.Event{}
	if offset < len(p.all) {
		page = p.all[offset:end]
	}
	data, err := json.Marshal(map[string]any{"events": page})
	if err != nil {
		return nil, err
	}
	return &graphql.Response{Data: data}, nil
}

type failingExecutor struct{}

func (failingExecutor) Execute(context.Context, string, map[string]any) (*graphql.Response, error) {
	return nil, &graphql.TransportError{Err: fmt.Errorf("boom")}
}

// memCache is an in-memory cache.Store for tests.
type memCache struct {
	mu     sync.Mutex
	sets   map[string][]events.Event
	stores int
}

func newMemCache() *memCache {
	return &memCache{sets: map[string][]events.Event{}}
}

func (m *memCache) Load(_ context.Context, key cache.Key) ([]events.Event, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	evts, ok := m.sets[key.String()]
	return evts, ok, nil
}

func (m *memCache) Store(_ context.Context, key cache.Key, evts []events.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets[key.String()] = evts
	m.stores++
	return nil
}

type capturePublisher struct {
	results []checker.AddressResult
	runIDs  map[string]bool
}

func (c *capturePublisher) PublishResult(_ context.Context, runID, _ string, _ int64, res checker.AddressResult) error {
	if c.runIDs == nil {
		c.runIDs = map[string]bool{}
	}
	c.runIDs[runID] = true
	c.results = append(c.results, res)
	return nil
}

func mintEvent(user, amount string) events.Event {
	data, _ := json.Marshal(map[string]string{"user": user, "amount": amount})
	return events.Event{Data: data}
}

func fixedNow() time.Time {
	return time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
}

func TestCheckFetchesCachesAndDecides(t *testing.T) {
	exec := &pagesExecutor{all: []events.Event{
		mintEvent("0xA", "10"),
		mintEvent("0xB", "5"),
		mintEvent("0xA", "20"),
		mintEvent("0xA", "30"),
		mintEvent("0xC", "1"),
	}}
	mc := newMemCache()
	r := &Runner{Exec: exec, FetchOpts: fetcher.Opts{Limit: 100}, Cache: mc, Now: fixedNow}

	report := r.Check(context.Background(), Params{
		EventType: mintType,
		Threshold: 50,
		Addresses: []string{"0xA"},
	})

	assert.Equal(t, 5, report.TotalEvents)
	assert.False(t, report.FromCache)
	assert.NotEmpty(t, report.RunID)
	require.Len(t, report.Results, 1)
	assert.True(t, report.Results[0].MeetsCriteria)
	assert.Equal(t, int64(60), report.Results[0].CumulativeAmount)
	assert.Equal(t, 3, report.Results[0].EventsFound)
	assert.Equal(t, 1, mc.stores, "fetched set must be cached")
	assert.Equal(t, 1, report.MetCount())
}

func TestCheckUsesCacheOnSecondRun(t *testing.T) {
	exec := &pagesExecutor{all: []events.Event{mintEvent("0xA", "100")}}
	mc := newMemCache()
	r := &Runner{Exec: exec, FetchOpts: fetcher.Opts{Limit: 100}, Cache: mc, Now: fixedNow}

	first := r.Check(context.Background(), Params{EventType: mintType, Threshold: 50, Addresses: []string{"0xA"}})
	second := r.Check(context.Background(), Params{EventType: mintType, Threshold: 50, Addresses: []string{"0xA"}})

	assert.False(t, first.FromCache)
	assert.True(t, second.FromCache)
	assert.Equal(t, 1, exec.calls, "second run must not hit the network")
	assert.Equal(t, first.Results[0], second.Results[0])
}

func TestCheckNoCacheBypassesLoadButStillStores(t *testing.T) {
	exec := &pagesExecutor{all: []events.Event{mintEvent("0xA", "100")}}
	mc := newMemCache()
	r := &Runner{Exec: exec, FetchOpts: fetcher.Opts{Limit: 100}, Cache: mc, Now: fixedNow}

	r.Check(context.Background(), Params{EventType: mintType, Threshold: 50, Addresses: []string{"0xA"}})
	report := r.Check(context.Background(), Params{EventType: mintType, Threshold: 50, Addresses: []string{"0xA"}, NoCache: true})

	assert.False(t, report.FromCache)
	assert.Equal(t, 2, exec.calls)
	assert.Equal(t, 2, mc.stores, "no-cache runs still refresh the cache")
}

func TestCheckEmptyEventSetPopulatesError(t *testing.T) {
	exec := &pagesExecutor{all: nil}
	r := &Runner{Exec: exec, FetchOpts: fetcher.Opts{Limit: 100}, Now: fixedNow}

	report := r.Check(context.Background(), Params{
		EventType: mintType,
		Threshold: 50,
		Addresses: []string{"0xA", "0xB"},
	})

	assert.Zero(t, report.TotalEvents)
	require.Len(t, report.Results, 2)
	for _, res := range report.Results {
		assert.False(t, res.MeetsCriteria)
		assert.Zero(t, res.CumulativeAmount)
		assert.Zero(t, res.EventsFound)
		assert.Equal(t, checker.NoGlobalEventsMsg, res.Error)
	}
}

func TestCheckTransportFailureIsBestEffort(t *testing.T) {
	r := &Runner{Exec: failingExecutor{}, FetchOpts: fetcher.Opts{Limit: 100}, Now: fixedNow}

	report := r.Check(context.Background(), Params{
		EventType: mintType,
		Threshold: 50,
		Addresses: []string{"0xA"},
	})

	assert.True(t, report.Truncated)
	require.Len(t, report.Results, 1)
	assert.Equal(t, checker.NoGlobalEventsMsg, report.Results[0].Error)
}

func TestCheckPublishesEveryVerdict(t *testing.T) {
	exec := &pagesExecutor{all: []events.Event{mintEvent("0xA", "100")}}
	pub := &capturePublisher{}
	r := &Runner{Exec: exec, FetchOpts: fetcher.Opts{Limit: 100}, Publisher: pub, Now: fixedNow}

	report := r.Check(context.Background(), Params{
		EventType: mintType,
		Threshold: 50,
		Addresses: []string{"0xA", "0xB"},
	})

	require.Len(t, pub.results, 2)
	assert.Equal(t, report.Results, pub.results)
	assert.Len(t, pub.runIDs, 1, "all verdicts of a run share one run ID")
}

func TestCheckSinkReceivesFetchedSet(t *testing.T) {
	exec := &pagesExecutor{all: []events.Event{mintEvent("0xA", "1")}}
	sink := newMemCache()
	r := &Runner{Exec: exec, FetchOpts: fetcher.Opts{Limit: 100}, Sink: sink, Now: fixedNow}

	r.Check(context.Background(), Params{EventType: mintType, Threshold: 50, Addresses: []string{"0xA"}})

	assert.Equal(t, 1, sink.stores)
}
