package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kofi-labs/staker-checker/internal/events"
	"github.com/kofi-labs/staker-checker/pkg/graphql"
)

// scriptedExecutor replays a fixed sequence of responses and records the
// offsets it was asked for.
type scriptedExecutor struct {
	steps   []step
	offsets []int
}

type step struct {
	resp *graphql.Response
	err  error
}

func (s *scriptedExecutor) Execute(_ context.Context, _ string, variables map[string]any) (*graphql.Response, error) {
	s.offsets = append(s.offsets, variables["offset"].(int))
	if len(s.steps) == 0 {
		return nil, fmt.Errorf("unexpected request %d", len(s.offsets))
	}
	next := s.steps[0]
	s.steps = s.steps[1:]
	return next.resp, next.err
}

func eventsPage(t *testing.T, n int) *graphql.Response {
	t.Helper()
	evts := make([]events.Event, n)
	for i := range evts {
		evts[i] = events.Event{Data: json.RawMessage(`{"user":"0xA","amount":"1"}`)}
	}
	data, err := json.Marshal(map[string]any{"events": evts})
	require.NoError(t, err)
	return &graphql.Response{Data: data}
}

func TestPaginateThreePagesShortLast(t *testing.T) {
	exec := &scriptedExecutor{steps: []step{
		{resp: eventsPage(t, 100)},
		{resp: eventsPage(t, 100)},
		{resp: eventsPage(t, 40)},
	}}

	res := FetchEventsByType(context.Background(), exec, "0x1::m::MintEvent", Opts{Limit: 100})

	assert.Len(t, res.Items, 240)
	assert.Equal(t, 3, res.Pages)
	assert.False(t, res.Truncated)
	assert.Equal(t, []int{0, 100, 200}, exec.offsets)
}

func TestPaginateOffsetsStrictlyIncreasing(t *testing.T) {
	exec := &scriptedExecutor{steps: []step{
		{resp: eventsPage(t, 5)},
		{resp: eventsPage(t, 5)},
		{resp: eventsPage(t, 5)},
		{resp: eventsPage(t, 0)},
	}}

	res := FetchEventsByType(context.Background(), exec, "0x1::m::MintEvent", Opts{Limit: 5})

	assert.Len(t, res.Items, 15)
	assert.Equal(t, []int{0, 5, 10, 15}, exec.offsets)
	seen := map[int]bool{}
	for _, off := range exec.offsets {
		assert.False(t, seen[off], "offset %d requested twice", off)
		seen[off] = true
	}
}

func TestPaginateEmptyFirstPage(t *testing.T) {
	exec := &scriptedExecutor{steps: []step{
		{resp: eventsPage(t, 0)},
	}}

	res := FetchEventsByType(context.Background(), exec, "0x1::m::MintEvent", Opts{Limit: 100})

	assert.Empty(t, res.Items)
	assert.Equal(t, 1, res.Pages)
	assert.False(t, res.Truncated)
}

func TestPaginateStopsOnGraphQLErrors(t *testing.T) {
	exec := &scriptedExecutor{steps: []step{
		{resp: eventsPage(t, 100)},
		{resp: &graphql.Response{Errors: []graphql.Error{{Message: "rate limited"}}}},
	}}

	res := FetchEventsByType(context.Background(), exec, "0x1::m::MintEvent", Opts{Limit: 100})

	// partial result kept, flagged as truncated
	assert.Len(t, res.Items, 100)
	assert.True(t, res.Truncated)
	assert.ErrorContains(t, res.Cause, "rate limited")
}

func TestPaginateTransportFailureKeepsAccumulated(t *testing.T) {
	exec := &scriptedExecutor{steps: []step{
		{resp: eventsPage(t, 100)},
		{resp: eventsPage(t, 100)},
		{err: &graphql.TransportError{Err: fmt.Errorf("connection reset")}},
	}}

	res := FetchEventsByType(context.Background(), exec, "0x1::m::MintEvent", Opts{Limit: 100})

	assert.Len(t, res.Items, 200)
	assert.True(t, res.Truncated)
	var terr *graphql.TransportError
	assert.ErrorAs(t, res.Cause, &terr)
}

func TestPaginateMissingDataField(t *testing.T) {
	exec := &scriptedExecutor{steps: []step{
		{resp: &graphql.Response{}},
	}}

	res := FetchEventsByType(context.Background(), exec, "0x1::m::MintEvent", Opts{Limit: 100})

	assert.Empty(t, res.Items)
	assert.True(t, res.Truncated)
	assert.ErrorContains(t, res.Cause, "no data field")
}

func TestPaginatePreservesRetrievalOrder(t *testing.T) {
	page1, err := json.Marshal(map[string]any{"events": []events.Event{
		{TransactionVersion: 1}, {TransactionVersion: 2},
	}})
	require.NoError(t, err)
	page2, err := json.Marshal(map[string]any{"events": []events.Event{
		{TransactionVersion: 3},
	}})
	require.NoError(t, err)

	exec := &scriptedExecutor{steps: []step{
		{resp: &graphql.Response{Data: page1}},
		{resp: &graphql.Response{Data: page2}},
	}}

	res := FetchEventsByType(context.Background(), exec, "0x1::m::MintEvent", Opts{Limit: 2})

	require.Len(t, res.Items, 3)
	for i, e := range res.Items {
		assert.Equal(t, int64(i+1), e.TransactionVersion)
	}
}
