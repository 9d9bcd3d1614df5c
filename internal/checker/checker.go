package checker

import (
	"log/slog"

	"github.com/kofi-labs/staker-checker/internal/events"
)

// NoGlobalEventsMsg is reported on every result when the fetched event set
// is empty: nothing can be attributed, so the verdict carries the reason.
const NoGlobalEventsMsg = "no global events of target type found"

// AddressResult is the verdict for one address. EventsFound counts
// attributable events, SummedEvents the subset whose amount parsed; the two
// are reported separately because malformed records can make them differ.
type AddressResult struct {
	Address          string `json:"address"`
	MeetsCriteria    bool   `json:"meets_criteria"`
	CumulativeAmount int64  `json:"cumulative_amount"`
	EventsFound      int    `json:"events_found"`
	SummedEvents     int    `json:"summed_events"`
	MalformedEvents  int    `json:"malformed_events"`
	Error            string `json:"error,omitempty"`
}

// Checker evaluates addresses against a threshold. Evaluations are
// independent and read-only over the shared event set, so running the same
// input twice yields identical results.
type Checker struct {
	threshold int64
}

// New creates a Checker. An address meets the criteria only when its
// cumulative amount is strictly greater than threshold.
func New(threshold int64) *Checker {
	return &Checker{threshold: threshold}
}

// CheckAddress computes the verdict for one address over the event set.
func (c *Checker) CheckAddress(evts []events.Event, address string) AddressResult {
	res := AddressResult{Address: address}

	if len(evts) == 0 {
		res.Error = NoGlobalEventsMsg
		return res
	}

	agg := AggregateForAddress(evts, address)
	res.EventsFound = agg.Attributable
	if agg.Attributable == 0 {
		return res
	}

	res.CumulativeAmount = agg.Sum
	res.SummedEvents = agg.Summed
	res.MalformedEvents = agg.Malformed
	if agg.Malformed > 0 {
		slog.Warn("skipped events with missing or malformed amount",
			"address", address, "malformed", agg.Malformed, "summed", agg.Summed)
	}

	// Strict inequality: a sum exactly at the threshold does not qualify.
	res.MeetsCriteria = agg.Sum > c.threshold
	return res
}

// CheckAll evaluates every address against the same event set, in input
// order. No index is built over the set; each address scans it once.
func (c *Checker) CheckAll(evts []events.Event, addresses []string) []AddressResult {
	results := make([]AddressResult, 0, len(addresses))
	for _, addr := range addresses {
		results = append(results, c.CheckAddress(evts, addr))
	}
	return results
}
