// Package checker filters a fetched event set per address, sums the minted
// amounts, and decides whether each address clears the staking threshold.
package checker

import (
	"strconv"

	"github.com/kofi-labs/staker-checker/internal/events"
)

// Aggregate is the per-address rollup over an event set. Attributable counts
// every event whose payload names the address; Summed counts only those
// whose amount also parsed, so the two can differ when records are
// malformed.
type Aggregate struct {
	Sum          int64
	Attributable int
	Summed       int
	Malformed    int
}

// AggregateForAddress filters evts down to those whose data.user equals
// address (exact, case-sensitive string match) and sums their data.amount
// fields. Events whose payload is not an object are not attributable;
// attributable events with a missing or non-numeric amount are counted as
// malformed and skipped rather than aborting the rollup.
func AggregateForAddress(evts []events.Event, address string) Aggregate {
	var agg Aggregate
	for _, e := range evts {
		p, ok := e.Payload()
		if !ok {
			continue
		}
		user, ok := p.User()
		if !ok || user != address {
			continue
		}
		agg.Attributable++

		amountStr, ok := p.Amount()
		if !ok {
			agg.Malformed++
			continue
		}
		amount, err := strconv.ParseInt(amountStr, 10, 64)
		if err != nil {
			agg.Malformed++
			continue
		}
		agg.Sum += amount
		agg.Summed++
	}
	return agg
}
