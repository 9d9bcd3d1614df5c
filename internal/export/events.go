package export

import (
	"strconv"

	"github.com/kofi-labs/staker-checker/internal/events"
)

// EventsCSVHeader is the column layout for exported event files.
var EventsCSVHeader = []string{
	"transaction_version", "transaction_block_height", "user", "amount", "data",
}

// EventRows flattens events into CSV rows. User and amount come from the
// typed payload accessor; events without them get empty cells, the raw data
// column always carries the full payload.
func EventRows(evts []events.Event) [][]string {
	rows := make([][]string, 0, len(evts))
	for _, e := range evts {
		var user, amount string
		if p, ok := e.Payload(); ok {
			user, _ = p.User()
			amount, _ = p.Amount()
		}
		rows = append(rows, []string{
			strconv.FormatInt(e.TransactionVersion, 10),
			strconv.FormatInt(e.TransactionBlockHeight, 10),
			user,
			amount,
			string(e.Data),
		})
	}
	return rows
}
