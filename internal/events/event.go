package events

import (
	"encoding/json"
)

// Event is one on-chain event row as returned by the indexer's GraphQL API.
// The data payload is kept raw: payload shapes vary per event type, and the
// aggregation layer must tolerate malformed entries instead of failing to
// decode the whole set. Transaction version and block height are reporting
// metadata only.
type Event struct {
	Data                   json.RawMessage `json:"data"`
	IndexedType            string          `json:"indexed_type,omitempty"`
	TransactionVersion     int64           `json:"transaction_version,omitempty"`
	TransactionBlockHeight int64           `json:"transaction_block_height,omitempty"`
}

// Payload is a decoded event data object with field-level access. Fields are
// decoded lazily so a single bad field does not poison the rest of the
// payload.
type Payload map[string]json.RawMessage

// Payload decodes the event's data as a JSON object. ok is false when the
// payload is absent or not an object.
func (e Event) Payload() (Payload, bool) {
	if len(e.Data) == 0 {
		return nil, false
	}
	var p Payload
	if err := json.Unmarshal(e.Data, &p); err != nil {
		return nil, false
	}
	return p, true
}

// User returns the payload's user field. ok is false when the field is
// absent or not a string.
func (p Payload) User() (string, bool) {
	return p.stringField("user")
}

// Amount returns the payload's amount field, which the upstream API encodes
// as a decimal string. ok is false when the field is absent or not a string.
func (p Payload) Amount() (string, bool) {
	return p.stringField("amount")
}

func (p Payload) stringField(name string) (string, bool) {
	raw, ok := p[name]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}
