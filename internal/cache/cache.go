// Package cache persists fetched event sets so repeat runs within the same
// calendar day skip live retrieval.
package cache

import (
	"context"
	"strings"
	"time"

	"github.com/kofi-labs/staker-checker/internal/events"
)

// Store persists one event set per key. Load must distinguish an absent
// record from an empty-but-valid one; Store overwrites any existing record
// under the same key. Implementations treat malformed stored content as
// absent so a live fetch can replace it.
type Store interface {
	Load(ctx context.Context, key Key) ([]events.Event, bool, error)
	Store(ctx context.Context, key Key, evts []events.Event) error
}

// Key identifies one cached event set: the event-type signature plus the
// calendar date it was fetched. A new date produces a new record; old
// records are never deleted here.
type Key struct {
	EventType string
	Date      time.Time
}

// NewKey builds a key for the given event type as of now.
func NewKey(eventType string, now time.Time) Key {
	return Key{EventType: eventType, Date: now}
}

// safeReplacer substitutes the event-type characters that are illegal or
// awkward in file names.
var safeReplacer = strings.NewReplacer("::", "_", "<", "_", ">", "_")

// Filename is the on-disk name for this key.
func (k Key) Filename() string {
	return safeReplacer.Replace(k.EventType) + "_events_" + k.Date.Format("20060102") + ".json"
}

// String is the backend-neutral form of the key, used by non-file stores.
func (k Key) String() string {
	return safeReplacer.Replace(k.EventType) + ":" + k.Date.Format("20060102")
}
