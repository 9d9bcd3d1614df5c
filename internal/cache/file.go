package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kofi-labs/staker-checker/internal/events"
)

// FileStore keeps one JSON file per key under a cache directory.
type FileStore struct {
	dir string
}

// NewFileStore creates the cache directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Load reads the cached event set for key. A missing file reports absent;
// a file that does not decode to an event list is downgraded to absent so
// the caller re-fetches and overwrites it.
func (s *FileStore) Load(_ context.Context, key Key) ([]events.Event, bool, error) {
	path := filepath.Join(s.dir, key.Filename())
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cache %s: %w", path, err)
	}

	var evts []events.Event
	if err := json.Unmarshal(raw, &evts); err != nil {
		slog.Warn("cache file is malformed, treating as miss", "path", path, "err", err)
		return nil, false, nil
	}
	if evts == nil {
		evts = []events.Event{}
	}
	return evts, true, nil
}

// Store writes the event set for key, replacing any prior record. The write
// goes to a temp file first and is renamed into place, so an interrupted run
// never leaves a truncated cache behind.
func (s *FileStore) Store(_ context.Context, key Key, evts []events.Event) error {
	if evts == nil {
		evts = []events.Event{}
	}
	raw, err := json.MarshalIndent(evts, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, key.Filename()+".tmp-*")
	if err != nil {
		return fmt.Errorf("create cache temp file: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write cache temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close cache temp file: %w", err)
	}

	path := filepath.Join(s.dir, key.Filename())
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("commit cache file %s: %w", path, err)
	}
	return nil
}
