package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kofi-labs/staker-checker/internal/events"
)

// redisTTL bounds how long a day's event set lives in Redis. File caches are
// date-keyed and accumulate on disk; Redis entries get a horizon instead.
const redisTTL = 48 * time.Hour

// RedisStore keeps event sets in Redis, for runs spread across hosts that
// share one cache.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedis connects to Redis at redisURL and verifies the connection.
func NewRedis(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

// NewRedisWithClient wraps an existing client, used by tests.
func NewRedisWithClient(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func redisKey(key Key) string {
	return "events:" + key.String()
}

// Load reads the cached event set for key. Missing keys report absent, and
// a value that does not decode to an event list is downgraded to a miss.
func (s *RedisStore) Load(ctx context.Context, key Key) ([]events.Event, bool, error) {
	raw, err := s.client.Get(ctx, redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", redisKey(key), err)
	}

	var evts []events.Event
	if err := json.Unmarshal(raw, &evts); err != nil {
		slog.Warn("redis cache entry is malformed, treating as miss", "key", redisKey(key), "err", err)
		return nil, false, nil
	}
	if evts == nil {
		evts = []events.Event{}
	}
	return evts, true, nil
}

// Store writes the event set for key, replacing any prior entry.
func (s *RedisStore) Store(ctx context.Context, key Key, evts []events.Event) error {
	if evts == nil {
		evts = []events.Event{}
	}
	raw, err := json.Marshal(evts)
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}
	if err := s.client.Set(ctx, redisKey(key), raw, redisTTL).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", redisKey(key), err)
	}
	return nil
}
