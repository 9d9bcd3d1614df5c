// Package store persists fetched event sets in PostgreSQL so other tooling
// can query them; the table also serves as a cache source for the checker.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kofi-labs/staker-checker/internal/cache"
	"github.com/kofi-labs/staker-checker/internal/events"
)

// PostgresStore writes event sets keyed by (event type, fetch date) into a
// mint_events table. A seq column preserves retrieval order.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a connection pool and verifies it.
func NewPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	config.MinConns = 1
	config.MaxConns = 5

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Init creates the mint_events table.
func (s *PostgresStore) Init(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS mint_events (
			event_type TEXT NOT NULL,
			fetched_on DATE NOT NULL,
			seq INT NOT NULL,
			transaction_version BIGINT NOT NULL DEFAULT 0,
			block_height BIGINT NOT NULL DEFAULT 0,
			data JSONB,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			PRIMARY KEY (event_type, fetched_on, seq)
		);

		CREATE INDEX IF NOT EXISTS idx_mint_events_type ON mint_events(event_type);
		CREATE INDEX IF NOT EXISTS idx_mint_events_version ON mint_events(transaction_version);
	`)
	if err != nil {
		return fmt.Errorf("create mint_events table: %w", err)
	}
	return nil
}

// Store replaces the stored set for key with evts, preserving order via the
// seq column. The delete and batch insert run in one transaction so readers
// never observe a half-written set.
func (s *PostgresStore) Store(ctx context.Context, key cache.Key, evts []events.Event) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	day := key.Date.Format("2006-01-02")
	if _, err := tx.Exec(ctx,
		`DELETE FROM mint_events WHERE event_type = $1 AND fetched_on = $2`,
		key.EventType, day,
	); err != nil {
		return fmt.Errorf("clear prior set: %w", err)
	}

	batch := &pgx.Batch{}
	for i, e := range evts {
		data := e.Data
		if data == nil {
			data = json.RawMessage("null")
		}
		batch.Queue(`
			INSERT INTO mint_events (
				event_type, fetched_on, seq, transaction_version, block_height, data
			) VALUES ($1, $2, $3, $4, $5, $6)
		`,
			key.EventType,
			day,
			i,
			e.TransactionVersion,
			e.TransactionBlockHeight,
			data,
		)
	}

	br := tx.SendBatch(ctx, batch)
	for range evts {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("insert event: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	return tx.Commit(ctx)
}

// Load reads the stored set for key in its original retrieval order. Zero
// rows reports absent, matching the cache.Store contract.
func (s *PostgresStore) Load(ctx context.Context, key cache.Key) ([]events.Event, bool, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT transaction_version, block_height, data
		FROM mint_events
		WHERE event_type = $1 AND fetched_on = $2
		ORDER BY seq ASC
	`, key.EventType, key.Date.Format("2006-01-02"))
	if err != nil {
		return nil, false, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var evts []events.Event
	for rows.Next() {
		var e events.Event
		if err := rows.Scan(&e.TransactionVersion, &e.TransactionBlockHeight, &e.Data); err != nil {
			return nil, false, fmt.Errorf("scan event: %w", err)
		}
		e.IndexedType = key.EventType
		evts = append(evts, e)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate events: %w", err)
	}
	if evts == nil {
		return nil, false, nil
	}
	return evts, true, nil
}

// SummarizeDay reports how many events are stored for key.
func (s *PostgresStore) SummarizeDay(ctx context.Context, key cache.Key) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM mint_events
		WHERE event_type = $1 AND fetched_on = $2
	`, key.EventType, key.Date.Format("2006-01-02")).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return count, nil
}

var _ cache.Store = (*PostgresStore)(nil)
