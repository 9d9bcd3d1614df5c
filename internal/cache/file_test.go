package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kofi-labs/staker-checker/internal/events"
)

var testDay = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testKey() Key {
	return NewKey("0x2cc5::minting_manager::MintEvent", testDay)
}

func TestKeyFilenameSubstitutesIllegalChars(t *testing.T) {
	k := NewKey("0x1::coin::Deposit<0x1::aptos_coin::AptosCoin>", testDay)
	assert.Equal(t, "0x1_coin_Deposit_0x1_aptos_coin_AptosCoin__events_20250601.json", k.Filename())
}

func TestFileStoreRoundTrip(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	stored := []events.Event{
		{Data: json.RawMessage(`{"user":"0xA","amount":"10"}`), TransactionVersion: 7},
		{Data: json.RawMessage(`{"user":"0xB","amount":"20"}`), TransactionVersion: 9},
	}
	require.NoError(t, s.Store(ctx, testKey(), stored))

	got, ok, err := s.Load(ctx, testKey())
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 2)
	assert.Equal(t, int64(7), got[0].TransactionVersion)
	assert.Equal(t, int64(9), got[1].TransactionVersion)
	assert.JSONEq(t, `{"user":"0xA","amount":"10"}`, string(got[0].Data))
}

func TestFileStoreAbsent(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, ok, err := s.Load(context.Background(), testKey())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStoreEmptySetIsPresent(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Store(ctx, testKey(), []events.Event{}))

	got, ok, err := s.Load(ctx, testKey())
	require.NoError(t, err)
	assert.True(t, ok, "an empty cached set is still a cache hit")
	assert.Empty(t, got)
}

func TestFileStoreMalformedFileIsMiss(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	path := filepath.Join(dir, testKey().Filename())
	require.NoError(t, os.WriteFile(path, []byte(`{"not":"a list"}`), 0o644))

	_, ok, err := s.Load(context.Background(), testKey())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStoreOverwrites(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Store(ctx, testKey(), []events.Event{{TransactionVersion: 1}}))
	require.NoError(t, s.Store(ctx, testKey(), []events.Event{{TransactionVersion: 2}, {TransactionVersion: 3}}))

	got, ok, err := s.Load(ctx, testKey())
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[0].TransactionVersion)
}

func TestFileStoreLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, s.Store(context.Background(), testKey(), []events.Event{{TransactionVersion: 1}}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, testKey().Filename(), entries[0].Name())
}
