// Package storage defines the persistence contract for the five
// collections the indexer keeps: tokens, pools, price_snapshots,
// candles and indexer_cursor. Any engine preserving the key structures
// and uniqueness invariants satisfies it; memory and postgres
// implementations live in subpackages.
//
// Address arguments are case-normalized by every implementation, so
// lookups are case-insensitive regardless of caller-supplied casing.
package storage

import (
	"context"
	"strings"

	"candleScope/internal/model"
)

// TokenStore holds token records keyed by address.
type TokenStore interface {
	// GetToken returns a token by address. ErrNotFound if absent.
	GetToken(ctx context.Context, address string) (model.Token, error)

	// AddTokenIfAbsent inserts a token unless the address is already
	// known. Returns true when a new record was created.
	AddTokenIfAbsent(ctx context.Context, token model.Token) (bool, error)

	// ListTokens returns all tokens ordered by address.
	ListTokens(ctx context.Context) ([]model.Token, error)
}

// PoolStore holds pool records keyed by address.
type PoolStore interface {
	// GetPool returns a pool by address. ErrNotFound if absent.
	GetPool(ctx context.Context, address string) (model.Pool, error)

	// AddPoolIfAbsent inserts a pool unless the address is already
	// known. Re-adding an identical pool is a silent no-op (false, nil);
	// re-adding with different identity fields is ErrConflict.
	AddPoolIfAbsent(ctx context.Context, pool model.Pool) (bool, error)

	// UpdatePoolLiveState replaces the pool's live-state sub-record.
	// Identity fields are untouched. ErrNotFound for unknown pools.
	UpdatePoolLiveState(ctx context.Context, address string, state model.PoolState) error

	// ListPools returns all pools ordered by address.
	ListPools(ctx context.Context) ([]model.Pool, error)

	// FindPoolsByTokenPair returns pools whose token pair matches
	// (a, b) in either order.
	FindPoolsByTokenPair(ctx context.Context, a, b string) ([]model.Pool, error)
}

// SnapshotStore is the append-only price snapshot series.
type SnapshotStore interface {
	// AppendSnapshot appends one observation and assigns its ID.
	AppendSnapshot(ctx context.Context, snapshot *model.PriceSnapshot) error

	// QuerySnapshots returns snapshots for a pool with
	// from <= timestamp <= to, ascending by timestamp with insertion
	// order breaking ties. limit <= 0 means no limit.
	QuerySnapshots(ctx context.Context, pool string, from, to int64, limit int) ([]model.PriceSnapshot, error)

	// LatestSnapshot returns the snapshot with the maximum timestamp
	// for the pool. ErrNotFound when the pool has none.
	LatestSnapshot(ctx context.Context, pool string) (model.PriceSnapshot, error)

	// SnapshotAtOrBefore returns the newest snapshot with
	// timestamp <= ts. ErrNotFound when none qualifies.
	SnapshotAtOrBefore(ctx context.Context, pool string, ts int64) (model.PriceSnapshot, error)

	// DeleteSnapshotsBefore removes snapshots with timestamp strictly
	// below cutoff and reports how many were removed.
	DeleteSnapshotsBefore(ctx context.Context, cutoff int64) (int64, error)
}

// CandleStore caches derived candles keyed by (pool, interval, bucket).
type CandleStore interface {
	// UpsertCandles inserts or replaces candles per bucket key.
	UpsertCandles(ctx context.Context, candles []model.Candle) error

	// QueryCandles returns cached candles for the pool and interval
	// with from <= timestamp <= to, ascending by timestamp.
	QueryCandles(ctx context.Context, pool, interval string, from, to int64) ([]model.Candle, error)

	// DeleteCandles removes cached candles in the window and reports
	// how many were removed.
	DeleteCandles(ctx context.Context, pool, interval string, from, to int64) (int64, error)
}

// CursorStore records scan progress and other process-wide facts.
type CursorStore interface {
	// GetCursor returns the value for key, with ok=false when the key
	// was never written.
	GetCursor(ctx context.Context, key string) (string, bool, error)

	// SetCursor creates or overwrites the entry for key.
	SetCursor(ctx context.Context, key, value string) error
}

// Store aggregates the five collections behind one handle, opened once
// at process start and closed on shutdown.
type Store interface {
	TokenStore
	PoolStore
	SnapshotStore
	CandleStore
	CursorStore

	Close()
}

// NormalizeAddress lower-cases an address key.
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}
