// Package memory provides the in-memory storage engine. It backs tests
// and the embedded mode when no database is configured.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"candleScope/internal/model"
	"candleScope/internal/storage"
)

// Store keeps all five collections in process memory behind one lock.
// Reads return copies so callers can never alias internal state.
type Store struct {
	mu             sync.RWMutex
	tokens         map[string]model.Token
	pools          map[string]model.Pool
	snapshots      []model.PriceSnapshot
	nextSnapshotID int64
	candles        map[string]model.Candle
	cursors        map[string]model.CursorEntry
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		tokens:         make(map[string]model.Token),
		pools:          make(map[string]model.Pool),
		nextSnapshotID: 1,
		candles:        make(map[string]model.Candle),
		cursors:        make(map[string]model.CursorEntry),
	}
}

// Close satisfies storage.Store; nothing to release.
func (s *Store) Close() {}

func (s *Store) GetToken(_ context.Context, address string) (model.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token, ok := s.tokens[storage.NormalizeAddress(address)]
	if !ok {
		return model.Token{}, storage.ErrNotFound
	}
	return token, nil
}

func (s *Store) AddTokenIfAbsent(_ context.Context, token model.Token) (bool, error) {
	key := storage.NormalizeAddress(token.Address)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tokens[key]; ok {
		return false, nil
	}
	token.Address = key
	s.tokens[key] = token
	return true, nil
}

func (s *Store) ListTokens(_ context.Context) ([]model.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Token, 0, len(s.tokens))
	for _, token := range s.tokens {
		out = append(out, token)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out, nil
}

func (s *Store) GetPool(_ context.Context, address string) (model.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pool, ok := s.pools[storage.NormalizeAddress(address)]
	if !ok {
		return model.Pool{}, storage.ErrNotFound
	}
	return copyPool(pool), nil
}

func (s *Store) AddPoolIfAbsent(_ context.Context, pool model.Pool) (bool, error) {
	key := storage.NormalizeAddress(pool.Address)
	pool.Address = key
	pool.Token0 = storage.NormalizeAddress(pool.Token0)
	pool.Token1 = storage.NormalizeAddress(pool.Token1)

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.pools[key]; ok {
		if !existing.SameIdentity(pool) {
			return false, fmt.Errorf("%w: pool %s identity differs from prior record", storage.ErrConflict, key)
		}
		return false, nil
	}
	s.pools[key] = copyPool(pool)
	return true, nil
}

func (s *Store) UpdatePoolLiveState(_ context.Context, address string, state model.PoolState) error {
	key := storage.NormalizeAddress(address)

	s.mu.Lock()
	defer s.mu.Unlock()

	pool, ok := s.pools[key]
	if !ok {
		return storage.ErrNotFound
	}
	stateCopy := state
	pool.State = &stateCopy
	s.pools[key] = pool
	return nil
}

func (s *Store) ListPools(_ context.Context) ([]model.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Pool, 0, len(s.pools))
	for _, pool := range s.pools {
		out = append(out, copyPool(pool))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out, nil
}

func (s *Store) FindPoolsByTokenPair(_ context.Context, a, b string) ([]model.Pool, error) {
	a = storage.NormalizeAddress(a)
	b = storage.NormalizeAddress(b)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Pool
	for _, pool := range s.pools {
		if (pool.Token0 == a && pool.Token1 == b) || (pool.Token0 == b && pool.Token1 == a) {
			out = append(out, copyPool(pool))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out, nil
}

func (s *Store) AppendSnapshot(_ context.Context, snapshot *model.PriceSnapshot) error {
	if snapshot == nil {
		return fmt.Errorf("snapshot is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot.ID = s.nextSnapshotID
	s.nextSnapshotID++
	snapshot.PoolAddress = storage.NormalizeAddress(snapshot.PoolAddress)
	s.snapshots = append(s.snapshots, *snapshot)
	return nil
}

func (s *Store) QuerySnapshots(_ context.Context, pool string, from, to int64, limit int) ([]model.PriceSnapshot, error) {
	key := storage.NormalizeAddress(pool)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.PriceSnapshot
	for _, snap := range s.snapshots {
		if snap.PoolAddress == key && snap.Timestamp >= from && snap.Timestamp <= to {
			out = append(out, snap)
		}
	}
	// Stable keeps insertion order for equal timestamps.
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) LatestSnapshot(ctx context.Context, pool string) (model.PriceSnapshot, error) {
	return s.SnapshotAtOrBefore(ctx, pool, math.MaxInt64)
}

func (s *Store) SnapshotAtOrBefore(_ context.Context, pool string, ts int64) (model.PriceSnapshot, error) {
	key := storage.NormalizeAddress(pool)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *model.PriceSnapshot
	for i := range s.snapshots {
		snap := &s.snapshots[i]
		if snap.PoolAddress != key || snap.Timestamp > ts {
			continue
		}
		if best == nil || snap.Timestamp > best.Timestamp ||
			(snap.Timestamp == best.Timestamp && snap.ID > best.ID) {
			best = snap
		}
	}
	if best == nil {
		return model.PriceSnapshot{}, storage.ErrNotFound
	}
	return *best, nil
}

func (s *Store) DeleteSnapshotsBefore(_ context.Context, cutoff int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.snapshots[:0]
	var removed int64
	for _, snap := range s.snapshots {
		if snap.Timestamp < cutoff {
			removed++
			continue
		}
		kept = append(kept, snap)
	}
	s.snapshots = kept
	return removed, nil
}

func (s *Store) UpsertCandles(_ context.Context, candles []model.Candle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, candle := range candles {
		candle.PoolAddress = storage.NormalizeAddress(candle.PoolAddress)
		s.candles[candleKey(candle.PoolAddress, candle.Interval, candle.Timestamp)] = candle
	}
	return nil
}

func (s *Store) QueryCandles(_ context.Context, pool, interval string, from, to int64) ([]model.Candle, error) {
	key := storage.NormalizeAddress(pool)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Candle
	for _, candle := range s.candles {
		if candle.PoolAddress == key && candle.Interval == interval &&
			candle.Timestamp >= from && candle.Timestamp <= to {
			out = append(out, candle)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out, nil
}

func (s *Store) DeleteCandles(_ context.Context, pool, interval string, from, to int64) (int64, error) {
	key := storage.NormalizeAddress(pool)

	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for mapKey, candle := range s.candles {
		if candle.PoolAddress == key && candle.Interval == interval &&
			candle.Timestamp >= from && candle.Timestamp <= to {
			delete(s.candles, mapKey)
			removed++
		}
	}
	return removed, nil
}

func (s *Store) GetCursor(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.cursors[key]
	if !ok {
		return "", false, nil
	}
	return entry.Value, true, nil
}

func (s *Store) SetCursor(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cursors[key] = model.CursorEntry{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	return nil
}

func copyPool(pool model.Pool) model.Pool {
	if pool.State != nil {
		state := *pool.State
		pool.State = &state
	}
	return pool
}

func candleKey(pool, interval string, ts int64) string {
	return fmt.Sprintf("%s|%s|%d", pool, interval, ts)
}
