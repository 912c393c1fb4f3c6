// Package snapshot turns pool live state into the append-only price
// series that candles are derived from.
package snapshot

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"candleScope/internal/model"
	"candleScope/internal/pricemath"
	"candleScope/internal/storage"
)

// Capturer appends price snapshots for every priceable pool. It is the
// sole writer of the snapshot series.
type Capturer struct {
	store  storage.Store
	logger *zap.Logger
}

// NewCapturer builds a Capturer.
func NewCapturer(store storage.Store, logger *zap.Logger) *Capturer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Capturer{store: store, logger: logger}
}

// CaptureAll appends one snapshot per pool at the given timestamp.
// Pools without a live sqrt price or with an unresolvable token are
// skipped, not failed. Returns the number of snapshots written.
func (c *Capturer) CaptureAll(ctx context.Context, now int64) (int, error) {
	pools, err := c.store.ListPools(ctx)
	if err != nil {
		return 0, fmt.Errorf("list pools: %w", err)
	}

	written := 0
	for _, pool := range pools {
		select {
		case <-ctx.Done():
			return written, ctx.Err()
		default:
		}

		snap, ok, err := c.capturePool(ctx, pool, now)
		if err != nil {
			c.logger.Warn("capture pool failed", zap.String("pool", pool.Address), zap.Error(err))
			continue
		}
		if !ok {
			continue
		}
		if err := c.store.AppendSnapshot(ctx, snap); err != nil {
			c.logger.Warn("append snapshot failed", zap.String("pool", pool.Address), zap.Error(err))
			continue
		}
		written++
	}

	c.logger.Info("capture pass complete", zap.Int("snapshots", written), zap.Int("pools", len(pools)))
	return written, nil
}

func (c *Capturer) capturePool(ctx context.Context, pool model.Pool, now int64) (*model.PriceSnapshot, bool, error) {
	sqrtPrice, ok := pool.State.SqrtPrice()
	if !ok {
		return nil, false, nil
	}

	token0, err := c.store.GetToken(ctx, pool.Token0)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	token1, err := c.store.GetToken(ctx, pool.Token1)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	price0, price1, err := pricemath.PricesFromSqrtPriceX96(sqrtPrice, token0.Decimals, token1.Decimals)
	if err != nil {
		return nil, false, fmt.Errorf("price for %s: %w", pool.Address, err)
	}

	return &model.PriceSnapshot{
		PoolAddress:  pool.Address,
		Timestamp:    now,
		Price0:       price0,
		Price1:       price1,
		SqrtPriceX96: pool.State.SqrtPriceX96,
		Tick:         pool.State.Tick,
		Liquidity:    pool.State.Liquidity,
	}, true, nil
}

// CleanOlderThan removes snapshots strictly older than cutoff and
// reports how many were removed.
func (c *Capturer) CleanOlderThan(ctx context.Context, cutoff int64) (int64, error) {
	removed, err := c.store.DeleteSnapshotsBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete snapshots: %w", err)
	}
	if removed > 0 {
		c.logger.Info("snapshots cleaned", zap.Int64("removed", removed), zap.Int64("cutoff", cutoff))
	}
	return removed, nil
}

// History returns the pool's snapshots in [from, to], ascending by
// timestamp, at most limit entries when limit > 0. The pool must exist.
func (c *Capturer) History(ctx context.Context, pool string, from, to int64, limit int) ([]model.PriceSnapshot, error) {
	pool = storage.NormalizeAddress(pool)
	if _, err := c.store.GetPool(ctx, pool); err != nil {
		return nil, err
	}
	return c.store.QuerySnapshots(ctx, pool, from, to, limit)
}

// Latest returns the pool's most recent snapshot.
func (c *Capturer) Latest(ctx context.Context, pool string) (model.PriceSnapshot, error) {
	pool = storage.NormalizeAddress(pool)
	if _, err := c.store.GetPool(ctx, pool); err != nil {
		return model.PriceSnapshot{}, err
	}
	return c.store.LatestSnapshot(ctx, pool)
}
