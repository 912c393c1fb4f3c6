// Package candle derives OHLCV candles from the snapshot series and
// caches them per (pool, interval, bucket).
package candle

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"candleScope/internal/model"
	"candleScope/internal/storage"
)

// Aggregator builds candles from snapshots. Candles are a cache; the
// snapshot series stays authoritative and candles can be rebuilt at any
// time.
type Aggregator struct {
	store  storage.Store
	logger *zap.Logger
}

// NewAggregator builds an Aggregator.
func NewAggregator(store storage.Store, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{store: store, logger: logger}
}

// GetCandles returns candles for the window, serving from the cache
// when any cached candle intersects it. A cache hit short-circuits the
// rebuild even if newer snapshots have arrived; use RebuildCandles to
// force a recompute.
func (a *Aggregator) GetCandles(ctx context.Context, pool, interval string, from, to int64) ([]model.Candle, error) {
	pool = storage.NormalizeAddress(pool)
	if _, err := a.store.GetPool(ctx, pool); err != nil {
		return nil, err
	}

	cached, err := a.store.QueryCandles(ctx, pool, interval, from, to)
	if err != nil {
		return nil, fmt.Errorf("query candles: %w", err)
	}
	if len(cached) > 0 {
		return cached, nil
	}

	built, err := a.BuildCandles(ctx, pool, interval, from, to)
	if err != nil {
		return nil, err
	}
	if len(built) > 0 {
		if err := a.store.UpsertCandles(ctx, built); err != nil {
			return nil, fmt.Errorf("cache candles: %w", err)
		}
	}
	return built, nil
}

// RebuildCandles drops the cached window and recomputes it from the
// snapshot series.
func (a *Aggregator) RebuildCandles(ctx context.Context, pool, interval string, from, to int64) ([]model.Candle, error) {
	pool = storage.NormalizeAddress(pool)
	if _, err := a.store.GetPool(ctx, pool); err != nil {
		return nil, err
	}

	removed, err := a.store.DeleteCandles(ctx, pool, interval, from, to)
	if err != nil {
		return nil, fmt.Errorf("drop cached candles: %w", err)
	}
	if removed > 0 {
		a.logger.Info("candle cache invalidated",
			zap.String("pool", pool),
			zap.String("interval", interval),
			zap.Int64("removed", removed))
	}

	built, err := a.BuildCandles(ctx, pool, interval, from, to)
	if err != nil {
		return nil, err
	}
	if len(built) > 0 {
		if err := a.store.UpsertCandles(ctx, built); err != nil {
			return nil, fmt.Errorf("cache candles: %w", err)
		}
	}
	return built, nil
}

// BuildCandles folds the pool's snapshots in [from, to] into candles.
// Buckets advance forward only: a snapshot whose bucket lies behind the
// open one is folded into the open candle, absorbing minor clock
// jitter. Empty buckets produce no candle.
func (a *Aggregator) BuildCandles(ctx context.Context, pool, interval string, from, to int64) ([]model.Candle, error) {
	pool = storage.NormalizeAddress(pool)
	width := IntervalWidth(interval)

	snapshots, err := a.store.QuerySnapshots(ctx, pool, from, to, 0)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	if len(snapshots) == 0 {
		return nil, nil
	}

	candles := make([]model.Candle, 0, len(snapshots)/2+1)
	var open *model.Candle
	for _, snap := range snapshots {
		bucket := bucketFloor(snap.Timestamp, width)
		if open == nil || bucket > open.Timestamp {
			if open != nil {
				candles = append(candles, *open)
			}
			open = &model.Candle{
				PoolAddress: pool,
				Interval:    interval,
				Timestamp:   bucket,
				Open:        snap.Price0,
				High:        snap.Price0,
				Low:         snap.Price0,
				Close:       snap.Price0,
			}
			continue
		}

		if snap.Price0.GreaterThan(open.High) {
			open.High = snap.Price0
		}
		if snap.Price0.LessThan(open.Low) {
			open.Low = snap.Price0
		}
		open.Close = snap.Price0
	}
	candles = append(candles, *open)

	return candles, nil
}

// Change24h returns the percent change of the pool's token0 price over
// the 24 hours ending at its latest snapshot. Zero when no baseline
// snapshot exists or the baseline price is zero.
func (a *Aggregator) Change24h(ctx context.Context, pool string) (decimal.Decimal, error) {
	pool = storage.NormalizeAddress(pool)
	latest, err := a.store.LatestSnapshot(ctx, pool)
	if err != nil {
		return decimal.Zero, err
	}

	baseline, err := a.store.SnapshotAtOrBefore(ctx, pool, latest.Timestamp-86400)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	if baseline.Price0.IsZero() {
		return decimal.Zero, nil
	}

	hundred := decimal.NewFromInt(100)
	return latest.Price0.Sub(baseline.Price0).Div(baseline.Price0).Mul(hundred), nil
}

func bucketFloor(ts, width int64) int64 {
	floor := ts / width * width
	if ts < 0 && ts%width != 0 {
		floor -= width
	}
	return floor
}
