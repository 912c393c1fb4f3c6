package indexer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"candleScope/internal/chain"
	"candleScope/internal/model"
	"candleScope/internal/storage"
)

// RefreshPool re-reads one pool's on-chain state and stores it. The
// pool must already be registered.
func (r *Runner) RefreshPool(ctx context.Context, address string) error {
	address = storage.NormalizeAddress(address)
	if _, err := r.store.GetPool(ctx, address); err != nil {
		return err
	}

	var state chain.PoolState
	err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		state, err = r.reader.ReadPoolState(ctx, address)
		return err
	})
	if err != nil {
		return fmt.Errorf("read pool state %s: %w", address, err)
	}

	live := model.PoolState{
		SqrtPriceX96:     state.SqrtPriceX96.String(),
		Tick:             state.Tick,
		Liquidity:        state.Liquidity.String(),
		FeeGrowthGlobal0: state.FeeGrowthGlobal0.String(),
		FeeGrowthGlobal1: state.FeeGrowthGlobal1.String(),
		LastUpdated:      time.Now().UTC(),
	}
	return r.store.UpdatePoolLiveState(ctx, address, live)
}

// RefreshAll re-reads the state of every registered pool. A pool whose
// read fails is logged and skipped; the return value counts successes.
func (r *Runner) RefreshAll(ctx context.Context) (int, error) {
	pools, err := r.store.ListPools(ctx)
	if err != nil {
		return 0, fmt.Errorf("list pools: %w", err)
	}

	refreshed := 0
	for _, pool := range pools {
		select {
		case <-ctx.Done():
			return refreshed, ctx.Err()
		default:
		}

		if err := r.RefreshPool(ctx, pool.Address); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return refreshed, err
			}
			r.logger.Warn("refresh pool failed", zap.String("pool", pool.Address), zap.Error(err))
			continue
		}
		refreshed++
	}

	r.logger.Info("refresh pass complete", zap.Int("refreshed", refreshed), zap.Int("pools", len(pools)))
	return refreshed, nil
}
