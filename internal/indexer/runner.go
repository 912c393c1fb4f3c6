// Package indexer discovers pools from factory creation events and
// keeps their on-chain state current in storage.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"candleScope/internal/chain"
	"candleScope/internal/model"
	"candleScope/internal/storage"
)

// ErrScanInProgress is returned when a discovery pass is started while
// another one is still running.
var ErrScanInProgress = errors.New("indexer: scan already in progress")

// Config holds runtime settings for discovery passes.
type Config struct {
	GenesisBlock uint64
	BatchSize    uint64
	MaxRetries   int
	RetryBackoff time.Duration
	CursorKey    string
}

// PassResult summarizes one discovery pass.
type PassResult struct {
	FromBlock    uint64
	ToBlock      uint64
	PoolsFound   int
	PoolsAdded   int
	FailedRanges []BlockRange
}

// Runner scans factory logs into the pool and token registry. At most
// one pass runs at a time per Runner.
type Runner struct {
	cfg    Config
	reader chain.Reader
	store  storage.Store
	logger *zap.Logger

	running sync.Mutex
}

// NewRunner builds a Runner with its dependencies.
func NewRunner(cfg Config, reader chain.Reader, store storage.Store, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 2000
	}
	if cfg.CursorKey == "" {
		cfg.CursorKey = model.CursorKeyLastIndexedBlock
	}
	return &Runner{
		cfg:    cfg,
		reader: reader,
		store:  store,
		logger: logger,
	}
}

// Discover scans [fromBlock, head] for pool creations. A zero
// fromBlock resumes from the stored cursor, falling back to the
// configured genesis block when no cursor exists. The cursor is saved
// after every completed batch, so a cancelled pass resumes at the first
// unscanned batch.
func (r *Runner) Discover(ctx context.Context, fromBlock uint64) (PassResult, error) {
	if !r.running.TryLock() {
		return PassResult{}, ErrScanInProgress
	}
	defer r.running.Unlock()

	if r.reader == nil {
		return PassResult{}, fmt.Errorf("chain reader is nil")
	}
	if r.store == nil {
		return PassResult{}, fmt.Errorf("store is nil")
	}

	from := fromBlock
	if from == 0 {
		resumed, err := r.resumeBlock(ctx)
		if err != nil {
			return PassResult{}, err
		}
		from = resumed
	}

	head, err := r.headBlockWithRetry(ctx)
	if err != nil {
		return PassResult{}, fmt.Errorf("get head block: %w", err)
	}

	result := PassResult{FromBlock: from, ToBlock: head}
	if from > head {
		r.logger.Info("nothing to scan", zap.Uint64("from", from), zap.Uint64("head", head))
		return result, nil
	}

	ranges, err := SplitRange(from, head, r.cfg.BatchSize)
	if err != nil {
		return PassResult{}, err
	}

	for _, blockRange := range ranges {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		found, added, err := r.scanBatch(ctx, blockRange)
		result.PoolsFound += found
		result.PoolsAdded += added
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return result, err
			}
			result.FailedRanges = append(result.FailedRanges, blockRange)
			r.logger.Warn("batch failed, skipping range",
				zap.Uint64("from", blockRange.From),
				zap.Uint64("to", blockRange.To),
				zap.Error(err))
		}

		if err := r.saveCursor(ctx, blockRange.To); err != nil {
			return result, fmt.Errorf("save cursor: %w", err)
		}
	}

	r.logger.Info("discovery pass complete",
		zap.Uint64("from", result.FromBlock),
		zap.Uint64("to", result.ToBlock),
		zap.Int("pools_found", result.PoolsFound),
		zap.Int("pools_added", result.PoolsAdded),
		zap.Int("failed_ranges", len(result.FailedRanges)))
	return result, nil
}

func (r *Runner) scanBatch(ctx context.Context, blockRange BlockRange) (found, added int, err error) {
	r.logger.Info("fetch pool creations", zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To))

	events, err := r.poolCreatedEventsWithRetry(ctx, blockRange.From, blockRange.To)
	if err != nil {
		return 0, 0, err
	}

	for _, event := range events {
		found++
		wasAdded, err := r.registerPool(ctx, event)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return found, added, err
			}
			r.logger.Warn("register pool failed",
				zap.String("pool", event.PoolAddress),
				zap.Uint64("block", event.BlockNumber),
				zap.Error(err))
			continue
		}
		if wasAdded {
			added++
		}
	}
	return found, added, nil
}

// registerPool stores the pair tokens and the pool, then reads its live
// state once so new pools are immediately priceable. Duplicate events
// are idempotent.
func (r *Runner) registerPool(ctx context.Context, event chain.PoolCreatedEvent) (bool, error) {
	tokens := r.fetchTokens(ctx, event.Token0, event.Token1)
	for _, token := range tokens {
		if _, err := r.store.AddTokenIfAbsent(ctx, token); err != nil {
			return false, fmt.Errorf("store token %s: %w", token.Address, err)
		}
	}

	pool := model.Pool{
		Address:     storage.NormalizeAddress(event.PoolAddress),
		Token0:      storage.NormalizeAddress(event.Token0),
		Token1:      storage.NormalizeAddress(event.Token1),
		Fee:         event.Fee,
		TickSpacing: event.TickSpacing,
	}
	added, err := r.store.AddPoolIfAbsent(ctx, pool)
	if err != nil {
		return false, fmt.Errorf("store pool %s: %w", pool.Address, err)
	}

	if err := r.RefreshPool(ctx, pool.Address); err != nil {
		r.logger.Warn("initial state read failed", zap.String("pool", pool.Address), zap.Error(err))
	}
	return added, nil
}

// fetchTokens reads metadata for both pair tokens concurrently. A token
// whose metadata cannot be read is stored with placeholder fields so
// the pool still registers.
func (r *Runner) fetchTokens(ctx context.Context, addresses ...string) []model.Token {
	tokens := make([]model.Token, len(addresses))
	var wg sync.WaitGroup
	for i, address := range addresses {
		wg.Add(1)
		go func(i int, address string) {
			defer wg.Done()
			tokens[i] = r.fetchToken(ctx, address)
		}(i, address)
	}
	wg.Wait()
	return tokens
}

func (r *Runner) fetchToken(ctx context.Context, address string) model.Token {
	token := model.Token{
		Address:   storage.NormalizeAddress(address),
		Symbol:    model.DefaultTokenSymbol,
		Name:      model.DefaultTokenName,
		Decimals:  model.DefaultTokenDecimals,
		CreatedAt: time.Now().UTC(),
	}

	var meta chain.TokenMetadata
	err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		meta, err = r.reader.ReadTokenMetadata(ctx, address)
		return err
	})
	if err != nil {
		// Decimals stay at the default, but any symbol or name the
		// partial read surfaced is still better than the sentinel.
		r.logger.Warn("token metadata fetch failed", zap.String("token", address), zap.Error(err))
	} else {
		token.Decimals = meta.Decimals
	}
	if meta.Symbol != "" {
		token.Symbol = meta.Symbol
	}
	if meta.Name != "" {
		token.Name = meta.Name
	}
	return token
}

func (r *Runner) resumeBlock(ctx context.Context) (uint64, error) {
	value, ok, err := r.store.GetCursor(ctx, r.cfg.CursorKey)
	if err != nil {
		return 0, fmt.Errorf("load cursor: %w", err)
	}
	if !ok {
		return r.cfg.GenesisBlock, nil
	}
	last, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		r.logger.Warn("malformed cursor, starting from genesis", zap.String("value", value))
		return r.cfg.GenesisBlock, nil
	}
	r.logger.Info("resume from cursor", zap.Uint64("last_indexed", last))
	return last + 1, nil
}

func (r *Runner) saveCursor(ctx context.Context, block uint64) error {
	return r.store.SetCursor(ctx, r.cfg.CursorKey, strconv.FormatUint(block, 10))
}

func (r *Runner) headBlockWithRetry(ctx context.Context) (uint64, error) {
	var head uint64
	err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		head, err = r.reader.HeadBlock(ctx)
		return err
	})
	return head, err
}

func (r *Runner) poolCreatedEventsWithRetry(ctx context.Context, fromBlock, toBlock uint64) ([]chain.PoolCreatedEvent, error) {
	var events []chain.PoolCreatedEvent
	err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		events, err = r.reader.PoolCreatedEvents(ctx, fromBlock, toBlock)
		if err != nil {
			r.logger.Warn("fetch pool creations failed", zap.Error(err), zap.Uint64("from", fromBlock), zap.Uint64("to", toBlock))
		}
		return err
	})
	return events, err
}
