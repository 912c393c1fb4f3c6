package chain

import (
	"context"
	"math/big"
)

// PoolCreatedEvent is one factory pool-creation log. Token order is as
// reported by the factory, not canonicalized by magnitude.
type PoolCreatedEvent struct {
	PoolAddress string
	Token0      string
	Token1      string
	Fee         uint32
	TickSpacing int32
	BlockNumber uint64
}

// TokenMetadata are the ERC20 descriptive fields. Each field is
// independently defaultable by the caller when a fetch partially fails.
type TokenMetadata struct {
	Name     string
	Symbol   string
	Decimals uint8
}

// PoolState is one logically atomic read of a pool's live state.
type PoolState struct {
	SqrtPriceX96     *big.Int
	Tick             int32
	Liquidity        *big.Int
	FeeGrowthGlobal0 *big.Int
	FeeGrowthGlobal1 *big.Int
}

// Reader is the abstracted chain client the indexer consumes. All
// methods honor the caller's context deadline; errors are recoverable
// per-item conditions, never process-fatal.
type Reader interface {
	// HeadBlock returns the current chain head number.
	HeadBlock(ctx context.Context) (uint64, error)

	// PoolCreatedEvents returns factory pool-creation events in the
	// inclusive block range.
	PoolCreatedEvents(ctx context.Context, fromBlock, toBlock uint64) ([]PoolCreatedEvent, error)

	// ReadTokenMetadata fetches ERC20 metadata. A non-nil error means
	// the decimals read failed; symbol and name are best-effort and may
	// be empty either way.
	ReadTokenMetadata(ctx context.Context, address string) (TokenMetadata, error)

	// ReadPoolState fetches slot0, liquidity and the fee-growth
	// accumulators pinned at a single block.
	ReadPoolState(ctx context.Context, address string) (PoolState, error)
}
