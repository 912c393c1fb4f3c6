package model

import (
	"math/big"
	"time"
)

// Pool is a V3 pool record. Identity (token0, token1, fee, tick spacing)
// is write-once; only State is updated in place, and only by a
// state-refresh operation.
type Pool struct {
	Address     string     `json:"address"`
	Token0      string     `json:"token0"`
	Token1      string     `json:"token1"`
	Fee         uint32     `json:"fee"`
	TickSpacing int32      `json:"tick_spacing"`
	State       *PoolState `json:"state,omitempty"`
}

// PoolState is the mutable live-state sub-record of a pool. Large
// integers are carried as decimal strings.
type PoolState struct {
	SqrtPriceX96     string    `json:"sqrt_price_x96"`
	Tick             int32     `json:"tick"`
	Liquidity        string    `json:"liquidity"`
	FeeGrowthGlobal0 string    `json:"fee_growth_global0"`
	FeeGrowthGlobal1 string    `json:"fee_growth_global1"`
	LastUpdated      time.Time `json:"last_updated"`
}

// SqrtPrice parses the sqrt price into a big integer. Returns false when
// the state carries no usable value.
func (s *PoolState) SqrtPrice() (*big.Int, bool) {
	if s == nil || s.SqrtPriceX96 == "" {
		return nil, false
	}
	value, ok := new(big.Int).SetString(s.SqrtPriceX96, 10)
	if !ok || value.Sign() <= 0 {
		return nil, false
	}
	return value, true
}

// SameIdentity reports whether two pool records agree on the write-once
// identity fields.
func (p Pool) SameIdentity(other Pool) bool {
	return p.Token0 == other.Token0 &&
		p.Token1 == other.Token1 &&
		p.Fee == other.Fee &&
		p.TickSpacing == other.TickSpacing
}
