package model

import "github.com/shopspring/decimal"

// PriceSnapshot is an immutable, append-only observation of a pool's
// price and liquidity. Timestamps come from the capture clock and are
// not guaranteed monotonic; readers must tolerate out-of-order rows.
type PriceSnapshot struct {
	ID           int64           `json:"id"`
	PoolAddress  string          `json:"pool_address"`
	Timestamp    int64           `json:"timestamp"`
	Price0       decimal.Decimal `json:"price_token0_in_token1"`
	Price1       decimal.Decimal `json:"price_token1_in_token0"`
	SqrtPriceX96 string          `json:"sqrt_price_x96"`
	Tick         int32           `json:"tick"`
	Liquidity    string          `json:"liquidity"`
	Volume0      decimal.Decimal `json:"volume0"`
	Volume1      decimal.Decimal `json:"volume1"`
	TVLUSD       decimal.Decimal `json:"tvl_usd"`
}
