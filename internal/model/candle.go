package model

import "github.com/shopspring/decimal"

// Candle is a derived OHLCV aggregate for one (pool, interval, bucket).
// Timestamp is the bucket's floor-aligned start. Candles are a cache:
// the snapshot series stays authoritative and candles may be deleted
// and rebuilt at any time.
type Candle struct {
	PoolAddress string          `json:"pool_address"`
	Interval    string          `json:"interval"`
	Timestamp   int64           `json:"timestamp"`
	Open        decimal.Decimal `json:"open"`
	High        decimal.Decimal `json:"high"`
	Low         decimal.Decimal `json:"low"`
	Close       decimal.Decimal `json:"close"`
	Volume0     decimal.Decimal `json:"volume_token0"`
	Volume1     decimal.Decimal `json:"volume_token1"`
}
