package model

import "time"

// Token metadata defaults used when the on-chain contract misbehaves.
// A token record is always created so indexing is never blocked.
const (
	DefaultTokenSymbol   = "UNKNOWN"
	DefaultTokenName     = "Unknown Token"
	DefaultTokenDecimals = uint8(18)
)

// Token is an ERC20 token record. Identity fields are write-once.
type Token struct {
	Address   string    `json:"address"`
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name"`
	Decimals  uint8     `json:"decimals"`
	CreatedAt time.Time `json:"created_at"`
}
