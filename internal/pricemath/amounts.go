package pricemath

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// AmountsForLiquidity converts in-range liquidity into the token
// amounts it represents, split on whether the current sqrt price sits
// below, inside or above [tickLower, tickUpper]. Divisions truncate
// toward zero, consistent with the protocol's own rounding. The result
// amounts are decimal strings with no trailing-zero artifacts.
func AmountsForLiquidity(liquidity, sqrtPriceX96 *big.Int, tickLower, tickUpper int32, decimals0, decimals1 uint8) (string, string, error) {
	if liquidity == nil || liquidity.Sign() < 0 {
		return "", "", fmt.Errorf("%w: liquidity must be non-negative", ErrDomain)
	}
	if sqrtPriceX96 == nil || sqrtPriceX96.Sign() <= 0 {
		return "", "", fmt.Errorf("%w: sqrt price must be positive", ErrDomain)
	}
	if tickLower >= tickUpper {
		return "", "", fmt.Errorf("%w: tick range [%d, %d) is empty", ErrDomain, tickLower, tickUpper)
	}

	sqrtLower, err := SqrtPriceX96AtTick(tickLower)
	if err != nil {
		return "", "", err
	}
	sqrtUpper, err := SqrtPriceX96AtTick(tickUpper)
	if err != nil {
		return "", "", err
	}

	amount0 := big.NewInt(0)
	amount1 := big.NewInt(0)
	switch {
	case sqrtPriceX96.Cmp(sqrtLower) <= 0:
		// All liquidity is held as token0.
		amount0 = amount0Delta(sqrtLower, sqrtUpper, liquidity)
	case sqrtPriceX96.Cmp(sqrtUpper) < 0:
		amount0 = amount0Delta(sqrtPriceX96, sqrtUpper, liquidity)
		amount1 = amount1Delta(sqrtLower, sqrtPriceX96, liquidity)
	default:
		amount1 = amount1Delta(sqrtLower, sqrtUpper, liquidity)
	}

	return FormatAmount(amount0, decimals0), FormatAmount(amount1, decimals1), nil
}

// amount0Delta computes floor(L * 2^96 * (sqrtB - sqrtA) / sqrtB / sqrtA).
func amount0Delta(sqrtA, sqrtB, liquidity *big.Int) *big.Int {
	out := new(big.Int).Lsh(liquidity, 96)
	out.Mul(out, new(big.Int).Sub(sqrtB, sqrtA))
	out.Div(out, sqrtB)
	return out.Div(out, sqrtA)
}

// amount1Delta computes floor(L * (sqrtB - sqrtA) / 2^96).
func amount1Delta(sqrtA, sqrtB, liquidity *big.Int) *big.Int {
	out := new(big.Int).Mul(liquidity, new(big.Int).Sub(sqrtB, sqrtA))
	return out.Div(out, q96)
}

// FormatAmount renders a raw integer token amount as a decimal string
// scaled by the token's decimals, without trailing zeros.
func FormatAmount(value *big.Int, decimals uint8) string {
	if value == nil {
		return "0"
	}
	return decimal.NewFromBigInt(value, -int32(decimals)).String()
}
