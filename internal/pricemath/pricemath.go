// Package pricemath converts between the protocol's sqrt-price
// representation, discrete tick indices and human decimal prices.
// All functions are pure; conversions that stay on the chain-exact
// path use integer arithmetic only.
package pricemath

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// ErrDomain marks math input outside the valid domain. It is surfaced
// immediately and never silently defaulted.
var ErrDomain = errors.New("pricemath: input out of domain")

// priceScale is the number of decimal digits kept through integer
// scaling before conversion to a decimal value.
const priceScale = 18

var (
	q96  = new(big.Int).Lsh(big.NewInt(1), 96)
	q192 = new(big.Int).Lsh(big.NewInt(1), 192)

	tickBase = math.Log(1.0001)
)

// PricesFromSqrtPriceX96 converts a sqrt-price into the pair of human
// prices (token0 priced in token1, and the inverse). The square of the
// 96-bit-shifted value can need up to 512 bits, so everything stays on
// big.Int scaled by 10^18 until the final decimal conversion. A zero
// sqrt price yields (0, 0); that is not an error.
func PricesFromSqrtPriceX96(sqrtPriceX96 *big.Int, decimals0, decimals1 uint8) (decimal.Decimal, decimal.Decimal, error) {
	if sqrtPriceX96 == nil || sqrtPriceX96.Sign() < 0 {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: sqrt price must be non-negative", ErrDomain)
	}
	if sqrtPriceX96.Sign() == 0 {
		return decimal.Zero, decimal.Zero, nil
	}

	priceX192 := new(big.Int).Mul(sqrtPriceX96, sqrtPriceX96)

	// price0 = (sqrtPriceX96 / 2^96)^2 * 10^(decimals0-decimals1)
	num0 := new(big.Int).Mul(priceX192, pow10(int(decimals0)+priceScale))
	den0 := new(big.Int).Mul(q192, pow10(int(decimals1)))
	price0 := decimal.NewFromBigInt(num0.Div(num0, den0), -priceScale)

	if price0.IsZero() {
		return price0, decimal.Zero, nil
	}

	// The inverse is derived from the raw ratio, not from the already
	// truncated price0, so both directions keep full scaled precision.
	num1 := new(big.Int).Mul(q192, pow10(int(decimals1)+priceScale))
	den1 := new(big.Int).Mul(priceX192, pow10(int(decimals0)))
	price1 := decimal.NewFromBigInt(num1.Div(num1, den1), -priceScale)

	return price0, price1, nil
}

// PricesAtTick computes price0 = 1.0001^tick * 10^(decimals0-decimals1)
// and its inverse. This path necessarily goes through floating pow and
// is best-effort, not protocol-exact.
func PricesAtTick(tick int32, decimals0, decimals1 uint8) (decimal.Decimal, decimal.Decimal) {
	price := math.Pow(1.0001, float64(tick)) * math.Pow(10, float64(int(decimals0)-int(decimals1)))
	if price <= 0 || math.IsInf(price, 0) || math.IsNaN(price) {
		return decimal.Zero, decimal.Zero
	}
	inverse := 1 / price
	if math.IsInf(inverse, 0) || math.IsNaN(inverse) {
		return decimal.NewFromFloat(price), decimal.Zero
	}
	return decimal.NewFromFloat(price), decimal.NewFromFloat(inverse)
}

// TickAtPrice returns floor(log(price) / log(1.0001)). Fails with
// ErrDomain on non-positive input. Best-effort via floating log.
func TickAtPrice(price decimal.Decimal) (int32, error) {
	if price.Sign() <= 0 {
		return 0, fmt.Errorf("%w: price must be positive", ErrDomain)
	}
	f, _ := price.Float64()
	if f <= 0 {
		return 0, fmt.Errorf("%w: price underflows float range", ErrDomain)
	}
	return int32(math.Floor(math.Log(f) / tickBase)), nil
}

func pow10(exp int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(exp)), nil)
}
