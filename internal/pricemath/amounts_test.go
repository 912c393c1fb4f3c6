package pricemath

import (
	"errors"
	"math"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
)

func parseAmount(t *testing.T, s string) float64 {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("invalid amount %q: %v", s, err)
	}
	f, _ := d.Float64()
	return f
}

func TestAmountsForLiquidityInRange(t *testing.T) {
	liquidity, _ := new(big.Int).SetString("1000000000000000000", 10)

	amount0, amount1, err := AmountsForLiquidity(liquidity, new(big.Int).Set(q96), -60, 60, 18, 18)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// At tick 0 with a symmetric [-60, 60] range both sides hold
	// L * (1 - 1/sqrt(1.0001^60)) raw units.
	want := 1.0 - 1.0/math.Pow(1.0001, 30)
	got0 := parseAmount(t, amount0)
	got1 := parseAmount(t, amount1)
	if math.Abs(got0-want) > 1e-9 {
		t.Fatalf("amount0 = %s, want ~%g", amount0, want)
	}
	if math.Abs(got1-want) > 1e-9 {
		t.Fatalf("amount1 = %s, want ~%g", amount1, want)
	}
}

func TestAmountsForLiquidityBelowRange(t *testing.T) {
	liquidity, _ := new(big.Int).SetString("1000000000000000000", 10)
	below, err := SqrtPriceX96AtTick(-120)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	amount0, amount1, err := AmountsForLiquidity(liquidity, below, -60, 60, 18, 18)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if amount1 != "0" {
		t.Fatalf("amount1 = %s, want 0 below range", amount1)
	}
	if parseAmount(t, amount0) <= 0 {
		t.Fatalf("amount0 = %s, want positive below range", amount0)
	}
}

func TestAmountsForLiquidityAboveRange(t *testing.T) {
	liquidity, _ := new(big.Int).SetString("1000000000000000000", 10)
	above, err := SqrtPriceX96AtTick(120)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	amount0, amount1, err := AmountsForLiquidity(liquidity, above, -60, 60, 18, 18)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if amount0 != "0" {
		t.Fatalf("amount0 = %s, want 0 above range", amount0)
	}
	if parseAmount(t, amount1) <= 0 {
		t.Fatalf("amount1 = %s, want positive above range", amount1)
	}
}

func TestAmountsForLiquidityInvalidRange(t *testing.T) {
	if _, _, err := AmountsForLiquidity(big.NewInt(1), big.NewInt(1), 60, -60, 18, 18); !errors.Is(err, ErrDomain) {
		t.Fatalf("expected ErrDomain, got %v", err)
	}
	if _, _, err := AmountsForLiquidity(big.NewInt(-1), big.NewInt(1), -60, 60, 18, 18); !errors.Is(err, ErrDomain) {
		t.Fatalf("expected ErrDomain for negative liquidity, got %v", err)
	}
}

func TestFormatAmountTrimsTrailingZeros(t *testing.T) {
	value, _ := new(big.Int).SetString("1500000", 10)
	if got := FormatAmount(value, 6); got != "1.5" {
		t.Fatalf("FormatAmount = %q, want 1.5", got)
	}
	if got := FormatAmount(big.NewInt(0), 18); got != "0" {
		t.Fatalf("FormatAmount zero = %q, want 0", got)
	}
	if got := FormatAmount(nil, 18); got != "0" {
		t.Fatalf("FormatAmount nil = %q, want 0", got)
	}
}
