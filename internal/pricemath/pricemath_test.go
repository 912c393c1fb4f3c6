package pricemath

import (
	"errors"
	"math"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
)

// sqrtPriceForRatio builds the sqrt-price whose squared ratio equals
// price0 * 10^(decimals1-decimals0), the representation pools report.
func sqrtPriceForRatio(t *testing.T, price0 int64, decimals0, decimals1 uint8) *big.Int {
	t.Helper()
	num := new(big.Int).Mul(big.NewInt(price0), q192)
	num.Mul(num, pow10(int(decimals1)))
	num.Div(num, pow10(int(decimals0)))
	return num.Sqrt(num)
}

func TestPricesFromSqrtPriceX96OneToOne(t *testing.T) {
	price0, price1, err := PricesFromSqrtPriceX96(new(big.Int).Set(q96), 18, 18)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !price0.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("price0 = %s, want 1", price0)
	}
	if !price1.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("price1 = %s, want 1", price1)
	}
}

func TestPricesFromSqrtPriceX96MixedDecimals(t *testing.T) {
	// Pool with decimals0=18, decimals1=6 at a 1:1800 ratio, the
	// WETH/USDC shape.
	sqrtPrice := sqrtPriceForRatio(t, 1800, 18, 6)

	price0, price1, err := PricesFromSqrtPriceX96(sqrtPrice, 18, 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got0, _ := price0.Float64()
	if math.Abs(got0-1800) > 0.001 {
		t.Fatalf("price0 = %s, want ~1800", price0)
	}
	got1, _ := price1.Float64()
	if math.Abs(got1-1.0/1800) > 1e-9 {
		t.Fatalf("price1 = %s, want ~%g", price1, 1.0/1800)
	}
}

func TestPricesFromSqrtPriceX96Symmetry(t *testing.T) {
	cases := []struct {
		price0    int64
		decimals0 uint8
		decimals1 uint8
	}{
		{1, 18, 18},
		{250, 18, 18},
		{1800, 18, 6},
		{42, 6, 18},
		{7, 8, 6},
	}

	for _, tc := range cases {
		sqrtPrice := sqrtPriceForRatio(t, tc.price0, tc.decimals0, tc.decimals1)
		price0, price1, err := PricesFromSqrtPriceX96(sqrtPrice, tc.decimals0, tc.decimals1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		product, _ := price0.Mul(price1).Float64()
		if math.Abs(product-1) > 1e-9 {
			t.Fatalf("price0*price1 = %g for ratio %d, want ~1", product, tc.price0)
		}
	}
}

func TestPricesFromSqrtPriceX96Zero(t *testing.T) {
	price0, price1, err := PricesFromSqrtPriceX96(big.NewInt(0), 18, 18)
	if err != nil {
		t.Fatalf("zero sqrt price must not error: %v", err)
	}
	if !price0.IsZero() || !price1.IsZero() {
		t.Fatalf("expected (0, 0), got (%s, %s)", price0, price1)
	}
}

func TestPricesFromSqrtPriceX96Negative(t *testing.T) {
	if _, _, err := PricesFromSqrtPriceX96(big.NewInt(-1), 18, 18); !errors.Is(err, ErrDomain) {
		t.Fatalf("expected ErrDomain, got %v", err)
	}
	if _, _, err := PricesFromSqrtPriceX96(nil, 18, 18); !errors.Is(err, ErrDomain) {
		t.Fatalf("expected ErrDomain for nil input, got %v", err)
	}
}

func TestTickAtPriceRoundTrip(t *testing.T) {
	for _, tick := range []int32{-120000, -5000, -1, 0, 1, 777, 5000, 120000} {
		price0, _ := PricesAtTick(tick, 18, 18)
		got, err := TickAtPrice(price0)
		if err != nil {
			t.Fatalf("tick %d: unexpected error: %v", tick, err)
		}
		diff := got - tick
		if diff < -1 || diff > 1 {
			t.Fatalf("round trip for tick %d gave %d", tick, got)
		}
	}
}

func TestTickAtPriceDomain(t *testing.T) {
	if _, err := TickAtPrice(decimal.Zero); !errors.Is(err, ErrDomain) {
		t.Fatalf("expected ErrDomain for zero price, got %v", err)
	}
	if _, err := TickAtPrice(decimal.NewFromInt(-3)); !errors.Is(err, ErrDomain) {
		t.Fatalf("expected ErrDomain for negative price, got %v", err)
	}
}

func TestPricesAtTickInverse(t *testing.T) {
	price0, price1 := PricesAtTick(6932, 18, 18)
	got0, _ := price0.Float64()
	// 1.0001^6932 is very close to 2.
	if math.Abs(got0-2) > 0.001 {
		t.Fatalf("price0 = %s, want ~2", price0)
	}
	product, _ := price0.Mul(price1).Float64()
	if math.Abs(product-1) > 1e-9 {
		t.Fatalf("price0*price1 = %g, want ~1", product)
	}
}
