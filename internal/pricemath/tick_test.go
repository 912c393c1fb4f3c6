package pricemath

import (
	"errors"
	"math/big"
	"testing"
)

func TestSqrtPriceX96AtTickZero(t *testing.T) {
	got, err := SqrtPriceX96AtTick(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Cmp(q96) != 0 {
		t.Fatalf("tick 0 sqrt price = %s, want 2^96", got)
	}
}

func TestSqrtPriceX96AtTickBounds(t *testing.T) {
	minRatio, _ := new(big.Int).SetString("4295128739", 10)
	maxRatio, _ := new(big.Int).SetString("1461446703485210103287273052203988822378723970342", 10)

	got, err := SqrtPriceX96AtTick(MinTick)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Cmp(minRatio) != 0 {
		t.Fatalf("min tick sqrt price = %s, want %s", got, minRatio)
	}

	got, err = SqrtPriceX96AtTick(MaxTick)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Cmp(maxRatio) != 0 {
		t.Fatalf("max tick sqrt price = %s, want %s", got, maxRatio)
	}
}

func TestSqrtPriceX96AtTickMonotonic(t *testing.T) {
	prev, err := SqrtPriceX96AtTick(-1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for tick := int32(-999); tick <= 1000; tick += 7 {
		cur, err := SqrtPriceX96AtTick(tick)
		if err != nil {
			t.Fatalf("tick %d: unexpected error: %v", tick, err)
		}
		if cur.Cmp(prev) <= 0 {
			t.Fatalf("sqrt price not increasing at tick %d", tick)
		}
		prev = cur
	}
}

func TestSqrtPriceX96AtTickOutOfRange(t *testing.T) {
	if _, err := SqrtPriceX96AtTick(MaxTick + 1); !errors.Is(err, ErrDomain) {
		t.Fatalf("expected ErrDomain, got %v", err)
	}
	if _, err := SqrtPriceX96AtTick(MinTick - 1); !errors.Is(err, ErrDomain) {
		t.Fatalf("expected ErrDomain, got %v", err)
	}
}
