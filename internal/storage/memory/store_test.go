package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"candleScope/internal/model"
	"candleScope/internal/storage"
)

func testPool(address string) model.Pool {
	return model.Pool{
		Address:     address,
		Token0:      "0xaaa0000000000000000000000000000000000001",
		Token1:      "0xbbb0000000000000000000000000000000000001",
		Fee:         3000,
		TickSpacing: 60,
	}
}

func TestTokenStoreCaseInsensitive(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	token := model.Token{
		Address:   "0xDEAD000000000000000000000000000000000001",
		Symbol:    "DEAD",
		Name:      "Dead Token",
		Decimals:  18,
		CreatedAt: time.Now(),
	}
	added, err := store.AddTokenIfAbsent(ctx, token)
	require.NoError(t, err)
	require.True(t, added)

	// Re-adding under different casing is a no-op.
	added, err = store.AddTokenIfAbsent(ctx, token)
	require.NoError(t, err)
	assert.False(t, added)

	got, err := store.GetToken(ctx, "0xdead000000000000000000000000000000000001")
	require.NoError(t, err)
	assert.Equal(t, "DEAD", got.Symbol)

	_, err = store.GetToken(ctx, "0xbeef000000000000000000000000000000000001")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPoolStoreIdentityConflict(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	pool := testPool("0x1000000000000000000000000000000000000001")
	added, err := store.AddPoolIfAbsent(ctx, pool)
	require.NoError(t, err)
	require.True(t, added)

	// Same identity is idempotent.
	added, err = store.AddPoolIfAbsent(ctx, pool)
	require.NoError(t, err)
	assert.False(t, added)

	// Same address with different identity fields must not overwrite.
	conflicting := pool
	conflicting.Fee = 500
	_, err = store.AddPoolIfAbsent(ctx, conflicting)
	assert.ErrorIs(t, err, storage.ErrConflict)

	got, err := store.GetPool(ctx, pool.Address)
	require.NoError(t, err)
	assert.Equal(t, uint32(3000), got.Fee)
}

func TestUpdatePoolLiveState(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	pool := testPool("0x1000000000000000000000000000000000000002")
	_, err := store.AddPoolIfAbsent(ctx, pool)
	require.NoError(t, err)

	state := model.PoolState{
		SqrtPriceX96: "79228162514264337593543950336",
		Tick:         0,
		Liquidity:    "12345",
		LastUpdated:  time.Now(),
	}
	require.NoError(t, store.UpdatePoolLiveState(ctx, pool.Address, state))

	got, err := store.GetPool(ctx, pool.Address)
	require.NoError(t, err)
	require.NotNil(t, got.State)
	assert.Equal(t, "12345", got.State.Liquidity)

	// Identity fields survive the state write.
	assert.Equal(t, pool.Token0, got.Token0)

	err = store.UpdatePoolLiveState(ctx, "0x2000000000000000000000000000000000000009", state)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFindPoolsByTokenPairOrderInsensitive(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	pool := testPool("0x1000000000000000000000000000000000000003")
	_, err := store.AddPoolIfAbsent(ctx, pool)
	require.NoError(t, err)

	forward, err := store.FindPoolsByTokenPair(ctx, pool.Token0, pool.Token1)
	require.NoError(t, err)
	reverse, err := store.FindPoolsByTokenPair(ctx, pool.Token1, pool.Token0)
	require.NoError(t, err)

	assert.Equal(t, forward, reverse)
	require.Len(t, forward, 1)
	assert.Equal(t, pool.Address, forward[0].Address)

	// Unmatched pair yields an empty set, not an error.
	none, err := store.FindPoolsByTokenPair(ctx, pool.Token0, "0xccc0000000000000000000000000000000000001")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSnapshotQueryOrderingAndLimit(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	pool := "0x1000000000000000000000000000000000000004"

	for i, ts := range []int64{300, 100, 200, 200} {
		snap := &model.PriceSnapshot{
			PoolAddress: pool,
			Timestamp:   ts,
			Price0:      decimal.NewFromInt(int64(i)),
		}
		require.NoError(t, store.AppendSnapshot(ctx, snap))
		assert.NotZero(t, snap.ID)
	}

	got, err := store.QuerySnapshots(ctx, pool, 0, 1000, 0)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, []int64{100, 200, 200, 300}, []int64{
		got[0].Timestamp, got[1].Timestamp, got[2].Timestamp, got[3].Timestamp,
	})
	// Equal timestamps keep insertion order.
	assert.True(t, got[1].ID < got[2].ID)

	limited, err := store.QuerySnapshots(ctx, pool, 0, 1000, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, int64(100), limited[0].Timestamp)
}

func TestSnapshotLatestAndAtOrBefore(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	pool := "0x1000000000000000000000000000000000000005"

	_, err := store.LatestSnapshot(ctx, pool)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	for _, ts := range []int64{100, 200, 300} {
		require.NoError(t, store.AppendSnapshot(ctx, &model.PriceSnapshot{PoolAddress: pool, Timestamp: ts}))
	}

	latest, err := store.LatestSnapshot(ctx, pool)
	require.NoError(t, err)
	assert.Equal(t, int64(300), latest.Timestamp)

	at, err := store.SnapshotAtOrBefore(ctx, pool, 250)
	require.NoError(t, err)
	assert.Equal(t, int64(200), at.Timestamp)

	at, err = store.SnapshotAtOrBefore(ctx, pool, 200)
	require.NoError(t, err)
	assert.Equal(t, int64(200), at.Timestamp)

	_, err = store.SnapshotAtOrBefore(ctx, pool, 50)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteSnapshotsBeforeStrict(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	pool := "0x1000000000000000000000000000000000000006"

	for _, ts := range []int64{100, 200, 300} {
		require.NoError(t, store.AppendSnapshot(ctx, &model.PriceSnapshot{PoolAddress: pool, Timestamp: ts}))
	}

	removed, err := store.DeleteSnapshotsBefore(ctx, 200)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	got, err := store.QuerySnapshots(ctx, pool, 0, 1000, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(200), got[0].Timestamp)

	removed, err = store.DeleteSnapshotsBefore(ctx, 200)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestCandleUpsertReplacesBucket(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	pool := "0x1000000000000000000000000000000000000007"

	first := model.Candle{
		PoolAddress: pool, Interval: "1h", Timestamp: 3600,
		Open: decimal.NewFromInt(10), High: decimal.NewFromInt(12),
		Low: decimal.NewFromInt(9), Close: decimal.NewFromInt(11),
	}
	require.NoError(t, store.UpsertCandles(ctx, []model.Candle{first}))

	replacement := first
	replacement.Close = decimal.NewFromInt(15)
	replacement.High = decimal.NewFromInt(15)
	require.NoError(t, store.UpsertCandles(ctx, []model.Candle{replacement}))

	got, err := store.QueryCandles(ctx, pool, "1h", 0, 10000)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Close.Equal(decimal.NewFromInt(15)))

	// Another interval does not collide on the same bucket.
	other := first
	other.Interval = "1d"
	require.NoError(t, store.UpsertCandles(ctx, []model.Candle{other}))
	daily, err := store.QueryCandles(ctx, pool, "1d", 0, 10000)
	require.NoError(t, err)
	assert.Len(t, daily, 1)

	removed, err := store.DeleteCandles(ctx, pool, "1h", 0, 10000)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	remaining, err := store.QueryCandles(ctx, pool, "1h", 0, 10000)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestCursorRoundTrip(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	_, ok, err := store.GetCursor(ctx, model.CursorKeyLastIndexedBlock)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.SetCursor(ctx, model.CursorKeyLastIndexedBlock, "12345"))
	value, ok, err := store.GetCursor(ctx, model.CursorKeyLastIndexedBlock)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "12345", value)

	require.NoError(t, store.SetCursor(ctx, model.CursorKeyLastIndexedBlock, "20000"))
	value, _, err = store.GetCursor(ctx, model.CursorKeyLastIndexedBlock)
	require.NoError(t, err)
	assert.Equal(t, "20000", value)
}
