// Package postgres implements the storage contract on pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"candleScope/internal/model"
	"candleScope/internal/storage"
)

// Store provides Postgres persistence for all five collections.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	store := &Store{pool: pool}
	if err := store.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return store, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schemaDDL)
	return err
}

func (s *Store) GetToken(ctx context.Context, address string) (model.Token, error) {
	var token model.Token
	row := s.pool.QueryRow(ctx, `
		SELECT address, symbol, name, decimals, created_at
		FROM tokens WHERE address = $1
	`, storage.NormalizeAddress(address))
	if err := row.Scan(&token.Address, &token.Symbol, &token.Name, &token.Decimals, &token.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Token{}, storage.ErrNotFound
		}
		return model.Token{}, err
	}
	return token, nil
}

func (s *Store) AddTokenIfAbsent(ctx context.Context, token model.Token) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO tokens (address, symbol, name, decimals, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (address) DO NOTHING
	`,
		storage.NormalizeAddress(token.Address),
		token.Symbol,
		token.Name,
		int16(token.Decimals),
		token.CreatedAt,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) ListTokens(ctx context.Context) ([]model.Token, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT address, symbol, name, decimals, created_at
		FROM tokens ORDER BY address
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Token
	for rows.Next() {
		var token model.Token
		if err := rows.Scan(&token.Address, &token.Symbol, &token.Name, &token.Decimals, &token.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, token)
	}
	return out, rows.Err()
}

const poolColumns = `
	address, token0, token1, fee, tick_spacing,
	sqrt_price_x96, tick, liquidity, fee_growth_global0, fee_growth_global1, last_updated
`

func (s *Store) GetPool(ctx context.Context, address string) (model.Pool, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+poolColumns+` FROM pools WHERE address = $1`,
		storage.NormalizeAddress(address))
	pool, err := scanPool(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Pool{}, storage.ErrNotFound
		}
		return model.Pool{}, err
	}
	return pool, nil
}

func (s *Store) AddPoolIfAbsent(ctx context.Context, pool model.Pool) (bool, error) {
	address := storage.NormalizeAddress(pool.Address)
	candidate := model.Pool{
		Address:     address,
		Token0:      storage.NormalizeAddress(pool.Token0),
		Token1:      storage.NormalizeAddress(pool.Token1),
		Fee:         pool.Fee,
		TickSpacing: pool.TickSpacing,
	}

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO pools (address, token0, token1, fee, tick_spacing)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (address) DO NOTHING
	`, candidate.Address, candidate.Token0, candidate.Token1, int64(candidate.Fee), candidate.TickSpacing)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	existing, err := s.GetPool(ctx, address)
	if err != nil {
		return false, err
	}
	if !existing.SameIdentity(candidate) {
		return false, fmt.Errorf("%w: pool %s identity differs from prior record", storage.ErrConflict, address)
	}
	return false, nil
}

func (s *Store) UpdatePoolLiveState(ctx context.Context, address string, state model.PoolState) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE pools SET
			sqrt_price_x96 = $2,
			tick = $3,
			liquidity = $4,
			fee_growth_global0 = $5,
			fee_growth_global1 = $6,
			last_updated = $7
		WHERE address = $1
	`,
		storage.NormalizeAddress(address),
		state.SqrtPriceX96,
		state.Tick,
		state.Liquidity,
		state.FeeGrowthGlobal0,
		state.FeeGrowthGlobal1,
		state.LastUpdated,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) ListPools(ctx context.Context) ([]model.Pool, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+poolColumns+` FROM pools ORDER BY address`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPools(rows)
}

func (s *Store) FindPoolsByTokenPair(ctx context.Context, a, b string) ([]model.Pool, error) {
	a = storage.NormalizeAddress(a)
	b = storage.NormalizeAddress(b)
	rows, err := s.pool.Query(ctx, `
		SELECT `+poolColumns+` FROM pools
		WHERE (token0 = $1 AND token1 = $2) OR (token0 = $2 AND token1 = $1)
		ORDER BY address
	`, a, b)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPools(rows)
}

func (s *Store) AppendSnapshot(ctx context.Context, snapshot *model.PriceSnapshot) error {
	if snapshot == nil {
		return fmt.Errorf("snapshot is nil")
	}
	snapshot.PoolAddress = storage.NormalizeAddress(snapshot.PoolAddress)
	row := s.pool.QueryRow(ctx, `
		INSERT INTO price_snapshots (
			pool_address, ts, price0, price1, sqrt_price_x96, tick, liquidity, volume0, volume1, tvl_usd
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`,
		snapshot.PoolAddress,
		snapshot.Timestamp,
		snapshot.Price0.String(),
		snapshot.Price1.String(),
		snapshot.SqrtPriceX96,
		snapshot.Tick,
		snapshot.Liquidity,
		snapshot.Volume0.String(),
		snapshot.Volume1.String(),
		snapshot.TVLUSD.String(),
	)
	return row.Scan(&snapshot.ID)
}

const snapshotColumns = `
	id, pool_address, ts, price0, price1, sqrt_price_x96, tick, liquidity, volume0, volume1, tvl_usd
`

func (s *Store) QuerySnapshots(ctx context.Context, pool string, from, to int64, limit int) ([]model.PriceSnapshot, error) {
	query := `SELECT ` + snapshotColumns + `
		FROM price_snapshots
		WHERE pool_address = $1 AND ts >= $2 AND ts <= $3
		ORDER BY ts, id`
	args := []any{storage.NormalizeAddress(pool), from, to}
	if limit > 0 {
		query += ` LIMIT $4`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PriceSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

func (s *Store) LatestSnapshot(ctx context.Context, pool string) (model.PriceSnapshot, error) {
	return s.snapshotRow(ctx, `
		SELECT `+snapshotColumns+`
		FROM price_snapshots
		WHERE pool_address = $1
		ORDER BY ts DESC, id DESC LIMIT 1
	`, storage.NormalizeAddress(pool))
}

func (s *Store) SnapshotAtOrBefore(ctx context.Context, pool string, ts int64) (model.PriceSnapshot, error) {
	return s.snapshotRow(ctx, `
		SELECT `+snapshotColumns+`
		FROM price_snapshots
		WHERE pool_address = $1 AND ts <= $2
		ORDER BY ts DESC, id DESC LIMIT 1
	`, storage.NormalizeAddress(pool), ts)
}

func (s *Store) snapshotRow(ctx context.Context, query string, args ...any) (model.PriceSnapshot, error) {
	snap, err := scanSnapshot(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.PriceSnapshot{}, storage.ErrNotFound
		}
		return model.PriceSnapshot{}, err
	}
	return snap, nil
}

func (s *Store) DeleteSnapshotsBefore(ctx context.Context, cutoff int64) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM price_snapshots WHERE ts < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *Store) UpsertCandles(ctx context.Context, candles []model.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, candle := range candles {
		batch.Queue(`
			INSERT INTO candles (
				pool_address, interval_name, bucket_ts, open, high, low, close, volume0, volume1
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (pool_address, interval_name, bucket_ts)
			DO UPDATE SET
				open = EXCLUDED.open,
				high = EXCLUDED.high,
				low = EXCLUDED.low,
				close = EXCLUDED.close,
				volume0 = EXCLUDED.volume0,
				volume1 = EXCLUDED.volume1
		`,
			storage.NormalizeAddress(candle.PoolAddress),
			candle.Interval,
			candle.Timestamp,
			candle.Open.String(),
			candle.High.String(),
			candle.Low.String(),
			candle.Close.String(),
			candle.Volume0.String(),
			candle.Volume1.String(),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range candles {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) QueryCandles(ctx context.Context, pool, interval string, from, to int64) ([]model.Candle, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT pool_address, interval_name, bucket_ts, open, high, low, close, volume0, volume1
		FROM candles
		WHERE pool_address = $1 AND interval_name = $2 AND bucket_ts >= $3 AND bucket_ts <= $4
		ORDER BY bucket_ts
	`, storage.NormalizeAddress(pool), interval, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Candle
	for rows.Next() {
		var candle model.Candle
		var open, high, low, closing, volume0, volume1 string
		if err := rows.Scan(&candle.PoolAddress, &candle.Interval, &candle.Timestamp,
			&open, &high, &low, &closing, &volume0, &volume1); err != nil {
			return nil, err
		}
		if err := assignDecimals(map[*decimal.Decimal]string{
			&candle.Open: open, &candle.High: high, &candle.Low: low,
			&candle.Close: closing, &candle.Volume0: volume0, &candle.Volume1: volume1,
		}); err != nil {
			return nil, err
		}
		out = append(out, candle)
	}
	return out, rows.Err()
}

func (s *Store) DeleteCandles(ctx context.Context, pool, interval string, from, to int64) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM candles
		WHERE pool_address = $1 AND interval_name = $2 AND bucket_ts >= $3 AND bucket_ts <= $4
	`, storage.NormalizeAddress(pool), interval, from, to)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *Store) GetCursor(ctx context.Context, key string) (string, bool, error) {
	var value string
	row := s.pool.QueryRow(ctx, `SELECT value FROM indexer_cursor WHERE key = $1`, key)
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (s *Store) SetCursor(ctx context.Context, key, value string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO indexer_cursor (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = now()
	`, key, value)
	return err
}

func scanPool(row pgx.Row) (model.Pool, error) {
	var pool model.Pool
	var fee int64
	var sqrtPrice, liquidity, feeGrowth0, feeGrowth1 *string
	var tick *int32
	var lastUpdated *time.Time
	if err := row.Scan(&pool.Address, &pool.Token0, &pool.Token1, &fee, &pool.TickSpacing,
		&sqrtPrice, &tick, &liquidity, &feeGrowth0, &feeGrowth1, &lastUpdated); err != nil {
		return model.Pool{}, err
	}
	pool.Fee = uint32(fee)
	if sqrtPrice != nil && lastUpdated != nil {
		state := model.PoolState{
			SqrtPriceX96: *sqrtPrice,
			LastUpdated:  *lastUpdated,
		}
		if tick != nil {
			state.Tick = *tick
		}
		if liquidity != nil {
			state.Liquidity = *liquidity
		}
		if feeGrowth0 != nil {
			state.FeeGrowthGlobal0 = *feeGrowth0
		}
		if feeGrowth1 != nil {
			state.FeeGrowthGlobal1 = *feeGrowth1
		}
		pool.State = &state
	}
	return pool, nil
}

func collectPools(rows pgx.Rows) ([]model.Pool, error) {
	var out []model.Pool
	for rows.Next() {
		pool, err := scanPool(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, pool)
	}
	return out, rows.Err()
}

func scanSnapshot(row pgx.Row) (model.PriceSnapshot, error) {
	var snap model.PriceSnapshot
	var price0, price1, volume0, volume1, tvlUSD string
	if err := row.Scan(&snap.ID, &snap.PoolAddress, &snap.Timestamp, &price0, &price1,
		&snap.SqrtPriceX96, &snap.Tick, &snap.Liquidity, &volume0, &volume1, &tvlUSD); err != nil {
		return model.PriceSnapshot{}, err
	}
	if err := assignDecimals(map[*decimal.Decimal]string{
		&snap.Price0: price0, &snap.Price1: price1,
		&snap.Volume0: volume0, &snap.Volume1: volume1, &snap.TVLUSD: tvlUSD,
	}); err != nil {
		return model.PriceSnapshot{}, err
	}
	return snap, nil
}

func assignDecimals(fields map[*decimal.Decimal]string) error {
	for target, text := range fields {
		value, err := decimal.NewFromString(text)
		if err != nil {
			return fmt.Errorf("parse decimal %q: %w", text, err)
		}
		*target = value
	}
	return nil
}
