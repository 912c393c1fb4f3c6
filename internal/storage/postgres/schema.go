package postgres

// Logical layout of the five collections. Large integers are stored as
// text to survive any NUMERIC precision ceiling; prices are text-encoded
// decimals.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS tokens (
	address     TEXT PRIMARY KEY,
	symbol      TEXT NOT NULL,
	name        TEXT NOT NULL,
	decimals    SMALLINT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS pools (
	address             TEXT PRIMARY KEY,
	token0              TEXT NOT NULL,
	token1              TEXT NOT NULL,
	fee                 BIGINT NOT NULL,
	tick_spacing        INTEGER NOT NULL,
	sqrt_price_x96      TEXT,
	tick                INTEGER,
	liquidity           TEXT,
	fee_growth_global0  TEXT,
	fee_growth_global1  TEXT,
	last_updated        TIMESTAMPTZ,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS pools_token_pair_idx ON pools (token0, token1);

CREATE TABLE IF NOT EXISTS price_snapshots (
	id              BIGSERIAL PRIMARY KEY,
	pool_address    TEXT NOT NULL,
	ts              BIGINT NOT NULL,
	price0          TEXT NOT NULL,
	price1          TEXT NOT NULL,
	sqrt_price_x96  TEXT NOT NULL,
	tick            INTEGER NOT NULL,
	liquidity       TEXT NOT NULL,
	volume0         TEXT NOT NULL DEFAULT '0',
	volume1         TEXT NOT NULL DEFAULT '0',
	tvl_usd         TEXT NOT NULL DEFAULT '0'
);
CREATE INDEX IF NOT EXISTS price_snapshots_pool_ts_idx ON price_snapshots (pool_address, ts, id);

CREATE TABLE IF NOT EXISTS candles (
	pool_address   TEXT NOT NULL,
	interval_name  TEXT NOT NULL,
	bucket_ts      BIGINT NOT NULL,
	open           TEXT NOT NULL,
	high           TEXT NOT NULL,
	low            TEXT NOT NULL,
	close          TEXT NOT NULL,
	volume0        TEXT NOT NULL DEFAULT '0',
	volume1        TEXT NOT NULL DEFAULT '0',
	PRIMARY KEY (pool_address, interval_name, bucket_ts)
);

CREATE TABLE IF NOT EXISTS indexer_cursor (
	key         TEXT PRIMARY KEY,
	value       TEXT NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
`
