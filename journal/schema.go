// journal/schema.go
package journal

const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	dataset TEXT NOT NULL,
	universe TEXT NOT NULL,
	policy TEXT NOT NULL,
	initial_cash REAL NOT NULL,
	fee_bps REAL NOT NULL,
	slippage_bps REAL NOT NULL,
	fixed_per_trade REAL NOT NULL,
	start_date TEXT NOT NULL,
	end_date TEXT NOT NULL,
	trades INTEGER NOT NULL,
	start_equity REAL NOT NULL,
	end_equity REAL NOT NULL,
	years REAL NOT NULL,
	cagr_pct REAL NOT NULL,
	volatility_pct REAL NOT NULL,
	max_dd_pct REAL NOT NULL,
	trading_days INTEGER NOT NULL,
	notes TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created);

CREATE TABLE IF NOT EXISTS equity (
	run_id TEXT NOT NULL,
	asof_date TEXT NOT NULL,
	equity REAL NOT NULL,
	cash REAL NOT NULL,
	PRIMARY KEY (run_id, asof_date)
);

CREATE TABLE IF NOT EXISTS positions (
	run_id TEXT NOT NULL,
	asof_date TEXT NOT NULL,
	asset TEXT NOT NULL,
	qty REAL NOT NULL,
	value REAL NOT NULL,
	PRIMARY KEY (run_id, asof_date, asset)
);

CREATE TABLE IF NOT EXISTS trades (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	asof_date TEXT NOT NULL,
	asset TEXT NOT NULL,
	side TEXT NOT NULL,
	qty REAL NOT NULL,
	price REAL NOT NULL,
	notional REAL NOT NULL,
	fee_var REAL NOT NULL,
	fee_fixed REAL NOT NULL,
	fee_total REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id, asof_date);
`
