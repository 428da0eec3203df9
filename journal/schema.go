package journal

const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	time DATETIME NOT NULL,
	market TEXT NOT NULL,
	title TEXT NOT NULL,
	side TEXT NOT NULL,
	price REAL NOT NULL,
	size REAL NOT NULL,
	notional REAL NOT NULL,
	kind TEXT NOT NULL,
	status TEXT NOT NULL,
	realized_pl REAL NOT NULL,
	note TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS signals (
	signal_id TEXT PRIMARY KEY,
	time DATETIME NOT NULL,
	market TEXT NOT NULL,
	title TEXT NOT NULL,
	wallet TEXT NOT NULL,
	whale_side TEXT NOT NULL,
	whale_price REAL NOT NULL,
	whale_size REAL NOT NULL,
	whale_notional REAL NOT NULL,
	wallet_win_rate REAL,
	mean_estimate REAL NOT NULL,
	agreement REAL NOT NULL,
	decision TEXT NOT NULL,
	reason TEXT NOT NULL,
	copied_size REAL NOT NULL,
	trade_id TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS balance (
	time DATETIME NOT NULL,
	balance REAL NOT NULL,
	realized_pl REAL NOT NULL,
	unrealized_pl REAL NOT NULL,
	equity REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_time ON trades(time);
CREATE INDEX IF NOT EXISTS idx_signals_time ON signals(time);
CREATE INDEX IF NOT EXISTS idx_signals_decision ON signals(decision);
CREATE INDEX IF NOT EXISTS idx_balance_time ON balance(time);
`
