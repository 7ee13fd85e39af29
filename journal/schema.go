package journal

const schema = `
CREATE TABLE IF NOT EXISTS fills (
	fill_id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	instrument TEXT NOT NULL,
	side TEXT NOT NULL,
	quantity REAL NOT NULL,
	price REAL NOT NULL,
	commission REAL NOT NULL,
	day INTEGER NOT NULL,
	date DATETIME NOT NULL,
	cash_delta REAL NOT NULL,
	reason TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS equity (
	run_id TEXT NOT NULL,
	day INTEGER NOT NULL,
	date DATETIME NOT NULL,
	cash REAL NOT NULL,
	equity REAL NOT NULL,
	realized REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_fills_run ON fills(run_id, day);
CREATE INDEX IF NOT EXISTS idx_equity_run ON equity(run_id, day);
`
