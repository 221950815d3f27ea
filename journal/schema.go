package journal

// Prices and amounts are TEXT: decimal values survive the round trip exactly.
const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	strategy TEXT NOT NULL,
	start_time DATETIME NOT NULL,
	end_time DATETIME NOT NULL,
	orders_open INTEGER NOT NULL,
	orders_closed INTEGER NOT NULL,
	profit TEXT NOT NULL,
	profit_unrealized TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS orders (
	run_id TEXT NOT NULL REFERENCES runs(id),
	order_id INTEGER NOT NULL,
	type TEXT NOT NULL,
	amount TEXT NOT NULL,
	entry_price TEXT NOT NULL,
	exit_price TEXT NOT NULL,
	open_time DATETIME NOT NULL,
	close_time DATETIME NOT NULL,
	profit TEXT NOT NULL,
	PRIMARY KEY (run_id, order_id)
);

CREATE INDEX IF NOT EXISTS idx_orders_run_id ON orders(run_id);
`
