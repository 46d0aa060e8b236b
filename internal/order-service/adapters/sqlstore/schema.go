package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is executed once on startup and is idempotent. Timestamps are
// fixed-width UTC TEXT so they sort lexically on both drivers. The %s verb
// is the auto-incrementing column that gives the audit trail its insertion
// order.
const schema = `
CREATE TABLE IF NOT EXISTS identities (
    code            TEXT PRIMARY KEY,
    password_hash   TEXT NOT NULL,
    email           TEXT NOT NULL DEFAULT '',
    created_at      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS customers (
    id              TEXT PRIMARY KEY,
    -- The identity link: deleting the identity removes the customer.
    code            TEXT NOT NULL UNIQUE REFERENCES identities(code) ON DELETE CASCADE,
    name            TEXT NOT NULL,
    -- Always stored in "+<country><number>" form.
    phone_number    TEXT NOT NULL UNIQUE,
    email           TEXT NOT NULL DEFAULT '',
    created_at      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS inventory (
    id              TEXT PRIMARY KEY,
    name            TEXT NOT NULL UNIQUE,
    -- No CHECK (on_hand >= 0): fulfilment deducts without a lower bound.
    on_hand         INTEGER NOT NULL DEFAULT 0,
    warn_limit      INTEGER NOT NULL DEFAULT 5,
    created_at      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS orders (
    id              TEXT PRIMARY KEY,
    customer_id     TEXT NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
    state           TEXT NOT NULL DEFAULT 'DRAFT',
    created_at      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_orders_customer_id ON orders(customer_id, created_at);

CREATE TABLE IF NOT EXISTS order_items (
    id              TEXT PRIMARY KEY,
    order_id        TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
    inventory_id    TEXT NOT NULL REFERENCES inventory(id) ON DELETE CASCADE,
    position        INTEGER NOT NULL,
    quantity        INTEGER NOT NULL CHECK (quantity > 0),
    -- Decimal with two places, captured when the line is written.
    price           TEXT NOT NULL DEFAULT '0.00'
);

CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id, position);

CREATE TABLE IF NOT EXISTS transactions (
    seq             %s,
    id              TEXT NOT NULL UNIQUE,
    order_id        TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
    customer_id     TEXT REFERENCES customers(id) ON DELETE SET NULL,
    action          TEXT NOT NULL,
    -- JSON state change for STATE_* rows, NULL otherwise.
    payload         TEXT,
    description     TEXT NOT NULL DEFAULT '',
    trace_id        TEXT NOT NULL DEFAULT '',
    span_id         TEXT NOT NULL DEFAULT '',
    created_at      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_order_id ON transactions(order_id, seq);
`

func applySchema(ctx context.Context, db *sql.DB, driver string) error {
	seq := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if driver == DriverPostgres {
		seq = "BIGSERIAL PRIMARY KEY"
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf(schema, seq)); err != nil {
		return fmt.Errorf("sqlstore: apply schema: %w", err)
	}
	return nil
}
