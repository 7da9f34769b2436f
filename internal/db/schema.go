package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema. Instants are stored as Unix
// milliseconds, matching the serialized auction record.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    email         TEXT NOT NULL UNIQUE COLLATE NOCASE,
    display_name  TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'buyer' CHECK (role IN ('buyer', 'seller')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS auctions (
    id              TEXT PRIMARY KEY,
    product_name    TEXT NOT NULL,
    description     TEXT NOT NULL,
    starting_price  REAL NOT NULL CHECK (starting_price >= 0),
    current_price   REAL NOT NULL CHECK (current_price >= 0),
    start_time      INTEGER NOT NULL,
    end_time        INTEGER NOT NULL,
    seller          TEXT NOT NULL,
    highest_bidder  TEXT,
    is_active       INTEGER NOT NULL DEFAULT 0,
    payment_status  TEXT NOT NULL DEFAULT 'Pending',
    created_at      INTEGER NOT NULL,
    CHECK (end_time > start_time)
);

CREATE TABLE IF NOT EXISTS auction_images (
    auction_id TEXT NOT NULL REFERENCES auctions(id),
    position   INTEGER NOT NULL,
    data_url   TEXT NOT NULL,
    PRIMARY KEY (auction_id, position)
);

CREATE TABLE IF NOT EXISTS bids (
    id             INTEGER PRIMARY KEY,
    auction_id     TEXT NOT NULL REFERENCES auctions(id),
    bidder         TEXT NOT NULL,
    amount         REAL NOT NULL CHECK (amount > 0),
    previous_price REAL NOT NULL,
    placed_at      INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at INTEGER NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
