package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: the profile and seller dashboard scan by bidder and seller.
	`CREATE INDEX IF NOT EXISTS idx_auctions_highest_bidder ON auctions(highest_bidder)`,
	`CREATE INDEX IF NOT EXISTS idx_auctions_seller ON auctions(seller)`,

	// Migration 2: bid history is always read per auction, newest first.
	`CREATE INDEX IF NOT EXISTS idx_bids_auction ON bids(auction_id, placed_at DESC)`,
}

// Migrate ensures the schema and runs the migrations.
func Migrate(db *sql.DB) error {
	if err := EnsureSchema(db); err != nil {
		return err
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
