package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/erazemk/bidsphere/internal/model"
)

// ErrBidRejected is returned when the stored auction no longer accepts the
// bid: the price moved to or above the amount, or the window closed.
var ErrBidRejected = errors.New("bid rejected by current auction state")

// PlaceBid records a bid and raises the auction price in a single
// transaction. The price update only applies while the stored price is
// below amount and placedAt is inside the auction window, so a lower bid
// can never overwrite a higher one.
func PlaceBid(ctx context.Context, db *sql.DB, auctionID, bidder string, amount float64, placedAt time.Time) (*model.Bid, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var previous float64
	err = tx.QueryRowContext(ctx,
		`SELECT current_price FROM auctions WHERE id = ?`, auctionID,
	).Scan(&previous)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBidRejected
	}
	if err != nil {
		return nil, fmt.Errorf("reading current price: %w", err)
	}

	at := placedAt.UnixMilli()
	result, err := tx.ExecContext(ctx,
		`UPDATE auctions SET current_price = ?, highest_bidder = ?
		 WHERE id = ? AND current_price < ? AND start_time <= ? AND end_time > ?`,
		amount, bidder, auctionID, amount, at, at,
	)
	if err != nil {
		return nil, fmt.Errorf("raising auction price: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, ErrBidRejected
	}

	result, err = tx.ExecContext(ctx,
		`INSERT INTO bids (auction_id, bidder, amount, previous_price, placed_at) VALUES (?, ?, ?, ?, ?)`,
		auctionID, bidder, amount, previous, at,
	)
	if err != nil {
		return nil, fmt.Errorf("recording bid: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing bid: %w", err)
	}

	bidID, _ := result.LastInsertId()
	return &model.Bid{
		ID:            bidID,
		AuctionID:     auctionID,
		Bidder:        bidder,
		Amount:        amount,
		PreviousPrice: previous,
		PlacedAt:      time.UnixMilli(at),
	}, nil
}

// ListBids returns an auction's bid history, newest first.
func ListBids(ctx context.Context, db *sql.DB, auctionID string) ([]model.Bid, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, auction_id, bidder, amount, previous_price, placed_at
		 FROM bids WHERE auction_id = ?
		 ORDER BY placed_at DESC, id DESC`, auctionID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing bids: %w", err)
	}
	defer rows.Close()

	var bids []model.Bid
	for rows.Next() {
		var b model.Bid
		var placedAt int64
		if err := rows.Scan(&b.ID, &b.AuctionID, &b.Bidder, &b.Amount, &b.PreviousPrice, &placedAt); err != nil {
			return nil, fmt.Errorf("scanning bid: %w", err)
		}
		b.PlacedAt = time.UnixMilli(placedAt)
		bids = append(bids, b)
	}
	return bids, rows.Err()
}
