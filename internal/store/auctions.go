package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/erazemk/bidsphere/internal/model"
)

// maxIDAttempts bounds how far CreateAuction walks forward from the
// submission time looking for a free id.
const maxIDAttempts = 1000

const auctionColumns = `id, product_name, description, starting_price, current_price,
	start_time, end_time, seller, highest_bidder, is_active, payment_status, created_at`

// CreateAuction inserts a new auction with its images. The id is the
// submission time in milliseconds, moved forward one millisecond at a time
// if another auction already holds it.
func CreateAuction(ctx context.Context, db *sql.DB, a *model.Auction) (*model.Auction, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	base := a.CreatedAt.UnixMilli()
	var id string
	for i := int64(0); i < maxIDAttempts; i++ {
		candidate := strconv.FormatInt(base+i, 10)
		_, err := tx.ExecContext(ctx,
			`INSERT INTO auctions (`+auctionColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			candidate, a.ProductName, a.Description, a.StartingPrice, a.CurrentPrice,
			a.StartTime.UnixMilli(), a.EndTime.UnixMilli(), a.Seller, nullString(a.HighestBidder),
			a.IsActive, string(a.PaymentStatus), base,
		)
		if isUniqueViolation(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("creating auction: %w", err)
		}
		id = candidate
		break
	}
	if id == "" {
		return nil, fmt.Errorf("creating auction: no free id near %d", base)
	}

	for i, img := range a.Images {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO auction_images (auction_id, position, data_url) VALUES (?, ?, ?)`,
			id, i, img,
		)
		if err != nil {
			return nil, fmt.Errorf("storing auction image %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing auction: %w", err)
	}

	return GetAuction(ctx, db, id)
}

// GetAuction returns an auction with its images, or nil if it doesn't exist.
func GetAuction(ctx context.Context, db *sql.DB, id string) (*model.Auction, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+auctionColumns+` FROM auctions WHERE id = ?`, id,
	)
	a, err := scanAuction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting auction: %w", err)
	}

	images, err := loadImages(ctx, db, `WHERE auction_id = ?`, id)
	if err != nil {
		return nil, err
	}
	a.Images = images[id]
	return a, nil
}

// ListAuctions returns every auction with its images, oldest first.
func ListAuctions(ctx context.Context, db *sql.DB) ([]model.Auction, error) {
	auctions, err := queryAuctions(ctx, db, `ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}

	images, err := loadImages(ctx, db, ``)
	if err != nil {
		return nil, err
	}
	for i := range auctions {
		auctions[i].Images = images[auctions[i].ID]
	}
	return auctions, nil
}

// ListAuctionsBySeller returns the seller's auctions without images, newest first.
func ListAuctionsBySeller(ctx context.Context, db *sql.DB, seller string) ([]model.Auction, error) {
	return queryAuctions(ctx, db, `WHERE seller = ? ORDER BY created_at DESC, id DESC`, seller)
}

// AuctionPatch is a partial-field update. Nil fields are left unchanged.
type AuctionPatch struct {
	CurrentPrice  *float64
	HighestBidder *string
	IsActive      *bool
	PaymentStatus *model.PaymentStatus
}

// UpdateAuction merges the non-nil fields of patch into the auction.
// It reports whether the auction exists.
func UpdateAuction(ctx context.Context, db *sql.DB, id string, patch AuctionPatch) (bool, error) {
	var sets []string
	var args []any

	if patch.CurrentPrice != nil {
		sets = append(sets, "current_price = ?")
		args = append(args, *patch.CurrentPrice)
	}
	if patch.HighestBidder != nil {
		sets = append(sets, "highest_bidder = ?")
		args = append(args, nullString(*patch.HighestBidder))
	}
	if patch.IsActive != nil {
		sets = append(sets, "is_active = ?")
		args = append(args, *patch.IsActive)
	}
	if patch.PaymentStatus != nil {
		sets = append(sets, "payment_status = ?")
		args = append(args, string(*patch.PaymentStatus))
	}

	if len(sets) == 0 {
		a, err := GetAuction(ctx, db, id)
		return a != nil, err
	}

	args = append(args, id)
	result, err := db.ExecContext(ctx,
		`UPDATE auctions SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...,
	)
	if err != nil {
		return false, fmt.Errorf("updating auction: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("updating auction: %w", err)
	}
	return n > 0, nil
}

// GetAuctionImage returns the n-th image data URL of an auction, or "" if
// there is none.
func GetAuctionImage(ctx context.Context, db *sql.DB, id string, n int) (string, error) {
	var dataURL string
	err := db.QueryRowContext(ctx,
		`SELECT data_url FROM auction_images WHERE auction_id = ? AND position = ?`, id, n,
	).Scan(&dataURL)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting auction image: %w", err)
	}
	return dataURL, nil
}

func queryAuctions(ctx context.Context, db *sql.DB, clause string, args ...any) ([]model.Auction, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+auctionColumns+` FROM auctions `+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("listing auctions: %w", err)
	}
	defer rows.Close()

	var auctions []model.Auction
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning auction: %w", err)
		}
		auctions = append(auctions, *a)
	}
	return auctions, rows.Err()
}

// loadImages returns image data URLs grouped by auction id, in position order.
func loadImages(ctx context.Context, db *sql.DB, where string, args ...any) (map[string][]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT auction_id, data_url FROM auction_images `+where+` ORDER BY auction_id, position`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("loading auction images: %w", err)
	}
	defer rows.Close()

	images := make(map[string][]string)
	for rows.Next() {
		var id, dataURL string
		if err := rows.Scan(&id, &dataURL); err != nil {
			return nil, fmt.Errorf("scanning auction image: %w", err)
		}
		images[id] = append(images[id], dataURL)
	}
	return images, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAuction(s scanner) (*model.Auction, error) {
	a := &model.Auction{}
	var bidder sql.NullString
	var start, end, created int64
	var status string
	err := s.Scan(&a.ID, &a.ProductName, &a.Description, &a.StartingPrice, &a.CurrentPrice,
		&start, &end, &a.Seller, &bidder, &a.IsActive, &status, &created)
	if err != nil {
		return nil, err
	}
	a.StartTime = time.UnixMilli(start)
	a.EndTime = time.UnixMilli(end)
	a.CreatedAt = model.FromMillis(created)
	a.HighestBidder = bidder.String
	a.PaymentStatus = model.ParsePaymentStatus(status)
	return a, nil
}

// isUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY conflict.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
