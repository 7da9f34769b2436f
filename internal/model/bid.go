package model

import "time"

// Bid is an accepted bid in an auction's history.
type Bid struct {
	ID            int64     `json:"id"`
	AuctionID     string    `json:"auctionId"`
	Bidder        string    `json:"bidder"`
	Amount        float64   `json:"amount"`
	PreviousPrice float64   `json:"previousPrice"`
	PlacedAt      time.Time `json:"placedAt"`
}
