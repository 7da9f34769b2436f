package auction

import (
	"math"
	"time"

	"github.com/erazemk/bidsphere/internal/model"
)

// CheckBid validates a proposed bid by identity against an auction snapshot.
// Checks run in order: identity, time window, amount.
func CheckBid(a *model.Auction, identity string, amount float64, now time.Time) error {
	if identity == "" {
		return ErrNotAuthenticated
	}

	switch Classify(a.StartTime, a.EndTime, now) {
	case StatusUpcoming:
		return &NotOpenError{Reason: NotYetStarted}
	case StatusEnded:
		return &NotOpenError{Reason: AlreadyEnded}
	}

	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= a.CurrentPrice {
		return ErrBidTooLow
	}
	return nil
}

// ApplyBid returns a copy of a with the bid reflected.
func ApplyBid(a model.Auction, identity string, amount float64) model.Auction {
	a.CurrentPrice = amount
	a.HighestBidder = identity
	return a
}
