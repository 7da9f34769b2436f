// Package events publishes auction events for downstream consumers.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	TypeBidPlaced        = "bid.placed"
	TypePaymentCompleted = "payment.completed"
	TypeAuctionCreated   = "auction.created"
)

// Event is an auction event. Amount and PreviousPrice are set for bids.
type Event struct {
	ID            string    `json:"eventId"`
	Type          string    `json:"type"`
	AuctionID     string    `json:"auctionId"`
	Actor         string    `json:"actor"`
	Amount        float64   `json:"amount,omitempty"`
	PreviousPrice float64   `json:"previousPrice,omitempty"`
	At            time.Time `json:"at"`
}

// New creates an event with a fresh id.
func New(typ, auctionID, actor string, at time.Time) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      typ,
		AuctionID: auctionID,
		Actor:     actor,
		At:        at.UTC(),
	}
}

// Publisher sends events somewhere. Publishing is best effort: callers log
// failures and carry on.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
