// Package market runs the marketplace operations: browsing, bidding,
// listing, payment and the won-auctions view. Every operation takes the
// caller's identity explicitly; an empty identity means an anonymous caller.
package market

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/erazemk/bidsphere/internal/auction"
	"github.com/erazemk/bidsphere/internal/events"
	"github.com/erazemk/bidsphere/internal/feed"
	"github.com/erazemk/bidsphere/internal/model"
	"github.com/erazemk/bidsphere/internal/store"
)

// Service holds the collaborators shared by all operations.
type Service struct {
	DB     *sql.DB
	Hub    *feed.Hub
	Events events.Publisher
	Now    func() time.Time

	// highest bid price published to the hub per auction id.
	pubMu     sync.Mutex
	published map[string]float64
}

// New creates a service using the wall clock. A nil publisher discards events.
func New(db *sql.DB, hub *feed.Hub, pub events.Publisher) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{DB: db, Hub: hub, Events: pub, Now: time.Now}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// GetAuction reads one auction.
func (s *Service) GetAuction(ctx context.Context, id string) (*model.Auction, error) {
	a, err := store.GetAuction(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, auction.ErrNotFound
	}
	return a, nil
}

// Annotate attaches the current status to a.
func (s *Service) Annotate(a *model.Auction) auction.Entry {
	return auction.Annotate([]model.Auction{*a}, s.now())[0]
}

// Browse returns the feed for q, recomputed from every stored auction.
func (s *Service) Browse(ctx context.Context, q auction.Query) ([]auction.Entry, error) {
	entries, err := s.entries(ctx)
	if err != nil {
		return nil, err
	}
	return auction.Apply(entries, q), nil
}

// LiveAuctions returns the auctions open for bidding, except excludeID.
func (s *Service) LiveAuctions(ctx context.Context, excludeID string) ([]auction.Entry, error) {
	entries, err := s.entries(ctx)
	if err != nil {
		return nil, err
	}
	return auction.Live(entries, excludeID), nil
}

func (s *Service) entries(ctx context.Context) ([]auction.Entry, error) {
	auctions, err := store.ListAuctions(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	return auction.Annotate(auctions, s.now()), nil
}

// PlaceBid places a bid of amount on auction id by identity and returns the
// updated auction.
func (s *Service) PlaceBid(ctx context.Context, identity, id string, amount float64) (*model.Auction, error) {
	if identity == "" {
		return nil, auction.ErrNotAuthenticated
	}

	a, err := s.GetAuction(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := auction.CheckBid(a, identity, amount, now); err != nil {
		return nil, err
	}

	bid, err := store.PlaceBid(ctx, s.DB, id, identity, amount, now)
	if errors.Is(err, store.ErrBidRejected) {
		return nil, s.rejection(ctx, id, identity, amount, now)
	}
	if err != nil {
		return nil, err
	}

	updated := auction.ApplyBid(*a, identity, bid.Amount)

	slog.Info("bid placed", "auction", id, "bidder", identity, "amount", amount, "previous", bid.PreviousPrice)
	s.publishBid(updated)

	e := events.New(events.TypeBidPlaced, id, identity, bid.PlacedAt)
	e.Amount = bid.Amount
	e.PreviousPrice = bid.PreviousPrice
	s.emit(ctx, e)

	return &updated, nil
}

// publishBid sends a bid snapshot to the hub unless a higher bid on the same
// auction was already published. Racing bids can finish out of order.
func (s *Service) publishBid(a model.Auction) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	if s.published == nil {
		s.published = make(map[string]float64)
	}
	if last, ok := s.published[a.ID]; ok && a.CurrentPrice <= last {
		slog.Debug("skipping stale bid snapshot", "auction", a.ID, "price", a.CurrentPrice, "published", last)
		return
	}
	s.published[a.ID] = a.CurrentPrice
	s.Hub.Publish(a)
}

// rejection explains a bid the store refused, using a fresh read. Someone
// else raising the price in between is reported as ErrBidTooLow.
func (s *Service) rejection(ctx context.Context, id, identity string, amount float64, now time.Time) error {
	a, err := s.GetAuction(ctx, id)
	if err != nil {
		return err
	}
	if err := auction.CheckBid(a, identity, amount, now); err != nil {
		return err
	}
	return auction.ErrBidTooLow
}

// Bids returns the bid history of an auction, newest first.
func (s *Service) Bids(ctx context.Context, id string) ([]model.Bid, error) {
	if _, err := s.GetAuction(ctx, id); err != nil {
		return nil, err
	}
	return store.ListBids(ctx, s.DB, id)
}

// SetActive lets the seller of an auction mark it active or inactive.
func (s *Service) SetActive(ctx context.Context, identity, id string, active bool) (*model.Auction, error) {
	if identity == "" {
		return nil, auction.ErrNotAuthenticated
	}

	a, err := s.GetAuction(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Seller != identity {
		return nil, auction.ErrForbidden
	}
	if a.IsActive == active {
		return a, nil
	}

	if _, err := store.UpdateAuction(ctx, s.DB, id, store.AuctionPatch{IsActive: &active}); err != nil {
		return nil, err
	}
	a.IsActive = active

	slog.Info("auction activity changed", "auction", id, "active", active)
	s.Hub.Publish(*a)
	return a, nil
}

// SellerAuctions returns the auctions listed by identity, newest first.
func (s *Service) SellerAuctions(ctx context.Context, identity string) ([]auction.Entry, error) {
	if identity == "" {
		return nil, auction.ErrNotAuthenticated
	}
	auctions, err := store.ListAuctionsBySeller(ctx, s.DB, identity)
	if err != nil {
		return nil, err
	}
	return auction.Annotate(auctions, s.now()), nil
}

// WonAuctions returns the auctions identity has won.
func (s *Service) WonAuctions(ctx context.Context, identity string) ([]model.Auction, error) {
	if identity == "" {
		return nil, auction.ErrNotAuthenticated
	}
	auctions, err := store.ListAuctions(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	return auction.Won(auctions, identity), nil
}

// ConfirmPayment records a simulated payment for auction id. It reports
// whether anything changed: paying for a completed auction is a no-op.
func (s *Service) ConfirmPayment(ctx context.Context, identity, id string, method model.PaymentMethod) (*model.Auction, bool, error) {
	if identity == "" {
		return nil, false, auction.ErrNotAuthenticated
	}
	if err := auction.CheckPayment(method); err != nil {
		return nil, false, err
	}

	a, err := s.GetAuction(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if !auction.CanPay(a) {
		return a, false, nil
	}

	status := model.PaymentCompleted
	if _, err := store.UpdateAuction(ctx, s.DB, id, store.AuctionPatch{PaymentStatus: &status}); err != nil {
		return nil, false, fmt.Errorf("completing payment: %w", err)
	}
	a.PaymentStatus = status

	slog.Info("payment completed", "auction", id, "payer", identity, "method", method)
	s.Hub.Publish(*a)
	s.emit(ctx, events.New(events.TypePaymentCompleted, id, identity, s.now()))

	return a, true, nil
}

// Subscribe forwards changes under path to onChange until cancelled.
func (s *Service) Subscribe(path string, onChange func(feed.Change)) *feed.Subscription {
	return s.Hub.Subscribe(path, onChange)
}

func (s *Service) emit(ctx context.Context, e events.Event) {
	if err := s.Events.Publish(ctx, e); err != nil {
		slog.Warn("publishing event failed", "type", e.Type, "auction", e.AuctionID, "error", err)
	}
}
