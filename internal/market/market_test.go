package market

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/erazemk/bidsphere/internal/auction"
	"github.com/erazemk/bidsphere/internal/db"
	"github.com/erazemk/bidsphere/internal/events"
	"github.com/erazemk/bidsphere/internal/feed"
	"github.com/erazemk/bidsphere/internal/model"
	"github.com/erazemk/bidsphere/internal/store"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) Close() error { return nil }

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func newService(t *testing.T) (*Service, *recorder) {
	t.Helper()
	rec := &recorder{}
	s := New(db.NewTestDB(t), feed.NewHub(), rec)
	s.Now = func() time.Time { return now }
	return s, rec
}

// openAuction returns an auction whose bidding window contains now.
func openAuction(price float64) model.Auction {
	return model.Auction{
		ProductName:   "Brass lamp",
		Description:   "A desk lamp from the fifties",
		StartingPrice: price,
		CurrentPrice:  price,
		StartTime:     now.Add(-time.Hour),
		EndTime:       now.Add(time.Hour),
		Seller:        "sam@example.com",
		PaymentStatus: model.PaymentPending,
		CreatedAt:     now.Add(-2 * time.Hour),
	}
}

func seed(t *testing.T, s *Service, a model.Auction) *model.Auction {
	t.Helper()
	created, err := store.CreateAuction(context.Background(), s.DB, &a)
	if err != nil {
		t.Fatalf("CreateAuction: %v", err)
	}
	return created
}

func testJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		img.Set(x, x, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encoding jpeg: %v", err)
	}
	return buf.Bytes()
}

func testImages(t *testing.T, n int) []io.Reader {
	t.Helper()
	data := testJPEG(t)
	out := make([]io.Reader, n)
	for i := range out {
		out[i] = bytes.NewReader(data)
	}
	return out
}

func TestPlaceBidAccepted(t *testing.T) {
	s, rec := newService(t)
	ctx := context.Background()
	a := seed(t, s, openAuction(100))

	updated, err := s.PlaceBid(ctx, "bob@example.com", a.ID, 150)
	if err != nil {
		t.Fatalf("PlaceBid: %v", err)
	}
	if updated.CurrentPrice != 150 || updated.HighestBidder != "bob@example.com" {
		t.Errorf("unexpected auction after bid: price=%v bidder=%q", updated.CurrentPrice, updated.HighestBidder)
	}

	stored, _ := store.GetAuction(ctx, s.DB, a.ID)
	if stored.CurrentPrice != 150 || stored.HighestBidder != "bob@example.com" {
		t.Errorf("bid not stored: price=%v bidder=%q", stored.CurrentPrice, stored.HighestBidder)
	}

	bids, err := s.Bids(ctx, a.ID)
	if err != nil {
		t.Fatalf("Bids: %v", err)
	}
	if len(bids) != 1 || bids[0].PreviousPrice != 100 {
		t.Errorf("unexpected bid history: %+v", bids)
	}

	if got := rec.types(); len(got) != 1 || got[0] != events.TypeBidPlaced {
		t.Fatalf("expected one bid event, got %v", got)
	}
	if e := rec.events[0]; e.Amount != 150 || e.PreviousPrice != 100 || e.Actor != "bob@example.com" {
		t.Errorf("unexpected event: %+v", e)
	}
}

func TestPlaceBidNotYetStarted(t *testing.T) {
	s, rec := newService(t)
	ctx := context.Background()
	upcoming := openAuction(100)
	upcoming.StartTime = now.Add(time.Hour)
	upcoming.EndTime = now.Add(2 * time.Hour)
	a := seed(t, s, upcoming)

	_, err := s.PlaceBid(ctx, "bob@example.com", a.ID, 500)

	var notOpen *auction.NotOpenError
	if !errors.As(err, &notOpen) || notOpen.Reason != auction.NotYetStarted {
		t.Fatalf("expected NotYetStarted, got %v", err)
	}
	if !errors.Is(err, auction.ErrAuctionNotOpen) {
		t.Error("expected error to match ErrAuctionNotOpen")
	}

	stored, _ := store.GetAuction(ctx, s.DB, a.ID)
	if stored.CurrentPrice != 100 || stored.HighestBidder != "" {
		t.Errorf("auction changed by rejected bid: %+v", stored)
	}
	if len(rec.types()) != 0 {
		t.Errorf("expected no events, got %v", rec.types())
	}
}

func TestPlaceBidEnded(t *testing.T) {
	s, _ := newService(t)
	ended := openAuction(100)
	ended.StartTime = now.Add(-2 * time.Hour)
	ended.EndTime = now
	a := seed(t, s, ended)

	_, err := s.PlaceBid(context.Background(), "bob@example.com", a.ID, 500)

	var notOpen *auction.NotOpenError
	if !errors.As(err, &notOpen) || notOpen.Reason != auction.AlreadyEnded {
		t.Fatalf("expected AlreadyEnded, got %v", err)
	}
}

func TestPlaceBidTooLow(t *testing.T) {
	s, _ := newService(t)
	a := seed(t, s, openAuction(100))

	for _, amount := range []float64{100, 99.99, 0, -5} {
		if _, err := s.PlaceBid(context.Background(), "bob@example.com", a.ID, amount); !errors.Is(err, auction.ErrBidTooLow) {
			t.Errorf("amount %v: expected ErrBidTooLow, got %v", amount, err)
		}
	}
}

func TestPlaceBidRequiresIdentity(t *testing.T) {
	s, _ := newService(t)
	a := seed(t, s, openAuction(100))

	if _, err := s.PlaceBid(context.Background(), "", a.ID, 200); !errors.Is(err, auction.ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestPlaceBidMissingAuction(t *testing.T) {
	s, _ := newService(t)

	if _, err := s.PlaceBid(context.Background(), "bob@example.com", "404", 200); !errors.Is(err, auction.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSequentialBidsKeepHighest(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	a := seed(t, s, openAuction(100))

	if _, err := s.PlaceBid(ctx, "bob@example.com", a.ID, 300); err != nil {
		t.Fatalf("first bid: %v", err)
	}
	if _, err := s.PlaceBid(ctx, "eve@example.com", a.ID, 200); !errors.Is(err, auction.ErrBidTooLow) {
		t.Fatalf("expected lower bid to be rejected, got %v", err)
	}

	stored, _ := store.GetAuction(ctx, s.DB, a.ID)
	if stored.CurrentPrice != 300 || stored.HighestBidder != "bob@example.com" {
		t.Errorf("expected bob's 300 to stand, got %v by %q", stored.CurrentPrice, stored.HighestBidder)
	}
}

func TestRejectionAfterPriceMoved(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	a := seed(t, s, openAuction(100))

	if _, err := store.PlaceBid(ctx, s.DB, a.ID, "eve@example.com", 200, now); err != nil {
		t.Fatalf("store.PlaceBid: %v", err)
	}

	if err := s.rejection(ctx, a.ID, "bob@example.com", 150, now); !errors.Is(err, auction.ErrBidTooLow) {
		t.Errorf("expected ErrBidTooLow, got %v", err)
	}
	if err := s.rejection(ctx, a.ID, "bob@example.com", 250, now); !errors.Is(err, auction.ErrBidTooLow) {
		t.Errorf("expected ErrBidTooLow fallback, got %v", err)
	}
}

func TestSubscribersSeeAcceptedBid(t *testing.T) {
	s, _ := newService(t)
	a := seed(t, s, openAuction(100))

	got := make(chan feed.Change, 1)
	sub := s.Subscribe(feed.Path(a.ID), func(c feed.Change) { got <- c })
	defer sub.Cancel()

	if _, err := s.PlaceBid(context.Background(), "bob@example.com", a.ID, 120); err != nil {
		t.Fatalf("PlaceBid: %v", err)
	}

	select {
	case c := <-got:
		if c.Auction.CurrentPrice != 120 {
			t.Errorf("expected price 120 in change, got %v", c.Auction.CurrentPrice)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no change delivered")
	}
}

func TestPlaceBidReturnsStoredRecord(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	a := seed(t, s, openAuction(100))

	updated, err := s.PlaceBid(ctx, "bob@example.com", a.ID, 175)
	if err != nil {
		t.Fatalf("PlaceBid: %v", err)
	}

	stored, _ := store.GetAuction(ctx, s.DB, a.ID)
	if updated.CurrentPrice != stored.CurrentPrice || updated.HighestBidder != stored.HighestBidder {
		t.Errorf("returned %v by %q, stored %v by %q", updated.CurrentPrice, updated.HighestBidder, stored.CurrentPrice, stored.HighestBidder)
	}
	if updated.ProductName != stored.ProductName || updated.StartingPrice != stored.StartingPrice || !updated.EndTime.Equal(stored.EndTime) {
		t.Errorf("returned record lost unchanged fields: %+v", updated)
	}
}

func TestPublishBidSkipsStaleSnapshot(t *testing.T) {
	s, _ := newService(t)
	a := seed(t, s, openAuction(100))

	got := make(chan float64, 4)
	sub := s.Subscribe(feed.Path(a.ID), func(c feed.Change) { got <- c.Auction.CurrentPrice })

	newer := *a
	newer.CurrentPrice = 300
	older := *a
	older.CurrentPrice = 200

	s.publishBid(newer)
	s.publishBid(older)
	sub.Cancel()
	close(got)

	var prices []float64
	for p := range got {
		prices = append(prices, p)
	}
	if len(prices) != 1 || prices[0] != 300 {
		t.Errorf("expected only the 300 snapshot, got %v", prices)
	}
}

func validListing(t *testing.T, n int) ListingInput {
	return ListingInput{
		ProductName:   "Road bike",
		Description:   "Steel frame, 56 cm",
		StartingPrice: 250,
		StartTime:     now.Add(time.Hour),
		EndTime:       now.Add(25 * time.Hour),
		Images:        testImages(t, n),
	}
}

func TestCreateListing(t *testing.T) {
	s, rec := newService(t)
	ctx := context.Background()

	a, err := s.CreateListing(ctx, "sam@example.com", validListing(t, 2))
	if err != nil {
		t.Fatalf("CreateListing: %v", err)
	}

	if a.ID != strconv.FormatInt(now.UnixMilli(), 10) {
		t.Errorf("expected id from submission time, got %q", a.ID)
	}
	if a.CurrentPrice != 250 || a.IsActive || a.PaymentStatus != model.PaymentPending {
		t.Errorf("unexpected initial state: %+v", a)
	}
	if a.Seller != "sam@example.com" {
		t.Errorf("expected seller sam, got %q", a.Seller)
	}
	if len(a.Images) != 2 {
		t.Fatalf("expected 2 images, got %d", len(a.Images))
	}
	for _, img := range a.Images {
		if !strings.HasPrefix(img, "data:image/jpeg;base64,") {
			t.Errorf("expected jpeg data URL, got %.30s", img)
		}
	}
	if got := auction.Classify(a.StartTime, a.EndTime, now); got != auction.StatusUpcoming {
		t.Errorf("new listing should be Upcoming, got %v", got)
	}
	if got := rec.types(); len(got) != 1 || got[0] != events.TypeAuctionCreated {
		t.Errorf("expected auction.created event, got %v", got)
	}
}

func TestCreateListingSixImagesWritesNothing(t *testing.T) {
	s, rec := newService(t)
	ctx := context.Background()

	_, err := s.CreateListing(ctx, "sam@example.com", validListing(t, 6))

	var verr *auction.ValidationError
	if !errors.As(err, &verr) || verr.Field != "images" {
		t.Fatalf("expected images validation error, got %v", err)
	}

	all, _ := store.ListAuctions(ctx, s.DB)
	if len(all) != 0 {
		t.Errorf("expected no auctions written, got %d", len(all))
	}
	if len(rec.types()) != 0 {
		t.Errorf("expected no events, got %v", rec.types())
	}
}

func TestCreateListingRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*ListingInput)
		field  string
	}{
		{"start in past", func(in *ListingInput) { in.StartTime = now.Add(-time.Minute) }, "startTime"},
		{"start now", func(in *ListingInput) { in.StartTime = now }, "startTime"},
		{"end before start", func(in *ListingInput) { in.EndTime = in.StartTime }, "endTime"},
		{"no images", func(in *ListingInput) { in.Images = nil }, "images"},
		{"no name", func(in *ListingInput) { in.ProductName = "  " }, "productName"},
		{"bad image", func(in *ListingInput) { in.Images = []io.Reader{strings.NewReader("nope")} }, "images"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newService(t)
			in := validListing(t, 1)
			tt.modify(&in)

			_, err := s.CreateListing(context.Background(), "sam@example.com", in)

			var verr *auction.ValidationError
			if !errors.As(err, &verr) || verr.Field != tt.field {
				t.Fatalf("expected %s validation error, got %v", tt.field, err)
			}
			if all, _ := store.ListAuctions(context.Background(), s.DB); len(all) != 0 {
				t.Errorf("expected nothing written, got %d auctions", len(all))
			}
		})
	}
}

func TestCreateListingRequiresIdentity(t *testing.T) {
	s, _ := newService(t)
	if _, err := s.CreateListing(context.Background(), "", validListing(t, 1)); !errors.Is(err, auction.ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestConfirmPayment(t *testing.T) {
	s, rec := newService(t)
	ctx := context.Background()
	a := seed(t, s, openAuction(100))

	paid, changed, err := s.ConfirmPayment(ctx, "bob@example.com", a.ID, model.PaymentCard)
	if err != nil {
		t.Fatalf("ConfirmPayment: %v", err)
	}
	if !changed || paid.PaymentStatus != model.PaymentCompleted {
		t.Errorf("expected completed payment, got changed=%v status=%q", changed, paid.PaymentStatus)
	}

	stored, _ := store.GetAuction(ctx, s.DB, a.ID)
	if stored.PaymentStatus != model.PaymentCompleted {
		t.Errorf("payment not stored: %q", stored.PaymentStatus)
	}
	if got := rec.types(); len(got) != 1 || got[0] != events.TypePaymentCompleted {
		t.Errorf("expected payment event, got %v", got)
	}
}

func TestConfirmPaymentOnCompletedIsNoop(t *testing.T) {
	s, rec := newService(t)
	completed := openAuction(100)
	completed.PaymentStatus = model.PaymentCompleted
	a := seed(t, s, completed)

	got, changed, err := s.ConfirmPayment(context.Background(), "bob@example.com", a.ID, model.PaymentUPI)
	if err != nil {
		t.Fatalf("ConfirmPayment: %v", err)
	}
	if changed {
		t.Error("expected no change for completed auction")
	}
	if got.PaymentStatus != model.PaymentCompleted {
		t.Errorf("expected Completed, got %q", got.PaymentStatus)
	}
	if len(rec.types()) != 0 {
		t.Errorf("expected no events, got %v", rec.types())
	}
}

func TestConfirmPaymentErrors(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	a := seed(t, s, openAuction(100))

	var verr *auction.ValidationError
	if _, _, err := s.ConfirmPayment(ctx, "bob@example.com", a.ID, ""); !errors.As(err, &verr) {
		t.Errorf("expected validation error for missing method, got %v", err)
	}
	if _, _, err := s.ConfirmPayment(ctx, "bob@example.com", a.ID, "cash"); !errors.As(err, &verr) {
		t.Errorf("expected validation error for unknown method, got %v", err)
	}
	if _, _, err := s.ConfirmPayment(ctx, "bob@example.com", "missing", model.PaymentCard); !errors.Is(err, auction.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, _, err := s.ConfirmPayment(ctx, "", a.ID, model.PaymentCard); !errors.Is(err, auction.ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestWonAuctions(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	won := openAuction(100)
	won.HighestBidder = "bob@example.com"
	won.ProductName = "won"
	seed(t, s, won)

	stillActive := openAuction(100)
	stillActive.HighestBidder = "bob@example.com"
	stillActive.IsActive = true
	seed(t, s, stillActive)

	other := openAuction(100)
	other.HighestBidder = "eve@example.com"
	seed(t, s, other)

	got, err := s.WonAuctions(ctx, "bob@example.com")
	if err != nil {
		t.Fatalf("WonAuctions: %v", err)
	}
	if len(got) != 1 || got[0].ProductName != "won" {
		t.Errorf("unexpected won auctions: %+v", got)
	}

	if _, err := s.WonAuctions(ctx, ""); !errors.Is(err, auction.ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestSetActive(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	a := seed(t, s, openAuction(100))

	if _, err := s.SetActive(ctx, "eve@example.com", a.ID, true); !errors.Is(err, auction.ErrForbidden) {
		t.Errorf("expected ErrForbidden for non-seller, got %v", err)
	}

	updated, err := s.SetActive(ctx, "sam@example.com", a.ID, true)
	if err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	if !updated.IsActive {
		t.Error("expected auction to be active")
	}

	stored, _ := store.GetAuction(ctx, s.DB, a.ID)
	if !stored.IsActive {
		t.Error("activity not stored")
	}
}

func TestSellerAuctions(t *testing.T) {
	s, _ := newService(t)
	seed(t, s, openAuction(100))
	theirs := openAuction(50)
	theirs.Seller = "eve@example.com"
	seed(t, s, theirs)

	got, err := s.SellerAuctions(context.Background(), "sam@example.com")
	if err != nil {
		t.Fatalf("SellerAuctions: %v", err)
	}
	if len(got) != 1 || got[0].Seller != "sam@example.com" || got[0].Status != auction.StatusActive {
		t.Errorf("unexpected seller auctions: %+v", got)
	}
}

func TestBrowseAndLive(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	lamp := seed(t, s, openAuction(100))

	clock := openAuction(300)
	clock.ProductName = "Wall clock"
	clock.Description = "Oak case"
	clock.CreatedAt = now.Add(-time.Hour)
	seed(t, s, clock)

	soon := openAuction(50)
	soon.ProductName = "Lamp shade"
	soon.StartTime = now.Add(time.Hour)
	soon.EndTime = now.Add(2 * time.Hour)
	soon.CreatedAt = now.Add(-30 * time.Minute)
	seed(t, s, soon)

	all, err := s.Browse(ctx, auction.Query{})
	if err != nil {
		t.Fatalf("Browse: %v", err)
	}
	if len(all) != 3 || all[0].ProductName != "Lamp shade" {
		t.Errorf("expected newest first, got %+v", all)
	}

	lamps, _ := s.Browse(ctx, auction.Query{Search: "LAMP", Status: auction.FilterActive})
	if len(lamps) != 1 || lamps[0].ID != lamp.ID {
		t.Errorf("expected only the active lamp, got %+v", lamps)
	}

	cheapest, _ := s.Browse(ctx, auction.Query{Sort: auction.SortPriceAsc})
	if cheapest[0].CurrentPrice != 50 {
		t.Errorf("expected cheapest first, got %v", cheapest[0].CurrentPrice)
	}

	live, err := s.LiveAuctions(ctx, lamp.ID)
	if err != nil {
		t.Fatalf("LiveAuctions: %v", err)
	}
	if len(live) != 1 || live[0].ProductName != "Wall clock" {
		t.Errorf("expected only the clock to be live, got %+v", live)
	}
}

func TestListingFromForm(t *testing.T) {
	in, err := ListingFromForm(map[string][]string{
		"productName":   {" Road bike "},
		"description":   {"Steel frame"},
		"startingPrice": {"250.5"},
		"startTime":     {"2026-03-01T13:00"},
		"endTime":       {"2026-03-02T13:00"},
	}, time.UTC)
	if err != nil {
		t.Fatalf("ListingFromForm: %v", err)
	}
	if in.ProductName != "Road bike" || in.StartingPrice != 250.5 {
		t.Errorf("unexpected input: %+v", in)
	}
	if !in.StartTime.Equal(now.Add(time.Hour)) {
		t.Errorf("unexpected start time: %v", in.StartTime)
	}

	_, err = ListingFromForm(map[string][]string{"startingPrice": {"cheap"}}, time.UTC)
	var verr *auction.ValidationError
	if !errors.As(err, &verr) || verr.Field != "startingPrice" {
		t.Errorf("expected startingPrice validation error, got %v", err)
	}
}
