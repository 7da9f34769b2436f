package market

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/erazemk/bidsphere/internal/auction"
	"github.com/erazemk/bidsphere/internal/events"
	"github.com/erazemk/bidsphere/internal/imaging"
	"github.com/erazemk/bidsphere/internal/model"
	"github.com/erazemk/bidsphere/internal/store"
)

// ListingInput is a seller's new auction submission.
type ListingInput struct {
	ProductName   string
	Description   string
	StartingPrice float64
	StartTime     time.Time
	EndTime       time.Time
	Images        []io.Reader
}

// ListingFromForm reads the text fields of a submitted listing form.
// Times without a zone are read in loc. Images are left to the caller.
func ListingFromForm(form map[string][]string, loc *time.Location) (ListingInput, error) {
	value := func(key string) string {
		if v := form[key]; len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
		return ""
	}

	in := ListingInput{
		ProductName: value("productName"),
		Description: value("description"),
	}

	var err error
	if in.StartingPrice, err = strconv.ParseFloat(value("startingPrice"), 64); err != nil {
		return in, &auction.ValidationError{Field: "startingPrice", Message: "starting price must be a number"}
	}
	if in.StartTime, err = model.ParseTime(value("startTime"), loc); err != nil {
		return in, &auction.ValidationError{Field: "startTime", Message: "invalid start time"}
	}
	if in.EndTime, err = model.ParseTime(value("endTime"), loc); err != nil {
		return in, &auction.ValidationError{Field: "endTime", Message: "invalid end time"}
	}
	return in, nil
}

// CreateListing validates and stores a new auction listed by identity.
// Nothing is written unless every check passes.
func (s *Service) CreateListing(ctx context.Context, identity string, in ListingInput) (*model.Auction, error) {
	if identity == "" {
		return nil, auction.ErrNotAuthenticated
	}

	now := s.now()
	err := auction.CheckListing(auction.Listing{
		ProductName:   in.ProductName,
		Description:   in.Description,
		StartingPrice: in.StartingPrice,
		StartTime:     in.StartTime,
		EndTime:       in.EndTime,
		ImageCount:    len(in.Images),
	}, now)
	if err != nil {
		return nil, err
	}

	images, err := imaging.ProcessAll(ctx, in.Images)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &auction.ValidationError{Field: "images", Message: err.Error()}
	}

	a, err := store.CreateAuction(ctx, s.DB, &model.Auction{
		ProductName:   in.ProductName,
		Description:   in.Description,
		StartingPrice: in.StartingPrice,
		CurrentPrice:  in.StartingPrice,
		StartTime:     in.StartTime,
		EndTime:       in.EndTime,
		Seller:        identity,
		Images:        images,
		PaymentStatus: model.PaymentPending,
		CreatedAt:     now,
	})
	if err != nil {
		return nil, err
	}

	slog.Info("auction listed", "auction", a.ID, "seller", identity, "images", len(images))
	s.Hub.Publish(*a)
	s.emit(ctx, events.New(events.TypeAuctionCreated, a.ID, identity, now))

	return a, nil
}
