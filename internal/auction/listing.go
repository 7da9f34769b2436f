package auction

import (
	"math"
	"strings"
	"time"
)

// MaxImages is the most images a listing may carry.
const MaxImages = 5

// Listing is the seller's input for a new auction.
type Listing struct {
	ProductName   string
	Description   string
	StartingPrice float64
	StartTime     time.Time
	EndTime       time.Time
	ImageCount    int
}

// CheckListing validates a new listing submitted at now.
func CheckListing(l Listing, now time.Time) error {
	if strings.TrimSpace(l.ProductName) == "" {
		return invalid("productName", "product name is required")
	}
	if strings.TrimSpace(l.Description) == "" {
		return invalid("description", "description is required")
	}
	if math.IsNaN(l.StartingPrice) || math.IsInf(l.StartingPrice, 0) || l.StartingPrice <= 0 {
		return invalid("startingPrice", "starting price must be a positive amount")
	}
	if l.StartTime.IsZero() || l.EndTime.IsZero() {
		return invalid("startTime", "start and end time are required")
	}
	if l.ImageCount < 1 {
		return invalid("images", "upload at least one image")
	}
	if l.ImageCount > MaxImages {
		return invalid("images", "you can upload a maximum of %d images", MaxImages)
	}
	if !l.StartTime.After(now) {
		return invalid("startTime", "start time must be in the future")
	}
	if !l.EndTime.After(l.StartTime) {
		return invalid("endTime", "end time must be after start time")
	}
	return nil
}
