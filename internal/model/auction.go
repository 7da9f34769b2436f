package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Auction is one item up for bid. Its JSON form is the persisted record
// shape: camelCase field names and instants as Unix milliseconds.
type Auction struct {
	ID            string
	ProductName   string
	Description   string
	StartingPrice float64
	CurrentPrice  float64
	StartTime     time.Time
	EndTime       time.Time
	Seller        string
	HighestBidder string
	Images        []string
	IsActive      bool
	PaymentStatus PaymentStatus
	CreatedAt     time.Time
}

// PaymentStatus is the one-way Pending -> Completed payment state.
type PaymentStatus string

// Payment statuses.
const (
	PaymentPending   PaymentStatus = "Pending"
	PaymentCompleted PaymentStatus = "Completed"
)

// ParsePaymentStatus normalizes a stored status. Older records carry
// "pending" in lower case; anything unrecognized is treated as pending.
func ParsePaymentStatus(s string) PaymentStatus {
	if strings.EqualFold(s, string(PaymentCompleted)) {
		return PaymentCompleted
	}
	return PaymentPending
}

// PaymentMethod is the simulated payment method chosen at checkout.
type PaymentMethod string

// Payment methods.
const (
	PaymentUPI        PaymentMethod = "upi"
	PaymentCard       PaymentMethod = "card"
	PaymentNetBanking PaymentMethod = "netbanking"
)

// Valid reports whether m is one of the accepted methods.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentUPI, PaymentCard, PaymentNetBanking:
		return true
	}
	return false
}

type auctionJSON struct {
	ID            string   `json:"id"`
	ProductName   string   `json:"productName"`
	Description   string   `json:"description"`
	StartingPrice float64  `json:"startingPrice"`
	CurrentPrice  float64  `json:"currentPrice"`
	StartTime     int64    `json:"startTime"`
	EndTime       int64    `json:"endTime"`
	Seller        string   `json:"seller"`
	HighestBidder string   `json:"highestBidder,omitempty"`
	Images        []string `json:"images"`
	IsActive      bool     `json:"isActive"`
	PaymentStatus string   `json:"paymentStatus"`
	Timestamp     int64    `json:"timestamp,omitempty"`
}

// MarshalJSON encodes the auction in the persisted record shape.
func (a Auction) MarshalJSON() ([]byte, error) {
	images := a.Images
	if images == nil {
		images = []string{}
	}
	status := a.PaymentStatus
	if status == "" {
		status = PaymentPending
	}
	return json.Marshal(auctionJSON{
		ID:            a.ID,
		ProductName:   a.ProductName,
		Description:   a.Description,
		StartingPrice: a.StartingPrice,
		CurrentPrice:  a.CurrentPrice,
		StartTime:     toMillis(a.StartTime),
		EndTime:       toMillis(a.EndTime),
		Seller:        a.Seller,
		HighestBidder: a.HighestBidder,
		Images:        images,
		IsActive:      a.IsActive,
		PaymentStatus: string(status),
		Timestamp:     toMillis(a.CreatedAt),
	})
}

// UnmarshalJSON decodes the persisted record shape.
func (a *Auction) UnmarshalJSON(data []byte) error {
	var v auctionJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*a = Auction{
		ID:            v.ID,
		ProductName:   v.ProductName,
		Description:   v.Description,
		StartingPrice: v.StartingPrice,
		CurrentPrice:  v.CurrentPrice,
		StartTime:     FromMillis(v.StartTime),
		EndTime:       FromMillis(v.EndTime),
		Seller:        v.Seller,
		HighestBidder: v.HighestBidder,
		Images:        v.Images,
		IsActive:      v.IsActive,
		PaymentStatus: ParsePaymentStatus(v.PaymentStatus),
		CreatedAt:     FromMillis(v.Timestamp),
	}
	return nil
}

// FromMillis converts Unix milliseconds to a time. Zero stays the zero time.
func FromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// FormLayout is the layout of a datetime-local form input.
const FormLayout = "2006-01-02T15:04"

// ParseTime reads an instant from user input: Unix milliseconds, RFC 3339,
// or a datetime-local value interpreted in loc.
func ParseTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(FormLayout, s, loc); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid time %q", s)
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
