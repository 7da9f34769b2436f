package auction

import (
	"errors"
	"fmt"
)

// Errors shared by every surface that validates auctions. All of them are
// recoverable: the caller shows the message and the user retries or
// navigates away.
var (
	ErrNotAuthenticated = errors.New("please log in to continue")
	ErrNotFound         = errors.New("auction not found")
	ErrAuctionNotOpen   = errors.New("auction is not open for bidding")
	ErrBidTooLow        = errors.New("your bid must be higher than the current price")
	ErrForbidden        = errors.New("not allowed")
)

// NotOpenReason tells why an auction is not accepting bids.
type NotOpenReason int

// Reasons an auction is closed to bids.
const (
	NotYetStarted NotOpenReason = iota + 1
	AlreadyEnded
)

// NotOpenError is returned for bids outside the auction window.
// It matches ErrAuctionNotOpen with errors.Is.
type NotOpenError struct {
	Reason NotOpenReason
}

func (e *NotOpenError) Error() string {
	if e.Reason == NotYetStarted {
		return "this auction has not yet started"
	}
	return "this auction has ended"
}

func (e *NotOpenError) Is(target error) bool {
	return target == ErrAuctionNotOpen
}

// ValidationError reports a missing or invalid form field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
