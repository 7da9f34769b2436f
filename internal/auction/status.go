// Package auction holds the rules every view applies to auction records:
// status classification, bid and listing validation, feed filtering and
// sorting, and won-auction derivation. Nothing here touches storage.
package auction

import "time"

// Status is the derived state of an auction relative to the current time.
type Status string

// Statuses.
const (
	StatusUpcoming Status = "Upcoming"
	StatusActive   Status = "Active"
	StatusEnded    Status = "Ended"
)

// Classify places now in the half-open window [start, end).
func Classify(start, end, now time.Time) Status {
	switch {
	case now.Before(start):
		return StatusUpcoming
	case now.Before(end):
		return StatusActive
	default:
		return StatusEnded
	}
}
