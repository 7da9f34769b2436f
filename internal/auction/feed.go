package auction

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/erazemk/bidsphere/internal/model"
)

// Entry is an auction annotated with its derived status and sort key.
type Entry struct {
	model.Auction
	Status  Status
	SortKey int64
}

// StatusFilter selects entries by derived status.
type StatusFilter string

// Status filters.
const (
	FilterAll      StatusFilter = "All"
	FilterActive   StatusFilter = StatusFilter(StatusActive)
	FilterUpcoming StatusFilter = StatusFilter(StatusUpcoming)
	FilterEnded    StatusFilter = StatusFilter(StatusEnded)
)

// ParseStatusFilter maps a query value to a filter; unknown values mean All.
func ParseStatusFilter(s string) StatusFilter {
	for _, f := range []StatusFilter{FilterActive, FilterUpcoming, FilterEnded} {
		if strings.EqualFold(s, string(f)) {
			return f
		}
	}
	return FilterAll
}

// SortOrder selects the feed ordering.
type SortOrder string

// Sort orders.
const (
	SortNewest    SortOrder = "newest"
	SortOldest    SortOrder = "oldest"
	SortPriceAsc  SortOrder = "price_asc"
	SortPriceDesc SortOrder = "price_desc"
)

// ParseSortOrder maps a query value to an order; unknown values mean newest.
func ParseSortOrder(s string) SortOrder {
	switch o := SortOrder(strings.ToLower(s)); o {
	case SortOldest, SortPriceAsc, SortPriceDesc:
		return o
	}
	return SortNewest
}

// Query is a feed request: search term, status filter and ordering.
type Query struct {
	Search string
	Status StatusFilter
	Sort   SortOrder
}

// Annotate attaches status and sort key to every auction.
func Annotate(auctions []model.Auction, now time.Time) []Entry {
	entries := make([]Entry, 0, len(auctions))
	for _, a := range auctions {
		entries = append(entries, Entry{
			Auction: a,
			Status:  Classify(a.StartTime, a.EndTime, now),
			SortKey: SortKey(&a),
		})
	}
	return entries
}

// SortKey is the creation time in milliseconds, falling back to the start
// time, then zero.
func SortKey(a *model.Auction) int64 {
	switch {
	case !a.CreatedAt.IsZero():
		return a.CreatedAt.UnixMilli()
	case !a.StartTime.IsZero():
		return a.StartTime.UnixMilli()
	}
	return 0
}

// Matches reports whether e passes the search term and status filter.
func (q Query) Matches(e *Entry) bool {
	if q.Status != "" && q.Status != FilterAll && string(q.Status) != string(e.Status) {
		return false
	}
	term := strings.ToLower(strings.TrimSpace(q.Search))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(e.ProductName), term) ||
		strings.Contains(strings.ToLower(e.Description), term)
}

// Filter returns the entries matching q, preserving order.
func Filter(entries []Entry, q Query) []Entry {
	out := make([]Entry, 0, len(entries))
	for i := range entries {
		if q.Matches(&entries[i]) {
			out = append(out, entries[i])
		}
	}
	return out
}

// Sort orders entries in place. The sort is stable.
func Sort(entries []Entry, order SortOrder) {
	slices.SortStableFunc(entries, func(a, b Entry) int {
		switch order {
		case SortOldest:
			return cmp.Compare(a.SortKey, b.SortKey)
		case SortPriceAsc:
			return cmp.Compare(a.CurrentPrice, b.CurrentPrice)
		case SortPriceDesc:
			return cmp.Compare(b.CurrentPrice, a.CurrentPrice)
		default:
			return cmp.Compare(b.SortKey, a.SortKey)
		}
	})
}

// Apply filters then sorts a fresh copy of entries.
func Apply(entries []Entry, q Query) []Entry {
	out := Filter(entries, q)
	Sort(out, q.Sort)
	return out
}

// Live returns the Active entries, skipping the auction with id exclude.
func Live(entries []Entry, exclude string) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.Status == StatusActive && e.ID != exclude {
			out = append(out, e)
		}
	}
	return out
}
