// Package feed delivers auction changes to subscribers. A subscription
// watches either the whole collection ("auctions") or one record
// ("auctions/<id>") and receives changes on its own goroutine, one at a
// time, until it is cancelled.
package feed

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/erazemk/bidsphere/internal/model"
)

// CollectionPath is the path of the whole auction collection.
const CollectionPath = "auctions"

// Path returns the record path of an auction.
func Path(id string) string {
	return CollectionPath + "/" + id
}

// bufferSize is how many undelivered changes a subscription may hold before
// it is dropped.
const bufferSize = 64

// Change is a new snapshot of one auction record.
type Change struct {
	Path    string
	Auction model.Auction
}

// Hub fans changes out to subscriptions.
type Hub struct {
	mu   sync.RWMutex
	subs map[*Subscription]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[*Subscription]struct{})}
}

// Subscription is a handle on a live subscription. The caller must call
// Cancel when it is done.
type Subscription struct {
	hub  *Hub
	path string
	ch   chan Change
	done chan struct{}
	once sync.Once
}

// Subscribe registers onChange for changes under path. onChange runs on a
// dedicated goroutine and never concurrently with itself.
func (h *Hub) Subscribe(path string, onChange func(Change)) *Subscription {
	s := &Subscription{
		hub:  h,
		path: strings.TrimSuffix(path, "/"),
		ch:   make(chan Change, bufferSize),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()

	go func() {
		defer close(s.done)
		for c := range s.ch {
			onChange(c)
		}
	}()

	return s
}

// Publish delivers a changed auction to every matching subscription.
// Subscriptions whose buffer is full are dropped.
func (h *Hub) Publish(a model.Auction) {
	c := Change{Path: Path(a.ID), Auction: a}

	var slow []*Subscription
	h.mu.RLock()
	for s := range h.subs {
		if s.path != CollectionPath && s.path != c.Path {
			continue
		}
		select {
		case s.ch <- c:
		default:
			slow = append(slow, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range slow {
		slog.Warn("dropping slow subscription", "path", s.path)
		s.remove()
	}
}

// Len returns the number of live subscriptions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// remove unregisters s and closes its channel. The delivery goroutine
// drains what is buffered and exits.
func (s *Subscription) remove() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s)
		close(s.ch)
		s.hub.mu.Unlock()
	})
}

// Cancel stops the subscription and waits for its goroutine to exit.
// It is safe to call more than once, but not from inside onChange.
func (s *Subscription) Cancel() {
	s.remove()
	<-s.done
}

// Done is closed once the subscription has stopped delivering.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}
