package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestNewEvent(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("CET", 3600))
	e := New(TypeBidPlaced, "1700000000000", "a@example.com", at)

	if e.ID == "" {
		t.Error("expected event id")
	}
	if other := New(TypeBidPlaced, "1", "a", at); other.ID == e.ID {
		t.Error("expected unique event ids")
	}
	if e.At.Location() != time.UTC {
		t.Errorf("expected UTC timestamp, got %v", e.At.Location())
	}
}

func TestSubject(t *testing.T) {
	e := Event{Type: TypeBidPlaced, AuctionID: "42"}
	if got := Subject(DefaultSubjectPrefix, e); got != "bidsphere.bid.placed.42" {
		t.Errorf("unexpected subject %q", got)
	}
}

func TestEventJSON(t *testing.T) {
	e := New(TypePaymentCompleted, "7", "b@example.com", time.Now())
	data, err := json.Marshal(e)
	if err != nil {
		t.Fatal(err)
	}

	var fields map[string]any
	json.Unmarshal(data, &fields)
	if _, ok := fields["amount"]; ok {
		t.Error("expected amount to be omitted for payment events")
	}
	if fields["auctionId"] != "7" {
		t.Errorf("expected auctionId 7, got %v", fields["auctionId"])
	}
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	if err := p.Publish(context.Background(), Event{}); err != nil {
		t.Errorf("Nop.Publish: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Nop.Close: %v", err)
	}
}
