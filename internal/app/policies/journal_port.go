package policies

import (
	"context"
	"time"
)

// JournalEntry is one step in a booking's status history.
type JournalEntry struct {
	BookingID string    `json:"booking_id"`
	EventID   string    `json:"event_id"`
	Event     string    `json:"event"`
	From      string    `json:"from,omitempty"`
	To        string    `json:"to"`
	Actor     string    `json:"actor,omitempty"`
	At        time.Time `json:"at"`
}

// BookingJournal stores status history. Append must be idempotent on EventID.
type BookingJournal interface {
	Append(ctx context.Context, entry JournalEntry) error
	History(ctx context.Context, bookingID string) ([]JournalEntry, error)
}
