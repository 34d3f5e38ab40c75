package memory

import (
	"context"
	"sort"
	"sync"

	"reva/internal/app/policies"
)

type BookingJournal struct {
	mu      sync.RWMutex
	entries map[string][]policies.JournalEntry
	seen    map[string]struct{}
}

func NewBookingJournal() *BookingJournal {
	return &BookingJournal{entries: make(map[string][]policies.JournalEntry), seen: make(map[string]struct{})}
}

func (j *BookingJournal) Append(_ context.Context, entry policies.JournalEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if entry.EventID != "" {
		if _, dup := j.seen[entry.EventID]; dup {
			return nil
		}
		j.seen[entry.EventID] = struct{}{}
	}
	j.entries[entry.BookingID] = append(j.entries[entry.BookingID], entry)
	return nil
}

func (j *BookingJournal) History(_ context.Context, bookingID string) ([]policies.JournalEntry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	out := append([]policies.JournalEntry(nil), j.entries[bookingID]...)
	sort.SliceStable(out, func(a, b int) bool { return out[a].At.Before(out[b].At) })
	return out, nil
}

var _ policies.BookingJournal = (*BookingJournal)(nil)
