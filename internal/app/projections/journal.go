package projections

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"reva/internal/app/policies"
	domainbooking "reva/internal/domain/booking"
)

var ErrJournalRequired = errors.New("projections: booking journal required")

// JournalProjector turns booking events into status history entries.
type JournalProjector struct {
	Journal policies.BookingJournal
	Logger  *slog.Logger
}

func (p *JournalProjector) Project(ctx context.Context, eventID, name string, data []byte) error {
	if p.Journal == nil {
		return ErrJournalRequired
	}
	var entry policies.JournalEntry
	switch name {
	case domainbooking.EventRequested:
		var ev domainbooking.BookingRequested
		if err := json.Unmarshal(data, &ev); err != nil {
			return err
		}
		entry = policies.JournalEntry{
			BookingID: string(ev.BookingID),
			Event:     name,
			To:        string(domainbooking.StatusPending),
			Actor:     ev.UserID,
			At:        ev.At,
		}
	case domainbooking.EventStatusChanged:
		var ev domainbooking.BookingStatusChanged
		if err := json.Unmarshal(data, &ev); err != nil {
			return err
		}
		entry = policies.JournalEntry{
			BookingID: string(ev.BookingID),
			Event:     name,
			From:      string(ev.From),
			To:        string(ev.To),
			Actor:     ev.Actor,
			At:        ev.At,
		}
	default:
		return nil
	}
	entry.EventID = eventID
	if err := p.Journal.Append(ctx, entry); err != nil {
		return err
	}
	if p.Logger != nil {
		p.Logger.Debug("journal entry projected", "booking_id", entry.BookingID, "event", name, "to", entry.To)
	}
	return nil
}
