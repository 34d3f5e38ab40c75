package scylla

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gocql/gocql"

	"reva/internal/app/policies"
)

var errNoSession = errors.New("scylla session not initialized")

// Journal stores booking status history. Rows are keyed by (booking, time, event id), so a
// replayed event overwrites its own row.
type Journal struct {
	session *gocql.Session
	logger  *slog.Logger
}

func NewJournal(session *gocql.Session, logger *slog.Logger) *Journal {
	return &Journal{session: session, logger: logger}
}

func (j *Journal) Append(ctx context.Context, entry policies.JournalEntry) error {
	if j.session == nil {
		return errNoSession
	}
	at := entry.At
	if at.IsZero() {
		at = time.Now()
	}
	return j.session.
		Query(`INSERT INTO booking_journal (booking_id, at, event_id, event, from_status, to_status, actor) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			strings.TrimSpace(entry.BookingID), at.UTC(), entry.EventID, entry.Event, entry.From, entry.To, entry.Actor).
		WithContext(ctx).
		Consistency(gocql.Quorum).
		Exec()
}

func (j *Journal) History(ctx context.Context, bookingID string) ([]policies.JournalEntry, error) {
	if j.session == nil {
		return nil, errNoSession
	}
	iter := j.session.
		Query(`SELECT at, event_id, event, from_status, to_status, actor FROM booking_journal WHERE booking_id = ?`, strings.TrimSpace(bookingID)).
		WithContext(ctx).
		Consistency(gocql.One).
		Iter()

	var (
		out []policies.JournalEntry
		row policies.JournalEntry
		at  time.Time
	)
	for iter.Scan(&at, &row.EventID, &row.Event, &row.From, &row.To, &row.Actor) {
		row.BookingID = bookingID
		row.At = at.UTC()
		out = append(out, row)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return out, nil
}

var _ policies.BookingJournal = (*Journal)(nil)
