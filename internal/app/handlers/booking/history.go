package booking

import (
	"context"
	"strings"

	"reva/internal/app/dto"
	"reva/internal/app/handlers/support"
	"reva/internal/app/policies"
	"reva/internal/app/queries"
	"reva/internal/app/uow"
	"reva/internal/domain/access"
	domainbooking "reva/internal/domain/booking"
)

// BookingHistoryQuery returns the status journal of one booking. The booker and anyone
// managing the listing may read it.
type BookingHistoryQuery struct {
	Actor     access.Principal `json:"-"`
	BookingID string           `json:"booking_id" validate:"required"`
}

func (BookingHistoryQuery) Key() string { return bookingHistoryKey }

type BookingHistoryHandler struct {
	UoWFactory uow.UoWFactory
	Journal    policies.BookingJournal
}

func (h *BookingHistoryHandler) Handle(ctx context.Context, q BookingHistoryQuery) (*dto.BookingHistory, error) {
	id := strings.TrimSpace(q.BookingID)
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer support.Release(cleanup)

	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(id))
	if err != nil {
		return nil, err
	}
	if b.UserID != string(q.Actor.ID) {
		grant := access.Resolve(q.Actor)
		if grant.Scope.Kind != access.ScopeAll {
			listing, err := unit.Listings().ByID(ctx, b.ListingID)
			if err != nil || !grant.CoversListing(listing) {
				return nil, access.ErrAccessDenied
			}
		}
	}

	out := &dto.BookingHistory{BookingID: string(b.ID), Entries: []dto.JournalEntry{}}
	if h.Journal == nil {
		return out, nil
	}
	entries, err := h.Journal.History(ctx, string(b.ID))
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		out.Entries = append(out.Entries, dto.JournalEntry{Event: e.Event, From: e.From, To: e.To, Actor: e.Actor, At: e.At})
	}
	return out, nil
}

var _ queries.Handler[BookingHistoryQuery, *dto.BookingHistory] = (*BookingHistoryHandler)(nil)
