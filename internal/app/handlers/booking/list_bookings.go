package booking

import (
	"context"
	"log/slog"
	"strings"

	"reva/internal/app/dto"
	"reva/internal/app/handlers/support"
	"reva/internal/app/middleware"
	"reva/internal/app/queries"
	"reva/internal/app/uow"
	"reva/internal/domain/access"
	domainbooking "reva/internal/domain/booking"
	domainlistings "reva/internal/domain/listings"
)

const (
	listBookingsKey   = "booking.list"
	bookingHistoryKey = "booking.history"

	ScopeMine    = "mine"
	ScopeManaged = "managed"
)

// ListBookingsQuery lists the caller's own bookings (mine) or those on listings the caller
// manages (managed).
type ListBookingsQuery struct {
	Actor access.Principal `json:"-"`
	Scope string           `json:"scope" validate:"omitempty,oneof=mine managed"`
}

func (ListBookingsQuery) Key() string { return listBookingsKey }

func (q ListBookingsQuery) Caller() access.Principal { return q.Actor }

func (q ListBookingsQuery) RequiredCapability() access.Capability {
	if q.normalizedScope() == ScopeManaged {
		return access.CapViewDashboard
	}
	return access.CapViewOwnBookings
}

func (q ListBookingsQuery) normalizedScope() string {
	if strings.EqualFold(strings.TrimSpace(q.Scope), ScopeManaged) {
		return ScopeManaged
	}
	return ScopeMine
}

type ListBookingsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *ListBookingsHandler) Handle(ctx context.Context, q ListBookingsQuery) (dto.BookingCollection, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	defer support.Release(cleanup)

	if q.normalizedScope() == ScopeManaged {
		managed, err := LoadManaged(ctx, unit, access.Resolve(q.Actor))
		if err != nil {
			return dto.BookingCollection{}, err
		}
		return dto.MapBookingCollection(managed.Bookings, managed.Index()), nil
	}

	items, err := unit.Bookings().ListByUser(ctx, string(q.Actor.ID))
	if err != nil {
		return dto.BookingCollection{}, err
	}
	index, err := resolveListings(ctx, unit, items)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if h.Logger != nil {
		h.Logger.Debug("bookings listed", "user_id", q.Actor.ID, "count", len(items))
	}
	return dto.MapBookingCollection(items, index), nil
}

func resolveListings(ctx context.Context, unit uow.UnitOfWork, items []*domainbooking.Booking) (map[domainlistings.ListingID]*domainlistings.Listing, error) {
	all, err := unit.Listings().List(ctx)
	if err != nil {
		return nil, err
	}
	wanted := make(map[domainlistings.ListingID]struct{}, len(items))
	for _, b := range items {
		wanted[b.ListingID] = struct{}{}
	}
	index := make(map[domainlistings.ListingID]*domainlistings.Listing, len(wanted))
	for _, l := range all {
		if _, ok := wanted[l.ID]; ok {
			index[l.ID] = l
		}
	}
	return index, nil
}

var _ middleware.Guarded = ListBookingsQuery{}
var _ queries.Handler[ListBookingsQuery, dto.BookingCollection] = (*ListBookingsHandler)(nil)
