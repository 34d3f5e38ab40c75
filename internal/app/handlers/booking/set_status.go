package booking

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"reva/internal/app/commands"
	"reva/internal/app/dto"
	"reva/internal/app/middleware"
	"reva/internal/app/outbox"
	"reva/internal/app/uow"
	"reva/internal/domain/access"
	domainbooking "reva/internal/domain/booking"
	domainlistings "reva/internal/domain/listings"
)

const setBookingStatusKey = "booking.set_status"

type SetBookingStatusCommand struct {
	Actor     access.Principal `json:"-"`
	BookingID string           `json:"booking_id" validate:"required"`
	Status    string           `json:"status" validate:"required"`
}

func (SetBookingStatusCommand) Key() string { return setBookingStatusKey }

func (c SetBookingStatusCommand) Caller() access.Principal { return c.Actor }

func (SetBookingStatusCommand) RequiredCapability() access.Capability {
	return access.CapManageBookings
}

// TransitionObserver is notified after a successful status change.
type TransitionObserver interface {
	BookingTransitioned(from, to domainbooking.Status)
}

type SetBookingStatusHandler struct {
	Policy   domainbooking.ValidationPolicy
	Outbox   outbox.Outbox
	Encoder  outbox.EventEncoder
	Observer TransitionObserver
	Clock    func() time.Time
	Logger   *slog.Logger
}

func (h *SetBookingStatusHandler) Handle(ctx context.Context, cmd SetBookingStatusCommand) (*dto.BookingSummary, error) {
	unit, err := uow.MustFromContext(ctx)
	if err != nil {
		return nil, err
	}
	status, err := domainbooking.ParseStatus(cmd.Status)
	if err != nil {
		return nil, domainbooking.ErrInvalidStatus
	}

	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(strings.TrimSpace(cmd.BookingID)))
	if err != nil {
		return nil, err
	}
	grant := access.Resolve(cmd.Actor)
	listing, err := unit.Listings().ByID(ctx, b.ListingID)
	if err != nil && !errors.Is(err, domainlistings.ErrNotFound) {
		return nil, err
	}
	if grant.Scope.Kind != access.ScopeAll && !grant.CoversListing(listing) {
		return nil, access.ErrAccessDenied
	}

	from := b.Status
	now := time.Now()
	if h.Clock != nil {
		now = h.Clock()
	}
	if err := b.Transition(status, string(cmd.Actor.ID), h.Policy, now); err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, b.Drain()); err != nil {
		return nil, err
	}
	if h.Observer != nil {
		h.Observer.BookingTransitioned(from, b.Status)
	}
	if h.Logger != nil {
		h.Logger.Info("booking status changed",
			"booking_id", b.ID, "from", from, "to", b.Status, "actor", cmd.Actor.ID)
	}
	summary := dto.MapBookingSummary(b, listing)
	return &summary, nil
}

var (
	_ commands.Handler[SetBookingStatusCommand, *dto.BookingSummary] = (*SetBookingStatusHandler)(nil)
	_ middleware.Guarded                                            = SetBookingStatusCommand{}
)
