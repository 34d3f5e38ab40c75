package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"reva/internal/app/commands"
	"reva/internal/app/dto"
	"reva/internal/app/middleware"
	"reva/internal/app/outbox"
	"reva/internal/app/uow"
	"reva/internal/domain/access"
	domainbooking "reva/internal/domain/booking"
	domainlistings "reva/internal/domain/listings"
	"reva/internal/domain/shared/daterange"
	domainuser "reva/internal/domain/user"
)

const createBookingKey = "booking.create"

// CreateBookingCommand requests a stay. UserID defaults to the caller; only admins may book
// on behalf of someone else.
type CreateBookingCommand struct {
	Actor           access.Principal `json:"-"`
	ListingID       string           `json:"listing_id" validate:"required"`
	UserID          string           `json:"user_id"`
	StartDate       string           `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate         string           `json:"end_date" validate:"required,datetime=2006-01-02"`
	IdempotencyKeyV string           `json:"-"`
}

func (CreateBookingCommand) Key() string { return createBookingKey }

func (c CreateBookingCommand) IdempotencyKey() string {
	if c.IdempotencyKeyV == "" {
		return ""
	}
	return string(c.Actor.ID) + ":" + c.IdempotencyKeyV
}

func (CreateBookingCommand) ResultPrototype() any { return &dto.BookingSummary{} }

func (c CreateBookingCommand) Caller() access.Principal { return c.Actor }

func (CreateBookingCommand) RequiredCapability() access.Capability { return access.CapBook }

type CreateBookingHandler struct {
	Policy      domainbooking.ValidationPolicy
	Outbox      outbox.Outbox
	Encoder     outbox.EventEncoder
	IDGenerator func() string
	Clock       func() time.Time
	Logger      *slog.Logger
}

func (h *CreateBookingHandler) Handle(ctx context.Context, cmd CreateBookingCommand) (*dto.BookingSummary, error) {
	unit, err := uow.MustFromContext(ctx)
	if err != nil {
		return nil, err
	}
	userID := strings.TrimSpace(cmd.UserID)
	if userID == "" {
		userID = string(cmd.Actor.ID)
	}
	if userID != string(cmd.Actor.ID) && cmd.Actor.Role != domainuser.RoleAdmin {
		return nil, access.ErrAccessDenied
	}
	stay, err := daterange.Parse(strings.TrimSpace(cmd.StartDate), strings.TrimSpace(cmd.EndDate))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", middleware.ErrValidation, err)
	}

	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(strings.TrimSpace(cmd.ListingID)))
	if err != nil {
		return nil, err
	}

	var existing []*domainbooking.Booking
	if h.Policy.RejectOverlaps {
		existing, err = unit.Bookings().ListByListings(ctx, []domainlistings.ListingID{listing.ID})
		if err != nil {
			return nil, err
		}
	}

	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:           domainbooking.BookingID(h.newID()),
		ListingID:    listing.ID,
		UserID:       userID,
		Stay:         stay,
		NightlyPrice: listing.NightlyPrice,
		CreatedAt:    h.now(),
		Policy:       h.Policy,
		Existing:     existing,
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, b.Drain()); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("booking requested",
			"booking_id", b.ID, "listing_id", b.ListingID, "user_id", b.UserID,
			"stay", b.Stay.String(), "total", b.TotalPrice)
	}
	summary := dto.MapBookingSummary(b, listing)
	return &summary, nil
}

func (h *CreateBookingHandler) newID() string {
	if h.IDGenerator != nil {
		return h.IDGenerator()
	}
	return uuid.NewString()
}

func (h *CreateBookingHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock()
	}
	return time.Now()
}

// IsInputError reports whether err stems from malformed booking input.
func IsInputError(err error) bool {
	return errors.Is(err, middleware.ErrValidation) ||
		errors.Is(err, domainbooking.ErrUnorderedDates) ||
		errors.Is(err, domainbooking.ErrInvalidStatus) ||
		errors.Is(err, domainbooking.ErrUserRequired) ||
		errors.Is(err, domainbooking.ErrListingRequired) ||
		errors.Is(err, daterange.ErrMissingBound)
}

var (
	_ commands.Handler[CreateBookingCommand, *dto.BookingSummary] = (*CreateBookingHandler)(nil)
	_ middleware.IdempotentCommand                               = CreateBookingCommand{}
	_ middleware.Guarded                                         = CreateBookingCommand{}
)
