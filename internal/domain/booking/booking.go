package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"reva/internal/domain/listings"
	"reva/internal/domain/shared/daterange"
	"reva/internal/domain/shared/events"
)

var (
	ErrBookingNotFound  = errors.New("booking: not found")
	ErrInvalidStatus    = errors.New("booking: status must be CONFIRMED or CANCELLED")
	ErrInvalidState     = errors.New("booking: invalid state transition")
	ErrUserRequired     = errors.New("booking: user id required")
	ErrListingRequired  = errors.New("booking: listing id required")
	ErrUnorderedDates   = errors.New("booking: end date must be after start date")
	ErrDatesOverlap     = errors.New("booking: dates overlap an existing booking")
	ErrConcurrentUpdate = errors.New("booking: concurrent update")
)

type BookingID string

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
)

// ParseStatus accepts any of the three known statuses, case-insensitively.
func ParseStatus(raw string) (Status, error) {
	switch Status(strings.ToUpper(strings.TrimSpace(raw))) {
	case StatusPending:
		return StatusPending, nil
	case StatusConfirmed:
		return StatusConfirmed, nil
	case StatusCancelled:
		return StatusCancelled, nil
	default:
		return "", fmt.Errorf("booking: unknown status %q", raw)
	}
}

// Terminal reports whether no further transitions are expected from s.
func (s Status) Terminal() bool {
	return s == StatusConfirmed || s == StatusCancelled
}

type Booking struct {
	ID         BookingID
	ListingID  listings.ListingID
	UserID     string
	Stay       daterange.DateRange
	TotalPrice int64
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Version    int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	List(ctx context.Context) ([]*Booking, error)
	ListByUser(ctx context.Context, userID string) ([]*Booking, error)
	ListByListings(ctx context.Context, ids []listings.ListingID) ([]*Booking, error)
	Save(ctx context.Context, booking *Booking) error
}

// ValidationPolicy toggles the optional checks applied on create and transition.
type ValidationPolicy struct {
	RequireOrderedDates bool
	RejectOverlaps      bool
	StrictTransitions   bool
}

// DefaultPolicy keeps the permissive storefront behaviour with ordered dates enforced.
func DefaultPolicy() ValidationPolicy {
	return ValidationPolicy{RequireOrderedDates: true}
}

type CreateParams struct {
	ID           BookingID
	ListingID    listings.ListingID
	UserID       string
	Stay         daterange.DateRange
	NightlyPrice int64
	CreatedAt    time.Time
	Policy       ValidationPolicy
	// Existing bookings of the same listing, consulted only when RejectOverlaps is set.
	Existing []*Booking
}

// TotalPrice is the nightly price times the number of nights, with at least one night charged.
func TotalPrice(nightly int64, stay daterange.DateRange) int64 {
	return nightly * int64(stay.Nights())
}

func NewBooking(params CreateParams) (*Booking, error) {
	if strings.TrimSpace(string(params.ListingID)) == "" {
		return nil, ErrListingRequired
	}
	if strings.TrimSpace(params.UserID) == "" {
		return nil, ErrUserRequired
	}
	if params.Stay.Start.IsZero() || params.Stay.End.IsZero() {
		return nil, daterange.ErrMissingBound
	}
	if params.Policy.RequireOrderedDates && !params.Stay.Ordered() {
		return nil, ErrUnorderedDates
	}
	if params.Policy.RejectOverlaps {
		for _, other := range params.Existing {
			if other == nil || other.ListingID != params.ListingID || other.Status == StatusCancelled {
				continue
			}
			if other.Stay.Overlaps(params.Stay) {
				return nil, ErrDatesOverlap
			}
		}
	}
	now := params.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	b := &Booking{
		ID:         params.ID,
		ListingID:  params.ListingID,
		UserID:     strings.TrimSpace(params.UserID),
		Stay:       params.Stay,
		TotalPrice: TotalPrice(params.NightlyPrice, params.Stay),
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	b.Record(BookingRequested{
		BookingID:  b.ID,
		ListingID:  b.ListingID,
		UserID:     b.UserID,
		Stay:       b.Stay,
		TotalPrice: b.TotalPrice,
		At:         now,
	})
	return b, nil
}

// Transition moves the booking to CONFIRMED or CANCELLED. Unless the policy is strict,
// a terminal status is overwritten like any other.
func (b *Booking) Transition(to Status, actor string, policy ValidationPolicy, now time.Time) error {
	if to != StatusConfirmed && to != StatusCancelled {
		return ErrInvalidStatus
	}
	if policy.StrictTransitions && b.Status != StatusPending && b.Status != to {
		return ErrInvalidState
	}
	from := b.Status
	if now.IsZero() {
		now = time.Now()
	}
	b.Status = to
	b.UpdatedAt = now.UTC()
	if from != to {
		b.Record(BookingStatusChanged{
			BookingID: b.ID,
			ListingID: b.ListingID,
			From:      from,
			To:        to,
			Actor:     actor,
			At:        b.UpdatedAt,
		})
	}
	return nil
}

func (b *Booking) Clone() *Booking {
	if b == nil {
		return nil
	}
	cp := *b
	cp.EventRecorder = events.EventRecorder{}
	return &cp
}
