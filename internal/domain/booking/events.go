package booking

import (
	"time"

	"reva/internal/domain/listings"
	"reva/internal/domain/shared/daterange"
)

const (
	EventRequested     = "booking.requested"
	EventStatusChanged = "booking.status_changed"
)

type BookingRequested struct {
	BookingID  BookingID           `json:"booking_id"`
	ListingID  listings.ListingID  `json:"listing_id"`
	UserID     string              `json:"user_id"`
	Stay       daterange.DateRange `json:"stay"`
	TotalPrice int64               `json:"total_price"`
	At         time.Time           `json:"at"`
}

func (e BookingRequested) EventName() string     { return EventRequested }
func (e BookingRequested) AggregateID() string   { return string(e.BookingID) }
func (e BookingRequested) OccurredAt() time.Time { return e.At }

type BookingStatusChanged struct {
	BookingID BookingID          `json:"booking_id"`
	ListingID listings.ListingID `json:"listing_id"`
	From      Status             `json:"from"`
	To        Status             `json:"to"`
	Actor     string             `json:"actor"`
	At        time.Time          `json:"at"`
}

func (e BookingStatusChanged) EventName() string     { return EventStatusChanged }
func (e BookingStatusChanged) AggregateID() string   { return string(e.BookingID) }
func (e BookingStatusChanged) OccurredAt() time.Time { return e.At }
