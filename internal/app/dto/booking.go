package dto

import (
	"time"

	domainbooking "reva/internal/domain/booking"
	domainlistings "reva/internal/domain/listings"
	"reva/internal/domain/shared/daterange"
)

type BookingListingSnapshot struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Location string `json:"location,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

type BookingSummary struct {
	ID         string                 `json:"id"`
	Listing    BookingListingSnapshot `json:"listing"`
	UserID     string                 `json:"user_id"`
	StartDate  string                 `json:"start_date"`
	EndDate    string                 `json:"end_date"`
	TotalPrice int64                  `json:"total_price"`
	Status     string                 `json:"status"`
	CreatedAt  time.Time              `json:"created_at"`
}

type BookingCollection struct {
	Items []BookingSummary `json:"items"`
}

// MapBookingSummary flattens a booking; listing may be nil when it no longer resolves.
func MapBookingSummary(b *domainbooking.Booking, listing *domainlistings.Listing) BookingSummary {
	snapshot := BookingListingSnapshot{ID: string(b.ListingID)}
	if listing != nil {
		snapshot.Name = listing.Name
		snapshot.Location = listing.Location
		snapshot.ImageURL = listing.ImageURL
	}
	return BookingSummary{
		ID:         string(b.ID),
		Listing:    snapshot,
		UserID:     b.UserID,
		StartDate:  b.Stay.Start.Format(daterange.Layout),
		EndDate:    b.Stay.End.Format(daterange.Layout),
		TotalPrice: b.TotalPrice,
		Status:     string(b.Status),
		CreatedAt:  b.CreatedAt,
	}
}

// MapBookingCollection keeps the order of items and resolves listings from the index.
func MapBookingCollection(items []*domainbooking.Booking, index map[domainlistings.ListingID]*domainlistings.Listing) BookingCollection {
	out := BookingCollection{Items: make([]BookingSummary, 0, len(items))}
	for _, b := range items {
		if b == nil {
			continue
		}
		out.Items = append(out.Items, MapBookingSummary(b, index[b.ListingID]))
	}
	return out
}

type JournalEntry struct {
	Event string    `json:"event"`
	From  string    `json:"from,omitempty"`
	To    string    `json:"to"`
	Actor string    `json:"actor,omitempty"`
	At    time.Time `json:"at"`
}

type BookingHistory struct {
	BookingID string         `json:"booking_id"`
	Entries   []JournalEntry `json:"entries"`
}
