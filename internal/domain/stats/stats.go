package stats

import (
	"sort"

	"reva/internal/domain/booking"
	"reva/internal/domain/listings"
)

// Summary is the owner-facing dashboard aggregate.
type Summary struct {
	TotalRevenue       int64
	ActiveBookingCount int
	PendingCount       int
	PropertyCount      int
}

// MonthRevenue is the confirmed revenue for a calendar month, keyed "YYYY-MM".
type MonthRevenue struct {
	Month   string
	Revenue int64
}

// TotalRevenue sums the total price of confirmed bookings.
func TotalRevenue(items []*booking.Booking) int64 {
	var total int64
	for _, b := range items {
		if b != nil && b.Status == booking.StatusConfirmed {
			total += b.TotalPrice
		}
	}
	return total
}

func ActiveBookingCount(items []*booking.Booking) int {
	return countStatus(items, booking.StatusConfirmed)
}

func PendingCount(items []*booking.Booking) int {
	return countStatus(items, booking.StatusPending)
}

func PropertyCount(items []*listings.Listing) int {
	n := 0
	for _, l := range items {
		if l != nil {
			n++
		}
	}
	return n
}

// Summarize computes every figure over listings and bookings already narrowed to one scope.
func Summarize(ls []*listings.Listing, bs []*booking.Booking) Summary {
	return Summary{
		TotalRevenue:       TotalRevenue(bs),
		ActiveBookingCount: ActiveBookingCount(bs),
		PendingCount:       PendingCount(bs),
		PropertyCount:      PropertyCount(ls),
	}
}

// MonthlyRevenue groups confirmed revenue by the month the stay starts, oldest first.
func MonthlyRevenue(items []*booking.Booking) []MonthRevenue {
	byMonth := make(map[string]int64)
	for _, b := range items {
		if b == nil || b.Status != booking.StatusConfirmed {
			continue
		}
		byMonth[b.Stay.Start.UTC().Format("2006-01")] += b.TotalPrice
	}
	out := make([]MonthRevenue, 0, len(byMonth))
	for month, revenue := range byMonth {
		out = append(out, MonthRevenue{Month: month, Revenue: revenue})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

func countStatus(items []*booking.Booking, status booking.Status) int {
	n := 0
	for _, b := range items {
		if b != nil && b.Status == status {
			n++
		}
	}
	return n
}
