package dto

import "reva/internal/domain/stats"

type MonthRevenue struct {
	Month   string `json:"month"`
	Revenue int64  `json:"revenue"`
}

type Dashboard struct {
	Scope              string            `json:"scope"`
	TotalRevenue       int64             `json:"total_revenue"`
	ActiveBookingCount int               `json:"active_booking_count"`
	PendingCount       int               `json:"pending_count"`
	PropertyCount      int               `json:"property_count"`
	MonthlyRevenue     []MonthRevenue    `json:"monthly_revenue"`
	Bookings           BookingCollection `json:"bookings"`
}

func MapMonthlyRevenue(items []stats.MonthRevenue) []MonthRevenue {
	out := make([]MonthRevenue, 0, len(items))
	for _, m := range items {
		out = append(out, MonthRevenue{Month: m.Month, Revenue: m.Revenue})
	}
	return out
}
