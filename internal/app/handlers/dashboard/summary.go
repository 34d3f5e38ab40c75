package dashboard

import (
	"context"
	"log/slog"

	"reva/internal/app/dto"
	bookingapp "reva/internal/app/handlers/booking"
	"reva/internal/app/handlers/support"
	"reva/internal/app/middleware"
	"reva/internal/app/queries"
	"reva/internal/app/uow"
	"reva/internal/domain/access"
	"reva/internal/domain/stats"
)

const summaryKey = "dashboard.summary"

// SummaryQuery recomputes the dashboard for the caller's scope on every call.
type SummaryQuery struct {
	Actor access.Principal
}

func (SummaryQuery) Key() string { return summaryKey }

func (q SummaryQuery) Caller() access.Principal { return q.Actor }

func (SummaryQuery) RequiredCapability() access.Capability { return access.CapViewDashboard }

type SummaryHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *SummaryHandler) Handle(ctx context.Context, q SummaryQuery) (*dto.Dashboard, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer support.Release(cleanup)

	grant := access.Resolve(q.Actor)
	managed, err := bookingapp.LoadManaged(ctx, unit, grant)
	if err != nil {
		return nil, err
	}
	summary := stats.Summarize(managed.Listings, managed.Bookings)
	if h.Logger != nil {
		h.Logger.Debug("dashboard computed",
			"user_id", q.Actor.ID, "scope", grant.Scope.Kind,
			"revenue", summary.TotalRevenue, "bookings", len(managed.Bookings))
	}
	return &dto.Dashboard{
		Scope:              string(grant.Scope.Kind),
		TotalRevenue:       summary.TotalRevenue,
		ActiveBookingCount: summary.ActiveBookingCount,
		PendingCount:       summary.PendingCount,
		PropertyCount:      summary.PropertyCount,
		MonthlyRevenue:     dto.MapMonthlyRevenue(stats.MonthlyRevenue(managed.Bookings)),
		Bookings:           dto.MapBookingCollection(managed.Bookings, managed.Index()),
	}, nil
}

var (
	_ queries.Handler[SummaryQuery, *dto.Dashboard] = (*SummaryHandler)(nil)
	_ middleware.Guarded                            = SummaryQuery{}
)
