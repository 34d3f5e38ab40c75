package dashboard_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reva/internal/app/dto"
	"reva/internal/app/handlers/dashboard"
	"reva/internal/app/middleware"
	"reva/internal/app/queries"
	"reva/internal/domain/access"
	domainuser "reva/internal/domain/user"
	"reva/internal/infra/security"
	"reva/internal/infra/storage/memory"
)

func newBus(t *testing.T) queries.Bus {
	t.Helper()
	repos, err := memory.Open(context.Background(), memory.Options{Hasher: security.BcryptHasher{Cost: 4}})
	require.NoError(t, err)
	bus := queries.NewInMemoryBus()
	queries.RegisterHandler[dashboard.SummaryQuery, *dto.Dashboard](bus, dashboard.SummaryQuery{}.Key(),
		&dashboard.SummaryHandler{UoWFactory: repos.Factory})
	return middleware.ChainQueries(bus, middleware.QueryAuthorization(middleware.CapabilityAuthorizer{}))
}

func summary(bus queries.Bus, p access.Principal) (*dto.Dashboard, error) {
	return queries.Ask[dashboard.SummaryQuery, *dto.Dashboard](context.Background(), bus, dashboard.SummaryQuery{Actor: p})
}

func TestSummary_OwnerScope(t *testing.T) {
	bus := newBus(t)

	d, err := summary(bus, access.Principal{ID: "2", Role: domainuser.RoleOwner})

	require.NoError(t, err)
	assert.Equal(t, "owner", d.Scope)
	assert.Equal(t, int64(600), d.TotalRevenue)
	assert.Equal(t, 2, d.ActiveBookingCount)
	assert.Equal(t, 1, d.PendingCount)
	assert.Equal(t, 4, d.PropertyCount)
	assert.Len(t, d.Bookings.Items, 3)
	assert.Equal(t, []dto.MonthRevenue{
		{Month: "2023-12", Revenue: 360},
		{Month: "2024-02", Revenue: 240},
	}, d.MonthlyRevenue)
}

func TestSummary_OwnerWithoutBookings(t *testing.T) {
	bus := newBus(t)

	d, err := summary(bus, access.Principal{ID: "99", Role: domainuser.RoleOwner})

	require.NoError(t, err)
	assert.Equal(t, 1, d.PropertyCount)
	assert.Zero(t, d.TotalRevenue)
	assert.Empty(t, d.Bookings.Items)
	assert.Empty(t, d.MonthlyRevenue)
}

func TestSummary_AdminSeesEverything(t *testing.T) {
	bus := newBus(t)

	d, err := summary(bus, access.Principal{ID: "1", Role: domainuser.RoleAdmin})

	require.NoError(t, err)
	assert.Equal(t, "all", d.Scope)
	assert.Equal(t, 5, d.PropertyCount)
	assert.Equal(t, int64(600), d.TotalRevenue)
}

func TestSummary_GuestDenied(t *testing.T) {
	bus := newBus(t)

	_, err := summary(bus, access.Principal{ID: "3", Role: domainuser.RoleUser})
	assert.ErrorIs(t, err, access.ErrAccessDenied)

	_, err = summary(bus, access.Principal{})
	assert.ErrorIs(t, err, access.ErrAccessDenied)
}
