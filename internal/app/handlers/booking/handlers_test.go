package booking_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"reva/internal/app/commands"
	"reva/internal/app/dto"
	bookingapp "reva/internal/app/handlers/booking"
	"reva/internal/app/middleware"
	appoutbox "reva/internal/app/outbox"
	"reva/internal/app/policies"
	"reva/internal/app/queries"
	"reva/internal/domain/access"
	domainbooking "reva/internal/domain/booking"
	domainlistings "reva/internal/domain/listings"
	domainuser "reva/internal/domain/user"
	"reva/internal/infra/storage/memory"
)

var (
	guest = access.Principal{ID: "3", Role: domainuser.RoleUser}
	owner = access.Principal{ID: "2", Role: domainuser.RoleOwner}
	other = access.Principal{ID: "5", Role: domainuser.RoleOwner}
	admin = access.Principal{ID: "1", Role: domainuser.RoleAdmin}
)

type transitionsMock struct {
	mock.Mock
}

func (m *transitionsMock) BookingTransitioned(from, to domainbooking.Status) { m.Called(from, to) }

type env struct {
	commands commands.Bus
	queries  queries.Bus
	outbox   *memory.OutboxQueue
	journal  *memory.BookingJournal
	observer *transitionsMock
}

func newEnv(t *testing.T, policy domainbooking.ValidationPolicy) *env {
	t.Helper()
	listings := memory.NewListingRepository(nil)
	for _, p := range []domainlistings.CreateParams{
		{ID: "c1", Owner: "2", Name: "Desert Camp", Location: "Wadi Rum", NightlyPrice: 100, Capacity: 2},
		{ID: "c9", Owner: "5", Name: "Sea View", Location: "Aqaba", NightlyPrice: 300, Capacity: 4},
	} {
		l, err := domainlistings.NewListing(p)
		require.NoError(t, err)
		require.NoError(t, listings.Save(context.Background(), l))
	}
	factory := memory.Factory{
		ListingsRepo: listings,
		BookingsRepo: memory.NewBookingRepository(nil),
		UsersRepo:    memory.NewUserRepository(nil),
	}
	e := &env{outbox: memory.NewOutboxQueue(), journal: memory.NewBookingJournal(), observer: new(transitionsMock)}
	buffer := appoutbox.NewBuffer(e.outbox)
	clock := func() time.Time { return time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC) }

	cmdBus := commands.NewInMemoryBus()
	commands.RegisterHandler[bookingapp.CreateBookingCommand, *dto.BookingSummary](cmdBus, bookingapp.CreateBookingCommand{}.Key(),
		&bookingapp.CreateBookingHandler{Policy: policy, Outbox: buffer, Clock: clock})
	commands.RegisterHandler[bookingapp.SetBookingStatusCommand, *dto.BookingSummary](cmdBus, bookingapp.SetBookingStatusCommand{}.Key(),
		&bookingapp.SetBookingStatusHandler{Policy: policy, Outbox: buffer, Observer: e.observer, Clock: clock})

	qBus := queries.NewInMemoryBus()
	queries.RegisterHandler[bookingapp.ListBookingsQuery, dto.BookingCollection](qBus, bookingapp.ListBookingsQuery{}.Key(),
		&bookingapp.ListBookingsHandler{UoWFactory: factory})
	queries.RegisterHandler[bookingapp.BookingHistoryQuery, *dto.BookingHistory](qBus, bookingapp.BookingHistoryQuery{}.Key(),
		&bookingapp.BookingHistoryHandler{UoWFactory: factory, Journal: e.journal})

	v := middleware.NewStructValidator()
	e.commands = middleware.ChainCommands(cmdBus,
		middleware.Validation(v),
		middleware.Authorization(middleware.CapabilityAuthorizer{}),
		middleware.Idempotency(memory.NewIdempotencyStore(time.Hour), nil),
		middleware.Transaction(factory, nil),
		middleware.OutboxFlush(buffer),
	)
	e.queries = middleware.ChainQueries(qBus,
		middleware.QueryValidation(v),
		middleware.QueryAuthorization(middleware.CapabilityAuthorizer{}),
	)
	return e
}

func (e *env) create(actor access.Principal, listing, start, end string) (*dto.BookingSummary, error) {
	return commands.Dispatch[bookingapp.CreateBookingCommand, *dto.BookingSummary](context.Background(), e.commands,
		bookingapp.CreateBookingCommand{Actor: actor, ListingID: listing, StartDate: start, EndDate: end})
}

func (e *env) setStatus(actor access.Principal, id, status string) (*dto.BookingSummary, error) {
	return commands.Dispatch[bookingapp.SetBookingStatusCommand, *dto.BookingSummary](context.Background(), e.commands,
		bookingapp.SetBookingStatusCommand{Actor: actor, BookingID: id, Status: status})
}

func TestCreateBooking(t *testing.T) {
	e := newEnv(t, domainbooking.DefaultPolicy())

	b, err := e.create(guest, "c1", "2025-03-01", "2025-03-04")

	require.NoError(t, err)
	assert.Equal(t, "PENDING", b.Status)
	assert.Equal(t, int64(300), b.TotalPrice)
	assert.Equal(t, "3", b.UserID)
	assert.Equal(t, "Desert Camp", b.Listing.Name)
	assert.Equal(t, 1, e.outbox.Len())
}

func TestCreateBooking_Rejections(t *testing.T) {
	e := newEnv(t, domainbooking.DefaultPolicy())

	_, err := e.create(guest, "", "2025-03-01", "2025-03-04")
	assert.ErrorIs(t, err, middleware.ErrValidation)

	_, err = e.create(guest, "c1", "2025-03-04", "2025-03-01")
	assert.True(t, bookingapp.IsInputError(err), "got %v", err)

	_, err = e.create(guest, "nope", "2025-03-01", "2025-03-04")
	assert.ErrorIs(t, err, domainlistings.ErrNotFound)

	_, err = e.create(access.Principal{}, "c1", "2025-03-01", "2025-03-04")
	assert.ErrorIs(t, err, access.ErrAccessDenied)

	_, err = commands.Dispatch[bookingapp.CreateBookingCommand, *dto.BookingSummary](context.Background(), e.commands,
		bookingapp.CreateBookingCommand{Actor: guest, ListingID: "c1", UserID: "9", StartDate: "2025-03-01", EndDate: "2025-03-02"})
	assert.ErrorIs(t, err, access.ErrAccessDenied)
	assert.Equal(t, 0, e.outbox.Len())
}

func TestCreateBooking_AdminOnBehalf(t *testing.T) {
	e := newEnv(t, domainbooking.DefaultPolicy())

	b, err := commands.Dispatch[bookingapp.CreateBookingCommand, *dto.BookingSummary](context.Background(), e.commands,
		bookingapp.CreateBookingCommand{Actor: admin, ListingID: "c1", UserID: "9", StartDate: "2025-03-01", EndDate: "2025-03-02"})

	require.NoError(t, err)
	assert.Equal(t, "9", b.UserID)
}

func TestCreateBooking_OverlapRollsBack(t *testing.T) {
	e := newEnv(t, domainbooking.ValidationPolicy{RequireOrderedDates: true, RejectOverlaps: true})

	_, err := e.create(guest, "c1", "2025-03-01", "2025-03-04")
	require.NoError(t, err)
	_, err = e.create(guest, "c1", "2025-03-03", "2025-03-05")
	assert.ErrorIs(t, err, domainbooking.ErrDatesOverlap)

	_, err = e.create(guest, "c1", "2025-03-04", "2025-03-06")
	assert.NoError(t, err, "back-to-back stays do not overlap")
	assert.Equal(t, 2, e.outbox.Len())
}

func TestSetBookingStatus_Scope(t *testing.T) {
	e := newEnv(t, domainbooking.DefaultPolicy())
	e.observer.On("BookingTransitioned", domainbooking.StatusPending, domainbooking.StatusConfirmed).Once()
	b, err := e.create(guest, "c1", "2025-03-01", "2025-03-02")
	require.NoError(t, err)

	_, err = e.setStatus(guest, b.ID, "CONFIRMED")
	assert.ErrorIs(t, err, access.ErrAccessDenied)

	_, err = e.setStatus(other, b.ID, "CONFIRMED")
	assert.ErrorIs(t, err, access.ErrAccessDenied)

	_, err = e.setStatus(owner, b.ID, "PENDING")
	assert.ErrorIs(t, err, domainbooking.ErrInvalidStatus)

	_, err = e.setStatus(owner, "missing", "CONFIRMED")
	assert.ErrorIs(t, err, domainbooking.ErrBookingNotFound)

	updated, err := e.setStatus(owner, b.ID, "confirmed")
	require.NoError(t, err)
	assert.Equal(t, "CONFIRMED", updated.Status)
	e.observer.AssertExpectations(t)
}

func TestSetBookingStatus_PermissiveByDefault(t *testing.T) {
	e := newEnv(t, domainbooking.DefaultPolicy())
	e.observer.On("BookingTransitioned", mock.Anything, mock.Anything)
	b, err := e.create(guest, "c1", "2025-03-01", "2025-03-02")
	require.NoError(t, err)

	_, err = e.setStatus(admin, b.ID, "CANCELLED")
	require.NoError(t, err)
	again, err := e.setStatus(admin, b.ID, "CONFIRMED")

	require.NoError(t, err)
	assert.Equal(t, "CONFIRMED", again.Status)
}

func TestSetBookingStatus_Strict(t *testing.T) {
	e := newEnv(t, domainbooking.ValidationPolicy{RequireOrderedDates: true, StrictTransitions: true})
	e.observer.On("BookingTransitioned", mock.Anything, mock.Anything)
	b, err := e.create(guest, "c1", "2025-03-01", "2025-03-02")
	require.NoError(t, err)

	_, err = e.setStatus(owner, b.ID, "CANCELLED")
	require.NoError(t, err)
	_, err = e.setStatus(owner, b.ID, "CONFIRMED")

	assert.ErrorIs(t, err, domainbooking.ErrInvalidState)
}

func TestListBookings(t *testing.T) {
	e := newEnv(t, domainbooking.DefaultPolicy())
	_, err := e.create(guest, "c1", "2025-03-01", "2025-03-02")
	require.NoError(t, err)
	_, err = e.create(guest, "c9", "2025-04-01", "2025-04-02")
	require.NoError(t, err)
	ctx := context.Background()

	mine, err := queries.Ask[bookingapp.ListBookingsQuery, dto.BookingCollection](ctx, e.queries, bookingapp.ListBookingsQuery{Actor: guest})
	require.NoError(t, err)
	assert.Len(t, mine.Items, 2)

	managed, err := queries.Ask[bookingapp.ListBookingsQuery, dto.BookingCollection](ctx, e.queries, bookingapp.ListBookingsQuery{Actor: owner, Scope: "managed"})
	require.NoError(t, err)
	require.Len(t, managed.Items, 1)
	assert.Equal(t, "c1", managed.Items[0].Listing.ID)

	all, err := queries.Ask[bookingapp.ListBookingsQuery, dto.BookingCollection](ctx, e.queries, bookingapp.ListBookingsQuery{Actor: admin, Scope: "managed"})
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)

	_, err = queries.Ask[bookingapp.ListBookingsQuery, dto.BookingCollection](ctx, e.queries, bookingapp.ListBookingsQuery{Actor: guest, Scope: "managed"})
	assert.ErrorIs(t, err, access.ErrAccessDenied)

	_, err = queries.Ask[bookingapp.ListBookingsQuery, dto.BookingCollection](ctx, e.queries, bookingapp.ListBookingsQuery{Actor: guest, Scope: "everything"})
	assert.ErrorIs(t, err, middleware.ErrValidation)
}

func TestBookingHistory(t *testing.T) {
	e := newEnv(t, domainbooking.DefaultPolicy())
	b, err := e.create(guest, "c1", "2025-03-01", "2025-03-02")
	require.NoError(t, err)
	at := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, e.journal.Append(context.Background(), policies.JournalEntry{
		BookingID: b.ID, EventID: "e1", Event: domainbooking.EventRequested, To: "PENDING", Actor: "3", At: at,
	}))
	ctx := context.Background()

	h, err := queries.Ask[bookingapp.BookingHistoryQuery, *dto.BookingHistory](ctx, e.queries, bookingapp.BookingHistoryQuery{Actor: guest, BookingID: b.ID})
	require.NoError(t, err)
	require.Len(t, h.Entries, 1)
	assert.Equal(t, "PENDING", h.Entries[0].To)

	_, err = queries.Ask[bookingapp.BookingHistoryQuery, *dto.BookingHistory](ctx, e.queries, bookingapp.BookingHistoryQuery{Actor: owner, BookingID: b.ID})
	assert.NoError(t, err)

	_, err = queries.Ask[bookingapp.BookingHistoryQuery, *dto.BookingHistory](ctx, e.queries, bookingapp.BookingHistoryQuery{Actor: other, BookingID: b.ID})
	assert.ErrorIs(t, err, access.ErrAccessDenied)
}
