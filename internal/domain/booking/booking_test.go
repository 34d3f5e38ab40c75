package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reva/internal/domain/shared/daterange"
)

func stay(t *testing.T, start, end string) daterange.DateRange {
	t.Helper()
	dr, err := daterange.Parse(start, end)
	require.NoError(t, err)
	return dr
}

func TestNewBooking_ComputesTotalAndStartsPending(t *testing.T) {
	b, err := NewBooking(CreateParams{
		ID:           "b-1",
		ListingID:    "c1",
		UserID:       "u1",
		Stay:         stay(t, "2024-01-01", "2024-01-03"),
		NightlyPrice: 100,
		Policy:       DefaultPolicy(),
	})

	require.NoError(t, err)
	assert.Equal(t, int64(200), b.TotalPrice)
	assert.Equal(t, StatusPending, b.Status)
	assert.False(t, b.CreatedAt.IsZero())
	require.Len(t, b.PendingEvents(), 1)
	assert.Equal(t, EventRequested, b.PendingEvents()[0].EventName())
}

func TestTotalPrice(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		want       int64
	}{
		{name: "two nights", start: "2024-01-01", end: "2024-01-03", want: 200},
		{name: "same day charges one night", start: "2024-01-01", end: "2024-01-01", want: 100},
		{name: "reversed uses absolute distance", start: "2024-01-05", end: "2024-01-02", want: 300},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TotalPrice(100, stay(t, tt.start, tt.end)))
		})
	}
}

func TestTotalPrice_PartialDayRoundsUp(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	dr, err := daterange.New(start, start.Add(36*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, int64(200), TotalPrice(100, dr))
}

func TestNewBooking_UnorderedDates(t *testing.T) {
	params := CreateParams{
		ID:           "b-1",
		ListingID:    "c1",
		UserID:       "u1",
		Stay:         stay(t, "2024-01-05", "2024-01-02"),
		NightlyPrice: 100,
	}

	params.Policy = ValidationPolicy{RequireOrderedDates: true}
	_, err := NewBooking(params)
	assert.ErrorIs(t, err, ErrUnorderedDates)

	params.Policy = ValidationPolicy{}
	b, err := NewBooking(params)
	require.NoError(t, err)
	assert.Equal(t, int64(300), b.TotalPrice)
}

func TestNewBooking_RejectOverlaps(t *testing.T) {
	existing, err := NewBooking(CreateParams{
		ID: "b-0", ListingID: "c1", UserID: "u2",
		Stay: stay(t, "2024-01-02", "2024-01-04"), NightlyPrice: 100,
	})
	require.NoError(t, err)

	params := CreateParams{
		ID: "b-1", ListingID: "c1", UserID: "u1",
		Stay: stay(t, "2024-01-03", "2024-01-05"), NightlyPrice: 100,
		Existing: []*Booking{existing},
	}
	_, err = NewBooking(params)
	require.NoError(t, err, "overlaps are allowed unless the policy rejects them")

	params.Policy.RejectOverlaps = true
	_, err = NewBooking(params)
	assert.ErrorIs(t, err, ErrDatesOverlap)

	require.NoError(t, existing.Transition(StatusCancelled, "owner", ValidationPolicy{}, time.Now()))
	_, err = NewBooking(params)
	assert.NoError(t, err, "cancelled bookings do not block dates")
}

func TestNewBooking_RequiredFields(t *testing.T) {
	_, err := NewBooking(CreateParams{ListingID: "c1", Stay: stay(t, "2024-01-01", "2024-01-02")})
	assert.ErrorIs(t, err, ErrUserRequired)

	_, err = NewBooking(CreateParams{UserID: "u1", Stay: stay(t, "2024-01-01", "2024-01-02")})
	assert.ErrorIs(t, err, ErrListingRequired)

	_, err = NewBooking(CreateParams{ListingID: "c1", UserID: "u1"})
	assert.ErrorIs(t, err, daterange.ErrMissingBound)
}

func TestTransition(t *testing.T) {
	newPending := func(t *testing.T) *Booking {
		b, err := NewBooking(CreateParams{
			ID: "b-1", ListingID: "c1", UserID: "u1",
			Stay: stay(t, "2024-01-01", "2024-01-03"), NightlyPrice: 100,
		})
		require.NoError(t, err)
		b.ClearEvents()
		return b
	}

	t.Run("confirm from pending", func(t *testing.T) {
		b := newPending(t)
		require.NoError(t, b.Transition(StatusConfirmed, "o1", ValidationPolicy{}, time.Now()))
		assert.Equal(t, StatusConfirmed, b.Status)
		evs := b.PendingEvents()
		require.Len(t, evs, 1)
		changed := evs[0].(BookingStatusChanged)
		assert.Equal(t, StatusPending, changed.From)
		assert.Equal(t, StatusConfirmed, changed.To)
		assert.Equal(t, "o1", changed.Actor)
	})

	t.Run("pending is not a target", func(t *testing.T) {
		b := newPending(t)
		assert.ErrorIs(t, b.Transition(StatusPending, "o1", ValidationPolicy{}, time.Now()), ErrInvalidStatus)
		assert.ErrorIs(t, b.Transition(Status("ARCHIVED"), "o1", ValidationPolicy{}, time.Now()), ErrInvalidStatus)
	})

	t.Run("terminal status is overwritten by default", func(t *testing.T) {
		b := newPending(t)
		require.NoError(t, b.Transition(StatusCancelled, "o1", ValidationPolicy{}, time.Now()))
		require.NoError(t, b.Transition(StatusConfirmed, "o1", ValidationPolicy{}, time.Now()))
		assert.Equal(t, StatusConfirmed, b.Status)
	})

	t.Run("strict policy keeps terminal states", func(t *testing.T) {
		b := newPending(t)
		strict := ValidationPolicy{StrictTransitions: true}
		require.NoError(t, b.Transition(StatusCancelled, "o1", strict, time.Now()))
		assert.ErrorIs(t, b.Transition(StatusConfirmed, "o1", strict, time.Now()), ErrInvalidState)
		assert.NoError(t, b.Transition(StatusCancelled, "o1", strict, time.Now()))
	})

	t.Run("same status records nothing", func(t *testing.T) {
		b := newPending(t)
		require.NoError(t, b.Transition(StatusConfirmed, "o1", ValidationPolicy{}, time.Now()))
		b.ClearEvents()
		require.NoError(t, b.Transition(StatusConfirmed, "o1", ValidationPolicy{}, time.Now()))
		assert.Empty(t, b.PendingEvents())
	})
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus(" confirmed ")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, s)
	assert.True(t, s.Terminal())
	assert.False(t, StatusPending.Terminal())

	_, err = ParseStatus("archived")
	assert.Error(t, err)
}
