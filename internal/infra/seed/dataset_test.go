package seed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainbooking "reva/internal/domain/booking"
	domainuser "reva/internal/domain/user"
)

type plainHasher struct{}

func (plainHasher) Hash(secret string) (string, error) { return "h:" + secret, nil }

func TestDefault(t *testing.T) {
	ds, err := Default()
	require.NoError(t, err)

	ls, err := ds.DomainListings()
	require.NoError(t, err)
	require.Len(t, ls, 5)
	assert.Equal(t, int64(180), ls[0].NightlyPrice)
	assert.Equal(t, "99", string(ls[3].Owner))

	bs, err := ds.DomainBookings()
	require.NoError(t, err)
	require.Len(t, bs, 3)
	assert.Equal(t, domainbooking.StatusPending, bs[1].Status)
	assert.Equal(t, 2, bs[0].Stay.Nights())

	us, err := ds.DomainUsers(plainHasher{})
	require.NoError(t, err)
	require.Len(t, us, 3)
	assert.Equal(t, domainuser.RoleAdmin, us[0].Role)
	assert.Equal(t, "h:password123", us[2].SecretHash)
}

func TestRecordsRoundTrip(t *testing.T) {
	ds, err := Default()
	require.NoError(t, err)
	bs, err := ds.DomainBookings()
	require.NoError(t, err)

	rec := FromBooking(bs[0])
	assert.Equal(t, "2023-12-20", rec.StartDate)
	assert.Equal(t, "2023-12-22", rec.EndDate)

	_, err = BookingRecord{ID: "x", StartDate: "2024-01-01", EndDate: "2024-01-02", Status: "LOST"}.Booking()
	assert.Error(t, err)
}
