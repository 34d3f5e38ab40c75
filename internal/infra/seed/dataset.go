package seed

import (
	_ "embed"
	"encoding/json"

	domainbooking "reva/internal/domain/booking"
	domainlistings "reva/internal/domain/listings"
	domainuser "reva/internal/domain/user"
)

//go:embed default.json
var defaultDataset []byte

// Collection names used by snapshot stores and the mongo seeder.
const (
	CollectionListings = "listings"
	CollectionBookings = "bookings"
	CollectionUsers    = "users"
)

type Dataset struct {
	Users    []UserRecord    `json:"users"`
	Listings []ListingRecord `json:"listings"`
	Bookings []BookingRecord `json:"bookings"`
}

// Default returns the embedded demo dataset: five listings, three users, three bookings.
func Default() (Dataset, error) {
	var ds Dataset
	if err := json.Unmarshal(defaultDataset, &ds); err != nil {
		return Dataset{}, err
	}
	return ds, nil
}

func (d Dataset) DomainListings() ([]*domainlistings.Listing, error) {
	return DecodeListings(d.Listings)
}

func (d Dataset) DomainBookings() ([]*domainbooking.Booking, error) {
	return DecodeBookings(d.Bookings)
}

func (d Dataset) DomainUsers(hasher Hasher) ([]*domainuser.User, error) {
	return DecodeUsers(d.Users, hasher)
}

func DecodeListings(records []ListingRecord) ([]*domainlistings.Listing, error) {
	out := make([]*domainlistings.Listing, 0, len(records))
	for _, rec := range records {
		l, err := rec.Listing()
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

func DecodeBookings(records []BookingRecord) ([]*domainbooking.Booking, error) {
	out := make([]*domainbooking.Booking, 0, len(records))
	for _, rec := range records {
		b, err := rec.Booking()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func DecodeUsers(records []UserRecord, hasher Hasher) ([]*domainuser.User, error) {
	out := make([]*domainuser.User, 0, len(records))
	for _, rec := range records {
		u, err := rec.User(hasher)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}
