package mongo

import (
	"time"

	domainbooking "reva/internal/domain/booking"
	domainlistings "reva/internal/domain/listings"
	"reva/internal/domain/shared/daterange"
	domainuser "reva/internal/domain/user"
)

type listingDocument struct {
	ID           string   `bson:"_id"`
	OwnerID      string   `bson:"owner_id"`
	Name         string   `bson:"name"`
	Description  string   `bson:"description"`
	Location     string   `bson:"location"`
	NightlyPrice int64    `bson:"nightly_price"`
	Capacity     int      `bson:"capacity"`
	Bedrooms     int      `bson:"bedrooms"`
	Rating       float64  `bson:"rating"`
	ReviewCount  int      `bson:"review_count"`
	Amenities    []string `bson:"amenities"`
	ImageURL     string   `bson:"image_url"`
	Seq          int64    `bson:"seq,omitempty"`
	Version      int64    `bson:"version"`
}

func newListingDocument(l *domainlistings.Listing) listingDocument {
	return listingDocument{
		ID:           string(l.ID),
		OwnerID:      string(l.Owner),
		Name:         l.Name,
		Description:  l.Description,
		Location:     l.Location,
		NightlyPrice: l.NightlyPrice,
		Capacity:     l.Capacity,
		Bedrooms:     l.Bedrooms,
		Rating:       l.Rating,
		ReviewCount:  l.ReviewCount,
		Amenities:    l.Amenities,
		ImageURL:     l.ImageURL,
		Version:      l.Version,
	}
}

func (d listingDocument) toAggregate() *domainlistings.Listing {
	return &domainlistings.Listing{
		ID:           domainlistings.ListingID(d.ID),
		Owner:        domainlistings.OwnerID(d.OwnerID),
		Name:         d.Name,
		Description:  d.Description,
		Location:     d.Location,
		NightlyPrice: d.NightlyPrice,
		Capacity:     d.Capacity,
		Bedrooms:     d.Bedrooms,
		Rating:       d.Rating,
		ReviewCount:  d.ReviewCount,
		Amenities:    d.Amenities,
		ImageURL:     d.ImageURL,
		Version:      d.Version,
	}
}

type bookingDocument struct {
	ID         string        `bson:"_id"`
	ListingID  string        `bson:"listing_id"`
	UserID     string        `bson:"user_id"`
	Stay       rangeDocument `bson:"stay"`
	TotalPrice int64         `bson:"total_price"`
	Status     string        `bson:"status"`
	CreatedAt  int64         `bson:"created_at"`
	UpdatedAt  int64         `bson:"updated_at"`
	Seq        int64         `bson:"seq,omitempty"`
	Version    int64         `bson:"version"`
}

type rangeDocument struct {
	Start int64 `bson:"start"`
	End   int64 `bson:"end"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:         string(b.ID),
		ListingID:  string(b.ListingID),
		UserID:     b.UserID,
		Stay:       rangeDocument{Start: b.Stay.Start.UnixMilli(), End: b.Stay.End.UnixMilli()},
		TotalPrice: b.TotalPrice,
		Status:     string(b.Status),
		CreatedAt:  b.CreatedAt.UnixMilli(),
		UpdatedAt:  b.UpdatedAt.UnixMilli(),
		Version:    b.Version,
	}
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	return &domainbooking.Booking{
		ID:         domainbooking.BookingID(d.ID),
		ListingID:  domainlistings.ListingID(d.ListingID),
		UserID:     d.UserID,
		Stay:       daterange.DateRange{Start: timestampToTime(d.Stay.Start), End: timestampToTime(d.Stay.End)},
		TotalPrice: d.TotalPrice,
		Status:     domainbooking.Status(d.Status),
		CreatedAt:  timestampToTime(d.CreatedAt),
		UpdatedAt:  timestampToTime(d.UpdatedAt),
		Version:    d.Version,
	}
}

type userDocument struct {
	ID         string `bson:"_id"`
	Name       string `bson:"name"`
	Email      string `bson:"email"`
	Role       string `bson:"role"`
	SecretHash string `bson:"secret_hash"`
	AvatarURL  string `bson:"avatar_url"`
	CreatedAt  int64  `bson:"created_at"`
	UpdatedAt  int64  `bson:"updated_at"`
	Seq        int64  `bson:"seq,omitempty"`
	Version    int64  `bson:"version"`
}

func newUserDocument(u *domainuser.User) userDocument {
	return userDocument{
		ID:         string(u.ID),
		Name:       u.Name,
		Email:      domainuser.NormalizeEmail(u.Email),
		Role:       string(u.Role),
		SecretHash: u.SecretHash,
		AvatarURL:  u.AvatarURL,
		CreatedAt:  u.CreatedAt.UnixMilli(),
		UpdatedAt:  u.UpdatedAt.UnixMilli(),
		Version:    u.Version,
	}
}

func (d userDocument) toAggregate() *domainuser.User {
	return &domainuser.User{
		ID:         domainuser.ID(d.ID),
		Name:       d.Name,
		Email:      d.Email,
		Role:       domainuser.Role(d.Role),
		SecretHash: d.SecretHash,
		AvatarURL:  d.AvatarURL,
		CreatedAt:  timestampToTime(d.CreatedAt),
		UpdatedAt:  timestampToTime(d.UpdatedAt),
		Version:    d.Version,
	}
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
