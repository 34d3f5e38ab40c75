package seed

import (
	"fmt"
	"time"

	domainbooking "reva/internal/domain/booking"
	domainlistings "reva/internal/domain/listings"
	"reva/internal/domain/shared/daterange"
	domainuser "reva/internal/domain/user"
)

// ListingRecord is the persisted shape of a listing, shared by the seed dataset and snapshots.
type ListingRecord struct {
	ID           string   `json:"id"`
	OwnerID      string   `json:"owner_id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Location     string   `json:"location"`
	NightlyPrice int64    `json:"nightly_price"`
	Capacity     int      `json:"capacity"`
	Bedrooms     int      `json:"bedrooms"`
	Rating       float64  `json:"rating"`
	ReviewCount  int      `json:"review_count"`
	ImageURL     string   `json:"image_url"`
	Amenities    []string `json:"amenities"`
	Version      int64    `json:"version,omitempty"`
}

func FromListing(l *domainlistings.Listing) ListingRecord {
	return ListingRecord{
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
		ImageURL:     l.ImageURL,
		Amenities:    append([]string(nil), l.Amenities...),
		Version:      l.Version,
	}
}

func (r ListingRecord) Listing() (*domainlistings.Listing, error) {
	l, err := domainlistings.NewListing(domainlistings.CreateParams{
		ID:           domainlistings.ListingID(r.ID),
		Owner:        domainlistings.OwnerID(r.OwnerID),
		Name:         r.Name,
		Description:  r.Description,
		Location:     r.Location,
		NightlyPrice: r.NightlyPrice,
		Capacity:     r.Capacity,
		Bedrooms:     r.Bedrooms,
		Rating:       r.Rating,
		ReviewCount:  r.ReviewCount,
		Amenities:    r.Amenities,
		ImageURL:     r.ImageURL,
	})
	if err != nil {
		return nil, fmt.Errorf("seed: listing %q: %w", r.ID, err)
	}
	l.Version = r.Version
	return l, nil
}

type BookingRecord struct {
	ID         string    `json:"id"`
	ListingID  string    `json:"listing_id"`
	UserID     string    `json:"user_id"`
	StartDate  string    `json:"start_date"`
	EndDate    string    `json:"end_date"`
	TotalPrice int64     `json:"total_price"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Version    int64     `json:"version,omitempty"`
}

func FromBooking(b *domainbooking.Booking) BookingRecord {
	return BookingRecord{
		ID:         string(b.ID),
		ListingID:  string(b.ListingID),
		UserID:     b.UserID,
		StartDate:  b.Stay.Start.Format(daterange.Layout),
		EndDate:    b.Stay.End.Format(daterange.Layout),
		TotalPrice: b.TotalPrice,
		Status:     string(b.Status),
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
		Version:    b.Version,
	}
}

// Booking rebuilds the aggregate without re-running creation rules, so stored unordered
// stays survive a reload.
func (r BookingRecord) Booking() (*domainbooking.Booking, error) {
	stay, err := daterange.Parse(r.StartDate, r.EndDate)
	if err != nil {
		return nil, fmt.Errorf("seed: booking %q: %w", r.ID, err)
	}
	status, err := domainbooking.ParseStatus(r.Status)
	if err != nil {
		return nil, fmt.Errorf("seed: booking %q: %w", r.ID, err)
	}
	updated := r.UpdatedAt
	if updated.IsZero() {
		updated = r.CreatedAt
	}
	return &domainbooking.Booking{
		ID:         domainbooking.BookingID(r.ID),
		ListingID:  domainlistings.ListingID(r.ListingID),
		UserID:     r.UserID,
		Stay:       stay,
		TotalPrice: r.TotalPrice,
		Status:     status,
		CreatedAt:  r.CreatedAt.UTC(),
		UpdatedAt:  updated.UTC(),
		Version:    r.Version,
	}, nil
}

// UserRecord carries either a stored hash or, in the embedded dataset, a plain password
// that is hashed on load.
type UserRecord struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	AvatarURL  string    `json:"avatar_url,omitempty"`
	Password   string    `json:"password,omitempty"`
	SecretHash string    `json:"secret_hash,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Version    int64     `json:"version,omitempty"`
}

func FromUser(u *domainuser.User) UserRecord {
	return UserRecord{
		ID:         string(u.ID),
		Name:       u.Name,
		Email:      u.Email,
		Role:       string(u.Role),
		AvatarURL:  u.AvatarURL,
		SecretHash: u.SecretHash,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
		Version:    u.Version,
	}
}

type Hasher interface {
	Hash(secret string) (string, error)
}

func (r UserRecord) User(hasher Hasher) (*domainuser.User, error) {
	role, err := domainuser.ParseRole(r.Role)
	if err != nil {
		return nil, fmt.Errorf("seed: user %q: %w", r.ID, err)
	}
	hash := r.SecretHash
	if hash == "" && r.Password != "" {
		if hasher == nil {
			return nil, fmt.Errorf("seed: user %q: password given without hasher", r.ID)
		}
		if hash, err = hasher.Hash(r.Password); err != nil {
			return nil, err
		}
	}
	u, err := domainuser.NewUser(domainuser.CreateParams{
		ID:         domainuser.ID(r.ID),
		Name:       r.Name,
		Email:      r.Email,
		Role:       role,
		SecretHash: hash,
		AvatarURL:  r.AvatarURL,
		CreatedAt:  r.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("seed: user %q: %w", r.ID, err)
	}
	if !r.UpdatedAt.IsZero() {
		u.UpdatedAt = r.UpdatedAt
	}
	u.Version = r.Version
	return u, nil
}
