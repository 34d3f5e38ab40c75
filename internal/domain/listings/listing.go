package listings

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrNotFound         = errors.New("listings: not found")
	ErrIDRequired       = errors.New("listings: id is required")
	ErrOwnerRequired    = errors.New("listings: owner is required")
	ErrNameRequired     = errors.New("listings: name is required")
	ErrNightlyPrice     = errors.New("listings: nightly price must be non-negative")
	ErrCapacity         = errors.New("listings: guest capacity must be at least 1")
	ErrBedrooms         = errors.New("listings: bedrooms must be non-negative")
	ErrRating           = errors.New("listings: rating must be between 0 and 5")
	ErrConcurrentUpdate = errors.New("listings: concurrent update")
)

type ListingID string
type OwnerID string

// Listing is a rentable property. Listings are read-only to the booking workflow.
type Listing struct {
	ID           ListingID
	Owner        OwnerID
	Name         string
	Description  string
	Location     string
	NightlyPrice int64
	Capacity     int
	Bedrooms     int
	Rating       float64
	ReviewCount  int
	Amenities    []string
	ImageURL     string
	Version      int64
}

type Repository interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
	List(ctx context.Context) ([]*Listing, error)
	ListByOwner(ctx context.Context, owner OwnerID) ([]*Listing, error)
	Save(ctx context.Context, listing *Listing) error
}

type CreateParams struct {
	ID           ListingID
	Owner        OwnerID
	Name         string
	Description  string
	Location     string
	NightlyPrice int64
	Capacity     int
	Bedrooms     int
	Rating       float64
	ReviewCount  int
	Amenities    []string
	ImageURL     string
}

func NewListing(params CreateParams) (*Listing, error) {
	switch {
	case strings.TrimSpace(string(params.ID)) == "":
		return nil, ErrIDRequired
	case strings.TrimSpace(string(params.Owner)) == "":
		return nil, ErrOwnerRequired
	case strings.TrimSpace(params.Name) == "":
		return nil, ErrNameRequired
	case params.NightlyPrice < 0:
		return nil, ErrNightlyPrice
	case params.Capacity < 1:
		return nil, ErrCapacity
	case params.Bedrooms < 0:
		return nil, ErrBedrooms
	case params.Rating < 0 || params.Rating > 5:
		return nil, ErrRating
	}
	return &Listing{
		ID:           ListingID(strings.TrimSpace(string(params.ID))),
		Owner:        OwnerID(strings.TrimSpace(string(params.Owner))),
		Name:         strings.TrimSpace(params.Name),
		Description:  strings.TrimSpace(params.Description),
		Location:     strings.TrimSpace(params.Location),
		NightlyPrice: params.NightlyPrice,
		Capacity:     params.Capacity,
		Bedrooms:     params.Bedrooms,
		Rating:       params.Rating,
		ReviewCount:  params.ReviewCount,
		Amenities:    normalizeAmenities(params.Amenities),
		ImageURL:     strings.TrimSpace(params.ImageURL),
	}, nil
}

// OwnedBy reports whether the listing belongs to owner.
func (l *Listing) OwnedBy(owner OwnerID) bool {
	return l != nil && owner != "" && l.Owner == owner
}

func (l *Listing) Clone() *Listing {
	if l == nil {
		return nil
	}
	cp := *l
	cp.Amenities = append([]string(nil), l.Amenities...)
	return &cp
}

// IDs collects listing identifiers preserving order.
func IDs(items []*Listing) []ListingID {
	out := make([]ListingID, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		out = append(out, item.ID)
	}
	return out
}

func normalizeAmenities(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}
