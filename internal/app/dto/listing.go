package dto

import domainlistings "reva/internal/domain/listings"

type ListingCard struct {
	ID           string   `json:"id"`
	OwnerID      string   `json:"owner_id"`
	Name         string   `json:"name"`
	Location     string   `json:"location"`
	NightlyPrice int64    `json:"nightly_price"`
	Capacity     int      `json:"capacity"`
	Bedrooms     int      `json:"bedrooms"`
	Rating       float64  `json:"rating"`
	ReviewCount  int      `json:"review_count"`
	Amenities    []string `json:"amenities"`
	ImageURL     string   `json:"image_url"`
}

type ListingDetail struct {
	ListingCard
	Description string      `json:"description"`
	Owner       *PublicUser `json:"owner,omitempty"`
}

type ListingCollection struct {
	Items []ListingCard `json:"items"`
	Total int           `json:"total"`
}

func MapListingCard(l *domainlistings.Listing) ListingCard {
	if l == nil {
		return ListingCard{}
	}
	amenities := append([]string{}, l.Amenities...)
	return ListingCard{
		ID:           string(l.ID),
		OwnerID:      string(l.Owner),
		Name:         l.Name,
		Location:     l.Location,
		NightlyPrice: l.NightlyPrice,
		Capacity:     l.Capacity,
		Bedrooms:     l.Bedrooms,
		Rating:       l.Rating,
		ReviewCount:  l.ReviewCount,
		Amenities:    amenities,
		ImageURL:     l.ImageURL,
	}
}

func MapListingCollection(items []*domainlistings.Listing) ListingCollection {
	out := ListingCollection{Items: make([]ListingCard, 0, len(items))}
	for _, l := range items {
		if l == nil {
			continue
		}
		out.Items = append(out.Items, MapListingCard(l))
	}
	out.Total = len(out.Items)
	return out
}
