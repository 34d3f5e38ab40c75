package listings

import (
	"context"
	"errors"
	"strings"

	"reva/internal/app/dto"
	"reva/internal/app/handlers/support"
	"reva/internal/app/queries"
	"reva/internal/app/uow"
	domainlistings "reva/internal/domain/listings"
	domainuser "reva/internal/domain/user"
)

const (
	listListingsKey   = "listings.list"
	searchListingsKey = "listings.search"
	getListingKey     = "listings.get"
)

type ListListingsQuery struct{}

func (ListListingsQuery) Key() string { return listListingsKey }

// SearchListingsQuery filters the catalog; zero fields are ignored.
type SearchListingsQuery struct {
	Location  string `json:"location"`
	MinPrice  int64  `json:"min_price" validate:"gte=0"`
	MaxPrice  int64  `json:"max_price" validate:"gte=0"`
	MinGuests int    `json:"guests" validate:"gte=0"`
}

func (SearchListingsQuery) Key() string { return searchListingsKey }

func (q SearchListingsQuery) Criteria() domainlistings.SearchCriteria {
	return domainlistings.SearchCriteria{
		Location:  q.Location,
		MinPrice:  q.MinPrice,
		MaxPrice:  q.MaxPrice,
		MinGuests: q.MinGuests,
	}
}

type GetListingQuery struct {
	ID string `json:"id" validate:"required"`
}

func (GetListingQuery) Key() string { return getListingKey }

// CatalogHandler serves every catalog read.
type CatalogHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *CatalogHandler) List(ctx context.Context, _ ListListingsQuery) (dto.ListingCollection, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ListingCollection{}, err
	}
	defer support.Release(cleanup)

	items, err := unit.Listings().List(ctx)
	if err != nil {
		return dto.ListingCollection{}, err
	}
	return dto.MapListingCollection(items), nil
}

func (h *CatalogHandler) Search(ctx context.Context, q SearchListingsQuery) (dto.ListingCollection, error) {
	items, err := h.Find(ctx, q.Criteria())
	if err != nil {
		return dto.ListingCollection{}, err
	}
	return dto.MapListingCollection(items), nil
}

// Find runs criteria against the catalog and returns domain listings.
func (h *CatalogHandler) Find(ctx context.Context, criteria domainlistings.SearchCriteria) ([]*domainlistings.Listing, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer support.Release(cleanup)

	items, err := unit.Listings().List(ctx)
	if err != nil {
		return nil, err
	}
	return domainlistings.Filter(items, criteria), nil
}

func (h *CatalogHandler) Get(ctx context.Context, q GetListingQuery) (*dto.ListingDetail, error) {
	id := strings.TrimSpace(q.ID)
	if id == "" {
		return nil, domainlistings.ErrNotFound
	}
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer support.Release(cleanup)

	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(id))
	if err != nil {
		return nil, err
	}
	detail := &dto.ListingDetail{
		ListingCard: dto.MapListingCard(listing),
		Description: listing.Description,
	}
	owner, err := unit.Users().ByID(ctx, domainuser.ID(listing.Owner))
	switch {
	case err == nil:
		profile := dto.MapPublicUser(owner)
		detail.Owner = &profile
	case errors.Is(err, domainuser.ErrNotFound):
		// listings may reference owners that have no account
	default:
		return nil, err
	}
	return detail, nil
}

// Register wires the catalog queries onto bus.
func (h *CatalogHandler) Register(bus *queries.InMemoryBus) {
	queries.RegisterHandler[ListListingsQuery, dto.ListingCollection](bus, listListingsKey, queries.HandlerFunc[ListListingsQuery, dto.ListingCollection](h.List))
	queries.RegisterHandler[SearchListingsQuery, dto.ListingCollection](bus, searchListingsKey, queries.HandlerFunc[SearchListingsQuery, dto.ListingCollection](h.Search))
	queries.RegisterHandler[GetListingQuery, *dto.ListingDetail](bus, getListingKey, queries.HandlerFunc[GetListingQuery, *dto.ListingDetail](h.Get))
}
