package booking

import (
	"context"

	"reva/internal/app/uow"
	"reva/internal/domain/access"
	domainbooking "reva/internal/domain/booking"
	domainlistings "reva/internal/domain/listings"
)

// Managed is the slice of the catalog and bookings a grant may manage.
type Managed struct {
	Listings []*domainlistings.Listing
	Bookings []*domainbooking.Booking
}

// Index maps listing ids to listings for quick joins.
func (m Managed) Index() map[domainlistings.ListingID]*domainlistings.Listing {
	return IndexListings(m.Listings)
}

// LoadManaged resolves the grant's scope: every record for ScopeAll, the owner's listings and
// their bookings for ScopeOwner. Any other scope is denied.
func LoadManaged(ctx context.Context, unit uow.UnitOfWork, grant access.Grant) (Managed, error) {
	switch grant.Scope.Kind {
	case access.ScopeAll:
		ls, err := unit.Listings().List(ctx)
		if err != nil {
			return Managed{}, err
		}
		bs, err := unit.Bookings().List(ctx)
		if err != nil {
			return Managed{}, err
		}
		return Managed{Listings: ls, Bookings: bs}, nil
	case access.ScopeOwner:
		ls, err := unit.Listings().ListByOwner(ctx, grant.Scope.OwnerID)
		if err != nil {
			return Managed{}, err
		}
		bs, err := unit.Bookings().ListByListings(ctx, domainlistings.IDs(ls))
		if err != nil {
			return Managed{}, err
		}
		return Managed{Listings: ls, Bookings: bs}, nil
	default:
		return Managed{}, access.ErrAccessDenied
	}
}

func IndexListings(items []*domainlistings.Listing) map[domainlistings.ListingID]*domainlistings.Listing {
	index := make(map[domainlistings.ListingID]*domainlistings.Listing, len(items))
	for _, l := range items {
		if l != nil {
			index[l.ID] = l
		}
	}
	return index
}
