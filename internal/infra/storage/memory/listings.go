package memory

import (
	"context"
	"sync"

	domainlistings "reva/internal/domain/listings"
	"reva/internal/infra/seed"
)

// ListingRepository keeps listings in insertion order.
type ListingRepository struct {
	mu    sync.RWMutex
	items map[domainlistings.ListingID]*domainlistings.Listing
	order []domainlistings.ListingID
	snaps *Snapshotter
}

func NewListingRepository(snaps *Snapshotter) *ListingRepository {
	r := &ListingRepository{items: make(map[domainlistings.ListingID]*domainlistings.Listing), snaps: snaps}
	if snaps != nil {
		snaps.register(seed.CollectionListings, r)
	}
	return r
}

func (r *ListingRepository) ByID(_ context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.items[id]
	if !ok {
		return nil, domainlistings.ErrNotFound
	}
	return l.Clone(), nil
}

func (r *ListingRepository) List(context.Context) ([]*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainlistings.Listing, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.items[id].Clone())
	}
	return out, nil
}

func (r *ListingRepository) ListByOwner(_ context.Context, owner domainlistings.OwnerID) ([]*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainlistings.Listing, 0)
	for _, id := range r.order {
		if l := r.items[id]; l.OwnedBy(owner) {
			out = append(out, l.Clone())
		}
	}
	return out, nil
}

// Save stores listing when its Version matches the stored one and bumps it.
func (r *ListingRepository) Save(ctx context.Context, listing *domainlistings.Listing) error {
	r.mu.Lock()
	prev, exists := r.items[listing.ID]
	currentVersion := int64(0)
	if exists {
		currentVersion = prev.Version
	}
	if listing.Version != currentVersion {
		r.mu.Unlock()
		return domainlistings.ErrConcurrentUpdate
	}
	stored := listing.Clone()
	stored.Version = currentVersion + 1
	r.items[listing.ID] = stored
	if !exists {
		r.order = append(r.order, listing.ID)
	}
	r.mu.Unlock()
	listing.Version = stored.Version

	return afterWrite(ctx, r.snaps, seed.CollectionListings, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if cur, ok := r.items[stored.ID]; !ok || cur.Version != stored.Version {
			return
		}
		if exists {
			r.items[stored.ID] = prev
			return
		}
		delete(r.items, stored.ID)
		r.order = removeID(r.order, stored.ID)
	})
}

func (r *ListingRepository) load(items []*domainlistings.Listing) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range items {
		if _, ok := r.items[l.ID]; !ok {
			r.order = append(r.order, l.ID)
		}
		r.items[l.ID] = l.Clone()
	}
}

func (r *ListingRepository) export() any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]seed.ListingRecord, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, seed.FromListing(r.items[id]))
	}
	return out
}

func removeID[T comparable](ids []T, id T) []T {
	for i, v := range ids {
		if v == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}

var _ domainlistings.Repository = (*ListingRepository)(nil)
