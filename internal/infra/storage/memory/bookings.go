package memory

import (
	"context"
	"sync"

	domainbooking "reva/internal/domain/booking"
	domainlistings "reva/internal/domain/listings"
	"reva/internal/infra/seed"
)

type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]*domainbooking.Booking
	order []domainbooking.BookingID
	snaps *Snapshotter
}

func NewBookingRepository(snaps *Snapshotter) *BookingRepository {
	r := &BookingRepository{items: make(map[domainbooking.BookingID]*domainbooking.Booking), snaps: snaps}
	if snaps != nil {
		snaps.register(seed.CollectionBookings, r)
	}
	return r
}

func (r *BookingRepository) ByID(_ context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrBookingNotFound
	}
	return b.Clone(), nil
}

func (r *BookingRepository) List(context.Context) ([]*domainbooking.Booking, error) {
	return r.filter(func(*domainbooking.Booking) bool { return true }), nil
}

func (r *BookingRepository) ListByUser(_ context.Context, userID string) ([]*domainbooking.Booking, error) {
	return r.filter(func(b *domainbooking.Booking) bool { return b.UserID == userID }), nil
}

func (r *BookingRepository) ListByListings(_ context.Context, ids []domainlistings.ListingID) ([]*domainbooking.Booking, error) {
	set := make(map[domainlistings.ListingID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return r.filter(func(b *domainbooking.Booking) bool {
		_, ok := set[b.ListingID]
		return ok
	}), nil
}

func (r *BookingRepository) filter(keep func(*domainbooking.Booking) bool) []*domainbooking.Booking {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainbooking.Booking, 0)
	for _, id := range r.order {
		if b := r.items[id]; keep(b) {
			out = append(out, b.Clone())
		}
	}
	return out
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	r.mu.Lock()
	prev, exists := r.items[b.ID]
	currentVersion := int64(0)
	if exists {
		currentVersion = prev.Version
	}
	if b.Version != currentVersion {
		r.mu.Unlock()
		return domainbooking.ErrConcurrentUpdate
	}
	stored := b.Clone()
	stored.Version = currentVersion + 1
	r.items[b.ID] = stored
	if !exists {
		r.order = append(r.order, b.ID)
	}
	r.mu.Unlock()
	b.Version = stored.Version

	return afterWrite(ctx, r.snaps, seed.CollectionBookings, func() {
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

func (r *BookingRepository) load(items []*domainbooking.Booking) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range items {
		if _, ok := r.items[b.ID]; !ok {
			r.order = append(r.order, b.ID)
		}
		r.items[b.ID] = b.Clone()
	}
}

func (r *BookingRepository) export() any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]seed.BookingRecord, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, seed.FromBooking(r.items[id]))
	}
	return out
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
