package memory

import (
	"context"
	"log/slog"

	"reva/internal/infra/seed"
	"reva/internal/infra/storage/snapshot"
)

// Repositories is the full set of in-memory stores used by the process.
type Repositories struct {
	Listings    *ListingRepository
	Bookings    *BookingRepository
	Users       *UserRepository
	Sessions    *SessionStore
	Challenges  *ChallengeStore
	Idempotency *IdempotencyStore
	Outbox      *OutboxQueue
	Journal     *BookingJournal
	Snapshotter *Snapshotter
	Factory     Factory
}

type Options struct {
	// Snapshots is optional; without it state lives only for the process lifetime.
	Snapshots snapshot.Store
	Dataset   *seed.Dataset
	Hasher    seed.Hasher
	Logger    *slog.Logger
}

// Open builds the repositories and fills each collection from its snapshot, falling back
// to the seed dataset. Seeded collections are written back so the next start reads them.
func Open(ctx context.Context, opts Options) (*Repositories, error) {
	snaps := NewSnapshotter(opts.Snapshots, opts.Logger)
	repos := &Repositories{
		Listings:    NewListingRepository(snaps),
		Bookings:    NewBookingRepository(snaps),
		Users:       NewUserRepository(snaps),
		Sessions:    NewSessionStore(),
		Challenges:  NewChallengeStore(),
		Idempotency: NewIdempotencyStore(0),
		Outbox:      NewOutboxQueue(),
		Journal:     NewBookingJournal(),
		Snapshotter: snaps,
	}
	repos.Factory = Factory{
		ListingsRepo: repos.Listings,
		BookingsRepo: repos.Bookings,
		UsersRepo:    repos.Users,
		Snapshots:    snaps,
	}

	ds := opts.Dataset
	if ds == nil {
		def, err := seed.Default()
		if err != nil {
			return nil, err
		}
		ds = &def
	}

	var seeded []string

	var listingRecs []seed.ListingRecord
	found, err := snaps.load(ctx, seed.CollectionListings, &listingRecs)
	if err != nil {
		return nil, err
	}
	if !found {
		listingRecs = ds.Listings
		seeded = append(seeded, seed.CollectionListings)
	}
	ls, err := seed.DecodeListings(listingRecs)
	if err != nil {
		return nil, err
	}
	repos.Listings.load(ls)

	var bookingRecs []seed.BookingRecord
	if found, err = snaps.load(ctx, seed.CollectionBookings, &bookingRecs); err != nil {
		return nil, err
	}
	if !found {
		bookingRecs = ds.Bookings
		seeded = append(seeded, seed.CollectionBookings)
	}
	bs, err := seed.DecodeBookings(bookingRecs)
	if err != nil {
		return nil, err
	}
	repos.Bookings.load(bs)

	var userRecs []seed.UserRecord
	if found, err = snaps.load(ctx, seed.CollectionUsers, &userRecs); err != nil {
		return nil, err
	}
	if !found {
		userRecs = ds.Users
		seeded = append(seeded, seed.CollectionUsers)
	}
	us, err := seed.DecodeUsers(userRecs, opts.Hasher)
	if err != nil {
		return nil, err
	}
	repos.Users.load(us)

	if snaps != nil && len(seeded) > 0 {
		if err := snaps.Persist(ctx, seeded...); err != nil {
			return nil, err
		}
		if opts.Logger != nil {
			opts.Logger.Info("seeded collections", "collections", seeded)
		}
	}
	return repos, nil
}
