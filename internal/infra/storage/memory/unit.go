package memory

import (
	"context"
	"errors"
	"sync"

	"reva/internal/app/uow"
	domainbooking "reva/internal/domain/booking"
	domainlistings "reva/internal/domain/listings"
	domainuser "reva/internal/domain/user"
)

var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Factory hands out units over shared in-memory repositories.
type Factory struct {
	ListingsRepo *ListingRepository
	BookingsRepo *BookingRepository
	UsersRepo    *UserRepository
	Snapshots    *Snapshotter
}

func (f Factory) Begin(_ context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.ListingsRepo == nil || f.BookingsRepo == nil || f.UsersRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{
		readOnly:  opts.ReadOnly,
		listings:  f.ListingsRepo,
		bookings:  f.BookingsRepo,
		users:     f.UsersRepo,
		snapshots: f.Snapshots,
		touched:   make(map[string]struct{}),
	}, nil
}

// Unit applies writes immediately and undoes them on Rollback. Commit persists touched
// collections and then runs deferred work such as outbox enqueues.
type Unit struct {
	readOnly  bool
	listings  *ListingRepository
	bookings  *BookingRepository
	users     *UserRepository
	snapshots *Snapshotter

	mu          sync.Mutex
	done        bool
	touched     map[string]struct{}
	undo        []func()
	afterCommit []func(ctx context.Context) error
}

func (u *Unit) Listings() domainlistings.Repository { return u.listings }
func (u *Unit) Bookings() domainbooking.Repository  { return u.bookings }
func (u *Unit) Users() domainuser.Repository        { return u.users }

// Commit persists touched collections and then runs deferred hooks. When persistence
// fails the writes are undone and the hooks dropped.
func (u *Unit) Commit(ctx context.Context) error {
	u.mu.Lock()
	if u.done {
		u.mu.Unlock()
		return nil
	}
	names := make([]string, 0, len(u.touched))
	for name := range u.touched {
		names = append(names, name)
	}
	u.mu.Unlock()

	if u.snapshots != nil && len(names) > 0 {
		if err := u.snapshots.Persist(ctx, names...); err != nil {
			u.revert()
			// collections saved before the failure still hold the undone writes
			_ = u.snapshots.Persist(ctx, names...)
			return err
		}
	}

	u.mu.Lock()
	u.done = true
	hooks := u.afterCommit
	u.undo, u.afterCommit = nil, nil
	u.mu.Unlock()

	var errs []error
	for _, hook := range hooks {
		if err := hook(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (u *Unit) Rollback(context.Context) error {
	u.revert()
	return nil
}

// revert marks the unit done and runs its undo log newest first.
func (u *Unit) revert() {
	u.mu.Lock()
	if u.done {
		u.mu.Unlock()
		return
	}
	u.done = true
	undo := u.undo
	u.undo, u.afterCommit = nil, nil
	u.mu.Unlock()
	for i := len(undo) - 1; i >= 0; i-- {
		undo[i]()
	}
}

func (u *Unit) record(collection string, undo func()) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.touched[collection] = struct{}{}
	if undo != nil {
		u.undo = append(u.undo, undo)
	}
}

// OnCommit defers fn until the unit commits. It is dropped on rollback.
func (u *Unit) OnCommit(fn func(ctx context.Context) error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.afterCommit = append(u.afterCommit, fn)
}

func activeUnit(ctx context.Context) (*Unit, bool) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, false
	}
	mu, ok := unit.(*Unit)
	return mu, ok
}

// afterWrite attributes a write to the active unit, or persists it right away and
// undoes it when that save fails.
func afterWrite(ctx context.Context, snaps *Snapshotter, collection string, undo func()) error {
	if unit, ok := activeUnit(ctx); ok {
		unit.record(collection, undo)
		return nil
	}
	if snaps == nil {
		return nil
	}
	if err := snaps.Persist(ctx, collection); err != nil {
		if undo != nil {
			undo()
		}
		return err
	}
	return nil
}
