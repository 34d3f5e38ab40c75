package memory

import (
	"context"
	"sync"

	domainuser "reva/internal/domain/user"
	"reva/internal/infra/seed"
)

// UserRepository indexes users by id and normalized email.
type UserRepository struct {
	mu      sync.RWMutex
	items   map[domainuser.ID]*domainuser.User
	byEmail map[string]domainuser.ID
	order   []domainuser.ID
	snaps   *Snapshotter
}

func NewUserRepository(snaps *Snapshotter) *UserRepository {
	r := &UserRepository{
		items:   make(map[domainuser.ID]*domainuser.User),
		byEmail: make(map[string]domainuser.ID),
		snaps:   snaps,
	}
	if snaps != nil {
		snaps.register(seed.CollectionUsers, r)
	}
	return r
}

func (r *UserRepository) ByID(_ context.Context, id domainuser.ID) (*domainuser.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.items[id]
	if !ok {
		return nil, domainuser.ErrNotFound
	}
	return u.Clone(), nil
}

func (r *UserRepository) ByEmail(_ context.Context, email string) (*domainuser.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[domainuser.NormalizeEmail(email)]
	if !ok {
		return nil, domainuser.ErrNotFound
	}
	return r.items[id].Clone(), nil
}

func (r *UserRepository) List(context.Context) ([]*domainuser.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainuser.User, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.items[id].Clone())
	}
	return out, nil
}

// Save enforces one account per email in addition to the version check.
func (r *UserRepository) Save(ctx context.Context, u *domainuser.User) error {
	email := domainuser.NormalizeEmail(u.Email)
	r.mu.Lock()
	if owner, taken := r.byEmail[email]; taken && owner != u.ID {
		r.mu.Unlock()
		return domainuser.ErrEmailAlreadyUsed
	}
	prev, exists := r.items[u.ID]
	currentVersion := int64(0)
	if exists {
		currentVersion = prev.Version
	}
	if u.Version != currentVersion {
		r.mu.Unlock()
		return domainuser.ErrConcurrentUpdate
	}
	stored := u.Clone()
	stored.Email = email
	stored.Version = currentVersion + 1
	if exists && prev.Email != email {
		delete(r.byEmail, prev.Email)
	}
	r.items[u.ID] = stored
	r.byEmail[email] = u.ID
	if !exists {
		r.order = append(r.order, u.ID)
	}
	r.mu.Unlock()
	u.Version = stored.Version

	return afterWrite(ctx, r.snaps, seed.CollectionUsers, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if cur, ok := r.items[stored.ID]; !ok || cur.Version != stored.Version {
			return
		}
		delete(r.byEmail, stored.Email)
		if exists {
			r.items[stored.ID] = prev
			r.byEmail[prev.Email] = prev.ID
			return
		}
		delete(r.items, stored.ID)
		r.order = removeID(r.order, stored.ID)
	})
}

func (r *UserRepository) load(items []*domainuser.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range items {
		if _, ok := r.items[u.ID]; !ok {
			r.order = append(r.order, u.ID)
		}
		r.items[u.ID] = u.Clone()
		r.byEmail[domainuser.NormalizeEmail(u.Email)] = u.ID
	}
}

func (r *UserRepository) export() any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]seed.UserRecord, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, seed.FromUser(r.items[id]))
	}
	return out
}

var _ domainuser.Repository = (*UserRepository)(nil)
