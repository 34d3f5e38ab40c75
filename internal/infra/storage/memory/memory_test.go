package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appoutbox "reva/internal/app/outbox"
	"reva/internal/app/policies"
	"reva/internal/app/uow"
	domainbooking "reva/internal/domain/booking"
	domainlistings "reva/internal/domain/listings"
	"reva/internal/domain/shared/daterange"
	"reva/internal/domain/signup"
	domainuser "reva/internal/domain/user"
	"reva/internal/infra/storage/snapshot"
)

type stubHasher struct{}

func (stubHasher) Hash(secret string) (string, error) { return "hash:" + secret, nil }

func openRepos(t *testing.T, store snapshot.Store) *Repositories {
	t.Helper()
	repos, err := Open(context.Background(), Options{Snapshots: store, Hasher: stubHasher{}})
	require.NoError(t, err)
	return repos
}

func newBooking(t *testing.T, id string) *domainbooking.Booking {
	t.Helper()
	stay, err := daterange.Parse("2024-03-01", "2024-03-03")
	require.NoError(t, err)
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:           domainbooking.BookingID(id),
		ListingID:    "c1",
		UserID:       "3",
		Stay:         stay,
		NightlyPrice: 180,
		Policy:       domainbooking.DefaultPolicy(),
	})
	require.NoError(t, err)
	return b
}

func TestOpen_SeedsDefaults(t *testing.T) {
	repos := openRepos(t, nil)
	ctx := context.Background()

	ls, err := repos.Listings.List(ctx)
	require.NoError(t, err)
	require.Len(t, ls, 5)
	assert.Equal(t, domainlistings.ListingID("c1"), ls[0].ID)

	owned, err := repos.Listings.ListByOwner(ctx, "2")
	require.NoError(t, err)
	assert.Len(t, owned, 4)

	u, err := repos.Users.ByEmail(ctx, "OWNER@reva.com")
	require.NoError(t, err)
	assert.Equal(t, domainuser.RoleOwner, u.Role)
	assert.Equal(t, "hash:password123", u.SecretHash)

	bs, err := repos.Bookings.ListByListings(ctx, []domainlistings.ListingID{"c2", "c3"})
	require.NoError(t, err)
	require.Len(t, bs, 2)
	assert.Equal(t, domainbooking.BookingID("b2"), bs[0].ID)
}

func TestBookingRepository_VersionCheck(t *testing.T) {
	repos := openRepos(t, nil)
	ctx := context.Background()

	b := newBooking(t, "b9")
	require.NoError(t, repos.Bookings.Save(ctx, b))
	assert.Equal(t, int64(1), b.Version)

	stale, err := repos.Bookings.ByID(ctx, "b9")
	require.NoError(t, err)
	fresh, err := repos.Bookings.ByID(ctx, "b9")
	require.NoError(t, err)

	require.NoError(t, fresh.Transition(domainbooking.StatusConfirmed, "2", domainbooking.DefaultPolicy(), time.Now()))
	require.NoError(t, repos.Bookings.Save(ctx, fresh))

	require.NoError(t, stale.Transition(domainbooking.StatusCancelled, "2", domainbooking.DefaultPolicy(), time.Now()))
	assert.ErrorIs(t, repos.Bookings.Save(ctx, stale), domainbooking.ErrConcurrentUpdate)

	_, err = repos.Bookings.ByID(ctx, "missing")
	assert.ErrorIs(t, err, domainbooking.ErrBookingNotFound)
}

func TestUnit_RollbackUndoesWrites(t *testing.T) {
	repos := openRepos(t, nil)
	ctx := context.Background()

	unit, err := repos.Factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	txCtx := uow.Attach(ctx, unit)

	require.NoError(t, unit.Bookings().Save(txCtx, newBooking(t, "b10")))
	require.NoError(t, repos.Outbox.Enqueue(txCtx, appoutbox.EventRecord{ID: "e1", Name: "booking.requested"}))
	assert.Equal(t, 0, repos.Outbox.Len())

	require.NoError(t, unit.Rollback(txCtx))

	_, err = repos.Bookings.ByID(ctx, "b10")
	assert.ErrorIs(t, err, domainbooking.ErrBookingNotFound)
	assert.Equal(t, 0, repos.Outbox.Len())
}

func TestUnit_CommitPersistsSnapshotAndOutbox(t *testing.T) {
	store, err := snapshot.NewFileStore(t.TempDir())
	require.NoError(t, err)
	repos := openRepos(t, store)
	ctx := context.Background()

	unit, err := repos.Factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	txCtx := uow.Attach(ctx, unit)
	require.NoError(t, unit.Bookings().Save(txCtx, newBooking(t, "b11")))
	require.NoError(t, repos.Outbox.Enqueue(txCtx, appoutbox.EventRecord{ID: "e2", Name: "booking.requested"}))
	require.NoError(t, unit.Commit(txCtx))
	assert.Equal(t, 1, repos.Outbox.Len())

	reopened := openRepos(t, store)
	got, err := reopened.Bookings.ByID(ctx, "b11")
	require.NoError(t, err)
	assert.Equal(t, int64(360), got.TotalPrice)
	assert.Equal(t, domainbooking.StatusPending, got.Status)

	all, err := reopened.Bookings.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	// hashes are persisted, not re-derived
	u, err := reopened.Users.ByID(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "hash:password123", u.SecretHash)
}

var errDiskFull = errors.New("disk full")

// flakyStore keeps payloads in memory and fails every Save once broken is set.
type flakyStore struct {
	mu      sync.Mutex
	broken  bool
	buckets map[string][]byte
}

func newFlakyStore() *flakyStore { return &flakyStore{buckets: make(map[string][]byte)} }

func (s *flakyStore) Load(_ context.Context, bucket string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, ok := s.buckets[bucket]
	return payload, ok, nil
}

func (s *flakyStore) Save(_ context.Context, bucket string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.broken {
		return errDiskFull
	}
	s.buckets[bucket] = payload
	return nil
}

func (s *flakyStore) Close() error { return nil }

func (s *flakyStore) breakSaves() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broken = true
}

func TestUnit_CommitFailureUndoesWrites(t *testing.T) {
	store := newFlakyStore()
	repos := openRepos(t, store)
	ctx := context.Background()

	unit, err := repos.Factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	txCtx := uow.Attach(ctx, unit)
	require.NoError(t, unit.Bookings().Save(txCtx, newBooking(t, "b12")))
	require.NoError(t, repos.Outbox.Enqueue(txCtx, appoutbox.EventRecord{ID: "e3", Name: "booking.requested"}))

	store.breakSaves()
	assert.ErrorIs(t, unit.Commit(txCtx), errDiskFull)

	_, err = repos.Bookings.ByID(ctx, "b12")
	assert.ErrorIs(t, err, domainbooking.ErrBookingNotFound)
	assert.Equal(t, 0, repos.Outbox.Len())

	// the failed unit is finished; a later rollback is a no-op
	require.NoError(t, unit.Rollback(txCtx))
	_, err = repos.Bookings.ByID(ctx, "b12")
	assert.ErrorIs(t, err, domainbooking.ErrBookingNotFound)
}

func TestUserRepository_SaveUndoneWhenPersistFails(t *testing.T) {
	store := newFlakyStore()
	repos := openRepos(t, store)
	ctx := context.Background()
	store.breakSaves()

	u, err := domainuser.NewUser(domainuser.CreateParams{ID: "u10", Name: "Lost", Email: "lost@reva.com"})
	require.NoError(t, err)
	assert.ErrorIs(t, repos.Users.Save(ctx, u), errDiskFull)

	_, err = repos.Users.ByEmail(ctx, "lost@reva.com")
	assert.ErrorIs(t, err, domainuser.ErrNotFound)
	_, err = repos.Users.ByID(ctx, "u10")
	assert.ErrorIs(t, err, domainuser.ErrNotFound)
}

func TestUserRepository_UniqueEmail(t *testing.T) {
	repos := openRepos(t, nil)
	ctx := context.Background()

	u, err := domainuser.NewUser(domainuser.CreateParams{ID: "u9", Name: "Dup", Email: "User@Reva.com"})
	require.NoError(t, err)
	assert.ErrorIs(t, repos.Users.Save(ctx, u), domainuser.ErrEmailAlreadyUsed)

	u.Email = "new@reva.com"
	require.NoError(t, repos.Users.Save(ctx, u))
	got, err := repos.Users.ByEmail(ctx, "new@reva.com")
	require.NoError(t, err)
	assert.Equal(t, domainuser.ID("u9"), got.ID)
}

func TestOutboxQueue_ClaimAndRetry(t *testing.T) {
	q := NewOutboxQueue()
	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, appoutbox.EventRecord{ID: "e1"}))

	p, err := q.Claim(ctx, "w")
	require.NoError(t, err)
	require.NotNil(t, p)

	again, err := q.Claim(ctx, "w")
	require.NoError(t, err)
	assert.Nil(t, again)

	require.NoError(t, q.MarkFailed(ctx, "e1", time.Now().Add(-time.Second), "boom"))
	p, err = q.Claim(ctx, "w")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 1, p.Attempts)

	require.NoError(t, q.MarkSent(ctx, "e1"))
	assert.Equal(t, 0, q.Len())
}

func TestChallengeStore(t *testing.T) {
	s := NewChallengeStore()
	ctx := context.Background()
	c, err := signup.NewChallenge(signup.NewChallengeParams{Email: "a@b.c", Code: "123456"})
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, c))

	n, err := s.RecordFailure(ctx, "A@B.C")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := s.Get(ctx, "a@b.c")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Attempts)

	require.NoError(t, s.Delete(ctx, "a@b.c"))
	_, err = s.Get(ctx, "a@b.c")
	assert.ErrorIs(t, err, signup.ErrChallengeNotFound)
}

func TestBookingJournal_IdempotentAppend(t *testing.T) {
	j := NewBookingJournal()
	ctx := context.Background()
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	entry := policies.JournalEntry{BookingID: "b1", EventID: "e1", To: "PENDING", At: at}

	require.NoError(t, j.Append(ctx, entry))
	require.NoError(t, j.Append(ctx, entry))
	require.NoError(t, j.Append(ctx, policies.JournalEntry{BookingID: "b1", EventID: "e2", From: "PENDING", To: "CONFIRMED", At: at.Add(time.Hour)}))

	h, err := j.History(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, h, 2)
	assert.Equal(t, "CONFIRMED", h[1].To)
}
