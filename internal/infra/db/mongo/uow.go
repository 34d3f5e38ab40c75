package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"reva/internal/app/uow"
	domainbooking "reva/internal/domain/booking"
	domainlistings "reva/internal/domain/listings"
	domainuser "reva/internal/domain/user"
)

// Factory wires Mongo transactions into the generic UnitOfWork interface.
// Transactions require a replica set.
type Factory struct {
	DB *mongo.Database

	ListingsRepo domainlistings.Repository
	BookingsRepo domainbooking.Repository
	UsersRepo    domainuser.Repository
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())
	if opts.ReadOnly {
		txnOpts = options.Transaction().SetReadConcern(readconcern.Majority())
	}
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{
		session:  session,
		listings: f.ListingsRepo,
		bookings: f.BookingsRepo,
		users:    f.UsersRepo,
	}, nil
}

type Unit struct {
	session mongo.Session

	listings domainlistings.Repository
	bookings domainbooking.Repository
	users    domainuser.Repository
}

func (u *Unit) Listings() domainlistings.Repository { return u.listings }
func (u *Unit) Bookings() domainbooking.Repository  { return u.bookings }
func (u *Unit) Users() domainuser.Repository        { return u.users }

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.CommitTransaction(ctx)
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext makes the session visible to repositories and the outbox store.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}
