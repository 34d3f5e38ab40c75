package uow

import (
	"context"

	"reva/internal/domain/booking"
	"reva/internal/domain/listings"
	"reva/internal/domain/user"
)

// UnitOfWork groups repository access so a command's writes land together or not at all.
type UnitOfWork interface {
	Listings() listings.Repository
	Bookings() booking.Repository
	Users() user.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

type TxOptions struct {
	ReadOnly bool
}

// ContextInjector is implemented by units that need to carry driver state (sessions) in ctx.
type ContextInjector interface {
	InjectContext(ctx context.Context) context.Context
}
