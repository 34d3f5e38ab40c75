package support

import (
	"context"

	"reva/internal/app/uow"
)

// BeginReadOnlyUnit reuses the unit already in ctx or opens a read-only one.
// The returned cleanup is nil when an existing unit was reused.
func BeginReadOnlyUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, context.Context, func(), error) {
	if unit, ok := uow.FromContext(ctx); ok {
		return unit, ctx, nil, nil
	}
	if factory == nil {
		return nil, ctx, nil, uow.ErrUnitOfWorkMissing
	}
	unit, err := factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, ctx, nil, err
	}
	execCtx := uow.Attach(ctx, unit)
	return unit, execCtx, func() { _ = unit.Rollback(execCtx) }, nil
}

// Release runs cleanup when it is set.
func Release(cleanup func()) {
	if cleanup != nil {
		cleanup()
	}
}
