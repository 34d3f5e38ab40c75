package uow

import (
	"context"
	"errors"
)

var ErrUnitOfWorkMissing = errors.New("uow: unit of work missing from context")

type ctxKey struct{}

func ContextWithUnitOfWork(ctx context.Context, unit UnitOfWork) context.Context {
	return context.WithValue(ctx, ctxKey{}, unit)
}

func FromContext(ctx context.Context) (UnitOfWork, bool) {
	unit, ok := ctx.Value(ctxKey{}).(UnitOfWork)
	return unit, ok && unit != nil
}

// MustFromContext returns the active unit or ErrUnitOfWorkMissing.
func MustFromContext(ctx context.Context) (UnitOfWork, error) {
	unit, ok := FromContext(ctx)
	if !ok {
		return nil, ErrUnitOfWorkMissing
	}
	return unit, nil
}

// Attach stores unit in ctx, letting it inject driver state first.
func Attach(ctx context.Context, unit UnitOfWork) context.Context {
	if injector, ok := unit.(ContextInjector); ok {
		ctx = injector.InjectContext(ctx)
	}
	return ContextWithUnitOfWork(ctx, unit)
}
