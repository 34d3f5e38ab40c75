package middleware

import (
	"context"

	"reva/internal/app/commands"
	"reva/internal/app/queries"
	"reva/internal/domain/access"
)

type Authorizer interface {
	Authorize(ctx context.Context, message any) error
}

// Guarded messages declare the caller and the capability they need.
type Guarded interface {
	Caller() access.Principal
	RequiredCapability() access.Capability
}

// CapabilityAuthorizer rejects guarded messages whose caller lacks the capability.
// Messages that are not Guarded pass through.
type CapabilityAuthorizer struct{}

func (CapabilityAuthorizer) Authorize(_ context.Context, message any) error {
	g, ok := message.(Guarded)
	if !ok {
		return nil
	}
	return access.Resolve(g.Caller()).Require(g.RequiredCapability())
}

func Authorization(a Authorizer) CommandMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if err := a.Authorize(ctx, cmd); err != nil {
				return nil, err
			}
			return nextFn(ctx, cmd)
		})
	}
}

func QueryAuthorization(a Authorizer) QueryMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next queries.Bus) queries.Bus {
		nextFn := wrapQuery(next)
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if err := a.Authorize(ctx, q); err != nil {
				return nil, err
			}
			return nextFn(ctx, q)
		})
	}
}
