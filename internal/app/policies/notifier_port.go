package policies

import (
	"context"
	"time"
)

// CodeSender delivers a one-time signup code out of band. The code stays valid for ttl.
type CodeSender interface {
	SendCode(ctx context.Context, email, code string, ttl time.Duration) error
}
