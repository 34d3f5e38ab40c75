package delivery

import (
	"context"
	"log/slog"
	"time"

	"reva/internal/app/policies"
)

// LogSender never delivers. It logs the attempt so the code can be disclosed by the caller.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) SendCode(_ context.Context, email, _ string, ttl time.Duration) error {
	if s.Logger != nil {
		s.Logger.Warn("signup code delivery not configured", "email", email, "ttl", ttl)
	}
	return ErrNotConfigured
}

var _ policies.CodeSender = LogSender{}
