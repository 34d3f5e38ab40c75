package obs

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthHandlers exposes endpoints for liveness and readiness checks.
type HealthHandlers struct {
	Ready func(ctx context.Context) error
}

func (h HealthHandlers) Livez(c *gin.Context) {
	c.Status(http.StatusOK)
}

func (h HealthHandlers) Readyz(c *gin.Context) {
	if h.Ready != nil {
		if err := h.Ready(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "error": err.Error()})
			return
		}
	}
	c.Status(http.StatusOK)
}

// WatchReadiness mirrors the Ready probe into a gRPC health server until ctx ends.
func (h HealthHandlers) WatchReadiness(ctx context.Context, srv *health.Server, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	update := func() {
		status := healthpb.HealthCheckResponse_SERVING
		if h.Ready != nil {
			checkCtx, cancel := context.WithTimeout(ctx, interval)
			if err := h.Ready(checkCtx); err != nil {
				status = healthpb.HealthCheckResponse_NOT_SERVING
			}
			cancel()
		}
		srv.SetServingStatus("", status)
	}
	update()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			srv.Shutdown()
			return
		case <-ticker.C:
			update()
		}
	}
}
