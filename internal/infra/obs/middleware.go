package obs

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderRequestID carries the correlation id in and out of the API.
const HeaderRequestID = "X-Request-ID"

const (
	requestIDKey   = "request_id"
	logUserKey     = "reva.log_user"
	maxRequestID   = 64
	unmatchedRoute = "unmatched"
)

// Middleware holds the request-scoped logging handlers for the HTTP API.
type Middleware struct {
	Logger *slog.Logger
	// Quiet routes are logged at debug level. Nil means health and metrics endpoints.
	Quiet []string
}

// RequestID reuses a caller supplied X-Request-ID when it is short and printable,
// otherwise it mints a new one.
func (m Middleware) RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if !validRequestID(id) {
			id = uuid.NewString()
		}
		c.Request = c.Request.WithContext(WithRequestID(c.Request.Context(), id))
		c.Writer.Header().Set(HeaderRequestID, id)
		c.Set(requestIDKey, id)
		c.Next()
	}
}

// LoggerMiddleware writes one access line per request. Server errors log at error
// level and client errors at warn.
func (m Middleware) LoggerMiddleware() gin.HandlerFunc {
	log := m.Logger
	quiet := m.Quiet
	if quiet == nil {
		quiet = []string{"/livez", "/readyz", "/metrics"}
	}
	quietRoutes := make(map[string]struct{}, len(quiet))
	for _, route := range quiet {
		quietRoutes[route] = struct{}{}
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if log == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		status := c.Writer.Status()
		attrs := []slog.Attr{
			slog.String("method", c.Request.Method),
			slog.String("route", route),
			slog.Int("status", status),
			slog.Int64("latency_ms", time.Since(start).Milliseconds()),
			slog.Int("bytes", max(c.Writer.Size(), 0)),
			slog.String("client_ip", c.ClientIP()),
			slog.String("request_id", c.GetString(requestIDKey)),
		}
		if user := c.GetString(logUserKey); user != "" {
			attrs = append(attrs, slog.String("user_id", user))
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("errors", c.Errors.String()))
		}

		level := slog.LevelInfo
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
		case status >= http.StatusBadRequest:
			level = slog.LevelWarn
		default:
			if _, ok := quietRoutes[route]; ok {
				level = slog.LevelDebug
			}
		}
		log.LogAttrs(c.Request.Context(), level, "http request", attrs...)
	}
}

// SetLogUser tags the access line of the current request with the signed-in user.
func SetLogUser(c *gin.Context, userID string) {
	c.Set(logUserKey, userID)
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestID {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.', r == ':':
		default:
			return false
		}
	}
	return true
}

type requestIDCtxKey struct{}

// WithRequestID stores the correlation id for code below the HTTP layer.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDCtxKey{}, id)
}

func RequestIDFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(requestIDCtxKey{}).(string); ok {
		return s
	}
	return ""
}
