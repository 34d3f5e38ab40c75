package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"reva/internal/infra/config"
	"reva/internal/infra/obs"
)

type AuthHTTP interface {
	Login(c *gin.Context)
	Logout(c *gin.Context)
	Me(c *gin.Context)
	BeginSignup(c *gin.Context)
	CompleteSignup(c *gin.Context)
}

type UserHTTP interface {
	Get(c *gin.Context)
}

type ListingHTTP interface {
	List(c *gin.Context)
	Search(c *gin.Context)
	Get(c *gin.Context)
}

type BookingHTTP interface {
	Create(c *gin.Context)
	List(c *gin.Context)
	SetStatus(c *gin.Context)
	History(c *gin.Context)
}

type DashboardHTTP interface {
	Summary(c *gin.Context)
}

type AssistantHTTP interface {
	Message(c *gin.Context)
}

type Handlers struct {
	Auth           AuthHTTP
	Users          UserHTTP
	Listing        ListingHTTP
	Booking        BookingHTTP
	Dashboard      DashboardHTTP
	Assistant      AssistantHTTP
	AuthMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, metrics *obs.Metrics, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg, obsMW, metrics, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewRouter builds the engine without touching the global gin mode.
func NewRouter(cfg config.Config, obsMW obs.Middleware, metrics *obs.Metrics, health obs.HealthHandlers, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	if metrics != nil {
		router.Use(metrics.HTTPMiddleware())
	}
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)
	if metrics != nil {
		router.GET("/metrics", metrics.Handler())
	}

	api := router.Group("/api/v1")
	if h.Auth != nil {
		api.POST("/auth/login", h.Auth.Login)
		api.POST("/auth/logout", h.Auth.Logout)
		api.GET("/auth/me", h.Auth.Me)
		api.POST("/auth/signup", h.Auth.BeginSignup)
		api.POST("/auth/signup/verify", h.Auth.CompleteSignup)
	}
	if h.Users != nil {
		api.GET("/users/:id", h.Users.Get)
	}
	if h.Listing != nil {
		api.GET("/listings", h.Listing.List)
		api.GET("/listings/search", h.Listing.Search)
		api.GET("/listings/:id", h.Listing.Get)
	}
	if h.Booking != nil {
		api.POST("/bookings", h.Booking.Create)
		api.GET("/bookings", h.Booking.List)
		api.POST("/bookings/:id/status", h.Booking.SetStatus)
		api.GET("/bookings/:id/history", h.Booking.History)
	}
	if h.Dashboard != nil {
		api.GET("/dashboard", h.Dashboard.Summary)
	}
	if h.Assistant != nil {
		api.POST("/assistant/messages", h.Assistant.Message)
	}
	registerSwaggerRoutes(router)
	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowOrigins = []string{"*"}
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cfg
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
