package obs

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"reva/internal/domain/booking"
)

// Metrics owns the process collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	transitions  *prometheus.CounterVec
	signups      *prometheus.CounterVec
	outbox       *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reva",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "reva",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reva",
			Name:      "booking_transitions_total",
			Help:      "Booking status changes.",
		}, []string{"from", "to"}),
		signups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reva",
			Name:      "signups_total",
			Help:      "Signup challenges and completions.",
		}, []string{"stage"}),
		outbox: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reva",
			Name:      "outbox_publish_total",
			Help:      "Outbox publish attempts by topic and result.",
		}, []string{"topic", "result"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests, m.httpDuration, m.transitions, m.signups, m.outbox,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}

func (m *Metrics) HTTPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) BookingTransitioned(from, to booking.Status) {
	m.transitions.WithLabelValues(string(from), string(to)).Inc()
}

func (m *Metrics) SignupStarted(delivered bool) {
	stage := "started_undelivered"
	if delivered {
		stage = "started_delivered"
	}
	m.signups.WithLabelValues(stage).Inc()
}

func (m *Metrics) SignupCompleted() {
	m.signups.WithLabelValues("completed").Inc()
}

func (m *Metrics) OutboxDelivered(topic string) {
	m.outbox.WithLabelValues(topic, "ok").Inc()
}

func (m *Metrics) OutboxFailed(topic string) {
	m.outbox.WithLabelValues(topic, "error").Inc()
}

