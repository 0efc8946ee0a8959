package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ShivaprasadMurashillin/LexDash/pkg/apperr"
)

// Metrics owns a private registry. A nil *Metrics is valid and records nothing.
type Metrics struct {
	reg *prometheus.Registry

	apiRequests       *prometheus.CounterVec
	apiLatency        *prometheus.HistogramVec
	secondaryFailures *prometheus.CounterVec
	identifierRetries *prometheus.CounterVec
	notifications     *prometheus.CounterVec
	cacheLookups      *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lexdash_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lexdash_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		secondaryFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lexdash_secondary_effect_failures_total",
			Help: "Best-effort side effects that failed (notification, file_removal, cache).",
		}, []string{"effect"}),
		identifierRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lexdash_identifier_retries_total",
			Help: "Create attempts retried after an identifier collision.",
		}, []string{"kind"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lexdash_notifications_emitted_total",
			Help: "Notifications recorded by entity and action.",
		}, []string{"entity", "action"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lexdash_cache_lookups_total",
			Help: "Aggregation cache lookups by result (hit, miss).",
		}, []string{"result"}),
	}
	m.reg.MustRegister(
		m.apiRequests, m.apiLatency, m.secondaryFailures,
		m.identifierRetries, m.notifications, m.cacheLookups,
		collectors.NewGoCollector(),
	)
	return m
}

// Registry exposes the underlying registry (tests read from it).
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

func (m *Metrics) ObserveAPI(method, route string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unknown"
	}
	m.apiRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.apiLatency.WithLabelValues(method, route).Observe(dur.Seconds())
}

func (m *Metrics) IncSecondaryFailure(effect string) {
	if m == nil {
		return
	}
	m.secondaryFailures.WithLabelValues(effect).Inc()
}

func (m *Metrics) IncIdentifierRetry(kind string) {
	if m == nil {
		return
	}
	m.identifierRetries.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncNotification(entity, action string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(entity, action).Inc()
}

func (m *Metrics) IncCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// Middleware records every request under its route template.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if m == nil {
			return c.Next()
		}
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else if ae, ok := apperr.As(err); ok {
				status = ae.Status
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		m.ObserveAPI(c.Method(), c.Route().Path, status, time.Since(start))
		return err
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{}))
}
