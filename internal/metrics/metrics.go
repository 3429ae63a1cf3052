// Package metrics holds the Prometheus collectors of the web app.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	requests   *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	prefetches *prometheus.CounterVec
	backend    *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recipeshare_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "recipeshare_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		prefetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recipeshare_prefetch_total",
			Help: "Server-side page prefetches by query and result.",
		}, []string{"query", "result"}),
		backend: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recipeshare_backend_calls_total",
			Help: "Calls to the REST backend by operation and result.",
		}, []string{"operation", "result"}),
	}
	reg.MustRegister(m.requests, m.latency, m.prefetches, m.backend)
	return m
}

// Middleware records request count and latency per matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.latency.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// Prefetch counts one prefetch outcome. query is the key family ("feed", "recipe"), not the full key.
func (m *Metrics) Prefetch(query string, err error) {
	if m == nil {
		return
	}
	m.prefetches.WithLabelValues(query, result(err)).Inc()
}

// BackendCall counts one REST backend call.
func (m *Metrics) BackendCall(operation string, err error) {
	if m == nil {
		return
	}
	m.backend.WithLabelValues(operation, result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
