// Package metrics exposes Prometheus counters for the dispatch pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/verso-proxy/verso/pkg/gateway"
)

type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	unresolvedTotal prometheus.Counter
	reloadsTotal    *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "verso",
			Name:      "requests_total",
			Help:      "Requests handled, by negotiated version and status code.",
		}, []string{"version", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "verso",
			Name:      "request_duration_seconds",
			Help:      "Request latency, by negotiated version.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"version"}),
		unresolvedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "verso",
			Name:      "unresolved_requests_total",
			Help:      "Requests that resolved to no application.",
		}),
		reloadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "verso",
			Name:      "rule_reloads_total",
			Help:      "Rule table reloads, by outcome.",
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(m.requestsTotal, m.requestDuration, m.unresolvedTotal, m.reloadsTotal)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveReload(err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.reloadsTotal.WithLabelValues(outcome).Inc()
}

// Middleware records per-request counters. It reads the negotiated version
// from the gin context after the handler chain ran, so it must be installed
// before the dispatch handler.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		version := c.GetString(gateway.CtxKeyVersion)
		if version == "" {
			version = "none"
		}
		status := c.Writer.Status()
		m.requestsTotal.WithLabelValues(version, strconv.Itoa(status)).Inc()
		m.requestDuration.WithLabelValues(version).Observe(time.Since(start).Seconds())
		if _, ok := c.Get(gateway.CtxKeyDispatchError); ok {
			m.unresolvedTotal.Inc()
		}
	}
}
