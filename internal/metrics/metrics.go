// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Label values for ChoreLogged and GroupJoined.
const (
	KindCatalog  = "catalog"
	KindFreeform = "freeform"

	OutcomeJoined        = "joined"
	OutcomeAlreadyMember = "already_member"
)

// Metrics is a set of collectors bound to one registry. A nil *Metrics is a
// no-op, so components can be built without it in tests.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	choreLogs    *prometheus.CounterVec
	groupJoins   *prometheus.CounterVec
	rateLimited  *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "choretally_http_requests_total",
			Help: "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "choretally_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		choreLogs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "choretally_chore_logs_total",
			Help: "Chore completions recorded, by kind.",
		}, []string{"kind"}),
		groupJoins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "choretally_group_joins_total",
			Help: "Group join attempts that found a group, by outcome.",
		}, []string{"outcome"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "choretally_rate_limited_total",
			Help: "Requests refused by a rate limit policy.",
		}, []string{"policy"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests, m.httpDuration, m.choreLogs, m.groupJoins, m.rateLimited,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveRequest(route, method, code string, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, code).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

func (m *Metrics) ChoreLogged(kind string) {
	if m == nil {
		return
	}
	m.choreLogs.WithLabelValues(kind).Inc()
}

func (m *Metrics) GroupJoined(outcome string) {
	if m == nil {
		return
	}
	m.groupJoins.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RateLimited(policy string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(policy).Inc()
}
