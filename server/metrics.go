package server

import (
	"net/http"

	"github.com/miekg/dns"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics counts dispatched queries by transport, matched label and
// rcode. Grounded on the teacher's middleware/metrics package, wired
// to dispatch.Handler.OnDispatch instead of a middleware chain step.
type Metrics struct {
	queries *prometheus.CounterVec
}

// NewMetrics registers a fresh dnssrc_queries_total counter vector.
func NewMetrics() *Metrics {
	m := &Metrics{
		queries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dnssrc_queries_total",
				Help: "Queries dispatched, by transport, matched label and rcode.",
			},
			[]string{"transport", "label", "rcode"},
		),
	}

	prometheus.MustRegister(m.queries)

	return m
}

// Observe implements the dispatch.Handler.OnDispatch hook.
func (m *Metrics) Observe(transport, label string, rcode int) {
	if label == "" {
		label = "-"
	}

	m.queries.With(prometheus.Labels{
		"transport": transport,
		"label":     label,
		"rcode":     dns.RcodeToString[rcode],
	}).Inc()
}

// Handler returns the /metrics HTTP handler, the same promhttp wiring
// the teacher's api package exposes on its own API listener.
func (m *Metrics) Handler() http.Handler {
	return promhttp.Handler()
}
