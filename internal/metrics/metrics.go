// Package metrics exposes the editor's Prometheus collectors. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pedigree"

// Metrics holds the collectors of one process.
type Metrics struct {
	gatherer prometheus.Gatherer

	syncOutcomes   *prometheus.CounterVec
	staleResponses prometheus.Counter
	recordsCreated *prometheus.CounterVec
	events         *prometheus.CounterVec
	legendColors   *prometheus.GaugeVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		gatherer: reg,
		syncOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "identity",
			Name:      "sync_total",
			Help:      "Registry lookups by outcome.",
		}, []string{"outcome"}),
		staleResponses: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "identity",
			Name:      "stale_responses_total",
			Help:      "Lookup responses discarded because a newer lookup started.",
		}),
		recordsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "identity",
			Name:      "records_created_total",
			Help:      "Registry record creations by completeness.",
		}, []string{"complete"}),
		events: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Domain events published by type and severity.",
		}, []string{"type", "severity"}),
		legendColors: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "legend",
			Name:      "colors",
			Help:      "Legend entries currently holding a color.",
		}, []string{"legend"}),
	}
}

func (m *Metrics) SyncOutcome(outcome string) {
	if m == nil {
		return
	}
	m.syncOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) StaleResponse() {
	if m == nil {
		return
	}
	m.staleResponses.Inc()
}

func (m *Metrics) RecordCreated(complete bool) {
	if m == nil {
		return
	}
	m.recordsCreated.WithLabelValues(strconv.FormatBool(complete)).Inc()
}

func (m *Metrics) EventObserved(eventType, severity string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(eventType, severity).Inc()
}

func (m *Metrics) LegendColorAssigned(legend string) {
	if m == nil {
		return
	}
	m.legendColors.WithLabelValues(legend).Inc()
}

func (m *Metrics) LegendColorReleased(legend string) {
	if m == nil {
		return
	}
	m.legendColors.WithLabelValues(legend).Dec()
}

// Handler serves the collectors in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
