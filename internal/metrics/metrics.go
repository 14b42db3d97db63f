// Package metrics exposes Prometheus instrumentation for search and
// indexing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "lookout"

// Metrics holds the collectors the engine and indexer report into.
type Metrics struct {
	searchesTotal  *prometheus.CounterVec
	searchDuration *prometheus.HistogramVec
	searchResults  *prometheus.HistogramVec

	nodesIndexed *prometheus.CounterVec
	nodesRemoved *prometheus.CounterVec
	indexDocs    *prometheus.GaugeVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		searchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Total search requests by index and outcome",
		}, []string{"index", "status"}),

		searchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "End-to-end search latency",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"index"}),

		searchResults: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Returned match counts per search",
			Buckets:   []float64{0, 1, 5, 10, 50, 100, 500, 1000, 5000},
		}, []string{"index"}),

		nodesIndexed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_indexed_total",
			Help:      "Total nodes written to the index",
		}, []string{"index"}),

		nodesRemoved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_removed_total",
			Help:      "Total nodes removed from the index",
		}, []string{"index"}),

		indexDocs: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_docs",
			Help:      "Number of documents in each index",
		}, []string{"index"}),
	}

	reg.MustRegister(
		m.searchesTotal, m.searchDuration, m.searchResults,
		m.nodesIndexed, m.nodesRemoved, m.indexDocs,
	)

	return m
}

// SearchStatus values for ObserveSearch.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// ObserveSearch records one completed search.
func (m *Metrics) ObserveSearch(index, status string, matches int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.searchesTotal.WithLabelValues(index, status).Inc()
	m.searchDuration.WithLabelValues(index).Observe(elapsed.Seconds())
	if status == StatusOK {
		m.searchResults.WithLabelValues(index).Observe(float64(matches))
	}
}

// NodeIndexed records a node write.
func (m *Metrics) NodeIndexed(index string) {
	if m == nil {
		return
	}
	m.nodesIndexed.WithLabelValues(index).Inc()
}

// NodeRemoved records a node deletion.
func (m *Metrics) NodeRemoved(index string) {
	if m == nil {
		return
	}
	m.nodesRemoved.WithLabelValues(index).Inc()
}

// SetIndexDocs publishes the current document count for an index.
func (m *Metrics) SetIndexDocs(index string, count uint64) {
	if m == nil {
		return
	}
	m.indexDocs.WithLabelValues(index).Set(float64(count))
}
