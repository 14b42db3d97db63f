package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveSearch(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveSearch("internal", StatusOK, 3, 5*time.Millisecond)
	m.ObserveSearch("internal", StatusError, 0, time.Millisecond)

	if got := testutil.ToFloat64(m.searchesTotal.WithLabelValues("internal", StatusOK)); got != 1 {
		t.Errorf("ok searches = %v", got)
	}
	if got := testutil.ToFloat64(m.searchesTotal.WithLabelValues("internal", StatusError)); got != 1 {
		t.Errorf("error searches = %v", got)
	}
}

func TestNodeCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.NodeIndexed("internal")
	m.NodeIndexed("internal")
	m.NodeRemoved("internal")
	m.SetIndexDocs("internal", 42)

	if got := testutil.ToFloat64(m.nodesIndexed.WithLabelValues("internal")); got != 2 {
		t.Errorf("nodes indexed = %v", got)
	}
	if got := testutil.ToFloat64(m.nodesRemoved.WithLabelValues("internal")); got != 1 {
		t.Errorf("nodes removed = %v", got)
	}
	if got := testutil.ToFloat64(m.indexDocs.WithLabelValues("internal")); got != 42 {
		t.Errorf("index docs = %v", got)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveSearch("internal", StatusOK, 1, time.Millisecond)
	m.NodeIndexed("internal")
	m.NodeRemoved("internal")
	m.SetIndexDocs("internal", 1)
}
