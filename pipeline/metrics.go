package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for a tracker run.
type Metrics struct {
	Registry           *prometheus.Registry
	FetchDuration      prometheus.Histogram
	ItemsExtracted     prometheus.Counter
	NewItemsTotal      prometheus.Counter
	NotificationsTotal *prometheus.CounterVec
	PrunedTotal        prometheus.Counter
	RunsTotal          *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	fetchDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tracker_fetch_duration_seconds",
			Help:    "Latency of the arrivals page fetch, politeness delay included.",
			Buckets: prometheus.DefBuckets,
		},
	)
	itemsExtracted := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tracker_items_extracted_total",
			Help: "Total listing records accepted by the extractor.",
		},
	)
	newItems := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tracker_new_items_total",
			Help: "Total listings first observed by a run.",
		},
	)
	notifications := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_notifications_total",
			Help: "Total notification attempts by status.",
		},
		[]string{"status"},
	)
	pruned := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tracker_pruned_total",
			Help: "Total state entries removed by retention.",
		},
	)
	runs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_runs_total",
			Help: "Total runs by outcome.",
		},
		[]string{"outcome"},
	)

	registry.MustRegister(fetchDuration, itemsExtracted, newItems, notifications, pruned, runs)

	return &Metrics{
		Registry:           registry,
		FetchDuration:      fetchDuration,
		ItemsExtracted:     itemsExtracted,
		NewItemsTotal:      newItems,
		NotificationsTotal: notifications,
		PrunedTotal:        pruned,
		RunsTotal:          runs,
	}
}

// ObserveFetch records the fetch latency.
func (m *Metrics) ObserveFetch(d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(d.Seconds())
}

// AddExtracted counts accepted extractor records.
func (m *Metrics) AddExtracted(n int) {
	if m == nil {
		return
	}
	m.ItemsExtracted.Add(float64(n))
}

// AddNew counts first-observed listings.
func (m *Metrics) AddNew(n int) {
	if m == nil {
		return
	}
	m.NewItemsTotal.Add(float64(n))
}

// IncNotification counts one notification attempt by status.
func (m *Metrics) IncNotification(status string) {
	if m == nil {
		return
	}
	m.NotificationsTotal.WithLabelValues(status).Inc()
}

// AddPruned counts entries removed by retention.
func (m *Metrics) AddPruned(n int) {
	if m == nil {
		return
	}
	m.PrunedTotal.Add(float64(n))
}

// IncRun counts one run by outcome.
func (m *Metrics) IncRun(outcome string) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(outcome).Inc()
}
