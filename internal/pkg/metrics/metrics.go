// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "poolmon"

var (
	// PageRequests counts get_table_rows page calls by source and result (ok|error).
	PageRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "page_requests_total",
		Help:      "Table rows page requests by source and result.",
	}, []string{"source", "result"})

	PageRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "page_retries_total",
		Help:      "Page requests retried after a failure.",
	}, []string{"source"})

	RetrievalFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "retrieval_failures_total",
		Help:      "Sources that exhausted their retry budget.",
	}, []string{"source"})

	RefreshDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "refresh_duration_seconds",
		Help:      "Wall time of a full multi-source refresh cycle.",
		Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
	})

	SourceRows = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "source_rows",
		Help:      "Rows held in the latest snapshot per source.",
	}, []string{"source"})

	NormalizedPools = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "normalized_pools",
		Help:      "Pools produced by the last normalization pass.",
	})
)

var registerOnce sync.Once

// MustRegisterMetrics registers every collector with the default registry.
// Safe to call more than once.
func MustRegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			PageRequests,
			PageRetries,
			RetrievalFailures,
			RefreshDuration,
			SourceRows,
			NormalizedPools,
		)
	})
}
