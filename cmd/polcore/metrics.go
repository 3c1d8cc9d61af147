package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// buildMetrics holds the Prometheus metrics emitted by a build run. The
// core itself never touches Prometheus; this lives entirely in the CLI
// driver, which is the only thing the specification calls "not part of the
// core."
type buildMetrics struct {
	leafCount     prometheus.Gauge
	buildDuration prometheus.Histogram
	splitDummies  prometheus.Gauge
}

func newBuildMetrics() *buildMetrics {
	return &buildMetrics{
		leafCount: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "polcore_build_leaf_count",
			Help: "Number of leaves in the most recently built tree.",
		}),
		buildDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "polcore_build_duration_seconds",
			Help:    "Wall-clock time spent building a Merkle sum tree.",
			Buckets: prometheus.DefBuckets,
		}),
		splitDummies: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "polcore_build_dummy_leaf_count",
			Help: "Number of zero-amount dummy leaves added to reach a power of two.",
		}),
	}
}

// serveMetrics starts a background HTTP server exposing /metrics, if addr
// is non-empty.
func serveMetrics(addr string) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go http.ListenAndServe(addr, mux)
}
