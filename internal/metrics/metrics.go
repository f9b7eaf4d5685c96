package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	VisionAPICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jagapohon_vision_api_calls_total",
			Help: "Total vision analysis API calls",
		},
		[]string{"status"},
	)

	VisionAPILatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "jagapohon_vision_api_latency_seconds",
			Help:    "Vision API call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	GeolocateCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jagapohon_geolocate_calls_total",
			Help: "Total geolocation lookups",
		},
		[]string{"status"},
	)

	TreesImported = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jagapohon_trees_imported_total",
			Help: "Trees successfully added via bulk import",
		},
	)

	ImportFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jagapohon_import_failures_total",
			Help: "Files that failed during bulk import",
		},
	)
)
