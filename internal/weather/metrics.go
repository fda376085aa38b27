package weather

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// upstreamRequests counts upstream calls by endpoint and outcome
// ("ok", "network", "decode", or the HTTP status code).
var upstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "rkweather_upstream_requests_total",
	Help: "Total number of weather API requests by endpoint and outcome.",
}, []string{"endpoint", "outcome"})

var upstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "rkweather_upstream_request_duration_seconds",
	Help:    "Latency of weather API requests by endpoint.",
	Buckets: prometheus.DefBuckets,
}, []string{"endpoint"})
