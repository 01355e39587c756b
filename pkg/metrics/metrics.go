// Package metrics documents the Prometheus metrics exported by fred-client.
// The collectors live in the packages that update them (client, cache) and
// register themselves with the default registry through promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the registerer all fred-client metrics are registered with.
var Registry = prometheus.DefaultRegisterer

// Gatherer exposes the same registry for scraping, e.g. with promhttp.HandlerFor.
var Gatherer = prometheus.DefaultGatherer

// Names lists every metric fred-client exports.
var Names = []string{
	// pkg/client
	"fred_requests_total",
	"fred_request_duration_seconds",
	"fred_cache_write_failures_total",
	"fred_upstream_errors_total",

	// pkg/cache
	"fred_cache_hits_total",
	"fred_cache_misses_total",
	"fred_cache_stored_bytes_total",
	"fred_cache_errors_total",
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - fred_requests_total{lookup, source, outcome} (Counter): Resolutions by policy,
//     source (cache, fred) and outcome (hit, miss, ok, status_error, transport_error, cache_error)
//   - fred_request_duration_seconds{source} (Histogram): Cache lookup and FRED round-trip time
//   - fred_cache_write_failures_total (Counter): Successful responses that could not be stored
//   - fred_upstream_errors_total{status} (Counter): Non-200 FRED responses by status code
//
// Cache Metrics (pkg/cache):
//   - fred_cache_hits_total{backend} (Counter): Hits by backend (redis, disk, minio, memory)
//   - fred_cache_misses_total{backend} (Counter): Misses by backend
//   - fred_cache_stored_bytes_total{backend} (Counter): Response bytes written
//   - fred_cache_errors_total{backend, operation} (Counter): Store errors (get, put, delete)
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(fred_cache_hits_total[5m])) /
//   (sum(rate(fred_cache_hits_total[5m])) + sum(rate(fred_cache_misses_total[5m])))
//
//   # Network share of resolutions
//   sum(rate(fred_requests_total{source="fred"}[5m])) / sum(rate(fred_requests_total[5m]))
//
//   # Rejected API calls (bad key, unknown series, rate limited)
//   sum by (status) (rate(fred_upstream_errors_total[5m]))
//
//   # P95 FRED Latency
//   histogram_quantile(0.95, rate(fred_request_duration_seconds_bucket{source="fred"}[5m]))
