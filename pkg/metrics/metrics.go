// Package metrics provides the centralized Prometheus metrics registry for
// the screener client. All metrics are defined in their respective packages
// (client, pagination) to maintain modularity and avoid circular
// dependencies.
//
// This package provides documentation and reference for all available
// metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the screener client.
// All metrics are automatically registered via promauto in their respective
// packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - screener_requests_total{endpoint, status} (Counter): Physical request
//     outcomes by endpoint and HTTP status ("network_error" for transport
//     failures)
//   - screener_request_duration_seconds{endpoint} (Histogram): Logical
//     request duration, retries and redirects included
//   - screener_redirects_followed_total (Counter): Redirect hops followed
//
// Retry Metrics (pkg/client):
//   - screener_retries_total{error_class} (Counter): Retry attempts by
//     error class (client, server, network)
//   - screener_retry_backoff_seconds{error_class} (Histogram): Backoff
//     duration by error class
//   - screener_retry_exhausted_total{error_class} (Counter): Requests that
//     exhausted the retry budget
//
// Collection Metrics (pkg/pagination):
//   - screener_pages_fetched_total (Counter): Pages fetched across all
//     collections
//   - screener_collections_total{outcome} (Counter): Collection calls by
//     outcome (success, error, page_limit)
//
// Example Prometheus Queries:
//
//   # Request Error Rate
//   rate(screener_retry_exhausted_total[5m])
//
//   # P95 Logical Request Latency
//   histogram_quantile(0.95, rate(screener_request_duration_seconds_bucket[5m]))
//
//   # Average Pages per Collection
//   rate(screener_pages_fetched_total[5m]) /
//   rate(screener_collections_total{outcome="success"}[5m])
