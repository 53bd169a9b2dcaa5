// Package metrics defines the Prometheus collectors used by the WB API client.
//
// All collectors are registered on the default registerer via promauto, so
// exposing them only requires promhttp.Handler() (see cmd/wbctl serve).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the Prometheus registerer the collectors are registered on.
var Registry = prometheus.DefaultRegisterer

// Request metrics (pkg/client).
var (
	// RequestsTotal counts upstream responses by service and HTTP status.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wb_requests_total",
		Help: "Total WB API requests by service and status",
	}, []string{"service", "status"})

	// RequestDuration observes the round-trip time of upstream requests.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wb_request_duration_seconds",
		Help:    "WB API request duration in seconds by service",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"service"})

	// DataRetrievalErrors counts responses outside the [200, 400) range.
	DataRetrievalErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wb_data_retrieval_errors_total",
		Help: "Total WB API responses with a non-success status by service",
	}, []string{"service"})

	// TransportErrors counts requests that never produced a response.
	TransportErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wb_transport_errors_total",
		Help: "Total WB API requests that failed before a response was received",
	}, []string{"service"})
)

// Pagination metrics (pkg/pagination).
var (
	// PagesFetched counts pages merged into an accumulated result.
	PagesFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wb_pagination_pages_total",
		Help: "Total pages fetched by paginated accumulations",
	}, []string{"service"})

	// StaleCursors counts runs stopped because the upstream cursor did not advance.
	StaleCursors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wb_pagination_stale_cursor_total",
		Help: "Total accumulations stopped on a non-advancing next cursor",
	}, []string{"service"})
)

// Action metrics (pkg/action).
var (
	// MissingFields counts results lacking the declared data field.
	MissingFields = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wb_missing_field_errors_total",
		Help: "Total results missing their declared data field by action",
	}, []string{"action"})
)

// Example Prometheus Queries:
//
//   # Error ratio per service
//   sum by (service) (rate(wb_data_retrieval_errors_total[5m])) /
//   sum by (service) (rate(wb_requests_total[5m]))
//
//   # Average pages per paginated fetch
//   rate(wb_pagination_pages_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(wb_request_duration_seconds_bucket[5m]))
