package metrics

import (
	"regexp"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, path, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts HTTP requests by method, path, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// AuthFailures counts rejected bearer credentials by reason (missing, expired, invalid).
	AuthFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_failures_total",
			Help: "Requests rejected by the auth gate, by reason",
		},
		[]string{"reason"},
	)

	// LibraryOps counts library mutations by operation (add, update, delete) and result.
	LibraryOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "library_operations_total",
			Help: "Library mutations by operation and result",
		},
		[]string{"op", "result"},
	)

	// CatalogRequests counts catalog lookups by source (cache, provider) and result.
	CatalogRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_requests_total",
			Help: "Catalog searches and lookups by source and result",
		},
		[]string{"source", "result"},
	)
)

var (
	idPathSegment = regexp.MustCompile(`/([0-9]+|[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12})(/|$)`)
	initOnce      sync.Once
)

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestDuration, RequestTotal, AuthFailures, LibraryOps, CatalogRequests)
	})
}

// NormalizePath reduces cardinality by replacing numeric and UUID path segments with {id}.
// Used when no route pattern is known.
func NormalizePath(path string) string {
	return idPathSegment.ReplaceAllString(path, "/{id}$2")
}

// RecordRequest records duration and count for an HTTP request.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

func IncAuthFailure(reason string) {
	AuthFailures.WithLabelValues(reason).Inc()
}

// IncLibraryOp records a library mutation; result is "ok" or an error class.
func IncLibraryOp(op, result string) {
	LibraryOps.WithLabelValues(op, result).Inc()
}

func IncCatalog(source, result string) {
	CatalogRequests.WithLabelValues(source, result).Inc()
}
