package telemetry

// RequestBuckets for HTTP request latencies against a local SQLite file
var RequestBuckets = []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1}

var (
	// HTTPRequestsTotal counts API requests by route, method and status code
	HTTPRequestsTotal CounterVec = noopCounterVec{}

	// HTTPRequestDurationSeconds measures API request latency by route
	HTTPRequestDurationSeconds HistogramVec = noopHistogramVec{}

	// AuditEntriesTotal counts audit entries written by action
	AuditEntriesTotal CounterVec = noopCounterVec{}

	// PublishersTotal tracks the current number of publisher records
	PublishersTotal Gauge = NoopStat{}
)

// InitMetrics initializes all Prometheus metrics.
// Must be called after InitializeTelemetry().
func InitMetrics() {
	HTTPRequestsTotal = NewCounterVec(
		"http_requests_total",
		"Total API requests by route, method and status code",
		[]string{"route", "method", "code"},
	)
	HTTPRequestDurationSeconds = NewHistogramVec(
		"http_request_duration_seconds",
		"API request latency by route",
		[]string{"route"},
		RequestBuckets,
	)
	AuditEntriesTotal = NewCounterVec(
		"audit_entries_total",
		"Audit entries written by action",
		[]string{"action"},
	)
	PublishersTotal = NewGauge(
		"publishers_total",
		"Current number of publisher records",
	)
}
