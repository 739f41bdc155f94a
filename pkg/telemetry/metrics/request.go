package metrics

import (
	"strconv"
	"time"

	"umbra-hq/umbra/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// RequestMetrics tracks metrics for the primary request path.
//
// Metrics:
//   - umbra_http_requests_total: Request count by method and status code
//   - umbra_http_request_duration_seconds: Request duration histogram
//   - umbra_http_size_bytes: Request and response body sizes
type RequestMetrics struct {
	// Total request count
	requestsTotal *prometheus.CounterVec

	// Request duration histogram
	requestDuration *prometheus.HistogramVec

	// Request/response size in bytes
	sizeBytes *prometheus.HistogramVec
}

// NewRequestMetrics creates and registers primary path metrics with the
// provided registry.
func NewRequestMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RequestMetrics {
	rm := &RequestMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: subsystemHTTP,
				Name:      "requests_total",
				Help:      "Total number of requests handled on the primary path",
			},
			[]string{"method", "code"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: subsystemHTTP,
				Name:      "request_duration_seconds",
				Help:      "Duration of primary path handling in seconds, including the origin round trip",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"method"},
		),

		sizeBytes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: subsystemHTTP,
				Name:      "size_bytes",
				Help:      "Size of request and response bodies in bytes",
				Buckets:   prometheus.ExponentialBuckets(1024, 2, 12), // 1KB to 2MB
			},
			[]string{"direction"},
		),
	}

	// Register all metrics
	registry.MustRegister(
		rm.requestsTotal,
		rm.requestDuration,
		rm.sizeBytes,
	)

	return rm
}

// RecordRequest records the method, status code, and duration of one
// completed exchange.
func (rm *RequestMetrics) RecordRequest(method string, code int, duration time.Duration) {
	rm.requestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	rm.requestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordSize records the size of a request or response body.
//
// Parameters:
//   - direction: "request" or "response"
//   - sizeBytes: size in bytes; non-positive values (unknown length) are skipped
func (rm *RequestMetrics) RecordSize(direction string, sizeBytes int64) {
	if sizeBytes > 0 {
		rm.sizeBytes.WithLabelValues(direction).Observe(float64(sizeBytes))
	}
}
