package metrics

import (
	"sync"
	"time"

	"umbra-hq/umbra/pkg/config"
	"umbra-hq/umbra/pkg/shadow"

	"github.com/prometheus/client_golang/prometheus"
)

// Subsystem names for the proxy's metric families. The primary path and the
// shadow path are reported separately so a dashboard can tell client-visible
// latency from mirror-side behavior at a glance.
const (
	subsystemHTTP   = "http"
	subsystemShadow = "shadow"
)

// Collector is the main orchestrator for all Prometheus metrics in the
// proxy. It manages metric registration and provides a unified interface
// for recording primary path and shadow path activity.
//
// Collector implements shadow.Observer, so it can be handed directly to the
// engine: terminal outcomes and lifecycle transitions arrive through
// ObserveOutcome and ObserveState.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	// Primary path metrics
	requestMetrics *RequestMetrics

	// Shadow path metrics
	shadowMetrics *ShadowMetrics

	// Cardinality tracking for client-supplied label values
	cardinalityLimiter *CardinalityLimiter

	// engineOnce guards the one-time registration of engine gauges
	engineOnce sync.Once
}

var _ shadow.Observer = (*Collector)(nil)

// EngineStats is the view of the shadow engine the collector polls when a
// scrape arrives. *shadow.Engine satisfies it.
type EngineStats interface {
	QueueState() shadow.QueueState
	InFlight() int64
}

// NewCollector creates a new metrics collector with the specified
// configuration and Prometheus registry. If registry is nil, a fresh
// registry is created.
//
// Example:
//
//	cfg := &config.MetricsConfig{
//		Enabled:   true,
//		Namespace: "umbra",
//	}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	// Set defaults if not specified
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricNamespace
	}
	if len(cfg.RequestDurationBuckets) == 0 {
		cfg.RequestDurationBuckets = append([]float64(nil), config.DefaultRequestDurationBuckets...)
	}

	c := &Collector{
		config:             cfg,
		registry:           registry,
		cardinalityLimiter: NewCardinalityLimiter(1000),
	}

	// Initialize metric subsystems
	c.requestMetrics = NewRequestMetrics(cfg, registry)
	c.shadowMetrics = NewShadowMetrics(cfg, registry)

	return c
}

// RecordRequest records metrics for a completed primary path exchange.
//
// Parameters:
//   - method: HTTP method of the request
//   - code: status code written to the client
//   - duration: total handling duration, including the origin round trip
//   - requestBytes: request body size, if known
//   - responseBytes: response body size written to the client
func (c *Collector) RecordRequest(method string, code int, duration time.Duration, requestBytes, responseBytes int64) {
	if !c.config.Enabled {
		return
	}

	// The method label comes from the client verbatim. Collapse anything
	// past the cardinality limit into "other" so arbitrary methods cannot
	// mint unbounded series.
	if !c.cardinalityLimiter.Allow("method:" + method) {
		method = "other"
	}

	c.requestMetrics.RecordRequest(method, code, duration)
	c.requestMetrics.RecordSize("request", requestBytes)
	c.requestMetrics.RecordSize("response", responseBytes)
}

// ObserveOutcome records the terminal state of one shadow task. It is part
// of the shadow.Observer implementation.
func (c *Collector) ObserveOutcome(o shadow.Outcome) {
	if !c.config.Enabled {
		return
	}

	c.shadowMetrics.RecordOutcome(o)
}

// ObserveState records an engine lifecycle transition. It is part of the
// shadow.Observer implementation.
func (c *Collector) ObserveState(state shadow.EngineState) {
	if !c.config.Enabled {
		return
	}

	c.shadowMetrics.SetEngineState(state)
}

// ObserveEngine registers gauges that read queue depth, queue capacity,
// in-flight deliveries, and the overflow counters straight from the engine
// on every scrape. It must be called at most once per collector; later
// calls are ignored.
func (c *Collector) ObserveEngine(stats EngineStats) {
	if !c.config.Enabled {
		return
	}

	c.engineOnce.Do(func() {
		c.shadowMetrics.RegisterEngineStats(stats, c.registry)
	})
}

// Registry returns the Prometheus registry used by this collector.
// This can be used to create an HTTP handler for the /metrics endpoint:
//
//	http.Handle("/metrics", promhttp.HandlerFor(
//		collector.Registry(),
//		promhttp.HandlerOpts{},
//	))
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label combinations per metric.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow checks if a label set is allowed. Returns true if the label set
// already exists or if we haven't reached the cardinality limit yet.
// Returns false if adding this label set would exceed the limit.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
