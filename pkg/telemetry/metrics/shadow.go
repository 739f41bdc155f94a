package metrics

import (
	"strconv"

	"umbra-hq/umbra/pkg/config"
	"umbra-hq/umbra/pkg/shadow"

	"github.com/prometheus/client_golang/prometheus"
)

// ShadowMetrics tracks metrics for the shadow delivery path.
//
// Metrics:
//   - umbra_shadow_outcomes_total: Terminal task outcomes by status
//   - umbra_shadow_responses_total: Shadow responses by status code
//   - umbra_shadow_delivery_duration_seconds: Final attempt duration
//   - umbra_shadow_queue_wait_seconds: Time clones spent buffered
//   - umbra_shadow_attempts_total: Delivery attempts across all tasks
//   - umbra_shadow_engine_state: One-hot engine lifecycle state
//
// ObserveEngine registers a further set of gauges that read the live queue
// and worker pool on each scrape; see RegisterEngineStats.
type ShadowMetrics struct {
	// Terminal outcomes by status
	outcomesTotal *prometheus.CounterVec

	// Shadow response codes, recorded only for delivered tasks
	responsesTotal *prometheus.CounterVec

	// Duration of the final delivery attempt, by outcome
	deliveryDuration *prometheus.HistogramVec

	// Time spent queued before a worker picked the clone up
	queueWait prometheus.Histogram

	// Total delivery attempts
	attemptsTotal prometheus.Counter

	// Engine lifecycle state as a one-hot gauge
	engineState *prometheus.GaugeVec

	// namespace is kept for the engine gauges registered later
	namespace string
}

// allEngineStates enumerates every lifecycle state so SetEngineState can
// zero the inactive ones.
var allEngineStates = []shadow.EngineState{
	shadow.EngineStopped,
	shadow.EngineStarting,
	shadow.EngineRunning,
	shadow.EngineDraining,
}

// NewShadowMetrics creates and registers shadow path metrics with the
// provided registry.
func NewShadowMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ShadowMetrics {
	sm := &ShadowMetrics{
		namespace: cfg.Namespace,

		outcomesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: subsystemShadow,
				Name:      "outcomes_total",
				Help:      "Total number of shadow tasks by terminal status",
			},
			[]string{"outcome"},
		),

		responsesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: subsystemShadow,
				Name:      "responses_total",
				Help:      "Total number of shadow responses by status code",
			},
			[]string{"code"},
		),

		deliveryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: subsystemShadow,
				Name:      "delivery_duration_seconds",
				Help:      "Duration of the final delivery attempt in seconds",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"outcome"},
		),

		queueWait: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: subsystemShadow,
				Name:      "queue_wait_seconds",
				Help:      "Time clones spent in the queue before a worker picked them up",
				Buckets:   cfg.RequestDurationBuckets,
			},
		),

		attemptsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: subsystemShadow,
				Name:      "attempts_total",
				Help:      "Total number of delivery attempts across all shadow tasks",
			},
		),

		engineState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: subsystemShadow,
				Name:      "engine_state",
				Help:      "Engine lifecycle state, 1 for the current state and 0 otherwise",
			},
			[]string{"state"},
		),
	}

	// Register all metrics
	registry.MustRegister(
		sm.outcomesTotal,
		sm.responsesTotal,
		sm.deliveryDuration,
		sm.queueWait,
		sm.attemptsTotal,
		sm.engineState,
	)

	return sm
}

// RecordOutcome records the terminal state of one shadow task.
func (sm *ShadowMetrics) RecordOutcome(o shadow.Outcome) {
	sm.outcomesTotal.WithLabelValues(string(o.Status)).Inc()

	// Tasks with zero attempts never reached a worker, so there is no
	// queue wait or attempt duration to report.
	if o.Attempts == 0 {
		return
	}

	sm.attemptsTotal.Add(float64(o.Attempts))
	sm.queueWait.Observe(o.QueuedFor.Seconds())
	sm.deliveryDuration.WithLabelValues(string(o.Status)).Observe(o.Duration.Seconds())

	if o.Status == shadow.StatusDelivered {
		sm.responsesTotal.WithLabelValues(strconv.Itoa(o.StatusCode)).Inc()
	}
}

// SetEngineState records the engine lifecycle state as a one-hot gauge.
func (sm *ShadowMetrics) SetEngineState(state shadow.EngineState) {
	for _, s := range allEngineStates {
		value := 0.0
		if s == state {
			value = 1.0
		}
		sm.engineState.WithLabelValues(string(s)).Set(value)
	}
}

// RegisterEngineStats registers gauges that read the engine on every
// scrape instead of being pushed to:
//
//   - umbra_shadow_queue_depth: Clones currently buffered
//   - umbra_shadow_queue_capacity: Configured queue capacity
//   - umbra_shadow_in_flight: Deliveries currently being attempted
//   - umbra_shadow_queue_rejected_total: Clones refused at admission
//   - umbra_shadow_queue_evicted_total: Clones displaced under drop-oldest
func (sm *ShadowMetrics) RegisterEngineStats(stats EngineStats, registry *prometheus.Registry) {
	registry.MustRegister(
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: sm.namespace,
				Subsystem: subsystemShadow,
				Name:      "queue_depth",
				Help:      "Number of clones currently buffered in the shadow queue",
			},
			func() float64 { return float64(stats.QueueState().Length) },
		),

		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: sm.namespace,
				Subsystem: subsystemShadow,
				Name:      "queue_capacity",
				Help:      "Configured capacity of the shadow queue",
			},
			func() float64 { return float64(stats.QueueState().Capacity) },
		),

		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: sm.namespace,
				Subsystem: subsystemShadow,
				Name:      "in_flight",
				Help:      "Number of shadow deliveries currently being attempted",
			},
			func() float64 { return float64(stats.InFlight()) },
		),

		prometheus.NewCounterFunc(
			prometheus.CounterOpts{
				Namespace: sm.namespace,
				Subsystem: subsystemShadow,
				Name:      "queue_rejected_total",
				Help:      "Clones refused because the queue was full or closed",
			},
			func() float64 { return float64(stats.QueueState().Rejected) },
		),

		prometheus.NewCounterFunc(
			prometheus.CounterOpts{
				Namespace: sm.namespace,
				Subsystem: subsystemShadow,
				Name:      "queue_evicted_total",
				Help:      "Clones displaced by newer arrivals under the drop-oldest policy",
			},
			func() float64 { return float64(stats.QueueState().Evicted) },
		),
	)
}
