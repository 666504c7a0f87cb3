package metrics

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

const (
	WorkerErrorTypeDeadlineExceeded = "deadline_exceeded"
	WorkerErrorTypeUpstream         = "upstream"
	WorkerErrorTypeDB               = "db"
	WorkerErrorTypeUnknown          = "unknown"
)

const (
	OutcomeValid   = "valid"
	OutcomeInvalid = "invalid"
	OutcomeRetry   = "retry"
	OutcomeSkipped = "lease_held"
)

// WorkerMetrics captures verification worker health signals: cycle
// throughput, upstream fetch behavior, and entry outcomes.
type WorkerMetrics struct {
	cycleRuns      *prometheus.CounterVec
	cycleDuration  *prometheus.HistogramVec
	cycleErrors    *prometheus.CounterVec
	entriesFetched *prometheus.CounterVec
	entryOutcomes  *prometheus.CounterVec
	upstreamCalls  *prometheus.CounterVec
	relationSize   *prometheus.HistogramVec
	creditsTotal   *prometheus.CounterVec
}

var (
	workerMetricsOnce sync.Once
	workerMetrics     *WorkerMetrics
)

// Worker returns the singleton worker metrics registry.
func Worker() *WorkerMetrics {
	workerMetricsOnce.Do(func() {
		workerMetrics = newWorkerMetrics(prometheus.DefaultRegisterer)
	})
	return workerMetrics
}

// ResetWorkerMetricsForTest resets the worker metrics singleton for tests.
func ResetWorkerMetricsForTest() {
	workerMetricsOnce = sync.Once{}
	workerMetrics = nil
}

func newWorkerMetrics(registerer prometheus.Registerer) *WorkerMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	cycleRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ganhesocial_worker_cycle_runs_total",
		Help: "Verification cycles run per worker.",
	}, []string{"worker"})
	cycleDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ganhesocial_worker_cycle_duration_seconds",
		Help:    "Verification cycle latency per worker.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60, 120, 300},
	}, []string{"worker"})
	cycleErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ganhesocial_worker_cycle_errors_total",
		Help: "Verification cycle failures by low-cardinality type.",
	}, []string{"worker", "error_type"})
	entriesFetched := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ganhesocial_worker_entries_fetched_total",
		Help: "Pending entries pulled into verification cycles.",
	}, []string{"worker"})
	entryOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ganhesocial_worker_entry_outcomes_total",
		Help: "Entry decisions per cycle by outcome.",
	}, []string{"worker", "outcome"})
	upstreamCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ganhesocial_worker_upstream_fetches_total",
		Help: "Relation set fetches against the social APIs by result.",
	}, []string{"worker", "result"})
	relationSize := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ganhesocial_worker_relation_set_size",
		Help:    "Relation set sizes returned by upstream fetches.",
		Buckets: []float64{0, 10, 50, 100, 500, 1000, 5000, 12000},
	}, []string{"worker"})
	creditsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ganhesocial_worker_credits_total",
		Help: "Payouts credited after successful verification.",
	}, []string{"worker"})

	registerer.MustRegister(
		cycleRuns,
		cycleDuration,
		cycleErrors,
		entriesFetched,
		entryOutcomes,
		upstreamCalls,
		relationSize,
		creditsTotal,
	)

	return &WorkerMetrics{
		cycleRuns:      cycleRuns,
		cycleDuration:  cycleDuration,
		cycleErrors:    cycleErrors,
		entriesFetched: entriesFetched,
		entryOutcomes:  entryOutcomes,
		upstreamCalls:  upstreamCalls,
		relationSize:   relationSize,
		creditsTotal:   creditsTotal,
	}
}

// IncCycleRun increments the cycle counter for a worker.
func (m *WorkerMetrics) IncCycleRun(worker string) {
	if m == nil || m.cycleRuns == nil {
		return
	}
	m.cycleRuns.WithLabelValues(worker).Inc()
}

// ObserveCycleDuration records one cycle's latency in seconds.
func (m *WorkerMetrics) ObserveCycleDuration(worker string, duration time.Duration) {
	if m == nil || m.cycleDuration == nil {
		return
	}
	m.cycleDuration.WithLabelValues(worker).Observe(duration.Seconds())
}

// IncCycleError increments the cycle error counter with classification.
func (m *WorkerMetrics) IncCycleError(worker string, err error) {
	if m == nil || m.cycleErrors == nil || err == nil {
		return
	}
	m.cycleErrors.WithLabelValues(worker, classifyWorkerError(err)).Inc()
}

// AddEntriesFetched adds the batch size pulled this cycle.
func (m *WorkerMetrics) AddEntriesFetched(worker string, count int) {
	if m == nil || m.entriesFetched == nil || count <= 0 {
		return
	}
	m.entriesFetched.WithLabelValues(worker).Add(float64(count))
}

// IncEntryOutcome increments the outcome counter for one entry decision.
func (m *WorkerMetrics) IncEntryOutcome(worker, outcome string) {
	if m == nil || m.entryOutcomes == nil {
		return
	}
	m.entryOutcomes.WithLabelValues(worker, outcome).Inc()
}

// IncUpstreamFetch counts one relation fetch by result.
func (m *WorkerMetrics) IncUpstreamFetch(worker, result string) {
	if m == nil || m.upstreamCalls == nil {
		return
	}
	m.upstreamCalls.WithLabelValues(worker, result).Inc()
}

// ObserveRelationSetSize records the size of a fetched relation set.
func (m *WorkerMetrics) ObserveRelationSetSize(worker string, size int) {
	if m == nil || m.relationSize == nil {
		return
	}
	m.relationSize.WithLabelValues(worker).Observe(float64(size))
}

// IncCredit counts one successful payout.
func (m *WorkerMetrics) IncCredit(worker string) {
	if m == nil || m.creditsTotal == nil {
		return
	}
	m.creditsTotal.WithLabelValues(worker).Inc()
}

func classifyWorkerError(err error) string {
	if err == nil {
		return WorkerErrorTypeUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return WorkerErrorTypeDeadlineExceeded
	}
	if isDBError(err) {
		return WorkerErrorTypeDB
	}
	return WorkerErrorTypeUpstream
}

func isDBError(err error) bool {
	return errors.Is(err, gorm.ErrInvalidDB) ||
		errors.Is(err, gorm.ErrInvalidTransaction) ||
		errors.Is(err, gorm.ErrMissingWhereClause) ||
		errors.Is(err, gorm.ErrDuplicatedKey)
}
