package metrics

import (
	"time"

	"github.com/fortressi/saga"
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder exports saga lifecycle metrics to Prometheus.
type Recorder struct {
	runs          *prometheus.CounterVec
	runDuration   prometheus.Histogram
	stepDuration  *prometheus.HistogramVec
	stepFailures  *prometheus.CounterVec
	compensations *prometheus.CounterVec
}

// New creates a Recorder and registers its collectors with reg.
func New(reg prometheus.Registerer, namespace string) (*Recorder, error) {
	r := &Recorder{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "saga_runs_total",
				Help:      "Total number of finished saga runs by outcome.",
			},
			[]string{"outcome"},
		),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "saga_run_duration_seconds",
			Help:      "Wall-clock duration of saga runs in seconds.",
			Buckets:   prometheus.DefBuckets,
		}),
		stepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "saga_step_duration_seconds",
				Help:      "Duration of step calls in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"step", "phase"},
		),
		stepFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "saga_step_failures_total",
				Help:      "Total number of failed step calls.",
			},
			[]string{"step", "phase"},
		),
		compensations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "saga_compensations_total",
				Help:      "Total number of compensation attempts by result.",
			},
			[]string{"step", "result"},
		),
	}

	for _, c := range []prometheus.Collector{r.runs, r.runDuration, r.stepDuration, r.stepFailures, r.compensations} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Hooks returns saga hooks that feed this recorder.
func (r *Recorder) Hooks() *saga.Hooks {
	return &saga.Hooks{
		OnSagaComplete: func(_ saga.SagaID, d time.Duration) {
			r.runs.WithLabelValues(string(saga.StatusSucceeded)).Inc()
			r.runDuration.Observe(d.Seconds())
		},
		OnSagaFailed: func(_ saga.SagaID, _ *saga.SagaExecutionError, d time.Duration) {
			r.runs.WithLabelValues(string(saga.StatusCompensatedFailure)).Inc()
			r.runDuration.Observe(d.Seconds())
		},
		OnStepComplete: func(name saga.StepName, d time.Duration) {
			r.stepDuration.WithLabelValues(string(name), string(saga.PhaseExecute)).Observe(d.Seconds())
		},
		OnStepFailed: func(name saga.StepName, _ error, d time.Duration) {
			r.stepDuration.WithLabelValues(string(name), string(saga.PhaseExecute)).Observe(d.Seconds())
			r.stepFailures.WithLabelValues(string(name), string(saga.PhaseExecute)).Inc()
		},
		OnCompensationComplete: func(name saga.StepName, d time.Duration) {
			r.stepDuration.WithLabelValues(string(name), string(saga.PhaseCompensate)).Observe(d.Seconds())
			r.compensations.WithLabelValues(string(name), "ok").Inc()
		},
		OnCompensationFailed: func(name saga.StepName, _ error, d time.Duration) {
			r.stepDuration.WithLabelValues(string(name), string(saga.PhaseCompensate)).Observe(d.Seconds())
			r.stepFailures.WithLabelValues(string(name), string(saga.PhaseCompensate)).Inc()
			r.compensations.WithLabelValues(string(name), "error").Inc()
		},
	}
}
