package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	drepo "MoneyLoop/internal/domain/repository"
)

var (
	once sync.Once

	RunLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "moneyloop",
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "Duration of loop and autopilot runs",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	RunErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "moneyloop",
			Subsystem: "pipeline",
			Name:      "run_errors_total",
			Help:      "Failed runs by mode",
		},
		[]string{"mode"},
	)

	SignalsCollected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "moneyloop",
			Subsystem: "collector",
			Name:      "signals_total",
			Help:      "Signals collected by source",
		},
		[]string{"source"},
	)

	RateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "moneyloop",
			Subsystem: "api",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter, by window scope",
		},
		[]string{"scope"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(RunLatency, RunErrors, SignalsCollected, RateLimited)
	})
}

// Recorder implements domain/repository.Metrics on the package vectors.
type Recorder struct{}

func NewRecorder() *Recorder {
	Register()
	return &Recorder{}
}

func (Recorder) RecordRun(mode string, seconds float64) {
	RunLatency.WithLabelValues(mode).Observe(seconds)
}

func (Recorder) RecordRunError(mode string) {
	RunErrors.WithLabelValues(mode).Inc()
}

func (Recorder) RecordSignals(source string, count int) {
	SignalsCollected.WithLabelValues(source).Add(float64(count))
}

func (Recorder) RecordRateLimited(scope string) {
	RateLimited.WithLabelValues(scope).Inc()
}

var _ drepo.Metrics = (*Recorder)(nil)
