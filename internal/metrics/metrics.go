package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels analyses that produced a noise wall.
	OutcomeSuccess = "success"
	// OutcomeExcluded labels recordings rejected by a data-quality check.
	OutcomeExcluded = "excluded"
	// OutcomeError labels analyses that failed outright.
	OutcomeError = "error"
)

var (
	analysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "noisewall",
			Name:      "analyses_total",
			Help:      "Total number of recordings analysed, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	exclusionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "noisewall",
			Name:      "exclusions_total",
			Help:      "Recordings excluded from scoring, partitioned by reason.",
		},
		[]string{"reason"},
	)

	analysisDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "noisewall",
			Name:      "analysis_seconds",
			Help:      "Per-recording analysis latency in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 8, 10},
		},
	)
)

// Register attaches noisewall collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		analysesTotal,
		exclusionsTotal,
		analysisDurationSeconds,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveAnalysis records one analysis duration and its outcome label.
func ObserveAnalysis(duration time.Duration, outcome string) {
	label := outcome
	switch label {
	case OutcomeSuccess, OutcomeExcluded, OutcomeError:
	default:
		label = OutcomeError
	}
	analysesTotal.WithLabelValues(label).Inc()
	if duration < 0 {
		duration = 0
	}
	analysisDurationSeconds.Observe(duration.Seconds())
}

// ObserveExclusion counts one excluded recording by reason.
func ObserveExclusion(reason string) {
	exclusionsTotal.WithLabelValues(reason).Inc()
}
