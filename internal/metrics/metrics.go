// Package metrics exposes Prometheus instrumentation for settlement requests.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mmynk/settleup/internal/calculator"
)

// Metrics holds the collectors recorded for every calculation.
type Metrics struct {
	Calculations *prometheus.CounterVec
	Defects      prometheus.Counter
	Duration     *prometheus.HistogramVec
	Participants prometheus.Histogram
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Calculations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "settleup",
			Name:      "calculations_total",
			Help:      "Settlement calculations by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		Defects: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "settleup",
			Name:      "rounding_inconsistencies_total",
			Help:      "Calculations whose rounded balances failed to settle to zero.",
		}),
		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "settleup",
			Name:      "calculation_duration_seconds",
			Help:      "Time spent decoding and computing a settlement.",
			Buckets:   []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05},
		}, []string{"endpoint"}),
		Participants: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "settleup",
			Name:      "participants",
			Help:      "Number of participants in a successful settlement.",
			Buckets:   prometheus.LinearBuckets(1, 2, 10),
		}),
	}
}

// Observe records one finished calculation.
func (m *Metrics) Observe(endpoint string, start time.Time, participants int, err error) {
	m.Duration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	m.Calculations.WithLabelValues(endpoint, Outcome(err)).Inc()
	if calculator.IsDefect(err) {
		m.Defects.Inc()
	}
	if err == nil {
		m.Participants.Observe(float64(participants))
	}
}

// Outcome names the result of a calculation for metric labels.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, calculator.ErrInvalidPayer):
		return "invalid_payer"
	case errors.Is(err, calculator.ErrInvalidItem):
		return "invalid_item"
	case errors.Is(err, calculator.ErrNoOwners):
		return "no_owners"
	case errors.Is(err, calculator.ErrMalformedRequest):
		return "malformed_request"
	case errors.Is(err, calculator.ErrRoundingInconsistency):
		return "rounding_inconsistency"
	default:
		return "error"
	}
}
