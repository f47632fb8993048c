package search

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeValid   = "valid"
	outcomeInvalid = "invalid"
	outcomeFailed  = "failed"
)

// Metrics holds the search instrumentation. A nil *Metrics records nothing.
type Metrics struct {
	Fits        *prometheus.CounterVec
	Valid       prometheus.Gauge // Valid candidates in the last run
	FitDuration prometheus.Histogram
}

// NewMetrics creates the search metrics and registers them with reg when
// reg is not nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Fits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goarimax_search_fits_total",
				Help: "Total number of candidate fits by outcome",
			},
			[]string{"outcome"},
		),
		Valid: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "goarimax_search_valid_candidates",
				Help: "Number of candidates in the last search that passed every residual test",
			},
		),
		FitDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "goarimax_search_fit_duration_seconds",
				Help:    "Duration of a single candidate fit in seconds",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
		),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{m.Fits, m.Valid, m.FitDuration} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Metrics) observeFit(d time.Duration) {
	if m == nil {
		return
	}
	m.FitDuration.Observe(d.Seconds())
}

func (m *Metrics) countOutcome(outcome string) {
	if m == nil {
		return
	}
	m.Fits.WithLabelValues(outcome).Inc()
}

func (m *Metrics) setValid(n int) {
	if m == nil {
		return
	}
	m.Valid.Set(float64(n))
}
