// Package metrics exposes recommendation counters to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	recommendations *prometheus.CounterVec
	relaxations     *prometheus.CounterVec
	invalidLevels   *prometheus.CounterVec
	duration        prometheus.Histogram
	catalogSize     prometheus.Gauge
}

// New registers the collectors with reg. Passing nil uses the default
// registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		recommendations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "drinkrec_recommendations_total",
			Help: "Recommendation requests by outcome",
		}, []string{"outcome"}),
		relaxations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "drinkrec_relaxations_total",
			Help: "Constraints dropped to recover a non-empty result",
		}, []string{"attribute"}),
		invalidLevels: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "drinkrec_invalid_levels_total",
			Help: "Rejected preference levels by attribute",
		}, []string{"attribute"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "drinkrec_recommend_duration_seconds",
			Help:    "Time spent filtering the catalogue",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		catalogSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "drinkrec_catalog_drinks",
			Help: "Drinks currently loaded",
		}),
	}
}

// ObserveRecommendation records one finished request. dropped is empty
// unless a constraint was relaxed.
func (m *Metrics) ObserveRecommendation(outcome, dropped string, elapsed time.Duration) {
	m.recommendations.WithLabelValues(outcome).Inc()
	if dropped != "" {
		m.relaxations.WithLabelValues(dropped).Inc()
	}
	m.duration.Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveInvalidLevel(attribute string) {
	m.invalidLevels.WithLabelValues(attribute).Inc()
}

func (m *Metrics) SetCatalogSize(n int) {
	m.catalogSize.Set(float64(n))
}
