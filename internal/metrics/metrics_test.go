package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveRecommendation(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveRecommendation("exact", "", time.Millisecond)
	m.ObserveRecommendation("relaxed", "sugars", time.Millisecond)
	m.ObserveRecommendation("relaxed", "sugars", time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.recommendations.WithLabelValues("exact")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.recommendations.WithLabelValues("relaxed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.relaxations.WithLabelValues("sugars")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.relaxations.WithLabelValues("caffeine")))
}

func TestObserveInvalidLevelAndCatalogSize(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveInvalidLevel("protein")
	m.SetCatalogSize(242)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.invalidLevels.WithLabelValues("protein")))
	assert.Equal(t, 242.0, testutil.ToFloat64(m.catalogSize))
}

func TestNewWithSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
