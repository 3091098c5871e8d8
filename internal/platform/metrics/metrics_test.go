package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveHelpers(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveProviderConfirmation("github", nil)
	m.ObserveProviderConfirmation("github", errors.New("upstream"))
	m.ObserveProviderConfirmation("github", errors.New("upstream"))
	m.ObserveAttestation(time.Now().Add(-time.Second), nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderConfirmations.WithLabelValues("github", ResultSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ProviderConfirmations.WithLabelValues("github", ResultFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Attestations.WithLabelValues(ResultSuccess)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.AttestationLatency))
}

func TestNilMetricsAreIgnored(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveProviderConfirmation("email", nil)
		m.ObserveAttestation(time.Now(), nil)
	})
}

func TestSeparateRegistriesDoNotCollide(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
