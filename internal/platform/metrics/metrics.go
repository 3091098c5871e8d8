package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result label values.
const (
	ResultSuccess  = "success"
	ResultFailure  = "failure"
	ResultRejected = "rejected"
)

// Metrics holds the domain Prometheus metrics.
type Metrics struct {
	SessionsStarted       prometheus.Counter
	DIDConfirmations      *prometheus.CounterVec
	SecretsIssued         prometheus.Counter
	SecretsResolved       *prometheus.CounterVec
	ProviderConfirmations *prometheus.CounterVec
	AttestationRequests   *prometheus.CounterVec
	Attestations          *prometheus.CounterVec
	AttestationLatency    prometheus.Histogram
	// Store sizes, sampled by the sweeper
	StoreEntries *prometheus.GaugeVec
	SweptEntries *prometheus.CounterVec
	// Attestation counts per cType as last reconciled from the indexer
	ReconciledAttestations *prometheus.GaugeVec
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SessionsStarted: f.NewCounter(prometheus.CounterOpts{
			Name: "socialkyc_sessions_started_total",
			Help: "Total number of sessions started",
		}),
		DIDConfirmations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "socialkyc_did_confirmations_total",
			Help: "DID challenge confirmations, labeled by result",
		}, []string{"result"}),
		SecretsIssued: f.NewCounter(prometheus.CounterOpts{
			Name: "socialkyc_secrets_issued_total",
			Help: "Total number of link secrets issued",
		}),
		SecretsResolved: f.NewCounterVec(prometheus.CounterOpts{
			Name: "socialkyc_secrets_resolved_total",
			Help: "Link secret resolutions, labeled by result",
		}, []string{"result"}),
		ProviderConfirmations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "socialkyc_provider_confirmations_total",
			Help: "Provider confirmations, labeled by provider and result",
		}, []string{"provider", "result"}),
		AttestationRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "socialkyc_attestation_requests_total",
			Help: "Request-attestation messages, labeled by result",
		}, []string{"result"}),
		Attestations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "socialkyc_attestations_total",
			Help: "Attestation submissions, labeled by result",
		}, []string{"result"}),
		AttestationLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "socialkyc_attestation_latency_seconds",
			Help:    "Duration of attestation submissions in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}),
		StoreEntries: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "socialkyc_store_entries",
			Help: "Entries held by the process-local stores, labeled by store",
		}, []string{"store"}),
		SweptEntries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "socialkyc_store_swept_entries_total",
			Help: "Expired entries removed by the sweeper, labeled by store",
		}, []string{"store"}),
		ReconciledAttestations: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "socialkyc_reconciled_attestations",
			Help: "Attestations per cType as last counted by the indexer",
		}, []string{"ctype"}),
	}
}

// Result maps an error to the success/failure label.
func Result(err error) string {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}

// ObserveAttestation records one finished attestation submission.
func (m *Metrics) ObserveAttestation(started time.Time, err error) {
	if m == nil {
		return
	}
	m.Attestations.WithLabelValues(Result(err)).Inc()
	m.AttestationLatency.Observe(time.Since(started).Seconds())
}

// ObserveProviderConfirmation records one provider confirmation attempt.
func (m *Metrics) ObserveProviderConfirmation(provider string, err error) {
	if m == nil {
		return
	}
	m.ProviderConfirmations.WithLabelValues(provider, Result(err)).Inc()
}
