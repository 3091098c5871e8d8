package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"socialkyc/internal/chain"
	"socialkyc/internal/platform/metrics"
	"socialkyc/pkg/platform/tracer"
)

const cTypeIDPrefix = "kilt:ctype:"

// AttestationNode is one attestation as listed by the indexer.
type AttestationNode struct {
	ClaimHash string `json:"claimHash"`
	CTypeID   string `json:"cTypeId"`
	CreatedAt string `json:"createdAt"`
}

// CTypeHash strips the cType id prefix.
func (n AttestationNode) CTypeHash() string {
	return strings.TrimPrefix(n.CTypeID, cTypeIDPrefix)
}

// AttestationsQuery renders the page query for attestations issued by attester.
func AttestationsQuery(attester chain.DID, pageSize int) func(offset int) string {
	return func(offset int) string {
		return fmt.Sprintf(`query {
  attestations(
    orderBy: CREATED_AT_ASC
    filter: { creatorId: { equalTo: %q } }
    first: %d
    offset: %d
  ) {
    totalCount
    nodes { claimHash cTypeId createdAt }
  }
}`, string(attester), pageSize, offset)
	}
}

// Reconciler recounts the attestations of the service's attester DID and
// replaces the cached counters with the result.
type Reconciler struct {
	fetcher   Fetcher
	attester  chain.DID
	counters  *Counters
	pageSize  int
	pageDelay time.Duration
	interval  time.Duration
	group     singleflight.Group
	tracer    tracer.Tracer
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type ReconcilerOption func(*Reconciler)

func WithReconcilePageSize(n int) ReconcilerOption {
	return func(r *Reconciler) {
		if n > 0 {
			r.pageSize = n
		}
	}
}

func WithReconcilePageDelay(d time.Duration) ReconcilerOption {
	return func(r *Reconciler) {
		if d >= 0 {
			r.pageDelay = d
		}
	}
}

// WithInterval overrides the reconcile interval when greater than zero.
func WithInterval(d time.Duration) ReconcilerOption {
	return func(r *Reconciler) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithLogger(logger *slog.Logger) ReconcilerOption {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) ReconcilerOption {
	return func(r *Reconciler) {
		r.metrics = m
	}
}

func WithReconcileTracer(t tracer.Tracer) ReconcilerOption {
	return func(r *Reconciler) {
		r.tracer = t
	}
}

func NewReconciler(fetcher Fetcher, attester chain.DID, counters *Counters, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		fetcher:   fetcher,
		attester:  attester,
		counters:  counters,
		pageSize:  defaultPageSize,
		pageDelay: defaultPageDelay,
		interval:  15 * time.Minute,
		tracer:    tracer.NewNoop(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start reconciles once immediately and then on every interval until ctx is cancelled.
func (r *Reconciler) Start(ctx context.Context) error {
	if _, err := r.RunOnce(ctx); err != nil {
		r.logger.ErrorContext(ctx, "attestation reconcile failed", "error", err)
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil {
				r.logger.ErrorContext(ctx, "attestation reconcile failed", "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RunOnce walks all attestations and replaces the counters. Concurrent calls
// share one walk. On error the counters are left untouched.
func (r *Reconciler) RunOnce(ctx context.Context) (map[string]int, error) {
	v, err, _ := r.group.Do("reconcile", func() (any, error) {
		return r.reconcile(ctx)
	})
	if err != nil {
		return nil, err
	}
	return maps.Clone(v.(map[string]int)), nil
}

func (r *Reconciler) reconcile(ctx context.Context) (counts map[string]int, err error) {
	ctx, span := r.tracer.Start(ctx, tracer.SpanIndexerReconcile)
	defer func() { span.End(err) }()

	counts = make(map[string]int)
	records := 0
	nodes := Iterate[AttestationNode](ctx, r.fetcher, AttestationsQuery(r.attester, r.pageSize),
		WithPageSize(r.pageSize),
		WithPageDelay(r.pageDelay),
	)
	for node, err := range nodes {
		if err != nil {
			return nil, fmt.Errorf("list attestations: %w", err)
		}
		counts[node.CTypeHash()]++
		records++
	}
	span.SetAttributes(tracer.Int(tracer.AttrRecords, records))

	r.counters.Replace(counts)
	if r.metrics != nil {
		r.metrics.ReconciledAttestations.Reset()
		for hash, n := range counts {
			r.metrics.ReconciledAttestations.WithLabelValues(hash).Set(float64(n))
		}
	}
	r.logger.InfoContext(ctx, "attestations reconciled", "records", records, "ctypes", len(counts))
	return counts, nil
}
