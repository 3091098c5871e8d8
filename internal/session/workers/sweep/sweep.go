// Package sweep evicts expired sessions and link secrets in the background
// so memory does not depend on entries being read again.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"socialkyc/internal/platform/metrics"
)

// SessionStore exposes cleanup for expired sessions.
type SessionStore interface {
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error)
	Len() int
}

// SecretStore exposes cleanup for expired link secrets.
type SecretStore interface {
	DeleteExpiredSecrets(ctx context.Context, now time.Time) (int, error)
	Len() int
}

// Result summarizes one sweep.
type Result struct {
	DeletedSessions int
	DeletedSecrets  int
}

// Sweeper periodically removes expired entries.
type Sweeper struct {
	sessions SessionStore
	secrets  SecretStore
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Sweeper)

// WithInterval overrides the sweep interval when greater than zero.
func WithInterval(interval time.Duration) Option {
	return func(s *Sweeper) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Sweeper) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Sweeper) {
		s.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Sweeper over both stores.
func New(sessions SessionStore, secrets SecretStore, opts ...Option) (*Sweeper, error) {
	if sessions == nil || secrets == nil {
		return nil, fmt.Errorf("sessions and secrets stores are required")
	}
	s := &Sweeper{
		sessions: sessions,
		secrets:  secrets,
		interval: time.Minute,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Start sweeps periodically until ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.logger.ErrorContext(ctx, "store sweep failed", "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RunOnce removes every expired session and secret and samples the store sizes.
// Failures of one store do not stop the other from being swept.
func (s *Sweeper) RunOnce(ctx context.Context) (Result, error) {
	now := s.now()
	var res Result
	var errs []error

	deletedSessions, err := s.sessions.DeleteExpiredSessions(ctx, now)
	if err != nil {
		errs = append(errs, fmt.Errorf("delete expired sessions: %w", err))
	} else {
		res.DeletedSessions = deletedSessions
	}

	deletedSecrets, err := s.secrets.DeleteExpiredSecrets(ctx, now)
	if err != nil {
		errs = append(errs, fmt.Errorf("delete expired secrets: %w", err))
	} else {
		res.DeletedSecrets = deletedSecrets
	}

	if s.metrics != nil {
		s.metrics.SweptEntries.WithLabelValues("sessions").Add(float64(res.DeletedSessions))
		s.metrics.SweptEntries.WithLabelValues("secrets").Add(float64(res.DeletedSecrets))
		s.metrics.StoreEntries.WithLabelValues("sessions").Set(float64(s.sessions.Len()))
		s.metrics.StoreEntries.WithLabelValues("secrets").Set(float64(s.secrets.Len()))
	}
	if res.DeletedSessions > 0 || res.DeletedSecrets > 0 {
		s.logger.DebugContext(ctx, "store sweep",
			"deleted_sessions", res.DeletedSessions,
			"deleted_secrets", res.DeletedSecrets,
		)
	}

	if len(errs) > 0 {
		return res, errors.Join(errs...)
	}
	return res, nil
}
