package sweep

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialkyc/internal/platform/metrics"
	"socialkyc/internal/session/models"
	"socialkyc/internal/session/store"
	id "socialkyc/pkg/domain"
)

func TestRunOnceIntegration(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	sessions := store.NewSessionStore(time.Hour, clock)
	secrets := store.NewSecretStore(5*time.Minute, store.WithClock(clock))

	expired := models.Session{ID: id.NewSessionID()}
	require.NoError(t, sessions.Create(ctx, expired))
	_, err := secrets.Issue(ctx, expired.ID)
	require.NoError(t, err)

	now = now.Add(30 * time.Minute)
	fresh := models.Session{ID: id.NewSessionID()}
	require.NoError(t, sessions.Create(ctx, fresh))
	_, err = secrets.Issue(ctx, fresh.ID)
	require.NoError(t, err)

	now = now.Add(31 * time.Minute)

	m := metrics.New(prometheus.NewRegistry())
	sweeper, err := New(sessions, secrets, WithClock(clock), WithMetrics(m))
	require.NoError(t, err)

	res, err := sweeper.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.DeletedSessions)
	assert.Equal(t, 2, res.DeletedSecrets)

	_, err = sessions.Find(ctx, fresh.ID)
	assert.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreEntries.WithLabelValues("sessions")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.StoreEntries.WithLabelValues("secrets")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SweptEntries.WithLabelValues("secrets")))
}

type failingSessions struct{}

func (failingSessions) DeleteExpiredSessions(context.Context, time.Time) (int, error) {
	return 0, errors.New("boom")
}
func (failingSessions) Len() int { return 0 }

func TestRunOnceContinuesAfterFailure(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	secrets := store.NewSecretStore(time.Minute, store.WithClock(func() time.Time { return now }))
	_, err := secrets.Issue(ctx, id.NewSessionID())
	require.NoError(t, err)
	now = now.Add(2 * time.Minute)

	sweeper, err := New(failingSessions{}, secrets, WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	res, err := sweeper.RunOnce(ctx)
	require.ErrorContains(t, err, "delete expired sessions: boom")
	assert.Equal(t, 1, res.DeletedSecrets)
}

func TestNewRequiresStores(t *testing.T) {
	_, err := New(nil, store.NewSecretStore(time.Minute))
	assert.Error(t, err)
}

func TestStartStopsOnCancel(t *testing.T) {
	sweeper, err := New(store.NewSessionStore(time.Hour, nil), store.NewSecretStore(time.Minute),
		WithInterval(5*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, sweeper.Start(ctx), context.DeadlineExceeded)
}
