// Package sessiontest wires a real session Manager over in-memory stores for
// tests of packages built on top of sessions.
package sessiontest

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"socialkyc/internal/session/models"
	"socialkyc/internal/session/service"
	"socialkyc/internal/session/store"
	id "socialkyc/pkg/domain"
)

// Clock is a manually advanced clock safe for concurrent use.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Harness holds a Manager and the stores behind it.
type Harness struct {
	t        testing.TB
	Clock    *Clock
	Sessions *store.SessionStore
	Secrets  *store.SecretStore
	Manager  *service.Manager
}

// New builds a harness with a one hour session TTL and five minute secrets.
// DID confirmation is not wired; use Add with a builder-made session instead.
func New(t testing.TB) *Harness {
	t.Helper()
	clock := NewClock(time.Now())
	sessions := store.NewSessionStore(time.Hour, clock.Now)
	secrets := store.NewSecretStore(5*time.Minute, store.WithClock(clock.Now))
	return &Harness{
		t:        t,
		Clock:    clock,
		Sessions: sessions,
		Secrets:  secrets,
		Manager: service.New(sessions, secrets, nil, nil,
			service.WithLogger(Logger()),
			service.WithClock(clock.Now),
		),
	}
}

// Add stores session as is.
func (h *Harness) Add(session models.Session) models.Session {
	h.t.Helper()
	require.NoError(h.t, h.Sessions.Create(context.Background(), session))
	return session
}

// Get returns the stored session, failing the test if it is missing.
func (h *Harness) Get(sessionID id.SessionID) models.Session {
	h.t.Helper()
	session, err := h.Sessions.Find(context.Background(), sessionID)
	require.NoError(h.t, err)
	return session
}

// Logger discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
