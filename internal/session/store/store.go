// Package store keeps sessions and link secrets in process-local expiring maps.
package store

import (
	"context"
	"time"

	"socialkyc/internal/session/models"
	id "socialkyc/pkg/domain"
	dErrors "socialkyc/pkg/domain-errors"
	"socialkyc/pkg/platform/expiring"
)

// ErrSessionNotFound is returned for unknown and expired sessions alike.
var ErrSessionNotFound = dErrors.New(dErrors.CodeNotFound, "session not found")

// SessionStore holds sessions for a fixed TTL from creation. Saving a session
// keeps its original deadline.
type SessionStore struct {
	entries *expiring.Store[id.SessionID, models.Session]
}

// NewSessionStore constructs an empty store. now may be nil.
func NewSessionStore(ttl time.Duration, now func() time.Time) *SessionStore {
	return &SessionStore{
		entries: expiring.New(ttl, expiring.WithClock[id.SessionID, models.Session](now)),
	}
}

func (s *SessionStore) Create(_ context.Context, session models.Session) error {
	if !s.entries.SetIfAbsent(session.ID, session) {
		return dErrors.New(dErrors.CodeConflict, "session already exists")
	}
	return nil
}

func (s *SessionStore) Find(_ context.Context, sessionID id.SessionID) (models.Session, error) {
	session, ok := s.entries.Get(sessionID)
	if !ok {
		return models.Session{}, ErrSessionNotFound
	}
	return session, nil
}

func (s *SessionStore) Save(_ context.Context, session models.Session) error {
	if !s.entries.Replace(session.ID, session) {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteExpiredSessions removes sessions past their TTL as of now.
func (s *SessionStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	return s.entries.DeleteExpired(ctx, now)
}

// Len counts stored sessions, including expired ones not yet swept.
func (s *SessionStore) Len() int {
	return s.entries.Len()
}
