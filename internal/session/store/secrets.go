package store

import (
	"context"
	"time"

	id "socialkyc/pkg/domain"
	dErrors "socialkyc/pkg/domain-errors"
	"socialkyc/pkg/platform/expiring"
	"socialkyc/pkg/secrets"
)

const (
	secretDigits = 20
	issueRetries = 3
)

// ErrSecretNotFound is returned for unknown, expired and already used secrets.
var ErrSecretNotFound = dErrors.New(dErrors.CodeNotFound, "secret not found")

// SecretStore links single-use numeric secrets to the session that requested them.
type SecretStore struct {
	entries  *expiring.Store[string, id.SessionID]
	generate func(n int) (string, error)
}

// SecretOption configures a SecretStore.
type SecretOption func(*SecretStore)

// WithClock overrides the clock used for secret expiry.
func WithClock(now func() time.Time) SecretOption {
	return func(s *SecretStore) {
		s.entries = expiring.New(s.entries.TTL(), expiring.WithClock[string, id.SessionID](now))
	}
}

// WithGenerator overrides how secrets are drawn.
func WithGenerator(generate func(n int) (string, error)) SecretOption {
	return func(s *SecretStore) {
		if generate != nil {
			s.generate = generate
		}
	}
}

// NewSecretStore constructs an empty store whose secrets live for ttl.
func NewSecretStore(ttl time.Duration, opts ...SecretOption) *SecretStore {
	s := &SecretStore{
		entries:  expiring.New[string, id.SessionID](ttl),
		generate: secrets.Numeric,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue binds a fresh secret to sessionID. Secrets are never renewed.
func (s *SecretStore) Issue(_ context.Context, sessionID id.SessionID) (string, error) {
	for range issueRetries {
		secret, err := s.generate(secretDigits)
		if err != nil {
			return "", err
		}
		if s.entries.SetIfAbsent(secret, sessionID) {
			return secret, nil
		}
	}
	return "", dErrors.New(dErrors.CodeInternal, "could not draw a unique secret")
}

// Resolve returns the session bound to secret and deletes the secret in the
// same step, whether or not the caller goes on to succeed.
func (s *SecretStore) Resolve(_ context.Context, secret string) (id.SessionID, error) {
	sessionID, ok := s.entries.Take(secret)
	if !ok {
		return id.SessionID{}, ErrSecretNotFound
	}
	return sessionID, nil
}

// DeleteExpiredSecrets removes secrets past their TTL as of now.
func (s *SecretStore) DeleteExpiredSecrets(ctx context.Context, now time.Time) (int, error) {
	return s.entries.DeleteExpired(ctx, now)
}

// Len counts stored secrets, including expired ones not yet swept.
func (s *SecretStore) Len() int {
	return s.entries.Len()
}
