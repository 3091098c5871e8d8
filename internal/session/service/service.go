package service

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"time"

	"socialkyc/internal/chain"
	"socialkyc/internal/platform/metrics"
	"socialkyc/internal/session/models"
	id "socialkyc/pkg/domain"
	dErrors "socialkyc/pkg/domain-errors"
	"socialkyc/pkg/platform/sync"
	"socialkyc/pkg/secrets"
)

const (
	challengeBytes    = 24
	defaultDIDMaxAge  = time.Hour
	msgSessionMissing = "session not found"
)

// DIDProof is a wallet's answer to the session's DID challenge.
type DIDProof struct {
	EncryptionKeyURI   string
	EncryptedChallenge string
	Nonce              string
}

// Manager owns the session lifecycle. Mutations of one session id are
// serialized; reads see the last saved state.
type Manager struct {
	sessions  SessionStore
	secrets   SecretLinker
	resolver  chain.DIDResolver
	decrypter chain.ChallengeDecrypter
	locks     *sync.ShardedMutex
	didMaxAge time.Duration
	now       func() time.Time
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type Option func(*Manager)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) {
		m.metrics = mt
	}
}

// WithDIDMaxAge bounds how long a DID confirmation stays valid.
// Zero or negative keeps confirmations valid for the session lifetime.
func WithDIDMaxAge(d time.Duration) Option {
	return func(m *Manager) {
		m.didMaxAge = d
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

func New(
	sessions SessionStore,
	secretLinker SecretLinker,
	resolver chain.DIDResolver,
	decrypter chain.ChallengeDecrypter,
	opts ...Option,
) *Manager {
	m := &Manager{
		sessions:  sessions,
		secrets:   secretLinker,
		resolver:  resolver,
		decrypter: decrypter,
		locks:     sync.NewShardedMutex(),
		didMaxAge: defaultDIDMaxAge,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// Start creates a session with a fresh DID challenge.
func (m *Manager) Start(ctx context.Context, deviceName string) (*models.Session, error) {
	challenge, err := secrets.Nonce(challengeBytes)
	if err != nil {
		return nil, err
	}
	session := models.Session{
		ID:           id.NewSessionID(),
		CreatedAt:    m.now(),
		DeviceName:   deviceName,
		DIDChallenge: challenge,
	}
	if err := m.sessions.Create(ctx, session); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create session")
	}
	if m.metrics != nil {
		m.metrics.SessionsStarted.Inc()
	}
	m.logger.InfoContext(ctx, "session started", "session", session.ID.LogValue(), "device", deviceName)
	return &session, nil
}

// GetBasic returns the session. Unknown and expired sessions are reported
// identically so callers learn nothing about TTL timing.
func (m *Manager) GetBasic(ctx context.Context, sessionID id.SessionID) (*models.Session, error) {
	session, err := m.sessions.Find(ctx, sessionID)
	if err != nil {
		return nil, forbiddenSession(err)
	}
	return &session, nil
}

// GetWithDID is GetBasic for operations that read the DID.
func (m *Manager) GetWithDID(ctx context.Context, sessionID id.SessionID) (*models.Session, error) {
	session, err := m.GetBasic(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := m.checkDID(session); err != nil {
		return nil, err
	}
	return session, nil
}

// RequireDID reports Forbidden unless the session holds a confirmed DID that
// is not older than the configured maximum age.
func (m *Manager) RequireDID(session *models.Session) error {
	return m.checkDID(session)
}

func (m *Manager) checkDID(session *models.Session) error {
	if !session.DIDConfirmed {
		return dErrors.New(dErrors.CodeForbidden, "unconfirmed DID")
	}
	if session.DIDStale(m.now(), m.didMaxAge) {
		return dErrors.New(dErrors.CodeForbidden, "stale DID confirmation")
	}
	return nil
}

// ConfirmDID checks the wallet's decryption of the session challenge and
// binds the session to the wallet's DID. The challenge is consumed on success.
func (m *Manager) ConfirmDID(ctx context.Context, sessionID id.SessionID, proof DIDProof) (err error) {
	defer func() {
		if m.metrics != nil {
			m.metrics.DIDConfirmations.WithLabelValues(metrics.Result(err)).Inc()
		}
	}()

	if _, err := m.GetBasic(ctx, sessionID); err != nil {
		return err
	}

	key, err := m.resolver.ResolveEncryptionKey(ctx, proof.EncryptionKeyURI)
	if err != nil {
		m.logger.WarnContext(ctx, "encryption key resolution failed", "session", sessionID.LogValue(), "error", err)
		return dErrors.New(dErrors.CodeForbidden, "could not resolve encryption key")
	}
	decrypted, err := m.decrypter.DecryptChallenge(ctx, key, proof.EncryptedChallenge, proof.Nonce)
	if err != nil {
		m.logger.WarnContext(ctx, "challenge decryption failed", "session", sessionID.LogValue(), "error", err)
		return dErrors.New(dErrors.CodeForbidden, "could not decrypt challenge")
	}

	_, err = m.Update(ctx, sessionID, func(s *models.Session) error {
		if s.DIDChallenge == "" || subtle.ConstantTimeCompare([]byte(s.DIDChallenge), []byte(decrypted)) != 1 {
			return dErrors.New(dErrors.CodeForbidden, "challenge mismatch")
		}
		s.DID = key.DID
		s.DIDConfirmed = true
		s.DIDConfirmedAt = m.now()
		s.EncryptionKeyURI = key.URI
		s.DIDChallenge = ""
		return nil
	})
	if err != nil {
		return err
	}
	m.logger.InfoContext(ctx, "DID confirmed", "session", sessionID.LogValue(), "did", key.DID)
	return nil
}

// Update applies fn to the session under its lock and saves the result.
// Nothing is saved when fn returns an error.
func (m *Manager) Update(ctx context.Context, sessionID id.SessionID, fn func(*models.Session) error) (*models.Session, error) {
	key := sessionID.String()
	m.locks.Lock(key)
	defer m.locks.Unlock(key)

	session, err := m.sessions.Find(ctx, sessionID)
	if err != nil {
		return nil, forbiddenSession(err)
	}
	if err := fn(&session); err != nil {
		return nil, err
	}
	if err := m.sessions.Save(ctx, session); err != nil {
		return nil, forbiddenSession(err)
	}
	return &session, nil
}

// Merge moves the claim state of the linked session into the current one.
func (m *Manager) Merge(ctx context.Context, currentID, linkedID id.SessionID) (*models.Session, error) {
	return m.mergeWith(ctx, currentID, linkedID, nil)
}

// ConfirmAndMerge records a confirmed claim on the linked session and moves it
// into the current session in one step, so no caller observes the linked
// session confirmed but not yet merged.
func (m *Manager) ConfirmAndMerge(ctx context.Context, currentID, linkedID id.SessionID, claim *chain.Claim) (*models.Session, error) {
	if claim == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "claim is required")
	}
	return m.mergeWith(ctx, currentID, linkedID, func(linked *models.Session) {
		linked.Claim = claim
		linked.Confirmed = true
		linked.LastAttestationError = ""
	})
}

func (m *Manager) mergeWith(ctx context.Context, currentID, linkedID id.SessionID, prepare func(*models.Session)) (*models.Session, error) {
	if currentID == linkedID {
		return m.Update(ctx, currentID, func(s *models.Session) error {
			if prepare != nil {
				prepare(s)
			}
			return nil
		})
	}

	a, b := currentID.String(), linkedID.String()
	m.locks.LockPair(a, b)
	defer m.locks.UnlockPair(a, b)

	current, err := m.sessions.Find(ctx, currentID)
	if err != nil {
		return nil, forbiddenSession(err)
	}
	linked, err := m.sessions.Find(ctx, linkedID)
	if err != nil {
		return nil, forbiddenSession(err)
	}

	if prepare != nil {
		prepare(&linked)
	}
	linked.MoveClaimTo(&current)

	if err := m.sessions.Save(ctx, linked); err != nil {
		return nil, forbiddenSession(err)
	}
	if err := m.sessions.Save(ctx, current); err != nil {
		return nil, forbiddenSession(err)
	}
	m.logger.InfoContext(ctx, "sessions merged", "current", currentID.LogValue(), "linked", linkedID.LogValue())
	return &current, nil
}

// IssueSecret binds a new link secret to an existing session.
func (m *Manager) IssueSecret(ctx context.Context, sessionID id.SessionID) (string, error) {
	if _, err := m.GetBasic(ctx, sessionID); err != nil {
		return "", err
	}
	secret, err := m.secrets.Issue(ctx, sessionID)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue secret")
	}
	if m.metrics != nil {
		m.metrics.SecretsIssued.Inc()
	}
	return secret, nil
}

// ResolveSecret consumes secret and returns the session it was issued to.
// An unknown secret and a session that expired since are both CodeNotFound.
func (m *Manager) ResolveSecret(ctx context.Context, secret string) (s *models.Session, err error) {
	defer func() {
		if m.metrics != nil {
			m.metrics.SecretsResolved.WithLabelValues(metrics.Result(err)).Inc()
		}
	}()

	sessionID, err := m.secrets.Resolve(ctx, secret)
	if err != nil {
		return nil, err
	}
	session, err := m.sessions.Find(ctx, sessionID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "secret not found")
	}
	return &session, nil
}

func forbiddenSession(err error) error {
	if dErrors.HasCode(err, dErrors.CodeNotFound) {
		return dErrors.New(dErrors.CodeForbidden, msgSessionMissing)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "session store failure")
}
