// Package service drives a confirmed claim through quote, credential request
// and attestation.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"socialkyc/internal/chain"
	"socialkyc/internal/chain/ctype"
	"socialkyc/internal/platform/metrics"
	"socialkyc/internal/session/models"
	id "socialkyc/pkg/domain"
	dErrors "socialkyc/pkg/domain-errors"
	"socialkyc/pkg/platform/task"
	"socialkyc/pkg/platform/tracer"
)

// Sessions is the subset of the session manager the pipeline needs.
type Sessions interface {
	GetBasic(ctx context.Context, sessionID id.SessionID) (*models.Session, error)
	GetWithDID(ctx context.Context, sessionID id.SessionID) (*models.Session, error)
	Update(ctx context.Context, sessionID id.SessionID, fn func(*models.Session) error) (*models.Session, error)
}

// Counter tracks successful attestations per cType.
type Counter interface {
	Increment(cTypeHash string)
}

// Outcome of a request-attestation message.
type Outcome int

const (
	// OutcomeAccepted means the credential was validated and cached.
	OutcomeAccepted Outcome = iota
	// OutcomeRejected means the wallet explicitly declined the terms.
	OutcomeRejected
)

type attestationTask = task.Task[*chain.Attestation]

// Pipeline implements the claim attestation state machine on top of sessions.
type Pipeline struct {
	sessions  Sessions
	messenger chain.Messenger
	validator chain.CredentialValidator
	attester  chain.Attester
	registry  *ctype.Registry
	counter   Counter
	tracer    tracer.Tracer
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type Option func(*Pipeline)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(p *Pipeline) {
		p.tracer = t
	}
}

// WithCounter registers a counter incremented after every successful attestation.
func WithCounter(c Counter) Option {
	return func(p *Pipeline) {
		p.counter = c
	}
}

func New(
	sessions Sessions,
	messenger chain.Messenger,
	validator chain.CredentialValidator,
	attester chain.Attester,
	registry *ctype.Registry,
	opts ...Option,
) *Pipeline {
	p := &Pipeline{
		sessions:  sessions,
		messenger: messenger,
		validator: validator,
		attester:  attester,
		registry:  registry,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.tracer == nil {
		p.tracer = tracer.NewNoop()
	}
	return p
}

// Quote offers the confirmed claim to the wallet as submit-terms.
func (p *Pipeline) Quote(ctx context.Context, sessionID id.SessionID) (*chain.EncryptedMessage, error) {
	session, err := p.sessions.GetWithDID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.Confirmed || session.Claim == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "no confirmed claim")
	}

	claim := session.Claim.Clone()
	if claim.Owner == "" {
		claim.Owner = session.DID
	}
	terms := chain.SubmitTerms{
		Claim:         *claim,
		Legitimations: []chain.Credential{},
	}
	if schema, ok := p.registry.Lookup(claim.CTypeHash); ok {
		terms.CTypes = []any{schema.Schema}
	}
	return p.send(ctx, session, chain.BodySubmitTerms, terms)
}

// RequestAttestation validates the wallet's credential against the confirmed
// claim and caches it for Attest.
func (p *Pipeline) RequestAttestation(ctx context.Context, sessionID id.SessionID, envelope chain.EncryptedMessage) (outcome Outcome, err error) {
	defer func() {
		if p.metrics == nil {
			return
		}
		result := metrics.Result(err)
		if err == nil && outcome == OutcomeRejected {
			result = metrics.ResultRejected
		}
		p.metrics.AttestationRequests.WithLabelValues(result).Inc()
	}()

	session, err := p.sessions.GetWithDID(ctx, sessionID)
	if err != nil {
		return OutcomeAccepted, err
	}
	msg, err := p.open(ctx, session, envelope)
	if err != nil {
		return OutcomeAccepted, err
	}

	switch msg.Body.Type {
	case chain.BodyRejectTerms:
		p.logger.InfoContext(ctx, "terms rejected by wallet", "session", sessionID.LogValue())
		return OutcomeRejected, nil
	case chain.BodyRequestAttestation:
	default:
		return OutcomeAccepted, dErrors.New(dErrors.CodeBadRequest, "unexpected message type "+string(msg.Body.Type))
	}

	var content chain.RequestAttestation
	if err := msg.Body.DecodeContent(&content); err != nil {
		return OutcomeAccepted, dErrors.New(dErrors.CodeBadRequest, "malformed request-attestation content")
	}
	credential := content.Credential

	if err := checkClaim(session, credential); err != nil {
		return OutcomeAccepted, err
	}
	owner := ownerFor(session)
	credential.Claim.Owner = owner

	if err := p.validator.ValidateCredential(ctx, credential); err != nil {
		p.logger.WarnContext(ctx, "credential failed validation", "session", sessionID.LogValue(), "error", err)
		return OutcomeAccepted, dErrors.New(dErrors.CodeBadRequest, "invalid credential")
	}

	_, err = p.sessions.Update(ctx, sessionID, func(s *models.Session) error {
		if err := checkClaim(s, credential); err != nil {
			return err
		}
		if s.Attestation != nil {
			if s.Attestation.Status() == task.StatusRunning {
				return dErrors.New(dErrors.CodeConflict, "attestation in progress")
			}
			s.Attestation = nil
		}
		claim := s.Claim.Clone()
		claim.Owner = owner
		s.Claim = claim
		s.Credential = &credential
		s.LastAttestationError = ""
		return nil
	})
	if err != nil {
		return OutcomeAccepted, err
	}
	p.logger.InfoContext(ctx, "attestation requested", "session", sessionID.LogValue(), "ctype", credential.Claim.CTypeHash)
	return OutcomeAccepted, nil
}

// checkClaim rejects credentials for a claim other than the confirmed one.
func checkClaim(s *models.Session, credential chain.Credential) error {
	if !s.Confirmed || s.Claim == nil {
		return dErrors.New(dErrors.CodeBadRequest, "claim is not confirmed")
	}
	if credential.Claim.CTypeHash != s.Claim.CTypeHash {
		return dErrors.New(dErrors.CodeBadRequest, "credential cType does not match the confirmed claim")
	}
	return nil
}

// ownerFor is the DID the attested claim must belong to: the owner recorded
// when the claim was confirmed, else the DID of the session.
func ownerFor(s *models.Session) chain.DID {
	if s.Claim != nil && s.Claim.Owner != "" {
		return s.Claim.Owner
	}
	return s.DID
}

// Attest submits the cached credential. Concurrent calls for one session
// share a single submission, which keeps running when callers go away.
func (p *Pipeline) Attest(ctx context.Context, sessionID id.SessionID) (*chain.EncryptedMessage, error) {
	if _, err := p.sessions.GetWithDID(ctx, sessionID); err != nil {
		return nil, err
	}

	var pending *attestationTask
	session, err := p.sessions.Update(ctx, sessionID, func(s *models.Session) error {
		if s.Attestation != nil {
			pending = s.Attestation
			return nil
		}
		if s.Credential == nil {
			return dErrors.New(dErrors.CodeNotFound, "no credential to attest")
		}
		pending = p.start(ctx, sessionID, *s.Credential)
		s.Attestation = pending
		s.LastAttestationError = ""
		return nil
	})
	if err != nil {
		return nil, err
	}

	attestation, err := pending.Wait(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, dErrors.New(dErrors.CodeTimeout, "attestation is still in progress")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "attestation failed")
	}

	return p.send(ctx, session, chain.BodySubmitAttestation, chain.SubmitAttestation{Attestation: *attestation})
}

// start launches the submission detached from the caller. The task settles
// the session itself once the chain answers, also when the submission panics.
func (p *Pipeline) start(ctx context.Context, sessionID id.SessionID, credential chain.Credential) *attestationTask {
	ready := make(chan struct{})
	var t *attestationTask
	t = task.Start(context.WithoutCancel(ctx), func(ctx context.Context) (*chain.Attestation, error) {
		attestation, err := p.submit(ctx, sessionID, credential)
		<-ready
		p.settle(ctx, sessionID, t, credential, err)
		return attestation, err
	})
	close(ready)
	return t
}

func (p *Pipeline) submit(ctx context.Context, sessionID id.SessionID, credential chain.Credential) (attestation *chain.Attestation, err error) {
	started := time.Now()
	ctx, span := p.tracer.Start(ctx, tracer.SpanAttestationSubmit,
		tracer.String(tracer.AttrCType, credential.Claim.CTypeHash),
	)
	defer func() {
		if r := recover(); r != nil {
			attestation, err = nil, fmt.Errorf("attestation submission panicked: %v", r)
		}
		span.End(err)
		p.metrics.ObserveAttestation(started, err)
	}()

	p.logger.InfoContext(ctx, "attestation submitted", "session", sessionID.LogValue(), "ctype", credential.Claim.CTypeHash)
	return p.attester.Attest(ctx, credential)
}

// settle records the outcome on the session if it still holds t. A session
// that moved on (merged away or re-requested) is left alone.
func (p *Pipeline) settle(ctx context.Context, sessionID id.SessionID, t *attestationTask, credential chain.Credential, err error) {
	if err == nil && p.counter != nil {
		p.counter.Increment(credential.Claim.CTypeHash)
	}
	_, updateErr := p.sessions.Update(ctx, sessionID, func(s *models.Session) error {
		if s.Attestation != t {
			return nil
		}
		if err != nil {
			s.Attestation = nil
			s.LastAttestationError = err.Error()
			return nil
		}
		s.ClearClaim()
		return nil
	})
	if updateErr != nil {
		p.logger.WarnContext(ctx, "failed to record attestation outcome", "session", sessionID.LogValue(), "error", updateErr)
	}
	if err != nil {
		p.logger.ErrorContext(ctx, "attestation failed", "session", sessionID.LogValue(), "error", err)
		return
	}
	p.logger.InfoContext(ctx, "attestation finished", "session", sessionID.LogValue(), "ctype", credential.Claim.CTypeHash)
}

func (p *Pipeline) send(ctx context.Context, session *models.Session, t chain.BodyType, content any) (*chain.EncryptedMessage, error) {
	body, err := chain.NewBody(t, content)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode message")
	}
	envelope, err := p.messenger.Encrypt(ctx, chain.Message{Body: body}, session.EncryptionKeyURI)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to encrypt message", "session", session.ID.LogValue(), "type", t, "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encrypt message")
	}
	return envelope, nil
}

// open decrypts a wallet message and checks it comes from the session's DID.
func (p *Pipeline) open(ctx context.Context, session *models.Session, envelope chain.EncryptedMessage) (*chain.Message, error) {
	msg, err := p.messenger.Decrypt(ctx, envelope)
	if err != nil {
		p.logger.WarnContext(ctx, "failed to decrypt message", "session", session.ID.LogValue(), "error", err)
		return nil, dErrors.New(dErrors.CodeBadRequest, "message could not be decrypted")
	}
	if msg.Sender != session.DID {
		return nil, dErrors.New(dErrors.CodeForbidden, "message was not sent by the session DID")
	}
	return msg, nil
}
