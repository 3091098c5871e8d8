// Package service lets the dApp ask a wallet for an attested credential and
// verify the presentation it gets back.
package service

import (
	"context"
	"log/slog"
	"slices"

	"socialkyc/internal/chain"
	"socialkyc/internal/chain/ctype"
	"socialkyc/internal/session/models"
	id "socialkyc/pkg/domain"
	dErrors "socialkyc/pkg/domain-errors"
	"socialkyc/pkg/secrets"
)

const challengeBytes = 16

// Sessions is the subset of the session manager the verifier needs.
type Sessions interface {
	GetWithDID(ctx context.Context, sessionID id.SessionID) (*models.Session, error)
	Update(ctx context.Context, sessionID id.SessionID, fn func(*models.Session) error) (*models.Session, error)
}

// Result is a verified presentation as reported to the page.
type Result struct {
	CTypeHash string         `json:"cTypeHash"`
	Contents  map[string]any `json:"contents"`
	Owner     chain.DID      `json:"owner"`
	Attester  chain.DID      `json:"attester"`
}

type Service struct {
	sessions  Sessions
	messenger chain.Messenger
	verifier  chain.PresentationVerifier
	registry  *ctype.Registry
	trusted   []chain.DID
	logger    *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTrustedAttesters restricts accepted credentials to the given attesters.
func WithTrustedAttesters(dids ...chain.DID) Option {
	return func(s *Service) {
		s.trusted = dids
	}
}

func New(sessions Sessions, messenger chain.Messenger, verifier chain.PresentationVerifier, registry *ctype.Registry, opts ...Option) *Service {
	s := &Service{
		sessions:  sessions,
		messenger: messenger,
		verifier:  verifier,
		registry:  registry,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// RequestCredential stores a fresh challenge on the session and answers an
// encrypted request-credential message. An empty cTypeHash asks for any
// known cType.
func (s *Service) RequestCredential(ctx context.Context, sessionID id.SessionID, cTypeHash string) (*chain.EncryptedMessage, error) {
	session, err := s.sessions.GetWithDID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var wanted []ctype.CType
	if cTypeHash == "" {
		wanted = s.registry.All()
	} else {
		c, ok := s.registry.Lookup(cTypeHash)
		if !ok {
			return nil, dErrors.New(dErrors.CodeNotFound, "unknown cType")
		}
		wanted = []ctype.CType{c}
	}

	challenge, err := secrets.Nonce(challengeBytes)
	if err != nil {
		return nil, err
	}
	if _, err := s.sessions.Update(ctx, sessionID, func(sess *models.Session) error {
		sess.RequestChallenge = challenge
		return nil
	}); err != nil {
		return nil, err
	}

	request := chain.RequestCredential{Challenge: challenge}
	for _, c := range wanted {
		request.CTypes = append(request.CTypes, chain.CredentialRequirement{
			CTypeHash:          c.Hash,
			TrustedAttesters:   s.trusted,
			RequiredProperties: c.PropertyNames(),
		})
	}
	body, err := chain.NewBody(chain.BodyRequestCredential, request)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode message")
	}
	envelope, err := s.messenger.Encrypt(ctx, chain.Message{Body: body}, session.EncryptionKeyURI)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encrypt message")
	}
	return envelope, nil
}

// Verify checks a submit-credential message against the pending challenge.
// The challenge is consumed whatever the outcome.
func (s *Service) Verify(ctx context.Context, sessionID id.SessionID, envelope chain.EncryptedMessage) (*Result, error) {
	session, err := s.sessions.GetWithDID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	msg, err := s.messenger.Decrypt(ctx, envelope)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to decrypt message", "session", sessionID.LogValue(), "error", err)
		return nil, dErrors.New(dErrors.CodeBadRequest, "message could not be decrypted")
	}
	if msg.Sender != session.DID {
		return nil, dErrors.New(dErrors.CodeForbidden, "message was not sent by the session DID")
	}
	if msg.Body.Type != chain.BodySubmitCredential {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unexpected message type "+string(msg.Body.Type))
	}
	var presentations []chain.Presentation
	if err := msg.Body.DecodeContent(&presentations); err != nil || len(presentations) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "malformed submit-credential content")
	}
	presentation := presentations[0]

	var challenge string
	if _, err := s.sessions.Update(ctx, sessionID, func(sess *models.Session) error {
		if sess.RequestChallenge == "" {
			return dErrors.New(dErrors.CodeForbidden, "no credential was requested")
		}
		challenge = sess.RequestChallenge
		sess.RequestChallenge = ""
		return nil
	}); err != nil {
		return nil, err
	}

	if _, ok := s.registry.Lookup(presentation.Credential.Claim.CTypeHash); !ok {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown cType")
	}
	verified, err := s.verifier.VerifyPresentation(ctx, presentation, challenge)
	if err != nil {
		s.logger.WarnContext(ctx, "presentation failed verification", "session", sessionID.LogValue(), "error", err)
		return nil, dErrors.New(dErrors.CodeBadRequest, "credential could not be verified")
	}
	if verified.Revoked {
		return nil, dErrors.New(dErrors.CodeForbidden, "credential is revoked")
	}
	if len(s.trusted) > 0 && !slices.Contains(s.trusted, verified.Attester) {
		return nil, dErrors.New(dErrors.CodeForbidden, "credential was not issued by a trusted attester")
	}

	s.logger.InfoContext(ctx, "credential verified", "session", sessionID.LogValue(), "ctype", verified.Claim.CTypeHash)
	return &Result{
		CTypeHash: verified.Claim.CTypeHash,
		Contents:  verified.Claim.Contents,
		Owner:     verified.Claim.Owner,
		Attester:  verified.Attester,
	}, nil
}
