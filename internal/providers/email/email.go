// Package email confirms control of an email address by mailing a signed
// link to it.
package email

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"socialkyc/internal/chain"
	"socialkyc/internal/chain/ctype"
	"socialkyc/internal/providers"
	"socialkyc/internal/session/models"
	id "socialkyc/pkg/domain"
	dErrors "socialkyc/pkg/domain-errors"
	"socialkyc/pkg/platform/tracer"
)

// Sessions is the subset of the session manager the email flow needs.
type Sessions interface {
	Update(ctx context.Context, sessionID id.SessionID, fn func(*models.Session) error) (*models.Session, error)
	IssueSecret(ctx context.Context, sessionID id.SessionID) (string, error)
}

type mailTemplate struct {
	subject string
	body    string
}

var templates = map[string]mailTemplate{
	"en": {
		subject: "Confirm your email address",
		body:    "Hello,\n\nplease confirm that you own this email address by opening the link below:\n\n%s\n\nThe link is valid for a few minutes. If you did not request it, ignore this message.\n",
	},
	"de": {
		subject: "Bestätigen Sie Ihre E-Mail-Adresse",
		body:    "Hallo,\n\nbitte bestätigen Sie, dass Ihnen diese E-Mail-Adresse gehört, indem Sie den folgenden Link öffnen:\n\n%s\n\nDer Link ist einige Minuten gültig. Falls Sie ihn nicht angefordert haben, ignorieren Sie diese Nachricht.\n",
	},
}

// Service implements the email flavor of providers.Confirmer.
type Service struct {
	sessions Sessions
	keys     *LinkKeys
	sender   Sender
	baseURI  string
	tracer   tracer.Tracer
	logger   *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// New creates the email Service. baseURI is the public origin confirmation
// links point to.
func New(sessions Sessions, keys *LinkKeys, sender Sender, baseURI string, opts ...Option) *Service {
	s := &Service{
		sessions: sessions,
		keys:     keys,
		sender:   sender,
		baseURI:  strings.TrimRight(baseURI, "/"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.tracer == nil {
		s.tracer = tracer.NewNoop()
	}
	return s
}

func (s *Service) Type() providers.ProviderType {
	return providers.Email
}

func (s *Service) CType() ctype.CType {
	return ctype.Email
}

// Send records an unconfirmed email claim on the session and mails a
// confirmation link for it. lang selects the mail template, falling back to English.
func (s *Service) Send(ctx context.Context, sessionID id.SessionID, address, lang string) (err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanProviderConfirm,
		tracer.String(tracer.AttrProvider, "email.send"),
		tracer.String(tracer.AttrSubject, tracer.HashIdentifier(address)),
	)
	defer func() { span.End(err) }()

	_, err = s.sessions.Update(ctx, sessionID, func(session *models.Session) error {
		var owner chain.DID
		if session.DIDConfirmed {
			owner = session.DID
		}
		session.Claim = &chain.Claim{
			CTypeHash: ctype.Email.Hash,
			Contents:  map[string]any{"Email": address},
			Owner:     owner,
		}
		session.Confirmed = false
		session.Credential = nil
		return nil
	})
	if err != nil {
		return err
	}

	secret, err := s.sessions.IssueSecret(ctx, sessionID)
	if err != nil {
		return err
	}
	key, err := s.keys.Sign(secret, address)
	if err != nil {
		return err
	}

	tpl, ok := templates[lang]
	if !ok {
		tpl = templates["en"]
	}
	link := s.baseURI + "/email.html?" + url.Values{"key": {key}, "lang": {lang}}.Encode()
	msg := Message{
		To:      address,
		Subject: tpl.subject,
		Body:    fmt.Sprintf(tpl.body, link),
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		s.logger.ErrorContext(ctx, "failed to send confirmation email",
			"session", sessionID.LogValue(),
			"error", err,
		)
		return dErrors.New(dErrors.CodeInternal, "failed to send email")
	}

	s.logger.InfoContext(ctx, "confirmation email sent", "session", sessionID.LogValue())
	return nil
}

// OpenKey returns the secret wrapped by a confirmation link key.
func (s *Service) OpenKey(key string) (string, error) {
	link, err := s.keys.Open(key)
	if err != nil {
		return "", err
	}
	return link.Secret, nil
}

// Confirm checks that the link was sent to the address pending on the
// session that requested it.
func (s *Service) Confirm(_ context.Context, input providers.Input, linked *models.Session) (map[string]any, error) {
	link, err := s.keys.Open(input.Key)
	if err != nil {
		return nil, err
	}
	if linked.Claim == nil || linked.Claim.CTypeHash != ctype.Email.Hash {
		return nil, dErrors.New(dErrors.CodeNotFound, "no pending email confirmation")
	}
	if pending, _ := linked.Claim.Contents["Email"].(string); pending != link.Email {
		return nil, dErrors.New(dErrors.CodeForbidden, "email address does not match the pending confirmation")
	}
	return map[string]any{"Email": link.Email}, nil
}
