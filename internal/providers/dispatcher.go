package providers

import (
	"context"
	"log/slog"

	"socialkyc/internal/chain"
	"socialkyc/internal/platform/metrics"
	"socialkyc/internal/session/models"
	id "socialkyc/pkg/domain"
	dErrors "socialkyc/pkg/domain-errors"
	"socialkyc/pkg/platform/tracer"
)

// Sessions is the subset of the session manager the dispatcher needs.
type Sessions interface {
	IssueSecret(ctx context.Context, sessionID id.SessionID) (string, error)
	ResolveSecret(ctx context.Context, secret string) (*models.Session, error)
	RequireDID(session *models.Session) error
	ConfirmAndMerge(ctx context.Context, currentID, linkedID id.SessionID, claim *chain.Claim) (*models.Session, error)
}

// Dispatcher routes confirmations to the registered providers.
type Dispatcher struct {
	sessions   Sessions
	confirmers map[ProviderType]Confirmer
	tracer     tracer.Tracer
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

type Option func(*Dispatcher)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(d *Dispatcher) {
		d.tracer = t
	}
}

// NewDispatcher registers confirmers by their Type. A later confirmer for the
// same type replaces an earlier one.
func NewDispatcher(sessions Sessions, confirmers []Confirmer, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		sessions:   sessions,
		confirmers: make(map[ProviderType]Confirmer, len(confirmers)),
	}
	for _, c := range confirmers {
		d.confirmers[c.Type()] = c
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	if d.tracer == nil {
		d.tracer = tracer.NewNoop()
	}
	return d
}

// Enabled reports whether a provider is registered.
func (d *Dispatcher) Enabled(t ProviderType) bool {
	_, ok := d.confirmers[t]
	return ok
}

func (d *Dispatcher) confirmer(t ProviderType) (Confirmer, error) {
	c, ok := d.confirmers[t]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "provider is not enabled")
	}
	return c, nil
}

// AuthURL issues a link secret for the session and returns the provider's
// authorization URL carrying it as OAuth state.
func (d *Dispatcher) AuthURL(ctx context.Context, t ProviderType, sessionID id.SessionID) (string, error) {
	c, err := d.confirmer(t)
	if err != nil {
		return "", err
	}
	redirector, ok := c.(Redirector)
	if !ok {
		return "", dErrors.New(dErrors.CodeBadRequest, "provider does not use redirects")
	}
	secret, err := d.sessions.IssueSecret(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return redirector.AuthCodeURL(secret), nil
}

// Confirm resolves the link secret, lets the provider prove account control
// and merges the confirmed claim into the requesting session. The secret is
// consumed even when the provider step fails.
func (d *Dispatcher) Confirm(ctx context.Context, t ProviderType, input Input) (claim *chain.Claim, err error) {
	c, err := d.confirmer(t)
	if err != nil {
		return nil, err
	}

	ctx, span := d.tracer.Start(ctx, tracer.SpanProviderConfirm,
		tracer.String(tracer.AttrProvider, t.String()),
	)
	defer func() {
		span.End(err)
		d.metrics.ObserveProviderConfirmation(t.String(), err)
	}()

	secret := input.Secret
	if opener, ok := c.(KeyOpener); ok && input.Key != "" {
		if secret, err = opener.OpenKey(input.Key); err != nil {
			return nil, err
		}
	}

	linked, err := d.sessions.ResolveSecret(ctx, secret)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, dErrors.New(dErrors.CodeForbidden, "invalid or expired secret")
		}
		return nil, err
	}
	// Only the email claim may be created before the DID is known; its owner
	// is bound when the credential is requested.
	if t != Email {
		if err := d.sessions.RequireDID(linked); err != nil {
			return nil, err
		}
	}

	contents, err := c.Confirm(ctx, input, linked)
	if err != nil {
		d.logger.WarnContext(ctx, "provider confirmation failed",
			"provider", t,
			"session", linked.ID.LogValue(),
			"category", GetCategory(err),
			"retryable", IsRetryable(err),
			"error", err,
		)
		span.SetAttributes(tracer.Bool(tracer.AttrRetryable, IsRetryable(err)))
		return nil, toDomainError(err)
	}

	schema := c.CType()
	if err := schema.ValidateContents(contents); err != nil {
		d.logger.ErrorContext(ctx, "provider profile does not fit cType",
			"provider", t,
			"ctype", schema.Hash,
			"error", err,
		)
		return nil, dErrors.New(dErrors.CodeInternal, "provider confirmation failed")
	}

	claim = &chain.Claim{
		CTypeHash: schema.Hash,
		Contents:  contents,
		Owner:     ownerOf(linked),
	}
	if _, err := d.sessions.ConfirmAndMerge(ctx, input.SessionID, linked.ID, claim); err != nil {
		return nil, err
	}

	d.logger.InfoContext(ctx, "provider confirmed",
		"provider", t,
		"current", input.SessionID.LogValue(),
		"linked", linked.ID.LogValue(),
	)
	return claim, nil
}

// ownerOf returns the DID that started the flow, or empty when an email flow
// was started before the DID was confirmed.
func ownerOf(s *models.Session) chain.DID {
	if !s.DIDConfirmed {
		return ""
	}
	return s.DID
}
