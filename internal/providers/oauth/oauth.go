// Package oauth confirms social accounts through an OAuth authorization code
// exchange followed by a profile fetch with the resulting bearer token.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"socialkyc/internal/chain/ctype"
	"socialkyc/internal/providers"
	"socialkyc/internal/session/models"
	"socialkyc/pkg/platform/circuit"
	"socialkyc/pkg/platform/tracer"
)

const (
	defaultTimeout = 10 * time.Second
	revokeTimeout  = 5 * time.Second
	maxProfileBody = 1 << 20
)

// HTTPDoer abstracts HTTP request execution for testing.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Credentials are the client credentials registered with the provider.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Descriptor describes how one provider exposes authorization, profile and
// revocation. URLs are fields so tests can point them at a fake server.
type Descriptor struct {
	Type     providers.ProviderType
	CType    ctype.CType
	Endpoint oauth2.Endpoint
	Scopes   []string
	// AuthParams are extra query parameters for the authorization URL.
	AuthParams map[string]string

	ProfileURL string
	// ProfileHeaders adds provider-specific headers to the profile request.
	ProfileHeaders func(h http.Header, creds Credentials)
	// MapProfile turns the profile response body into claim contents.
	MapProfile func(body []byte) (map[string]any, error)
	// Subject is the contents property holding the stable account id.
	Subject string

	RevokeURL string
	// NewRevokeRequest builds the revocation request. Nil when the provider
	// has no revocation endpoint.
	NewRevokeRequest func(ctx context.Context, revokeURL string, creds Credentials, token string) (*http.Request, error)
}

// Provider implements providers.Confirmer for one OAuth provider.
type Provider struct {
	desc    Descriptor
	creds   Credentials
	config  oauth2.Config
	client  HTTPDoer
	breaker *circuit.Breaker
	timeout time.Duration
	tracer  tracer.Tracer
	logger  *slog.Logger
}

type Option func(*Provider)

// WithHTTPClient sets the client used for token exchange, profile fetch and
// revocation. It must be an *http.Client for the exchange to use it.
func WithHTTPClient(c HTTPDoer) Option {
	return func(p *Provider) {
		p.client = c
	}
}

// WithTimeout bounds the exchange and profile fetch together.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(p *Provider) {
		p.breaker = b
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(p *Provider) {
		p.tracer = t
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		p.logger = logger
	}
}

// New creates a Provider from a descriptor and the registered credentials.
func New(desc Descriptor, creds Credentials, opts ...Option) *Provider {
	p := &Provider{
		desc:  desc,
		creds: creds,
		config: oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  creds.RedirectURL,
			Endpoint:     desc.Endpoint,
			Scopes:       desc.Scopes,
		},
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.client == nil {
		p.client = &http.Client{Timeout: p.timeout}
	}
	if p.breaker == nil {
		p.breaker = circuit.New(desc.Type.String())
	}
	if p.tracer == nil {
		p.tracer = tracer.NewNoop()
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

func (p *Provider) Type() providers.ProviderType {
	return p.desc.Type
}

func (p *Provider) CType() ctype.CType {
	return p.desc.CType
}

// AuthCodeURL returns the authorization URL with state as the OAuth state.
func (p *Provider) AuthCodeURL(state string) string {
	opts := make([]oauth2.AuthCodeOption, 0, len(p.desc.AuthParams))
	for k, v := range p.desc.AuthParams {
		opts = append(opts, oauth2.SetAuthURLParam(k, v))
	}
	return p.config.AuthCodeURL(state, opts...)
}

// Confirm exchanges the authorization code, reads the account profile and
// revokes the token. Revocation failures are logged and ignored.
func (p *Provider) Confirm(ctx context.Context, input providers.Input, _ *models.Session) (map[string]any, error) {
	if input.Code == "" {
		return nil, providers.NewProviderError(providers.ErrorAuthentication, p.desc.Type, "authorization code is missing", nil)
	}

	var contents map[string]any
	var token *oauth2.Token
	err := p.breaker.Do(func() error {
		callCtx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()

		var err error
		token, err = p.exchange(callCtx, input.Code)
		if err != nil {
			return err
		}
		contents, err = p.profile(callCtx, token)
		return err
	}, providers.IsClientError)
	if errors.Is(err, circuit.ErrOpen) {
		return nil, providers.NewProviderError(providers.ErrorProviderOutage, p.desc.Type, "circuit open", err)
	}
	if token != nil {
		p.revoke(ctx, token)
	}
	if err != nil {
		return nil, err
	}
	return contents, nil
}

func (p *Provider) exchange(ctx context.Context, code string) (token *oauth2.Token, err error) {
	ctx, span := p.tracer.Start(ctx, tracer.SpanProviderExchange,
		tracer.String(tracer.AttrProvider, p.desc.Type.String()),
	)
	defer func() { span.End(err) }()

	if hc, ok := p.client.(*http.Client); ok {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, hc)
	}
	token, err = p.config.Exchange(ctx, code)
	if err != nil {
		return nil, p.classify(ctx, err, "code exchange failed")
	}
	return token, nil
}

func (p *Provider) profile(ctx context.Context, token *oauth2.Token) (contents map[string]any, err error) {
	ctx, span := p.tracer.Start(ctx, tracer.SpanProviderProfile,
		tracer.String(tracer.AttrProvider, p.desc.Type.String()),
	)
	defer func() { span.End(err) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.desc.ProfileURL, nil)
	if err != nil {
		return nil, providers.NewProviderError(providers.ErrorInternal, p.desc.Type, "failed to create request", err)
	}
	req.Header.Set("Accept", "application/json")
	token.SetAuthHeader(req)
	if p.desc.ProfileHeaders != nil {
		p.desc.ProfileHeaders(req.Header, p.creds)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, p.classify(ctx, err, "failed to fetch profile")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProfileBody))
	if err != nil {
		return nil, providers.NewProviderError(providers.ErrorBadData, p.desc.Type, "failed to read profile", err)
	}
	if err := statusError(p.desc.Type, resp.StatusCode); err != nil {
		return nil, err
	}

	contents, err = p.desc.MapProfile(body)
	if err != nil {
		var pe *providers.ProviderError
		if errors.As(err, &pe) {
			return nil, err
		}
		return nil, providers.NewProviderError(providers.ErrorBadData, p.desc.Type, "failed to parse profile", err)
	}
	if subject, ok := contents[p.desc.Subject]; ok {
		span.SetAttributes(tracer.String(tracer.AttrSubject, tracer.HashIdentifier(fmt.Sprint(subject))))
	}
	return contents, nil
}

// revoke runs detached from the request so a client disconnect does not
// leave the token alive.
func (p *Provider) revoke(ctx context.Context, token *oauth2.Token) {
	if p.desc.NewRevokeRequest == nil || token.AccessToken == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), revokeTimeout)
	defer cancel()

	var err error
	ctx, span := p.tracer.Start(ctx, tracer.SpanProviderRevoke,
		tracer.String(tracer.AttrProvider, p.desc.Type.String()),
	)
	defer func() { span.End(err) }()

	req, err := p.desc.NewRevokeRequest(ctx, p.desc.RevokeURL, p.creds, token.AccessToken)
	if err != nil {
		p.logger.WarnContext(ctx, "failed to build token revocation", "provider", p.desc.Type, "error", err)
		return
	}
	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.WarnContext(ctx, "token revocation failed", "provider", p.desc.Type, "error", err)
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= http.StatusBadRequest {
		err = fmt.Errorf("revocation returned status %d", resp.StatusCode)
		p.logger.WarnContext(ctx, "token revocation rejected", "provider", p.desc.Type, "status", resp.StatusCode)
	}
}

func (p *Provider) classify(ctx context.Context, err error, message string) error {
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
		return providers.NewProviderError(providers.ErrorTimeout, p.desc.Type, "request timeout", err)
	}
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		if se := statusError(p.desc.Type, re.Response.StatusCode); se != nil {
			return se
		}
	}
	return providers.NewProviderError(providers.ErrorProviderOutage, p.desc.Type, message, err)
}

// statusError maps provider status codes onto error categories.
func statusError(t providers.ProviderType, status int) error {
	switch {
	case status == http.StatusBadRequest, status == http.StatusUnauthorized, status == http.StatusForbidden:
		return providers.NewProviderError(providers.ErrorAuthentication, t, fmt.Sprintf("authentication failed: %d", status), nil)
	case status == http.StatusNotFound:
		return providers.NewProviderError(providers.ErrorNotFound, t, "account not found", nil)
	case status == http.StatusTooManyRequests:
		return providers.NewProviderError(providers.ErrorRateLimited, t, "rate limit exceeded", nil)
	case status >= http.StatusInternalServerError:
		return providers.NewProviderError(providers.ErrorProviderOutage, t, fmt.Sprintf("provider unavailable: %d", status), nil)
	case status >= http.StatusMultipleChoices:
		return providers.NewProviderError(providers.ErrorBadData, t, fmt.Sprintf("unexpected status: %d", status), nil)
	}
	return nil
}
