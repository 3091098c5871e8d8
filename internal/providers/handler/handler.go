package handler

import (
	"context"
	"log/slog"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"socialkyc/internal/chain"
	"socialkyc/internal/providers"
	id "socialkyc/pkg/domain"
	dErrors "socialkyc/pkg/domain-errors"
	"socialkyc/pkg/platform/httputil"
	sessionmw "socialkyc/pkg/platform/middleware/session"
	"socialkyc/pkg/requestcontext"
)

// Dispatcher routes confirmations to identity providers.
type Dispatcher interface {
	AuthURL(ctx context.Context, t providers.ProviderType, sessionID id.SessionID) (string, error)
	Confirm(ctx context.Context, t providers.ProviderType, input providers.Input) (*chain.Claim, error)
}

// EmailSender starts an email confirmation.
type EmailSender interface {
	Send(ctx context.Context, sessionID id.SessionID, address, lang string) error
}

// Handler serves the provider confirmation endpoints.
type Handler struct {
	dispatcher Dispatcher
	email      EmailSender
	logger     *slog.Logger
}

func New(dispatcher Dispatcher, email EmailSender, logger *slog.Logger) *Handler {
	return &Handler{dispatcher: dispatcher, email: email, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(sessionmw.RequireSessionID)
		r.Post("/api/email/send", h.HandleEmailSend)
		r.Post("/api/email/confirm", h.HandleEmailConfirm)
		r.Post("/api/telegram/confirm", h.HandleTelegramConfirm)
		r.Get("/api/{provider}/auth-url", h.HandleAuthURL)
		r.Post("/api/{provider}/confirm", h.HandleConfirm)
	})
}

// oauthProvider reads the {provider} URL parameter. Only OAuth providers are
// served by the generic routes.
func oauthProvider(r *http.Request) (providers.ProviderType, error) {
	t, err := providers.ParseProviderType(chi.URLParam(r, "provider"))
	if err != nil {
		return "", err
	}
	if !slices.Contains(providers.OAuthTypes, t) {
		return "", dErrors.New(dErrors.CodeNotFound, "unknown OAuth provider")
	}
	return t, nil
}

// HandleAuthURL implements GET /api/{provider}/auth-url.
//
// Output: { "url": "https://provider/authorize?...&state=<secret>" }
func (h *Handler) HandleAuthURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, _ := requestcontext.SessionID(ctx)

	t, err := oauthProvider(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	authURL, err := h.dispatcher.AuthURL(ctx, t, sessionID)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to build authorization url",
			"provider", t,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, AuthURLResponse{URL: authURL})
}

// HandleConfirm implements POST /api/{provider}/confirm.
//
// Input: { "code": "...", "secret": "..." }
// Output: the confirmed claim contents.
func (h *Handler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, _ := requestcontext.SessionID(ctx)

	t, err := oauthProvider(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[ConfirmRequest](w, r, h.logger)
	if !ok {
		return
	}

	claim, err := h.dispatcher.Confirm(ctx, t, providers.Input{
		SessionID: sessionID,
		Secret:    req.Secret,
		Code:      req.Code,
	})
	if err != nil {
		h.writeConfirmError(ctx, w, t, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, claim.Contents)
}

// HandleEmailSend implements POST /api/email/send.
//
// Input: { "email": "...", "lang": "en" }
// Output: 204
func (h *Handler) HandleEmailSend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, _ := requestcontext.SessionID(ctx)

	req, ok := httputil.DecodeAndPrepare[EmailSendRequest](w, r, h.logger)
	if !ok {
		return
	}
	if err := h.email.Send(ctx, sessionID, req.Email, req.Lang); err != nil {
		h.logger.WarnContext(ctx, "failed to send confirmation email",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

// HandleEmailConfirm implements POST /api/email/confirm.
//
// Input: { "secret": "<key from the link>" }
// Output: { "email": "..." }
func (h *Handler) HandleEmailConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, _ := requestcontext.SessionID(ctx)

	req, ok := httputil.DecodeAndPrepare[EmailConfirmRequest](w, r, h.logger)
	if !ok {
		return
	}
	claim, err := h.dispatcher.Confirm(ctx, providers.Email, providers.Input{
		SessionID: sessionID,
		Key:       req.Secret,
	})
	if err != nil {
		h.writeConfirmError(ctx, w, providers.Email, err)
		return
	}
	address, _ := claim.Contents["Email"].(string)
	httputil.WriteJSON(w, http.StatusOK, EmailConfirmResponse{Email: address})
}

// HandleTelegramConfirm implements POST /api/telegram/confirm.
//
// Input: { "json": {...login widget payload...}, "secret": "..." }
// Output: the confirmed claim contents.
func (h *Handler) HandleTelegramConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, _ := requestcontext.SessionID(ctx)

	req, ok := httputil.DecodeAndPrepare[TelegramConfirmRequest](w, r, h.logger)
	if !ok {
		return
	}
	claim, err := h.dispatcher.Confirm(ctx, providers.Telegram, providers.Input{
		SessionID: sessionID,
		Secret:    req.Secret,
		Payload:   req.JSON,
	})
	if err != nil {
		h.writeConfirmError(ctx, w, providers.Telegram, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, claim.Contents)
}

func (h *Handler) writeConfirmError(ctx context.Context, w http.ResponseWriter, t providers.ProviderType, err error) {
	h.logger.WarnContext(ctx, "confirmation failed",
		"provider", t,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteError(w, err)
}
