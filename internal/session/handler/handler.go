package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"socialkyc/internal/platform/device"
	"socialkyc/internal/session/models"
	"socialkyc/internal/session/service"
	id "socialkyc/pkg/domain"
	"socialkyc/pkg/platform/httputil"
	sessionmw "socialkyc/pkg/platform/middleware/session"
	"socialkyc/pkg/requestcontext"
)

// Service is the subset of the session manager the HTTP layer needs.
type Service interface {
	Start(ctx context.Context, deviceName string) (*models.Session, error)
	ConfirmDID(ctx context.Context, sessionID id.SessionID, proof service.DIDProof) error
	IssueSecret(ctx context.Context, sessionID id.SessionID) (string, error)
}

// Handler serves session start, DID confirmation and link secrets.
type Handler struct {
	sessions   Service
	dAppKeyURI string
	logger     *slog.Logger
}

// New creates a session Handler. dAppKeyURI is the key wallets encrypt the challenge for.
func New(sessions Service, dAppKeyURI string, logger *slog.Logger) *Handler {
	return &Handler{sessions: sessions, dAppKeyURI: dAppKeyURI, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/api/session", h.HandleStart)
	r.With(sessionmw.RequireSessionID).Post("/api/session", h.HandleConfirmDID)
	r.With(sessionmw.RequireSessionID).Get("/api/secret", h.HandleSecret)
}

// HandleStart implements GET /api/session.
//
// Output: { "dAppEncryptionKeyUri": "...", "sessionId": "...", "challenge": "..." }
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	session, err := h.sessions.Start(ctx, device.Name(r.UserAgent()))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to start session",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, models.SessionValues{
		DAppEncryptionKeyURI: h.dAppKeyURI,
		SessionID:            session.ID.String(),
		Challenge:            session.DIDChallenge,
	})
}

// HandleConfirmDID implements POST /api/session.
//
// Input: { "encryptionKeyUri": "...", "encryptedChallenge": "0x...", "nonce": "0x..." }
// Output: 204, or 403 when the key cannot be resolved or the challenge does not match.
func (h *Handler) HandleConfirmDID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, _ := requestcontext.SessionID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.ConfirmDIDRequest](w, r, h.logger)
	if !ok {
		return
	}

	err := h.sessions.ConfirmDID(ctx, sessionID, service.DIDProof{
		EncryptionKeyURI:   req.EncryptionKeyURI,
		EncryptedChallenge: req.EncryptedChallenge,
		Nonce:              req.Nonce,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "DID confirmation failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
			"session", sessionID.LogValue(),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteNoContent(w)
}

// HandleSecret implements GET /api/secret.
func (h *Handler) HandleSecret(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, _ := requestcontext.SessionID(ctx)

	secret, err := h.sessions.IssueSecret(ctx, sessionID)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to issue secret",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, models.SecretResponse{Secret: secret})
}
