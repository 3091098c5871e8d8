package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"socialkyc/internal/chain"
	"socialkyc/internal/verifier/service"
	id "socialkyc/pkg/domain"
	"socialkyc/pkg/platform/httputil"
	sessionmw "socialkyc/pkg/platform/middleware/session"
	"socialkyc/pkg/requestcontext"
	"socialkyc/pkg/validation"
)

type Verifier interface {
	RequestCredential(ctx context.Context, sessionID id.SessionID, cTypeHash string) (*chain.EncryptedMessage, error)
	Verify(ctx context.Context, sessionID id.SessionID, envelope chain.EncryptedMessage) (*service.Result, error)
}

// VerifyRequest is the wallet's encrypted submit-credential message.
type VerifyRequest chain.EncryptedMessage

func (r *VerifyRequest) Normalize() {
	r.ReceiverKeyURI = strings.TrimSpace(r.ReceiverKeyURI)
	r.SenderKeyURI = strings.TrimSpace(r.SenderKeyURI)
}

func (r *VerifyRequest) Validate() error {
	return validation.Validate(r)
}

type Handler struct {
	verifier Verifier
	logger   *slog.Logger
}

func New(verifier Verifier, logger *slog.Logger) *Handler {
	return &Handler{verifier: verifier, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(sessionmw.RequireSessionID)
		r.Get("/api/verifier/request-credential", h.HandleRequestCredential)
		r.Post("/api/verifier/verify", h.HandleVerify)
	})
}

// HandleRequestCredential implements GET /api/verifier/request-credential?ctype=0x...
func (h *Handler) HandleRequestCredential(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, _ := requestcontext.SessionID(ctx)

	envelope, err := h.verifier.RequestCredential(ctx, sessionID, strings.TrimSpace(r.URL.Query().Get("ctype")))
	if err != nil {
		h.logger.WarnContext(ctx, "request-credential failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, envelope)
}

// HandleVerify implements POST /api/verifier/verify.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, _ := requestcontext.SessionID(ctx)

	req, ok := httputil.DecodeAndPrepare[VerifyRequest](w, r, h.logger)
	if !ok {
		return
	}

	result, err := h.verifier.Verify(ctx, sessionID, chain.EncryptedMessage(*req))
	if err != nil {
		h.logger.WarnContext(ctx, "verification failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}
