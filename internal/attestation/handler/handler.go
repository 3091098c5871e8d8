package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"socialkyc/internal/attestation/service"
	"socialkyc/internal/chain"
	id "socialkyc/pkg/domain"
	"socialkyc/pkg/platform/httputil"
	sessionmw "socialkyc/pkg/platform/middleware/session"
	"socialkyc/pkg/requestcontext"
	"socialkyc/pkg/validation"
)

// Pipeline is the attestation service surface used by the HTTP layer.
type Pipeline interface {
	Quote(ctx context.Context, sessionID id.SessionID) (*chain.EncryptedMessage, error)
	RequestAttestation(ctx context.Context, sessionID id.SessionID, envelope chain.EncryptedMessage) (service.Outcome, error)
	Attest(ctx context.Context, sessionID id.SessionID) (*chain.EncryptedMessage, error)
	Status(ctx context.Context, sessionID id.SessionID) (service.Status, error)
}

// EnvelopeRequest is an encrypted wallet message posted by the page.
type EnvelopeRequest chain.EncryptedMessage

func (r *EnvelopeRequest) Normalize() {
	r.ReceiverKeyURI = strings.TrimSpace(r.ReceiverKeyURI)
	r.SenderKeyURI = strings.TrimSpace(r.SenderKeyURI)
}

func (r *EnvelopeRequest) Validate() error {
	return validation.Validate(r)
}

type Handler struct {
	pipeline Pipeline
	logger   *slog.Logger
}

func New(pipeline Pipeline, logger *slog.Logger) *Handler {
	return &Handler{pipeline: pipeline, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(sessionmw.RequireSessionID)
		r.Post("/api/quote", h.HandleQuote)
		r.Post("/api/request-attestation", h.HandleRequestAttestation)
		r.Post("/api/attest", h.HandleAttest)
		r.Get("/api/attestation/status", h.HandleStatus)
	})
}

// HandleQuote implements POST /api/quote and answers an encrypted submit-terms message.
func (h *Handler) HandleQuote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, _ := requestcontext.SessionID(ctx)

	envelope, err := h.pipeline.Quote(ctx, sessionID)
	if err != nil {
		h.fail(ctx, w, "quote failed", sessionID, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, envelope)
}

// HandleRequestAttestation implements POST /api/request-attestation.
//
// Output: 204 when the credential was accepted, 202 when the wallet rejected the terms.
func (h *Handler) HandleRequestAttestation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, _ := requestcontext.SessionID(ctx)

	req, ok := httputil.DecodeAndPrepare[EnvelopeRequest](w, r, h.logger)
	if !ok {
		return
	}

	outcome, err := h.pipeline.RequestAttestation(ctx, sessionID, chain.EncryptedMessage(*req))
	if err != nil {
		h.fail(ctx, w, "request-attestation failed", sessionID, err)
		return
	}
	if outcome == service.OutcomeRejected {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	httputil.WriteNoContent(w)
}

// HandleAttest implements POST /api/attest. It blocks until the attestation
// finishes or the client goes away; the submission itself keeps running.
func (h *Handler) HandleAttest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, _ := requestcontext.SessionID(ctx)

	envelope, err := h.pipeline.Attest(ctx, sessionID)
	if err != nil {
		h.fail(ctx, w, "attest failed", sessionID, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, envelope)
}

// HandleStatus implements GET /api/attestation/status.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, _ := requestcontext.SessionID(ctx)

	status, err := h.pipeline.Status(ctx, sessionID)
	if err != nil {
		h.fail(ctx, w, "status lookup failed", sessionID, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, status)
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, sessionID id.SessionID, err error) {
	h.logger.WarnContext(ctx, msg,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
		"session", sessionID.LogValue(),
	)
	httputil.WriteError(w, err)
}
