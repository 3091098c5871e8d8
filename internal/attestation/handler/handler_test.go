package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialkyc/internal/attestation/service"
	"socialkyc/internal/chain"
	id "socialkyc/pkg/domain"
	dErrors "socialkyc/pkg/domain-errors"
	sessionmw "socialkyc/pkg/platform/middleware/session"
)

type stubPipeline struct {
	seen     id.SessionID
	envelope chain.EncryptedMessage
	outcome  service.Outcome
	status   service.Status
	err      error
}

var reply = &chain.EncryptedMessage{ReceiverKeyURI: "did:kilt:alice#encryption", SenderKeyURI: "did:kilt:dapp#encryption", Ciphertext: "0xaa", Nonce: "0xbb"}

func (s *stubPipeline) Quote(_ context.Context, sessionID id.SessionID) (*chain.EncryptedMessage, error) {
	s.seen = sessionID
	if s.err != nil {
		return nil, s.err
	}
	return reply, nil
}

func (s *stubPipeline) RequestAttestation(_ context.Context, sessionID id.SessionID, envelope chain.EncryptedMessage) (service.Outcome, error) {
	s.seen = sessionID
	s.envelope = envelope
	return s.outcome, s.err
}

func (s *stubPipeline) Attest(_ context.Context, sessionID id.SessionID) (*chain.EncryptedMessage, error) {
	s.seen = sessionID
	if s.err != nil {
		return nil, s.err
	}
	return reply, nil
}

func (s *stubPipeline) Status(_ context.Context, sessionID id.SessionID) (service.Status, error) {
	s.seen = sessionID
	return s.status, s.err
}

const envelopeBody = `{"receiverKeyId":"did:kilt:dapp#encryption","senderKeyId":" did:kilt:alice#encryption ","ciphertext":"0x01","nonce":"0x02"}`

func serve(t *testing.T, pipeline *stubPipeline, method, path, body string, sessionID *id.SessionID) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	New(pipeline, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if sessionID != nil {
		req.Header.Set(sessionmw.Header, sessionID.String())
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestQuoteAndAttestAnswerEnvelope(t *testing.T) {
	sessionID := id.NewSessionID()
	for _, path := range []string{"/api/quote", "/api/attest"} {
		t.Run(path, func(t *testing.T) {
			pipeline := &stubPipeline{}
			w := serve(t, pipeline, http.MethodPost, path, "", &sessionID)

			require.Equal(t, http.StatusOK, w.Code)
			var got chain.EncryptedMessage
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Equal(t, *reply, got)
			assert.Equal(t, sessionID, pipeline.seen)
		})
	}
}

func TestRequestAttestation(t *testing.T) {
	sessionID := id.NewSessionID()

	t.Run("accepted answers 204", func(t *testing.T) {
		pipeline := &stubPipeline{outcome: service.OutcomeAccepted}
		w := serve(t, pipeline, http.MethodPost, "/api/request-attestation", envelopeBody, &sessionID)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "did:kilt:alice#encryption", pipeline.envelope.SenderKeyURI)
		assert.Equal(t, "0x01", pipeline.envelope.Ciphertext)
	})

	// Justification: an explicit rejection is a normal outcome and must be distinguishable from success.
	t.Run("rejected terms answer 202", func(t *testing.T) {
		pipeline := &stubPipeline{outcome: service.OutcomeRejected}
		w := serve(t, pipeline, http.MethodPost, "/api/request-attestation", envelopeBody, &sessionID)
		assert.Equal(t, http.StatusAccepted, w.Code)
	})

	t.Run("incomplete envelope answers 400", func(t *testing.T) {
		pipeline := &stubPipeline{}
		w := serve(t, pipeline, http.MethodPost, "/api/request-attestation", `{"ciphertext":"0x01"}`, &sessionID)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, id.SessionID{}, pipeline.seen)
	})

	t.Run("credential mismatch answers 400", func(t *testing.T) {
		pipeline := &stubPipeline{err: dErrors.New(dErrors.CodeBadRequest, "credential cType does not match the confirmed claim")}
		w := serve(t, pipeline, http.MethodPost, "/api/request-attestation", envelopeBody, &sessionID)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("running attestation answers 409", func(t *testing.T) {
		pipeline := &stubPipeline{err: dErrors.New(dErrors.CodeConflict, "attestation in progress")}
		w := serve(t, pipeline, http.MethodPost, "/api/request-attestation", envelopeBody, &sessionID)
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestAttestErrors(t *testing.T) {
	sessionID := id.NewSessionID()
	cases := map[string]struct {
		err  error
		want int
	}{
		"nothing to attest":  {dErrors.New(dErrors.CodeNotFound, "no credential to attest"), http.StatusNotFound},
		"client gave up":     {dErrors.New(dErrors.CodeTimeout, "attestation is still in progress"), http.StatusGatewayTimeout},
		"submission failed":  {dErrors.New(dErrors.CodeInternal, "attestation failed"), http.StatusInternalServerError},
		"stale confirmation": {dErrors.New(dErrors.CodeForbidden, "stale DID confirmation"), http.StatusForbidden},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			w := serve(t, &stubPipeline{err: tc.err}, http.MethodPost, "/api/attest", "", &sessionID)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestStatus(t *testing.T) {
	sessionID := id.NewSessionID()
	pipeline := &stubPipeline{status: service.Status{State: service.StateFailed, CTypeHash: "0xe", Error: "transaction dropped"}}

	w := serve(t, pipeline, http.MethodGet, "/api/attestation/status", "", &sessionID)

	require.Equal(t, http.StatusOK, w.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "failed", got["status"])
	assert.Equal(t, "transaction dropped", got["error"])
	assert.NotContains(t, got, "attestation")
}

func TestMissingSessionHeader(t *testing.T) {
	pipeline := &stubPipeline{}
	w := serve(t, pipeline, http.MethodPost, "/api/quote", "", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, id.SessionID{}, pipeline.seen)
}
