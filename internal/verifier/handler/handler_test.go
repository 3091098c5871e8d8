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

	"socialkyc/internal/chain"
	"socialkyc/internal/verifier/service"
	id "socialkyc/pkg/domain"
	dErrors "socialkyc/pkg/domain-errors"
	sessionmw "socialkyc/pkg/platform/middleware/session"
)

type stubVerifier struct {
	cTypeHash string
	envelope  chain.EncryptedMessage
	err       error
}

func (s *stubVerifier) RequestCredential(_ context.Context, _ id.SessionID, cTypeHash string) (*chain.EncryptedMessage, error) {
	s.cTypeHash = cTypeHash
	if s.err != nil {
		return nil, s.err
	}
	return &chain.EncryptedMessage{Ciphertext: "0xaa"}, nil
}

func (s *stubVerifier) Verify(_ context.Context, _ id.SessionID, envelope chain.EncryptedMessage) (*service.Result, error) {
	s.envelope = envelope
	if s.err != nil {
		return nil, s.err
	}
	return &service.Result{CTypeHash: "0xe", Contents: map[string]any{"Email": "alice@example.com"}, Attester: "did:kilt:service"}, nil
}

func do(verifier Verifier, method, target, body string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	New(verifier, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(sessionmw.Header, id.NewSessionID().String())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandleRequestCredential(t *testing.T) {
	verifier := &stubVerifier{}
	w := do(verifier, http.MethodGet, "/api/verifier/request-credential?ctype=0xe", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0xe", verifier.cTypeHash)
	assert.Contains(t, w.Body.String(), `"ciphertext":"0xaa"`)

	w = do(&stubVerifier{err: dErrors.New(dErrors.CodeNotFound, "unknown cType")}, http.MethodGet, "/api/verifier/request-credential?ctype=0x0", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleVerify(t *testing.T) {
	body := `{"receiverKeyId":"did:kilt:service#encryption","senderKeyId":"did:kilt:alice#encryption","ciphertext":"0x01","nonce":"0x02"}`

	t.Run("verified credential", func(t *testing.T) {
		verifier := &stubVerifier{}
		w := do(verifier, http.MethodPost, "/api/verifier/verify", body)

		require.Equal(t, http.StatusOK, w.Code)
		var got service.Result
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "alice@example.com", got.Contents["Email"])
		assert.Equal(t, "0x02", verifier.envelope.Nonce)
	})

	t.Run("missing fields", func(t *testing.T) {
		w := do(&stubVerifier{}, http.MethodPost, "/api/verifier/verify", `{"nonce":"0x02"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("replayed challenge", func(t *testing.T) {
		w := do(&stubVerifier{err: dErrors.New(dErrors.CodeForbidden, "no credential was requested")}, http.MethodPost, "/api/verifier/verify", body)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
