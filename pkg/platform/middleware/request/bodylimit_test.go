package request

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialkyc/pkg/platform/httputil"
)

func TestBodyLimit(t *testing.T) {
	readAll := func(t *testing.T, wantLen int) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			data, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			assert.Len(t, data, wantLen)
			w.WriteHeader(http.StatusNoContent)
		})
	}

	tests := []struct {
		name string
		body string
	}{
		{"envelope under the limit", `{"ciphertext":"00","nonce":"01"}`},
		{"exactly at the limit", strings.Repeat("x", 64)},
		{"empty body", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			BodyLimit(64)(readAll(t, len(tt.body))).ServeHTTP(w,
				httptest.NewRequest(http.MethodPost, "/api/attest", strings.NewReader(tt.body)))
			assert.Equal(t, http.StatusNoContent, w.Code)
		})
	}

	t.Run("declared oversize body is refused before the handler", func(t *testing.T) {
		called := false
		handler := BodyLimit(64)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/attest", strings.NewReader(strings.Repeat("x", 65))))

		assert.False(t, called)
		require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		var resp httputil.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, httputil.PayloadTooLarge, resp.Error)
		assert.Equal(t, "request body exceeds 64 bytes", resp.Description)
	})

	t.Run("undeclared oversize body fails on read", func(t *testing.T) {
		var readErr error
		handler := BodyLimit(64)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			_, readErr = io.ReadAll(r.Body)
		}))

		req := httptest.NewRequest(http.MethodPost, "/api/attest", strings.NewReader(strings.Repeat("x", 200)))
		req.ContentLength = -1
		handler.ServeHTTP(httptest.NewRecorder(), req)

		var maxErr *http.MaxBytesError
		require.ErrorAs(t, readErr, &maxErr)
		assert.EqualValues(t, 64, maxErr.Limit)
	})
}
