package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	id "socialkyc/pkg/domain"
	"socialkyc/pkg/requestcontext"
)

func TestRequireSessionID(t *testing.T) {
	var seen id.SessionID
	h := RequireSessionID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = requestcontext.SessionID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("missing header is forbidden", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/secret", nil))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("malformed header is forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/secret", nil)
		req.Header.Set(Header, "not-a-session")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("valid header reaches handler", func(t *testing.T) {
		sid := id.NewSessionID()
		req := httptest.NewRequest(http.MethodGet, "/api/secret", nil)
		req.Header.Set(Header, sid.String())
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, sid, seen)
	})
}
