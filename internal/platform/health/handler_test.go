package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h *Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	h.Register(r)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestLivenessAndStatus(t *testing.T) {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	now := start
	h := New("test", WithClock(func() time.Time { return now }))
	h.RegisterStore("sessions", func() int { return 3 })
	h.RegisterStore("secrets", func() int { return 0 })

	assert.Equal(t, http.StatusOK, serve(t, h, "/health/live").Code)

	now = start.Add(90 * time.Second)
	w := serve(t, h, "/health")
	require.Equal(t, http.StatusOK, w.Code)
	var status StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "test", status.Environment)
	assert.Equal(t, "healthy", status.Status)
	assert.EqualValues(t, 90, status.UptimeSeconds)
	assert.Equal(t, "2024-03-01T12:01:30Z", status.Timestamp)
	assert.Equal(t, map[string]int{"sessions": 3, "secrets": 0}, status.Stores)
}

func TestReadiness(t *testing.T) {
	t.Run("ready when all checks pass", func(t *testing.T) {
		h := New("test")
		h.RegisterCheck("indexer", func(context.Context) error { return nil })

		w := serve(t, h, "/health/ready")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("not ready when a check fails", func(t *testing.T) {
		h := New("test")
		h.RegisterCheck("indexer", func(context.Context) error { return errors.New("unreachable") })

		w := serve(t, h, "/health/ready")
		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		var resp ReadinessResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "down: unreachable", resp.Checks["indexer"])
	})

	t.Run("checks receive a deadline", func(t *testing.T) {
		h := New("test")
		h.RegisterCheck("indexer", func(ctx context.Context) error {
			if _, ok := ctx.Deadline(); !ok {
				return errors.New("no deadline")
			}
			return nil
		})

		assert.Equal(t, http.StatusOK, serve(t, h, "/health/ready").Code)
	})

	t.Run("slow check is cut off by the check timeout", func(t *testing.T) {
		h := New("test", WithCheckTimeout(10*time.Millisecond))
		h.RegisterCheck("indexer", func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})
		h.RegisterCheck("ledger", func(context.Context) error { return nil })

		w := serve(t, h, "/health/ready")
		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		var resp ReadinessResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "down: context deadline exceeded", resp.Checks["indexer"])
		assert.Equal(t, "up", resp.Checks["ledger"])
	})
}
