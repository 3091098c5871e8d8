package indexer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialkyc/internal/chain/ctype"
)

func TestHandleStats(t *testing.T) {
	counters := NewCounters()
	counters.Increment(ctype.Email.Hash)
	counters.Increment(ctype.Email.Hash)
	counters.Increment("0xretired")

	r := chi.NewRouter()
	NewStatsHandler(counters, ctype.Known()).Register(r)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var got StatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 3, got.Total)
	require.Len(t, got.CTypes, len(ctype.Known().Hashes())+1)

	byHash := make(map[string]CTypeCount)
	for _, c := range got.CTypes {
		byHash[c.CTypeHash] = c
	}
	assert.Equal(t, CTypeCount{CType: "Email", CTypeHash: ctype.Email.Hash, Count: 2}, byHash[ctype.Email.Hash])
	assert.Equal(t, 0, byHash[ctype.GitHub.Hash].Count)
	assert.Equal(t, "0xretired", got.CTypes[len(got.CTypes)-1].CTypeHash)
}
