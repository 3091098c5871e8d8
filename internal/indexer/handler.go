package indexer

import (
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"socialkyc/internal/chain/ctype"
	"socialkyc/pkg/platform/httputil"
)

// CTypeCount is the number of attestations for one cType.
type CTypeCount struct {
	CType     string `json:"cType"`
	CTypeHash string `json:"cTypeHash"`
	Count     int    `json:"count"`
}

type StatsResponse struct {
	Total  int          `json:"total"`
	CTypes []CTypeCount `json:"cTypes"`
}

// StatsHandler serves the cached attestation counters.
type StatsHandler struct {
	counters *Counters
	registry *ctype.Registry
}

func NewStatsHandler(counters *Counters, registry *ctype.Registry) *StatsHandler {
	return &StatsHandler{counters: counters, registry: registry}
}

func (h *StatsHandler) Register(r chi.Router) {
	r.Get("/api/stats", h.HandleStats)
}

// HandleStats implements GET /api/stats. Every known cType is listed, with
// zero when nothing was attested yet; hashes outside the registry follow.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	counts := h.counters.Snapshot()
	resp := StatsResponse{CTypes: []CTypeCount{}}

	for _, c := range h.registry.All() {
		n := counts[c.Hash]
		delete(counts, c.Hash)
		resp.CTypes = append(resp.CTypes, CTypeCount{CType: c.Schema.Title, CTypeHash: c.Hash, Count: n})
		resp.Total += n
	}
	unknown := make([]string, 0, len(counts))
	for hash := range counts {
		unknown = append(unknown, hash)
	}
	sort.Strings(unknown)
	for _, hash := range unknown {
		resp.CTypes = append(resp.CTypes, CTypeCount{CTypeHash: hash, Count: counts[hash]})
		resp.Total += counts[hash]
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}
