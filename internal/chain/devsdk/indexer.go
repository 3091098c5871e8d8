package devsdk

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strconv"
	"time"
)

var (
	firstArg  = regexp.MustCompile(`first:\s*(\d+)`)
	offsetArg = regexp.MustCompile(`offset:\s*(\d+)`)
)

type indexerNode struct {
	ClaimHash string `json:"claimHash"`
	CTypeID   string `json:"cTypeId"`
	CreatedAt string `json:"createdAt"`
}

type indexerPage struct {
	TotalCount int           `json:"totalCount"`
	Nodes      []indexerNode `json:"nodes"`
}

// IndexerHandler answers attestation queries from the ledger in the shape of
// the chain indexer's GraphQL API, honouring the first/offset arguments.
func (l *Ledger) IndexerHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query string `json:"query"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
			http.Error(w, `{"errors":[{"message":"query is required"}]}`, http.StatusBadRequest)
			return
		}

		entries := l.Entries()
		first := intArg(firstArg, req.Query, len(entries))
		offset := intArg(offsetArg, req.Query, 0)

		page := indexerPage{TotalCount: len(entries), Nodes: []indexerNode{}}
		for i := offset; i < len(entries) && i < offset+first; i++ {
			e := entries[i]
			page.Nodes = append(page.Nodes, indexerNode{
				ClaimHash: e.Attestation.ClaimHash,
				CTypeID:   "kilt:ctype:" + e.Attestation.CTypeHash,
				CreatedAt: e.CreatedAt.UTC().Format(time.RFC3339),
			})
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"attestations": page},
		})
	})
}

func intArg(re *regexp.Regexp, query string, fallback int) int {
	m := re.FindStringSubmatch(query)
	if m == nil {
		return fallback
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return fallback
	}
	return n
}
