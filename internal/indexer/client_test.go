package indexer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func graphQLServer(t *testing.T, status int, body string) (*httptest.Server, *string) {
	t.Helper()
	var seen string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query string `json:"query"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		seen = req.Query
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func TestClientReturnsFirstDataField(t *testing.T) {
	srv, seen := graphQLServer(t, http.StatusOK, `{"data":{"attestations":{"totalCount":1,"nodes":[{"claimHash":"0x1"}]},"other":1}}`)
	client := NewClient(srv.URL, time.Second)

	raw, err := client.Query(context.Background(), "query { attestations { totalCount } }")
	require.NoError(t, err)
	assert.JSONEq(t, `{"totalCount":1,"nodes":[{"claimHash":"0x1"}]}`, string(raw))
	assert.Equal(t, "query { attestations { totalCount } }", *seen)
}

func TestClientErrors(t *testing.T) {
	cases := map[string]struct {
		status int
		body   string
		want   string
	}{
		"graphql errors": {http.StatusOK, `{"errors":[{"message":"unknown field"},{"message":"bad filter"}]}`, "unknown field; bad filter"},
		"server error":   {http.StatusBadGateway, `upstream down`, "502"},
		"null data":      {http.StatusOK, `{"data":null}`, "no data"},
		"empty data":     {http.StatusOK, `{"data":{}}`, "empty"},
		"not json":       {http.StatusOK, `<html>`, "decode"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			srv, _ := graphQLServer(t, tc.status, tc.body)
			_, err := NewClient(srv.URL, time.Second).Query(context.Background(), "query {}")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}
