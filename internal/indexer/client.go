// Package indexer reads attestations from the chain indexer's GraphQL API and
// keeps the per-cType attestation counters in step with it.
package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"socialkyc/pkg/platform/tracer"
)

const maxResponseBytes = 8 << 20

// Fetcher runs one GraphQL query and returns the value of the first field of
// its data object.
type Fetcher interface {
	Query(ctx context.Context, query string) (json.RawMessage, error)
}

// Client implements Fetcher over HTTP.
type Client struct {
	url        string
	httpClient *http.Client
	tracer     tracer.Tracer
}

var _ Fetcher = (*Client)(nil)

type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client (for testing).
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

func WithTracer(t tracer.Tracer) ClientOption {
	return func(c *Client) {
		c.tracer = t
	}
}

func NewClient(url string, timeout time.Duration, opts ...ClientOption) *Client {
	c := &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		tracer:     tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

func (c *Client) Query(ctx context.Context, query string) (_ json.RawMessage, err error) {
	ctx, span := c.tracer.Start(ctx, tracer.SpanIndexerQuery)
	defer func() { span.End(err) }()

	body, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query indexer: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read indexer response: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("indexer answered %d", resp.StatusCode)
	}

	var out graphQLResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode indexer response: %w", err)
	}
	if len(out.Errors) > 0 {
		msgs := make([]string, 0, len(out.Errors))
		for _, e := range out.Errors {
			msgs = append(msgs, e.Message)
		}
		return nil, fmt.Errorf("indexer query failed: %s", strings.Join(msgs, "; "))
	}
	return firstField(out.Data)
}

// firstField returns the value of the first member of a JSON object.
func firstField(data json.RawMessage) (json.RawMessage, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, errors.New("indexer response has no data")
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("decode indexer data: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("indexer data is not an object")
	}
	if !dec.More() {
		return nil, errors.New("indexer data is empty")
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decode indexer data: %w", err)
	}
	var value json.RawMessage
	if err := dec.Decode(&value); err != nil {
		return nil, fmt.Errorf("decode indexer data: %w", err)
	}
	return value, nil
}
