package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"time"
)

const (
	defaultPageSize  = 100
	defaultPageDelay = time.Second
)

// cursorConfig controls pagination. pageSize must match the "first" argument
// the query builder renders.
type cursorConfig struct {
	pageSize  int
	pageDelay time.Duration
}

type CursorOption func(*cursorConfig)

func WithPageSize(n int) CursorOption {
	return func(c *cursorConfig) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithPageDelay sets the pause between page requests. Zero disables it.
func WithPageDelay(d time.Duration) CursorOption {
	return func(c *cursorConfig) {
		if d >= 0 {
			c.pageDelay = d
		}
	}
}

type page[T any] struct {
	TotalCount *int `json:"totalCount"`
	Nodes      *[]T `json:"nodes"`
}

// Iterate yields every node of a paginated connection. The first request at
// offset 0 discovers totalCount; when that page already holds everything no
// further request is made, otherwise the connection is walked page by page
// from offset 0 with a pause between requests. A failed request ends the
// sequence with the error. The sequence can be ranged over more than once.
func Iterate[T any](ctx context.Context, fetcher Fetcher, build func(offset int) string, opts ...CursorOption) iter.Seq2[T, error] {
	cfg := cursorConfig{pageSize: defaultPageSize, pageDelay: defaultPageDelay}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(yield func(T, error) bool) {
		var zero T

		first, err := fetchPage[T](ctx, fetcher, build(0))
		if err != nil {
			yield(zero, err)
			return
		}
		total := *first.TotalCount
		if total == 0 {
			return
		}
		if len(*first.Nodes) == total {
			for _, node := range *first.Nodes {
				if !yield(node, nil) {
					return
				}
			}
			return
		}

		for offset := 0; offset < total; offset += cfg.pageSize {
			if err := pause(ctx, cfg.pageDelay); err != nil {
				yield(zero, err)
				return
			}
			p, err := fetchPage[T](ctx, fetcher, build(offset))
			if err != nil {
				yield(zero, err)
				return
			}
			for _, node := range *p.Nodes {
				if !yield(node, nil) {
					return
				}
			}
		}
	}
}

func fetchPage[T any](ctx context.Context, fetcher Fetcher, query string) (*page[T], error) {
	raw, err := fetcher.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	var p page[T]
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode page: %w", err)
	}
	if p.TotalCount == nil {
		return nil, errors.New("indexer page has no totalCount")
	}
	if p.Nodes == nil {
		return nil, errors.New("indexer page has no nodes")
	}
	return &p, nil
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
