// Package requestcontext carries per-request values through context.Context.
package requestcontext

import (
	"context"

	id "socialkyc/pkg/domain"
)

type (
	requestIDKey struct{}
	sessionIDKey struct{}
	userAgentKey struct{}
)

// WithRequestID stores the request id on ctx.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestID returns the request id stored on ctx, or "".
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

// WithSessionID stores the caller's session id on ctx.
func WithSessionID(ctx context.Context, sessionID id.SessionID) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, sessionID)
}

// SessionID returns the caller's session id and whether one was set.
func SessionID(ctx context.Context) (id.SessionID, bool) {
	v, ok := ctx.Value(sessionIDKey{}).(id.SessionID)
	return v, ok && !v.IsNil()
}

// WithUserAgent stores the raw User-Agent header on ctx.
func WithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, userAgentKey{}, ua)
}

// UserAgent returns the raw User-Agent header stored on ctx, or "".
func UserAgent(ctx context.Context) string {
	if v, ok := ctx.Value(userAgentKey{}).(string); ok {
		return v
	}
	return ""
}
