// Package tracer provides a lightweight tracing abstraction.
//
// Components depend on the Tracer interface instead of OpenTelemetry directly.
// Outbound calls (OAuth providers, chain submissions, indexer queries) open a
// span each so slow collaborators show up in traces.
//
// Implementations:
//   - NoopTracer: for tests
//   - OTelTracer: OpenTelemetry adapter for production
package tracer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span. A non-nil err marks the span as failed.
	// End must be called exactly once, typically via defer.
	End(err error)

	SetAttributes(attrs ...Attribute)

	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	// Start creates a new span with the given name and attributes.
	//
	// Example:
	//   ctx, span := t.Start(ctx, tracer.SpanProviderConfirm,
	//       tracer.String(tracer.AttrProvider, "github"),
	//   )
	//   defer func() { span.End(err) }()
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// HashIdentifier returns a short SHA-256 prefix of an external identifier
// (email address, social handle) so traces can be correlated without PII.
func HashIdentifier(v string) string {
	if v == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(v))
	return hex.EncodeToString(hash[:8])
}

// Span names.
const (
	SpanProviderConfirm   = "provider.confirm"
	SpanProviderExchange  = "provider.oauth.exchange"
	SpanProviderProfile   = "provider.oauth.profile"
	SpanProviderRevoke    = "provider.oauth.revoke"
	SpanAttestationSubmit = "attestation.submit"
	SpanIndexerQuery      = "indexer.query"
	SpanIndexerReconcile  = "indexer.reconcile"
)

// Attribute keys.
const (
	AttrProvider  = "provider"
	AttrCType     = "ctype"
	AttrOffset    = "offset"
	AttrRecords   = "records"
	AttrSubject   = "subject"
	AttrRetryable = "retryable"
)
