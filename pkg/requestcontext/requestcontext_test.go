package requestcontext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	id "socialkyc/pkg/domain"
)

func TestRequestContextRoundTrip(t *testing.T) {
	ctx := context.Background()

	_, ok := SessionID(ctx)
	assert.False(t, ok)
	assert.Empty(t, RequestID(ctx))
	assert.Empty(t, UserAgent(ctx))

	sid := id.NewSessionID()
	ctx = WithSessionID(WithRequestID(WithUserAgent(ctx, "ua"), "req-1"), sid)

	got, ok := SessionID(ctx)
	assert.True(t, ok)
	assert.Equal(t, sid, got)
	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Equal(t, "ua", UserAgent(ctx))
}

func TestSessionID_NilIsAbsent(t *testing.T) {
	ctx := WithSessionID(context.Background(), id.SessionID{})

	_, ok := SessionID(ctx)
	assert.False(t, ok)
}
