package device

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestName(t *testing.T) {
	tests := []struct {
		name      string
		userAgent string
		check     func(t *testing.T, got string)
	}{
		{
			name:      "empty user agent",
			userAgent: "  ",
			check: func(t *testing.T, got string) {
				assert.Equal(t, "Unknown Device", got)
			},
		},
		{
			name:      "chrome on desktop",
			userAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			check: func(t *testing.T, got string) {
				assert.Contains(t, got, "Chrome on ")
			},
		},
		{
			name:      "safari on iphone uses platform",
			userAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
			check: func(t *testing.T, got string) {
				assert.Contains(t, got, "iPhone")
			},
		},
		{
			name:      "unknown agent still formatted",
			userAgent: "curl-ish/1.0",
			check: func(t *testing.T, got string) {
				assert.Contains(t, got, " on ")
			},
		},
		{
			name:      "long agent is truncated",
			userAgent: strings.Repeat("X", 300) + "/1.0",
			check: func(t *testing.T, got string) {
				assert.LessOrEqual(t, len(got), maxNameLength)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, Name(tt.userAgent))
		})
	}
}
