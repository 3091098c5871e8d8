package secrets

import (
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "socialkyc/pkg/domain-errors"
)

func TestGenerate(t *testing.T) {
	s, err := Generate()
	require.NoError(t, err)
	raw, err := base64.RawURLEncoding.DecodeString(s)
	require.NoError(t, err)
	assert.Len(t, raw, 32)
}

func TestNumeric(t *testing.T) {
	seen := make(map[string]struct{})
	for range 200 {
		s, err := Numeric(20)
		require.NoError(t, err)
		require.Len(t, s, 20)
		for _, r := range s {
			require.True(t, r >= '0' && r <= '9', "unexpected rune %q", r)
		}
		seen[s] = struct{}{}
	}
	assert.Len(t, seen, 200, "20-digit secrets should not collide")

	_, err := Numeric(0)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestNonce(t *testing.T) {
	n, err := Nonce(24)
	require.NoError(t, err)
	raw, err := hex.DecodeString(n)
	require.NoError(t, err)
	assert.Len(t, raw, 24)
}
