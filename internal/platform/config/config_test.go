package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, time.Hour, cfg.Session.TTL)
	assert.Equal(t, 5*time.Minute, cfg.Session.SecretTTL)
	assert.Equal(t, time.Hour, cfg.Session.DIDMaxAge)
	assert.Equal(t, 24*time.Hour, cfg.Telegram.MaxAge)
	assert.Equal(t, 100, cfg.Indexer.PageSize)
	assert.Len(t, cfg.OAuth, len(OAuthProviders))
	assert.False(t, cfg.OAuth["github"].Enabled())
	assert.False(t, cfg.IsProduction())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("SOCIALKYC_ADDR", ":9000")
	t.Setenv("BASE_URI", "https://kyc.example.com/")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("DID_MAX_AGE", "10m")
	t.Setenv("INDEXER_PAGE_SIZE", "50")
	t.Setenv("GITHUB_CLIENT_ID", "id")
	t.Setenv("GITHUB_CLIENT_SECRET", "secret")
	t.Setenv("ENVIRONMENT", "production")

	cfg := FromEnv()

	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, "https://kyc.example.com", cfg.BaseURI)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, 10*time.Minute, cfg.Session.DIDMaxAge)
	assert.Equal(t, 50, cfg.Indexer.PageSize)
	assert.True(t, cfg.OAuth["github"].Enabled())
	assert.True(t, cfg.IsProduction())
}

func TestFromEnvIgnoresInvalidValues(t *testing.T) {
	t.Setenv("SESSION_TTL", "forever")
	t.Setenv("SECRET_TTL", "-5m")
	t.Setenv("INDEXER_PAGE_SIZE", "many")

	cfg := FromEnv()

	assert.Equal(t, time.Hour, cfg.Session.TTL)
	assert.Equal(t, 5*time.Minute, cfg.Session.SecretTTL)
	assert.Equal(t, 100, cfg.Indexer.PageSize)
}
