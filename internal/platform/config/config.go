package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr        string
	Environment string
	LogLevel    string
	// BaseURI is the public origin used to build OAuth redirects and email links.
	BaseURI string

	Session   Session
	DApp      DApp
	Email     Email
	OAuth     map[string]OAuthClient
	Telegram  Telegram
	Indexer   Indexer
	Providers Providers
}

// Session holds TTLs of the process-local stores.
type Session struct {
	TTL           time.Duration
	SecretTTL     time.Duration
	DIDMaxAge     time.Duration
	SweepInterval time.Duration
}

// DApp identifies this service on the chain side.
type DApp struct {
	Name             string
	DID              string
	EncryptionKeyURI string
	// Seed derives the dApp's messaging key pair; empty draws a random one at startup.
	Seed string
}

// Email configures outbound confirmation mail. An empty SMTPHost logs links instead of sending them.
type Email struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	From         string
	LinkSecret   string
	LinkTTL      time.Duration
}

// OAuthClient holds the credentials registered with one OAuth provider.
type OAuthClient struct {
	ClientID     string
	ClientSecret string
}

// Enabled reports whether the provider has credentials configured.
func (c OAuthClient) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

type Telegram struct {
	BotToken string
	MaxAge   time.Duration
}

// Indexer configures the paginated attestation query API.
type Indexer struct {
	URL               string
	PageSize          int
	PageDelay         time.Duration
	ReconcileInterval time.Duration
}

// Providers configures outbound provider calls.
type Providers struct {
	Timeout          time.Duration
	FailureThreshold int
	CoolDown         time.Duration
}

// OAuthProviders lists the providers FromEnv reads credentials for.
var OAuthProviders = []string{"discord", "github", "twitch", "linkedin", "youtube"}

// FromEnv builds a Server config from environment variables so main stays lean.
// Unparseable values fall back to their defaults.
func FromEnv() Server {
	cfg := Server{
		Addr:        envString("SOCIALKYC_ADDR", ":8080"),
		Environment: envString("ENVIRONMENT", "development"),
		LogLevel:    envString("LOG_LEVEL", "info"),
		BaseURI:     strings.TrimRight(envString("BASE_URI", "http://localhost:8080"), "/"),
		Session: Session{
			TTL:           envDuration("SESSION_TTL", time.Hour),
			SecretTTL:     envDuration("SECRET_TTL", 5*time.Minute),
			DIDMaxAge:     envDuration("DID_MAX_AGE", time.Hour),
			SweepInterval: envDuration("SWEEP_INTERVAL", time.Minute),
		},
		DApp: DApp{
			Name:             envString("DAPP_NAME", "SocialKYC"),
			DID:              envString("DAPP_DID", "did:kilt:dev-attester"),
			EncryptionKeyURI: envString("DAPP_KEY_URI", "did:kilt:dev-attester#encryption"),
			Seed:             os.Getenv("DAPP_SEED"),
		},
		Email: Email{
			SMTPHost:     os.Getenv("SMTP_HOST"),
			SMTPPort:     envInt("SMTP_PORT", 587),
			SMTPUsername: os.Getenv("SMTP_USERNAME"),
			SMTPPassword: os.Getenv("SMTP_PASSWORD"),
			From:         envString("EMAIL_FROM", "noreply@socialkyc.local"),
			LinkSecret:   os.Getenv("EMAIL_LINK_SECRET"),
			LinkTTL:      envDuration("EMAIL_LINK_TTL", 5*time.Minute),
		},
		OAuth: make(map[string]OAuthClient, len(OAuthProviders)),
		Telegram: Telegram{
			BotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
			MaxAge:   envDuration("TELEGRAM_MAX_AGE", 24*time.Hour),
		},
		Indexer: Indexer{
			URL:               os.Getenv("INDEXER_URL"),
			PageSize:          envInt("INDEXER_PAGE_SIZE", 100),
			PageDelay:         envDuration("INDEXER_PAGE_DELAY", time.Second),
			ReconcileInterval: envDuration("RECONCILE_INTERVAL", 15*time.Minute),
		},
		Providers: Providers{
			Timeout:          envDuration("PROVIDER_TIMEOUT", 10*time.Second),
			FailureThreshold: envInt("PROVIDER_FAILURE_THRESHOLD", 5),
			CoolDown:         envDuration("PROVIDER_COOL_DOWN", 30*time.Second),
		},
	}

	for _, name := range OAuthProviders {
		prefix := strings.ToUpper(name)
		cfg.OAuth[name] = OAuthClient{
			ClientID:     os.Getenv(prefix + "_CLIENT_ID"),
			ClientSecret: os.Getenv(prefix + "_CLIENT_SECRET"),
		}
	}
	return cfg
}

// IsProduction reports whether development conveniences must stay off.
func (s Server) IsProduction() bool {
	return s.Environment == "production"
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
