package main

import (
	"log/slog"

	"socialkyc/internal/platform/config"
	"socialkyc/internal/platform/metrics"
	"socialkyc/internal/providers"
	"socialkyc/internal/providers/email"
	"socialkyc/internal/providers/oauth"
	"socialkyc/internal/providers/telegram"
	sessionService "socialkyc/internal/session/service"
	"socialkyc/pkg/platform/circuit"
	"socialkyc/pkg/platform/tracer"
	"socialkyc/pkg/secrets"
)

type providerDeps struct {
	dispatcher *providers.Dispatcher
	email      *email.Service
}

// buildProviders enables every OAuth provider with configured credentials,
// email confirmation always, and Telegram when a bot token is set.
func buildProviders(cfg config.Server, manager *sessionService.Manager, log *slog.Logger, m *metrics.Metrics, tr tracer.Tracer) (*providerDeps, error) {
	var confirmers []providers.Confirmer

	descriptors := oauth.Descriptors()
	for _, name := range config.OAuthProviders {
		client := cfg.OAuth[name]
		if !client.Enabled() {
			continue
		}
		t, err := providers.ParseProviderType(name)
		if err != nil {
			return nil, err
		}
		breaker := circuit.New(name,
			circuit.WithFailureThreshold(cfg.Providers.FailureThreshold),
			circuit.WithCoolDown(cfg.Providers.CoolDown),
			circuit.WithStateChange(func(name string, from, to circuit.State) {
				log.Warn("provider circuit changed state", "provider", name, "from", from, "to", to)
			}),
		)
		confirmers = append(confirmers, oauth.New(descriptors[t], oauth.Credentials{
			ClientID:     client.ClientID,
			ClientSecret: client.ClientSecret,
			RedirectURL:  cfg.BaseURI + "/" + name + ".html",
		},
			oauth.WithTimeout(cfg.Providers.Timeout),
			oauth.WithBreaker(breaker),
			oauth.WithTracer(tr),
			oauth.WithLogger(log),
		))
		log.Info("provider enabled", "provider", name)
	}

	linkSecret := cfg.Email.LinkSecret
	if linkSecret == "" {
		generated, err := secrets.Generate()
		if err != nil {
			return nil, err
		}
		log.Warn("EMAIL_LINK_SECRET is not set; email links will not survive a restart")
		linkSecret = generated
	}
	var sender email.Sender
	if cfg.Email.SMTPHost != "" {
		sender = email.NewSMTPSender(cfg.Email.SMTPHost, cfg.Email.SMTPPort, cfg.Email.SMTPUsername, cfg.Email.SMTPPassword, cfg.Email.From)
	} else {
		log.Warn("SMTP_HOST is not set; confirmation links are logged instead of mailed")
		sender = email.NewLogSender(log)
	}
	emailService := email.New(manager, email.NewLinkKeys([]byte(linkSecret), cfg.Email.LinkTTL), sender, cfg.BaseURI,
		email.WithLogger(log),
		email.WithTracer(tr),
	)
	confirmers = append(confirmers, emailService)

	if cfg.Telegram.BotToken != "" {
		confirmers = append(confirmers, telegram.New(cfg.Telegram.BotToken, telegram.WithMaxAge(cfg.Telegram.MaxAge)))
		log.Info("provider enabled", "provider", "telegram")
	}

	dispatcher := providers.NewDispatcher(manager, confirmers,
		providers.WithLogger(log),
		providers.WithMetrics(m),
		providers.WithTracer(tr),
	)
	return &providerDeps{dispatcher: dispatcher, email: emailService}, nil
}
