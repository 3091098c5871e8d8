package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	attestationHandler "socialkyc/internal/attestation/handler"
	attestationService "socialkyc/internal/attestation/service"
	"socialkyc/internal/chain"
	"socialkyc/internal/chain/ctype"
	"socialkyc/internal/chain/devsdk"
	"socialkyc/internal/indexer"
	"socialkyc/internal/platform/config"
	"socialkyc/internal/platform/health"
	"socialkyc/internal/platform/logger"
	"socialkyc/internal/platform/metrics"
	providerHandler "socialkyc/internal/providers/handler"
	sessionHandler "socialkyc/internal/session/handler"
	sessionService "socialkyc/internal/session/service"
	"socialkyc/internal/session/store"
	"socialkyc/internal/session/workers/sweep"
	httptransport "socialkyc/internal/transport/http"
	verifierHandler "socialkyc/internal/verifier/handler"
	verifierService "socialkyc/internal/verifier/service"
	"socialkyc/pkg/platform/middleware/request"
	"socialkyc/pkg/platform/tracer"
)

const shutdownTimeout = 10 * time.Second

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	log.Info("initializing socialkyc",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"base_uri", cfg.BaseURI,
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)
	tr := tracer.NewOTel()

	sdk, err := buildChain(cfg, log)
	if err != nil {
		return err
	}

	sessions := store.NewSessionStore(cfg.Session.TTL, time.Now)
	secrets := store.NewSecretStore(cfg.Session.SecretTTL)
	manager := sessionService.New(sessions, secrets, sdk.keyring, sdk.messenger,
		sessionService.WithLogger(log),
		sessionService.WithMetrics(m),
		sessionService.WithDIDMaxAge(cfg.Session.DIDMaxAge),
	)

	provs, err := buildProviders(cfg, manager, log, m, tr)
	if err != nil {
		return err
	}

	counters := indexer.NewCounters()
	pipeline := attestationService.New(manager, sdk.messenger, sdk.validator, sdk.ledger, sdk.registry,
		attestationService.WithLogger(log),
		attestationService.WithMetrics(m),
		attestationService.WithTracer(tr),
		attestationService.WithCounter(counters),
	)
	verifier := verifierService.New(manager, sdk.messenger, sdk.ledger, sdk.registry,
		verifierService.WithLogger(log),
		verifierService.WithTrustedAttesters(chain.DID(cfg.DApp.DID)),
	)

	sweeper, err := sweep.New(sessions, secrets,
		sweep.WithInterval(cfg.Session.SweepInterval),
		sweep.WithLogger(log),
		sweep.WithMetrics(m),
	)
	if err != nil {
		return err
	}

	healthHandler := health.New(cfg.Environment)
	healthHandler.RegisterStore("sessions", sessions.Len)
	healthHandler.RegisterStore("secrets", secrets.Len)
	reconciler := buildReconciler(cfg, counters, healthHandler, log, m, tr)

	routerOpts := httptransport.Options{
		Logger:   log,
		Metrics:  request.NewMetrics(reg),
		Gatherer: reg,
	}
	if !cfg.IsProduction() {
		routerOpts.DevIndexer = sdk.ledger.IndexerHandler()
	}
	handlers := []httptransport.Registrar{
		healthHandler,
		sessionHandler.New(manager, sdk.messenger.KeyURI(), log),
		providerHandler.New(provs.dispatcher, provs.email, log),
		attestationHandler.New(pipeline, log),
		verifierHandler.New(verifier, log),
		indexer.NewStatsHandler(counters, sdk.registry),
	}
	if !cfg.IsProduction() {
		handlers = append(handlers, devsdk.NewKeyHandler(sdk.keyring))
	}
	router := httptransport.NewRouter(routerOpts, handlers...)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return ignoreCancel(sweeper.Start(gctx))
	})
	if reconciler != nil {
		g.Go(func() error {
			return ignoreCancel(reconciler.Start(gctx))
		})
	}
	return g.Wait()
}

type chainKit struct {
	registry  *ctype.Registry
	keyring   *devsdk.Keyring
	messenger *devsdk.Messenger
	validator *devsdk.Validator
	ledger    *devsdk.Ledger
}

// buildChain sets up the development chain SDK: the dApp key pair, the DID
// keyring, the messenger and the attestation ledger.
func buildChain(cfg config.Server, log *slog.Logger) (*chainKit, error) {
	var keys devsdk.KeyPair
	var err error
	if cfg.DApp.Seed != "" {
		keys, err = devsdk.DeriveKeyPair(cfg.DApp.Seed)
	} else {
		log.Warn("DAPP_SEED is not set; using an ephemeral dApp key")
		keys, err = devsdk.GenerateKeyPair()
	}
	if err != nil {
		return nil, err
	}

	registry := ctype.Known()
	keyring := devsdk.NewKeyring()
	keyring.Register(cfg.DApp.EncryptionKeyURI, keys.Public)
	validator := devsdk.NewValidator(registry)
	return &chainKit{
		registry:  registry,
		keyring:   keyring,
		messenger: devsdk.NewMessenger(keyring, keys, cfg.DApp.EncryptionKeyURI),
		validator: validator,
		ledger:    devsdk.NewLedger(chain.DID(cfg.DApp.DID), validator),
	}, nil
}

// buildReconciler returns nil when no indexer is reachable. Outside
// production an unset INDEXER_URL points at the in-process dev indexer.
func buildReconciler(cfg config.Server, counters *indexer.Counters, h *health.Handler, log *slog.Logger, m *metrics.Metrics, tr tracer.Tracer) *indexer.Reconciler {
	url := cfg.Indexer.URL
	if url == "" {
		if cfg.IsProduction() {
			log.Warn("INDEXER_URL is not set; attestation counters will not be reconciled")
			return nil
		}
		url = cfg.BaseURI + "/dev/indexer"
	}

	client := indexer.NewClient(url, cfg.Providers.Timeout, indexer.WithTracer(tr))
	h.RegisterCheck("indexer", func(ctx context.Context) error {
		_, err := client.Query(ctx, "query { __typename }")
		return err
	})
	return indexer.NewReconciler(client, chain.DID(cfg.DApp.DID), counters,
		indexer.WithReconcilePageSize(cfg.Indexer.PageSize),
		indexer.WithReconcilePageDelay(cfg.Indexer.PageDelay),
		indexer.WithInterval(cfg.Indexer.ReconcileInterval),
		indexer.WithLogger(log),
		indexer.WithMetrics(m),
		indexer.WithReconcileTracer(tr),
	)
}

func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
