package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/JLabsAU/relay-server/internal/authmethod"
	"github.com/JLabsAU/relay-server/internal/identity/verifier"
	"github.com/JLabsAU/relay-server/internal/keys"
	"github.com/JLabsAU/relay-server/internal/keys/registry"
	"github.com/JLabsAU/relay-server/internal/lifecycle"
	"github.com/JLabsAU/relay-server/internal/platform/config"
	"github.com/JLabsAU/relay-server/internal/platform/health"
	"github.com/JLabsAU/relay-server/internal/platform/logger"
	"github.com/JLabsAU/relay-server/internal/reconcile"
	"github.com/JLabsAU/relay-server/internal/relay"
	"github.com/JLabsAU/relay-server/internal/relay/idempotency"
	"github.com/JLabsAU/relay-server/internal/relay/metrics"
	httptransport "github.com/JLabsAU/relay-server/internal/transport/http"
	"github.com/JLabsAU/relay-server/pkg/platform/circuit"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal packages.
func main() {
	_ = godotenv.Load()

	cfg := config.FromEnv()
	log := logger.New(slog.LevelInfo)

	log.Info("initializing relay-server",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"dev_registry", cfg.DevRegistry,
		"lifecycle_policy", cfg.LifecyclePolicy,
	)

	// Background context for long-lived caches; cancelled on shutdown.
	runCtx, stopRun := context.WithCancel(context.Background())
	defer stopRun()

	if !cfg.DevRegistry {
		// The chain-backed registry adapter is deployment-specific and not
		// part of this binary. Until one is linked in, the server only runs
		// against the in-process ledger.
		log.Error("no external registry configured; set RELAY_DEV_REGISTRY=true to use the in-process ledger")
		os.Exit(1)
	}
	ledger := registry.NewLedger()

	client := registry.NewClient(ledger,
		registry.WithLogger(log),
		registry.WithTimeout(cfg.UpstreamTimeout),
		registry.WithRetries(cfg.RegistryRetries),
		registry.WithBackoff(cfg.RetryBackoff),
		registry.WithBreaker(circuit.New("registry")),
	)

	policy, err := lifecycle.ByName(cfg.LifecyclePolicy)
	if err != nil {
		log.Error("invalid lifecycle policy", "error", err)
		os.Exit(1)
	}

	googleVerifier, err := buildVerifier(runCtx, cfg, log)
	if err != nil {
		log.Error("verifier initialization failed", "error", err)
		os.Exit(1)
	}

	resolver := keys.NewResolver(client)
	reconciler := reconcile.New(client, ledger, reconcile.WithLogger(log))
	manager := lifecycle.NewManager(reconciler, client, ledger, lifecycle.WithLogger(log))

	service, err := relay.New(
		googleVerifier,
		client,
		resolver,
		client,
		reconciler,
		manager,
		relay.WithLogger(log),
		relay.WithMetrics(metrics.New()),
		relay.WithPolicy(policy),
		relay.WithIdempotencyStore(idempotency.NewStore(cfg.IdempotencyTTL)),
	)
	if err != nil {
		log.Error("service initialization failed", "error", err)
		os.Exit(1)
	}

	healthHandler := health.New(cfg.Environment)
	healthHandler.RegisterCheck("registry", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_, err := ledger.ListKeys(ctx, authmethod.Handle{})
		return err
	})

	handler := httptransport.NewHandler(service, log)
	router := httptransport.NewRouter(handler, healthHandler, log, httptransport.RouterConfig{
		RequestTimeout: cfg.UpstreamTimeout + 5*time.Second,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Info("starting http server", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server gracefully")
	stopRun()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}

// buildVerifier constructs the Google ID token verifier. Dev mode without a
// configured audience still verifies signatures against Google's published
// keys; it only skips the audience check.
func buildVerifier(ctx context.Context, cfg config.Server, log *slog.Logger) (*verifier.GoogleVerifier, error) {
	jwksURL := cfg.GoogleJWKSURL
	if jwksURL == "" {
		jwksURL = verifier.GoogleJWKSURL
	}

	keyfunc, err := verifier.NewCachedKeyfunc(ctx, jwksURL)
	if err != nil {
		return nil, err
	}

	opts := []verifier.GoogleOption{}
	if cfg.GoogleAudience != "" {
		opts = append(opts, verifier.WithAudience(cfg.GoogleAudience))
	} else {
		log.Warn("GOOGLE_CLIENT_ID not set; audience check disabled")
	}
	return verifier.NewGoogle(keyfunc, opts...), nil
}
