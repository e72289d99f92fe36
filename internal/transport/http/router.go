package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JLabsAU/relay-server/internal/platform/health"
	"github.com/JLabsAU/relay-server/pkg/platform/middleware/request"
)

// RouterConfig carries transport-level settings.
type RouterConfig struct {
	RequestTimeout time.Duration
}

// NewRouter wires all public endpoints with the middleware stack.
func NewRouter(h *Handler, healthHandler *health.Handler, logger *slog.Logger, cfg RouterConfig) http.Handler {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r := chi.NewRouter()

	r.Use(request.Recovery(logger))
	r.Use(request.RequestID)
	r.Use(request.Logger(logger))

	// Probes and metrics skip the JSON content-type requirement.
	healthHandler.Register(r)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(api chi.Router) {
		api.Use(request.Timeout(timeout))
		api.Use(request.ContentTypeJSON)

		api.Post("/auth/google/mint", h.handleMint)
		api.Post("/auth/google/fetch", h.handleFetch)

		api.Post("/keys/reconcile", h.handleReconcile)
		api.Post("/keys/retire", h.handleRetire)
		api.Post("/keys/lifecycle", h.handleLifecycle)
	})

	return r
}
