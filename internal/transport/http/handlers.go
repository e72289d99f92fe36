// Package httptransport is the thin HTTP layer. Handlers decode requests,
// delegate to the relay service, and encode responses; business rules live
// below this package.
package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/JLabsAU/relay-server/internal/keys/models"
	"github.com/JLabsAU/relay-server/internal/lifecycle"
	"github.com/JLabsAU/relay-server/internal/reconcile"
	"github.com/JLabsAU/relay-server/internal/relay"
	domErrors "github.com/JLabsAU/relay-server/pkg/domain-errors"
	"github.com/JLabsAU/relay-server/pkg/platform/httputil"
)

// RelayService is what the transport layer needs from the relay pipeline.
type RelayService interface {
	Mint(ctx context.Context, rawToken, idempotencyKey string) (*models.KeyRecord, error)
	Fetch(ctx context.Context, rawToken string) ([]relay.KeyBinding, error)
	Reconcile(ctx context.Context, rawToken, keyID string, desired []common.Address) (*reconcile.Result, error)
	Retire(ctx context.Context, rawToken, keyID string) error
	ApplyLifecycle(ctx context.Context, rawToken string) (lifecycle.Result, error)
}

// Handler serves the relay endpoints.
type Handler struct {
	relay  RelayService
	logger *slog.Logger
}

// NewHandler creates the HTTP handler over the relay service.
func NewHandler(service RelayService, logger *slog.Logger) *Handler {
	return &Handler{relay: service, logger: logger}
}

type mintRequest struct {
	IDToken string `json:"idToken"`
}

type fetchRequest struct {
	IDToken string `json:"idToken"`
}

type reconcileRequest struct {
	IDToken            string   `json:"idToken"`
	KeyID              string   `json:"keyId"`
	DesiredControllers []string `json:"desiredControllers"`
}

type retireRequest struct {
	IDToken string `json:"idToken"`
	KeyID   string `json:"keyId"`
}

type lifecycleRequest struct {
	IDToken string `json:"idToken"`
}

func (h *Handler) handleMint(w http.ResponseWriter, r *http.Request) {
	var req mintRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.IDToken == "" {
		httputil.WriteError(w, domErrors.New(domErrors.CodeBadRequest, "idToken is required"))
		return
	}

	key, err := h.relay.Mint(r.Context(), req.IDToken, r.Header.Get("Idempotency-Key"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"key": key})
}

func (h *Handler) handleFetch(w http.ResponseWriter, r *http.Request) {
	var req fetchRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.IDToken == "" {
		httputil.WriteError(w, domErrors.New(domErrors.CodeBadRequest, "idToken is required"))
		return
	}

	bindings, err := h.relay.Fetch(r.Context(), req.IDToken)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if bindings == nil {
		bindings = []relay.KeyBinding{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"keys": bindings})
}

func (h *Handler) handleReconcile(w http.ResponseWriter, r *http.Request) {
	var req reconcileRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.IDToken == "" || req.KeyID == "" {
		httputil.WriteError(w, domErrors.New(domErrors.CodeBadRequest, "idToken and keyId are required"))
		return
	}

	desired := make([]common.Address, 0, len(req.DesiredControllers))
	for _, raw := range req.DesiredControllers {
		if !common.IsHexAddress(raw) {
			httputil.WriteError(w, domErrors.WithDetail(
				domErrors.CodeBadRequest, "desiredControllers contains an invalid address", raw))
			return
		}
		desired = append(desired, common.HexToAddress(raw))
	}

	result, err := h.relay.Reconcile(r.Context(), req.IDToken, req.KeyID, desired)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"result": result})
}

func (h *Handler) handleRetire(w http.ResponseWriter, r *http.Request) {
	var req retireRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.IDToken == "" || req.KeyID == "" {
		httputil.WriteError(w, domErrors.New(domErrors.CodeBadRequest, "idToken and keyId are required"))
		return
	}

	if err := h.relay.Retire(r.Context(), req.IDToken, req.KeyID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "retired"})
}

func (h *Handler) handleLifecycle(w http.ResponseWriter, r *http.Request) {
	var req lifecycleRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.IDToken == "" {
		httputil.WriteError(w, domErrors.New(domErrors.CodeBadRequest, "idToken is required"))
		return
	}

	result, err := h.relay.ApplyLifecycle(r.Context(), req.IDToken)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"result": result})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httputil.WriteError(w, domErrors.Wrap(err, domErrors.CodeBadRequest, "malformed request body"))
		return false
	}
	return true
}
