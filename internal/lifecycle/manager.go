package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	"github.com/JLabsAU/relay-server/internal/keys/models"
	"github.com/JLabsAU/relay-server/internal/keys/registry"
	"github.com/JLabsAU/relay-server/internal/reconcile"
)

// ErrUnsafeRetire is returned when a retire is requested for a key that
// still has controllers. No registry mutation happens in that case.
var ErrUnsafeRetire = errors.New("key still has controllers")

// ControllerReconciler drives a key's controller set toward a desired set.
type ControllerReconciler interface {
	Reconcile(ctx context.Context, key models.KeyRecord, desired []common.Address) (*reconcile.Result, error)
}

// RegistryOps is the slice of registry behavior the manager needs.
type RegistryOps interface {
	ListControllers(ctx context.Context, keyID string) ([]common.Address, error)
	Retire(ctx context.Context, keyID string, session *models.AuthorizationSession) error
}

// Failure records one action that did not complete during a policy pass.
type Failure struct {
	Action Action `json:"action"`
	Reason string `json:"reason"`
}

// Result summarizes a policy pass over one handle's keys.
type Result struct {
	Policy    string    `json:"policy"`
	Completed []Action  `json:"completed"`
	Failures  []Failure `json:"failures,omitempty"`
}

// Clean reports whether every planned action completed.
func (r Result) Clean() bool { return len(r.Failures) == 0 }

// Manager executes lifecycle plans. It never mints; it only strips
// controllers and retires keys, always through the reconciler and registry
// it was handed.
type Manager struct {
	reconciler ControllerReconciler
	registry   RegistryOps
	authz      reconcile.AuthorizationProvider
	logger     *slog.Logger
}

type Option func(*Manager)

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

func NewManager(rec ControllerReconciler, reg RegistryOps, authz reconcile.AuthorizationProvider, opts ...Option) *Manager {
	m := &Manager{
		reconciler: rec,
		registry:   reg,
		authz:      authz,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// StripAllControllers reconciles the key's controller set to empty.
func (m *Manager) StripAllControllers(ctx context.Context, key models.KeyRecord) (*reconcile.Result, error) {
	return m.reconciler.Reconcile(ctx, key, nil)
}

// Retire permanently deactivates a key. Keys with live controllers are
// refused with ErrUnsafeRetire; callers strip first. Retiring a key that is
// already retired is a no-op.
func (m *Manager) Retire(ctx context.Context, keyID string) error {
	controllers, err := m.registry.ListControllers(ctx, keyID)
	if err != nil {
		if errors.Is(err, registry.ErrAlreadyRetired) {
			return nil
		}
		return fmt.Errorf("inspect controllers: %w", err)
	}
	if len(controllers) > 0 {
		return fmt.Errorf("%w: %d remaining", ErrUnsafeRetire, len(controllers))
	}

	session, err := m.authz.ObtainSession(ctx, keyID)
	if err != nil {
		return fmt.Errorf("%w: %w", reconcile.ErrAuthorizationUnavailable, err)
	}

	if err := m.registry.Retire(ctx, keyID, session); err != nil {
		if errors.Is(err, registry.ErrAlreadyRetired) {
			return nil
		}
		return err
	}
	m.logger.InfoContext(ctx, "key retired", "key_id", keyID)
	return nil
}

// ApplyPolicy plans with the given policy and executes the plan. Actions are
// applied independently: one failure is recorded and the pass continues,
// except that a retire is skipped when the strip for the same key failed.
// Cancellation stops the pass; unexecuted actions are reported as failures.
func (m *Manager) ApplyPolicy(ctx context.Context, policy Policy, keys []models.KeyRecord) (Result, error) {
	plan := policy.Plan(keys)
	result := Result{Policy: policy.Name()}
	if len(plan) == 0 {
		return result, nil
	}

	stripFailed := make(map[string]bool)
	for i, action := range plan {
		if ctx.Err() != nil {
			for _, rest := range plan[i:] {
				result.Failures = append(result.Failures, Failure{Action: rest, Reason: ctx.Err().Error()})
			}
			break
		}

		switch action.Kind {
		case ActionStripControllers:
			res, err := m.StripAllControllers(ctx, action.Key)
			switch {
			case err != nil:
				stripFailed[action.Key.KeyID] = true
				result.Failures = append(result.Failures, Failure{Action: action, Reason: err.Error()})
			case !res.Converged():
				stripFailed[action.Key.KeyID] = true
				result.Failures = append(result.Failures, Failure{
					Action: action,
					Reason: fmt.Sprintf("%d controller operations unapplied", len(res.Unapplied)),
				})
			default:
				result.Completed = append(result.Completed, action)
			}
		case ActionRetire:
			if stripFailed[action.Key.KeyID] {
				result.Failures = append(result.Failures, Failure{Action: action, Reason: "controllers not stripped"})
				continue
			}
			if err := m.Retire(ctx, action.Key.KeyID); err != nil {
				result.Failures = append(result.Failures, Failure{Action: action, Reason: err.Error()})
				continue
			}
			result.Completed = append(result.Completed, action)
		default:
			result.Failures = append(result.Failures, Failure{Action: action, Reason: "unknown action kind"})
		}
	}

	m.logger.InfoContext(ctx, "lifecycle pass finished",
		"policy", policy.Name(),
		"planned", len(plan),
		"completed", len(result.Completed),
		"failed", len(result.Failures),
	)
	return result, nil
}
