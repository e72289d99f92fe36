// Package reconcile converges a key's actual controller set to a desired set.
//
// Reconciliation is deliberately not atomic: each grant or revoke that lands
// is durable in the registry regardless of whether later changes in the same
// pass fail. Convergence comes from recomputing the diff against the
// registry's current state on every pass, so re-running with the same desired
// set applies exactly the remainder and an already-converged pass performs
// zero mutating calls.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	"github.com/JLabsAU/relay-server/internal/keys/models"
	psync "github.com/JLabsAU/relay-server/pkg/platform/sync"
)

// ErrAuthorizationUnavailable marks a failed attempt to obtain a signing
// session. Non-fatal; the caller may retry the whole pass later.
var ErrAuthorizationUnavailable = errors.New("authorization unavailable")

// AuthorizationProvider obtains a time-bounded capability to act as a key's
// wallet. Production implementations call the distributed signing network;
// test doubles supply canned sessions. Credentials are never embedded.
type AuthorizationProvider interface {
	ObtainSession(ctx context.Context, keyID string) (*models.AuthorizationSession, error)
}

// RegistryOps is the slice of the registry capability reconciliation uses.
type RegistryOps interface {
	ListControllers(ctx context.Context, keyID string) ([]common.Address, error)
	GrantController(ctx context.Context, keyID string, controller common.Address, session *models.AuthorizationSession) error
	RevokeController(ctx context.Context, keyID string, controller common.Address, session *models.AuthorizationSession) error
}

// OpKind distinguishes the two controller mutations.
type OpKind string

const (
	OpRevoke OpKind = "revoke"
	OpGrant  OpKind = "grant"
)

// Op is one controller change within a reconciliation pass.
type Op struct {
	Kind       OpKind         `json:"kind"`
	Controller common.Address `json:"controller"`
}

// Result reports exactly which changes of a pass landed and which did not.
// Unapplied changes are never silently dropped; callers resume by re-running
// the pass with the same desired set.
type Result struct {
	KeyID     string `json:"keyId"`
	Applied   []Op   `json:"applied,omitempty"`
	Unapplied []Op   `json:"unapplied,omitempty"`
}

// Converged reports whether the pass left the controller set at the desired
// state.
func (r *Result) Converged() bool {
	return len(r.Unapplied) == 0
}

// Reconciler applies controller diffs under per-key serialization: two passes
// for the same key never interleave their obtain-session, apply, discard
// sequence, because the signing session may be exclusive per key.
type Reconciler struct {
	registry RegistryOps
	authz    AuthorizationProvider
	locks    *psync.ShardedMutex
	logger   *slog.Logger
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) { r.logger = logger }
}

// New creates a Reconciler over the given registry and authorization network.
func New(registry RegistryOps, authz AuthorizationProvider, opts ...Option) *Reconciler {
	r := &Reconciler{
		registry: registry,
		authz:    authz,
		locks:    psync.NewShardedMutex(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile converges the key's controller set to desired. An empty desired
// set strips every controller. The returned Result names every unapplied
// change; err is non-nil only when the pass could not start at all (read
// failure or no signing session).
func (r *Reconciler) Reconcile(ctx context.Context, key models.KeyRecord, desired []common.Address) (*Result, error) {
	r.locks.Lock(key.KeyID)
	defer r.locks.Unlock(key.KeyID)

	current, err := r.registry.ListControllers(ctx, key.KeyID)
	if err != nil {
		return nil, fmt.Errorf("list controllers for %s: %w", key.KeyID, err)
	}

	ops := diff(current, desired)
	result := &Result{KeyID: key.KeyID}
	if len(ops) == 0 {
		return result, nil
	}

	session, err := r.authz.ObtainSession(ctx, key.KeyID)
	if err != nil {
		return nil, fmt.Errorf("obtain session for %s: %w: %w", key.KeyID, ErrAuthorizationUnavailable, err)
	}
	// The session is dropped when this pass returns; it is never reused.

	for i, op := range ops {
		if ctx.Err() != nil {
			// Cancellation stops further changes; what already landed stays,
			// and the remainder is reported, never rolled back.
			result.Unapplied = append(result.Unapplied, ops[i:]...)
			break
		}
		if err := r.apply(ctx, key.KeyID, op, session); err != nil {
			r.logger.WarnContext(ctx, "controller change failed",
				"key_id", key.KeyID,
				"op", string(op.Kind),
				"controller", op.Controller.Hex(),
				"error", err,
			)
			result.Unapplied = append(result.Unapplied, op)
			continue
		}
		result.Applied = append(result.Applied, op)
	}

	r.logger.InfoContext(ctx, "reconciliation pass finished",
		"key_id", key.KeyID,
		"applied", len(result.Applied),
		"unapplied", len(result.Unapplied),
	)
	return result, nil
}

func (r *Reconciler) apply(ctx context.Context, keyID string, op Op, session *models.AuthorizationSession) error {
	switch op.Kind {
	case OpRevoke:
		return r.registry.RevokeController(ctx, keyID, op.Controller, session)
	case OpGrant:
		return r.registry.GrantController(ctx, keyID, op.Controller, session)
	default:
		return fmt.Errorf("unknown op kind %q", op.Kind)
	}
}

// diff computes the ordered change list: revokes first (current minus
// desired), then grants (desired minus current). Stripping stale controllers
// before adding new ones keeps the permitted set minimal mid-pass.
func diff(current, desired []common.Address) []Op {
	desiredSet := make(map[common.Address]struct{}, len(desired))
	for _, c := range desired {
		desiredSet[c] = struct{}{}
	}
	currentSet := make(map[common.Address]struct{}, len(current))
	for _, c := range current {
		currentSet[c] = struct{}{}
	}

	var ops []Op
	for _, c := range current {
		if _, keep := desiredSet[c]; !keep {
			ops = append(ops, Op{Kind: OpRevoke, Controller: c})
		}
	}
	seen := make(map[common.Address]struct{}, len(desired))
	for _, c := range desired {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		if _, have := currentSet[c]; !have {
			ops = append(ops, Op{Kind: OpGrant, Controller: c})
		}
	}
	return ops
}
