// Package relay wires identity verification, handle derivation, the registry
// client, reconciliation, and lifecycle policy into the operations the
// transport layer exposes. It is the only layer that translates dependency
// sentinels into domain errors.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/JLabsAU/relay-server/internal/authmethod"
	"github.com/JLabsAU/relay-server/internal/identity"
	"github.com/JLabsAU/relay-server/internal/keys/models"
	"github.com/JLabsAU/relay-server/internal/keys/registry"
	"github.com/JLabsAU/relay-server/internal/lifecycle"
	"github.com/JLabsAU/relay-server/internal/reconcile"
	"github.com/JLabsAU/relay-server/internal/relay/idempotency"
	"github.com/JLabsAU/relay-server/internal/relay/metrics"
	domErrors "github.com/JLabsAU/relay-server/pkg/domain-errors"
)

// IdentityVerifier validates a raw credential and extracts the claim bound
// to keys.
type IdentityVerifier interface {
	Verify(ctx context.Context, rawToken string) (identity.Claim, error)
}

// KeyMinter issues at most one live key per handle.
type KeyMinter interface {
	MintIfAbsent(ctx context.Context, handle authmethod.Handle, authType identity.AuthMethodType) (*models.KeyRecord, error)
}

// KeyResolver lists a handle's keys ordered by mint sequence.
type KeyResolver interface {
	Resolve(ctx context.Context, handle authmethod.Handle) ([]models.KeyRecord, error)
}

// ControllerInspector reads a key's current controller set.
type ControllerInspector interface {
	ListControllers(ctx context.Context, keyID string) ([]common.Address, error)
}

// ControllerReconciler converges a key's controller set to a desired set.
type ControllerReconciler interface {
	Reconcile(ctx context.Context, key models.KeyRecord, desired []common.Address) (*reconcile.Result, error)
}

// LifecycleManager retires keys and executes lifecycle plans.
type LifecycleManager interface {
	Retire(ctx context.Context, keyID string) error
	ApplyPolicy(ctx context.Context, policy lifecycle.Policy, keys []models.KeyRecord) (lifecycle.Result, error)
}

// KeyBinding is one key together with its current controllers, as returned
// by Fetch. Fetch is read-only: listing keys never mutates them.
type KeyBinding struct {
	Key         models.KeyRecord `json:"key"`
	Controllers []common.Address `json:"controllers"`
}

// Service implements the relay operations.
type Service struct {
	verifier   IdentityVerifier
	minter     KeyMinter
	resolver   KeyResolver
	inspector  ControllerInspector
	reconciler ControllerReconciler
	lifecycle  LifecycleManager

	policy             lifecycle.Policy
	idempotency        *idempotency.Store
	metrics            *metrics.Metrics
	logger             *slog.Logger
	inspectConcurrency int
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithPolicy sets the lifecycle policy ApplyLifecycle runs.
func WithPolicy(p lifecycle.Policy) Option {
	return func(s *Service) { s.policy = p }
}

// WithIdempotencyStore enables replay suppression for mint requests that
// carry an idempotency key.
func WithIdempotencyStore(store *idempotency.Store) Option {
	return func(s *Service) { s.idempotency = store }
}

// WithInspectConcurrency bounds the parallel controller listings Fetch issues.
func WithInspectConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.inspectConcurrency = n
		}
	}
}

// New creates the relay service.
func New(
	verifier IdentityVerifier,
	minter KeyMinter,
	resolver KeyResolver,
	inspector ControllerInspector,
	reconciler ControllerReconciler,
	lc LifecycleManager,
	opts ...Option,
) (*Service, error) {
	if verifier == nil || minter == nil || resolver == nil || inspector == nil || reconciler == nil || lc == nil {
		return nil, errors.New("relay: all dependencies are required")
	}
	s := &Service{
		verifier:           verifier,
		minter:             minter,
		resolver:           resolver,
		inspector:          inspector,
		reconciler:         reconciler,
		lifecycle:          lc,
		policy:             lifecycle.StripAllButNewest{},
		logger:             slog.Default(),
		inspectConcurrency: 4,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Mint verifies the credential and ensures the identity has a key, returning
// the existing live key when one was minted before. idempotencyKey may be
// empty; when set, a replayed request is answered from the idempotency store
// without touching the registry.
func (s *Service) Mint(ctx context.Context, rawToken, idempotencyKey string) (*models.KeyRecord, error) {
	start := time.Now()
	claim, handle, canonical, err := s.resolveIdentity(ctx, rawToken)
	if err != nil {
		return nil, err
	}

	if s.idempotency != nil && idempotencyKey != "" {
		// Scope the key to the identity so two callers reusing the same
		// header value cannot read each other's result.
		if record, ok := s.idempotency.Get(canonical + "\x00" + idempotencyKey); ok {
			if s.metrics != nil {
				s.metrics.IncrementMintsDeduplicated()
			}
			return record, nil
		}
	}

	record, err := s.minter.MintIfAbsent(ctx, handle, claim.Type)
	if err != nil {
		return nil, s.fail(ctx, "mint", err)
	}

	if s.idempotency != nil && idempotencyKey != "" {
		s.idempotency.Put(canonical+"\x00"+idempotencyKey, record)
	}
	if s.metrics != nil {
		s.metrics.IncrementMints()
		s.metrics.ObserveOperationDuration("mint", float64(time.Since(start).Milliseconds()))
	}
	s.logger.InfoContext(ctx, "mint complete",
		"handle", handle.Hex(),
		"key_id", record.KeyID,
		"mint_sequence", record.MintSequence,
	)
	return record, nil
}

// Fetch verifies the credential and returns every key bound to the identity
// with its current controllers, oldest first. Pure read: no mint, no
// lifecycle action.
func (s *Service) Fetch(ctx context.Context, rawToken string) ([]KeyBinding, error) {
	start := time.Now()
	_, handle, _, err := s.resolveIdentity(ctx, rawToken)
	if err != nil {
		return nil, err
	}

	keys, err := s.resolver.Resolve(ctx, handle)
	if err != nil {
		return nil, s.fail(ctx, "fetch", err)
	}

	bindings := make([]KeyBinding, len(keys))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(s.inspectConcurrency)
	for i, key := range keys {
		i, key := i, key // per-iteration copies; go directive predates Go 1.22 loopvar semantics
		group.Go(func() error {
			controllers, err := s.inspector.ListControllers(gctx, key.KeyID)
			if err != nil {
				return fmt.Errorf("list controllers for %s: %w", key.KeyID, err)
			}
			bindings[i] = KeyBinding{Key: key, Controllers: controllers}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, s.fail(ctx, "fetch", err)
	}

	if s.metrics != nil {
		s.metrics.IncrementFetches()
		s.metrics.ObserveOperationDuration("fetch", float64(time.Since(start).Milliseconds()))
	}
	return bindings, nil
}

// Reconcile verifies the credential, checks the key belongs to the identity,
// and converges its controller set to desired. A pass that could not apply
// every change returns the partial result alongside a partial_reconciliation
// error naming the unapplied changes.
func (s *Service) Reconcile(ctx context.Context, rawToken, keyID string, desired []common.Address) (*reconcile.Result, error) {
	start := time.Now()
	_, handle, _, err := s.resolveIdentity(ctx, rawToken)
	if err != nil {
		return nil, err
	}

	key, err := s.ownedKey(ctx, handle, keyID)
	if err != nil {
		return nil, err
	}

	result, err := s.reconciler.Reconcile(ctx, *key, desired)
	if err != nil {
		return nil, s.fail(ctx, "reconcile", err)
	}

	if s.metrics != nil {
		s.metrics.CountReconcileOps(countByKind(result.Applied), countByKind(result.Unapplied))
		s.metrics.ObserveOperationDuration("reconcile", float64(time.Since(start).Milliseconds()))
	}
	if !result.Converged() {
		return result, domErrors.WithDetail(
			domErrors.CodePartialReconciliation,
			"reconciliation pass did not converge",
			result.Unapplied,
		)
	}
	return result, nil
}

// Retire verifies the credential, checks ownership, and permanently retires
// the key. A key that still has controllers is refused with unsafe_retire;
// a key already retired is a no-op.
func (s *Service) Retire(ctx context.Context, rawToken, keyID string) error {
	start := time.Now()
	_, handle, _, err := s.resolveIdentity(ctx, rawToken)
	if err != nil {
		return err
	}

	if _, err := s.ownedKey(ctx, handle, keyID); err != nil {
		return err
	}

	if err := s.lifecycle.Retire(ctx, keyID); err != nil {
		if errors.Is(err, lifecycle.ErrUnsafeRetire) {
			if s.metrics != nil {
				s.metrics.IncrementUnsafeRetireRefusals()
			}
			return domErrors.Wrap(err, domErrors.CodeUnsafeRetire, "key still has controllers")
		}
		return s.fail(ctx, "retire", err)
	}

	if s.metrics != nil {
		s.metrics.IncrementRetires()
		s.metrics.ObserveOperationDuration("retire", float64(time.Since(start).Milliseconds()))
	}
	s.logger.InfoContext(ctx, "retire complete", "handle", handle.Hex(), "key_id", keyID)
	return nil
}

// ApplyLifecycle verifies the credential and runs the configured lifecycle
// policy over the identity's keys. A pass with failed actions returns the
// partial result alongside a partial_lifecycle error.
func (s *Service) ApplyLifecycle(ctx context.Context, rawToken string) (lifecycle.Result, error) {
	start := time.Now()
	_, handle, _, err := s.resolveIdentity(ctx, rawToken)
	if err != nil {
		return lifecycle.Result{}, err
	}

	keys, err := s.resolver.Resolve(ctx, handle)
	if err != nil {
		return lifecycle.Result{}, s.fail(ctx, "lifecycle", err)
	}

	result, err := s.lifecycle.ApplyPolicy(ctx, s.policy, keys)
	if err != nil {
		return result, s.fail(ctx, "lifecycle", err)
	}

	if s.metrics != nil {
		for _, a := range result.Completed {
			s.metrics.IncrementLifecycleAction(string(a.Kind), "completed")
		}
		for _, f := range result.Failures {
			s.metrics.IncrementLifecycleAction(string(f.Action.Kind), "failed")
		}
		s.metrics.ObserveOperationDuration("lifecycle", float64(time.Since(start).Milliseconds()))
	}
	if !result.Clean() {
		return result, domErrors.WithDetail(
			domErrors.CodePartialLifecycle,
			"lifecycle pass left failed actions",
			result.Failures,
		)
	}
	return result, nil
}

// resolveIdentity verifies the raw credential and derives the registry
// handle. Verification and claim errors are already domain errors.
func (s *Service) resolveIdentity(ctx context.Context, rawToken string) (identity.Claim, authmethod.Handle, string, error) {
	claim, err := s.verifier.Verify(ctx, rawToken)
	if err != nil {
		return identity.Claim{}, authmethod.Handle{}, "", err
	}
	canonical, err := identity.Canonical(claim)
	if err != nil {
		return identity.Claim{}, authmethod.Handle{}, "", err
	}
	return claim, authmethod.Derive(canonical), canonical, nil
}

// ownedKey checks that keyID is bound to the handle and returns its record.
func (s *Service) ownedKey(ctx context.Context, handle authmethod.Handle, keyID string) (*models.KeyRecord, error) {
	keys, err := s.resolver.Resolve(ctx, handle)
	if err != nil {
		return nil, s.fail(ctx, "resolve", err)
	}
	for i := range keys {
		if keys[i].KeyID == keyID {
			return &keys[i], nil
		}
	}
	return nil, domErrors.New(domErrors.CodeNotFound, "key is not bound to this identity")
}

// fail translates a dependency failure into a domain error exactly once and
// records it. Errors that already carry a domain code pass through.
func (s *Service) fail(ctx context.Context, op string, err error) error {
	var derr *domErrors.Error
	if errors.As(err, &derr) {
		return err
	}

	code := domErrors.CodeInternal
	switch {
	case errors.Is(err, registry.ErrNotFound):
		code = domErrors.CodeNotFound
	case errors.Is(err, registry.ErrRejected), errors.Is(err, registry.ErrAlreadyRetired):
		code = domErrors.CodeRegistryRejected
	case errors.Is(err, registry.ErrTimedOut):
		code = domErrors.CodeUpstreamTimeout
	case errors.Is(err, registry.ErrUnavailable):
		code = domErrors.CodeRegistryUnavailable
	case errors.Is(err, reconcile.ErrAuthorizationUnavailable):
		code = domErrors.CodeAuthorizationUnavailable
	}

	if s.metrics != nil && code != domErrors.CodeNotFound {
		s.metrics.IncrementUpstreamFailures(string(code))
	}
	s.logger.ErrorContext(ctx, "operation failed", "operation", op, "code", string(code), "error", err)
	return domErrors.Wrap(err, code, op+" failed")
}

func countByKind(ops []reconcile.Op) map[string]int {
	if len(ops) == 0 {
		return nil
	}
	counts := make(map[string]int, 2)
	for _, op := range ops {
		counts[string(op.Kind)]++
	}
	return counts
}
