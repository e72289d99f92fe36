// Package registry is the relay's client layer for the external key registry:
// the append-only ledger that owns key records and controller sets.
//
// The raw Registry capability maps one-to-one onto registry calls. Client
// wraps it with the behavior callers actually rely on: bounded retries,
// per-call deadlines, per-handle mint serialization, and read-your-writes.
package registry

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"

	"github.com/JLabsAU/relay-server/internal/authmethod"
	"github.com/JLabsAU/relay-server/internal/identity"
	"github.com/JLabsAU/relay-server/internal/keys/models"
)

// Sentinel dependency errors. Registry implementations return these
// (optionally wrapped) so the service layer can translate them into domain
// errors exactly once.
var (
	// ErrUnavailable marks a transient failure; the call may be retried.
	ErrUnavailable = errors.New("registry unavailable")
	// ErrRejected marks a permanent refusal, e.g. a malformed handle.
	ErrRejected = errors.New("registry rejected request")
	// ErrTimedOut marks an exceeded per-call deadline.
	ErrTimedOut = errors.New("registry call timed out")
	// ErrNotFound marks an unknown key ID.
	ErrNotFound = errors.New("key not found")
	// ErrAlreadyRetired marks a mutating call against a retired key.
	ErrAlreadyRetired = errors.New("key already retired")
	// ErrSessionInvalid marks a mutating call with a missing, expired, or
	// wrong-key authorization session.
	ErrSessionInvalid = errors.New("authorization session invalid")
)

// Registry is the narrow capability surface of the external key ledger.
// Implementations: the in-process Ledger (dev and tests) and, in production,
// an RPC adapter to the chain endpoint.
type Registry interface {
	// Mint issues a key for the handle. The registry is the sole arbiter of
	// handle uniqueness: if a key was already minted for the handle, Mint
	// returns that existing record, not an error.
	Mint(ctx context.Context, handle authmethod.Handle, authType identity.AuthMethodType) (*models.KeyRecord, error)

	// ListKeys returns every key ever minted for the handle. An unminted
	// handle yields an empty list, not an error.
	ListKeys(ctx context.Context, handle authmethod.Handle) ([]models.KeyRecord, error)

	// ListControllers returns the addresses currently permitted to direct the
	// key. Read-only; no authorization session required.
	ListControllers(ctx context.Context, keyID string) ([]common.Address, error)

	// GrantController permits an address to direct the key.
	GrantController(ctx context.Context, keyID string, controller common.Address, session *models.AuthorizationSession) error

	// RevokeController removes an address from the key's controller set.
	RevokeController(ctx context.Context, keyID string, controller common.Address, session *models.AuthorizationSession) error

	// Retire permanently deactivates the key. Irreversible. Retiring an
	// already-retired key returns ErrAlreadyRetired.
	Retire(ctx context.Context, keyID string, session *models.AuthorizationSession) error
}
