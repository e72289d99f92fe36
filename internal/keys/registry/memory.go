package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"

	"github.com/JLabsAU/relay-server/internal/authmethod"
	"github.com/JLabsAU/relay-server/internal/identity"
	"github.com/JLabsAU/relay-server/internal/keys/models"
)

// Ledger is an in-process implementation of the Registry capability plus the
// authorization network's session issuance. It reproduces the external
// ledger's observable semantics - handle-arbitrated mint uniqueness, mint
// sequencing, controller sets gated on a valid session, irreversible retire -
// for development mode and tests.
type Ledger struct {
	mu         sync.RWMutex
	byHandle   map[authmethod.Handle][]string
	keys       map[string]*ledgerKey
	sessionTTL time.Duration

	faultMu sync.Mutex
	faults  map[string]*fault
}

type ledgerKey struct {
	record      models.KeyRecord
	handle      authmethod.Handle
	controllers map[common.Address]struct{}
	// order preserves grant order for deterministic listings.
	order   []common.Address
	retired bool
}

type fault struct {
	err   error
	count int
}

// LedgerOption configures a Ledger.
type LedgerOption func(*Ledger)

// WithSessionTTL sets the lifetime of issued authorization sessions.
func WithSessionTTL(ttl time.Duration) LedgerOption {
	return func(l *Ledger) {
		if ttl > 0 {
			l.sessionTTL = ttl
		}
	}
}

// NewLedger creates an empty in-process ledger.
func NewLedger(opts ...LedgerOption) *Ledger {
	l := &Ledger{
		byHandle:   make(map[authmethod.Handle][]string),
		keys:       make(map[string]*ledgerKey),
		sessionTTL: time.Minute,
		faults:     make(map[string]*fault),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// FailNext makes the next n calls of the named op ("mint", "listKeys",
// "listControllers", "grant", "revoke", "retire", "obtainSession") return err.
// Test hook for exercising retry and partial-failure paths.
func (l *Ledger) FailNext(op string, err error, n int) {
	l.faultMu.Lock()
	defer l.faultMu.Unlock()
	l.faults[op] = &fault{err: err, count: n}
}

func (l *Ledger) injectedFault(op string) error {
	l.faultMu.Lock()
	defer l.faultMu.Unlock()
	f, ok := l.faults[op]
	if !ok || f.count <= 0 {
		return nil
	}
	f.count--
	return f.err
}

// Mint issues a key for the handle, or returns the existing live key: the
// ledger, like the real registry, is the sole arbiter of handle uniqueness.
func (l *Ledger) Mint(ctx context.Context, handle authmethod.Handle, authType identity.AuthMethodType) (*models.KeyRecord, error) {
	if err := l.injectedFault("mint"); err != nil {
		return nil, err
	}
	if !authType.Valid() {
		return nil, fmt.Errorf("%w: unknown auth method type %d", ErrRejected, authType)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, keyID := range l.byHandle[handle] {
		if k := l.keys[keyID]; !k.retired {
			record := k.record
			return &record, nil
		}
	}

	priv, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("%w: keygen failed", ErrUnavailable)
	}
	pub := crypto.FromECDSAPub(&priv.PublicKey)

	record := models.KeyRecord{
		KeyID:             crypto.Keccak256Hash(pub).Hex(),
		PublicKey:         pub,
		ControllerAddress: crypto.PubkeyToAddress(priv.PublicKey),
		MintSequence:      uint64(len(l.byHandle[handle])),
	}
	l.keys[record.KeyID] = &ledgerKey{
		record:      record,
		handle:      handle,
		controllers: make(map[common.Address]struct{}),
	}
	l.byHandle[handle] = append(l.byHandle[handle], record.KeyID)

	return &record, nil
}

// ListKeys returns the handle's live keys in mint order. Retired keys are
// gone from reads; only their tombstones remain to keep Retire idempotent.
func (l *Ledger) ListKeys(ctx context.Context, handle authmethod.Handle) ([]models.KeyRecord, error) {
	if err := l.injectedFault("listKeys"); err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	keys := make([]models.KeyRecord, 0, len(l.byHandle[handle]))
	for _, keyID := range l.byHandle[handle] {
		if k := l.keys[keyID]; !k.retired {
			keys = append(keys, k.record)
		}
	}
	return keys, nil
}

// ListControllers returns the key's controller set in grant order.
func (l *Ledger) ListControllers(ctx context.Context, keyID string) ([]common.Address, error) {
	if err := l.injectedFault("listControllers"); err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	k, ok := l.keys[keyID]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]common.Address, len(k.order))
	copy(out, k.order)
	return out, nil
}

// GrantController permits an address to direct the key. Idempotent.
func (l *Ledger) GrantController(ctx context.Context, keyID string, controller common.Address, session *models.AuthorizationSession) error {
	if err := l.injectedFault("grant"); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	k, err := l.mutableKey(keyID, session)
	if err != nil {
		return err
	}
	if _, exists := k.controllers[controller]; exists {
		return nil
	}
	k.controllers[controller] = struct{}{}
	k.order = append(k.order, controller)
	return nil
}

// RevokeController removes an address from the key's controller set. Idempotent.
func (l *Ledger) RevokeController(ctx context.Context, keyID string, controller common.Address, session *models.AuthorizationSession) error {
	if err := l.injectedFault("revoke"); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	k, err := l.mutableKey(keyID, session)
	if err != nil {
		return err
	}
	if _, exists := k.controllers[controller]; !exists {
		return nil
	}
	delete(k.controllers, controller)
	for i, addr := range k.order {
		if addr == controller {
			k.order = append(k.order[:i], k.order[i+1:]...)
			break
		}
	}
	return nil
}

// Retire permanently deactivates the key.
func (l *Ledger) Retire(ctx context.Context, keyID string, session *models.AuthorizationSession) error {
	if err := l.injectedFault("retire"); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	k, ok := l.keys[keyID]
	if !ok {
		return ErrNotFound
	}
	if k.retired {
		return ErrAlreadyRetired
	}
	if err := l.validSession(keyID, session); err != nil {
		return err
	}
	k.retired = true
	k.controllers = make(map[common.Address]struct{})
	k.order = nil
	return nil
}

// ObtainSession issues a time-bounded capability to act as the key's wallet,
// standing in for the distributed signing network.
func (l *Ledger) ObtainSession(ctx context.Context, keyID string) (*models.AuthorizationSession, error) {
	if err := l.injectedFault("obtainSession"); err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	if _, ok := l.keys[keyID]; !ok {
		return nil, ErrNotFound
	}
	return &models.AuthorizationSession{
		KeyID:       keyID,
		ExpiresAt:   time.Now().Add(l.sessionTTL),
		Credentials: []byte(uuid.NewString()),
	}, nil
}

func (l *Ledger) mutableKey(keyID string, session *models.AuthorizationSession) (*ledgerKey, error) {
	k, ok := l.keys[keyID]
	if !ok {
		return nil, ErrNotFound
	}
	if k.retired {
		return nil, ErrAlreadyRetired
	}
	if err := l.validSession(keyID, session); err != nil {
		return nil, err
	}
	return k, nil
}

func (l *Ledger) validSession(keyID string, session *models.AuthorizationSession) error {
	if session == nil || session.KeyID != keyID || session.Expired(time.Now()) {
		return ErrSessionInvalid
	}
	return nil
}

var _ Registry = (*Ledger)(nil)
