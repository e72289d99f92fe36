package reconcile

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/JLabsAU/relay-server/internal/authmethod"
	"github.com/JLabsAU/relay-server/internal/identity"
	"github.com/JLabsAU/relay-server/internal/keys/models"
	"github.com/JLabsAU/relay-server/internal/keys/registry"
)

var (
	addrA = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	addrB = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	addrC = common.HexToAddress("0x00000000000000000000000000000000000000c3")
)

type ReconcilerSuite struct {
	suite.Suite
	ledger     *registry.Ledger
	reconciler *Reconciler
	key        models.KeyRecord
}

func (s *ReconcilerSuite) SetupTest() {
	s.ledger = registry.NewLedger()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.reconciler = New(s.ledger, s.ledger, WithLogger(logger))

	record, err := s.ledger.Mint(context.Background(),
		authmethod.Derive("6:u1:aud1"), identity.AuthMethodOAuthGoogle)
	require.NoError(s.T(), err)
	s.key = *record
}

func (s *ReconcilerSuite) grant(addrs ...common.Address) {
	ctx := context.Background()
	session, err := s.ledger.ObtainSession(ctx, s.key.KeyID)
	require.NoError(s.T(), err)
	for _, a := range addrs {
		require.NoError(s.T(), s.ledger.GrantController(ctx, s.key.KeyID, a, session))
	}
}

func (s *ReconcilerSuite) controllers() []common.Address {
	got, err := s.ledger.ListControllers(context.Background(), s.key.KeyID)
	require.NoError(s.T(), err)
	return got
}

func (s *ReconcilerSuite) TestRevokesStaleControllers() {
	s.grant(addrA, addrB, addrC)

	result, err := s.reconciler.Reconcile(context.Background(), s.key, []common.Address{addrA})
	require.NoError(s.T(), err)

	assert.True(s.T(), result.Converged())
	assert.ElementsMatch(s.T(), []Op{
		{Kind: OpRevoke, Controller: addrB},
		{Kind: OpRevoke, Controller: addrC},
	}, result.Applied)
	assert.Equal(s.T(), []common.Address{addrA}, s.controllers())
}

func (s *ReconcilerSuite) TestGrantsMissingControllers() {
	s.grant(addrA)

	result, err := s.reconciler.Reconcile(context.Background(), s.key, []common.Address{addrA, addrB})
	require.NoError(s.T(), err)

	assert.True(s.T(), result.Converged())
	assert.Equal(s.T(), []Op{{Kind: OpGrant, Controller: addrB}}, result.Applied)
	assert.ElementsMatch(s.T(), []common.Address{addrA, addrB}, s.controllers())
}

func (s *ReconcilerSuite) TestConvergedPassIsIdempotent() {
	s.grant(addrA)

	first, err := s.reconciler.Reconcile(context.Background(), s.key, []common.Address{addrA})
	require.NoError(s.T(), err)
	assert.Empty(s.T(), first.Applied)
	assert.True(s.T(), first.Converged())

	// A converged pass never asks for a session; break session issuance to
	// prove no mutating path runs.
	s.ledger.FailNext("obtainSession", errors.New("must not be called"), 1)
	second, err := s.reconciler.Reconcile(context.Background(), s.key, []common.Address{addrA})
	require.NoError(s.T(), err)
	assert.Empty(s.T(), second.Applied)
	assert.Empty(s.T(), second.Unapplied)
}

func (s *ReconcilerSuite) TestEmptyDesiredStripsAll() {
	s.grant(addrA, addrB)

	result, err := s.reconciler.Reconcile(context.Background(), s.key, nil)
	require.NoError(s.T(), err)

	assert.True(s.T(), result.Converged())
	assert.Empty(s.T(), s.controllers())
}

func (s *ReconcilerSuite) TestPartialFailureReportsExactRemainder() {
	s.grant(addrA, addrB, addrC)

	// First revoke lands, second fails.
	failSecond := &failNth{RegistryOps: s.ledger, failAt: 2, err: registry.ErrUnavailable}
	r := New(failSecond, s.ledger, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	result, err := r.Reconcile(context.Background(), s.key, []common.Address{addrA})
	require.NoError(s.T(), err)

	assert.False(s.T(), result.Converged())
	require.Len(s.T(), result.Applied, 1)
	require.Len(s.T(), result.Unapplied, 1)

	// A follow-up pass applies only the remainder.
	followUp, err := s.reconciler.Reconcile(context.Background(), s.key, []common.Address{addrA})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), result.Unapplied, followUp.Applied)
	assert.True(s.T(), followUp.Converged())
	assert.Equal(s.T(), []common.Address{addrA}, s.controllers())
}

func (s *ReconcilerSuite) TestAuthorizationUnavailable() {
	s.grant(addrA)

	s.ledger.FailNext("obtainSession", errors.New("signing network down"), 1)
	_, err := s.reconciler.Reconcile(context.Background(), s.key, nil)

	assert.ErrorIs(s.T(), err, ErrAuthorizationUnavailable)
	// Nothing was mutated.
	assert.Equal(s.T(), []common.Address{addrA}, s.controllers())
}

func (s *ReconcilerSuite) TestCancellationReportsRemainder() {
	s.grant(addrA, addrB, addrC)

	ctx, cancel := context.WithCancel(context.Background())
	blocker := &cancelAfterFirst{RegistryOps: s.ledger, cancel: cancel}
	r := New(blocker, s.ledger, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	result, err := r.Reconcile(ctx, s.key, nil)
	require.NoError(s.T(), err)

	assert.False(s.T(), result.Converged())
	assert.Len(s.T(), result.Applied, 1)
	assert.Len(s.T(), result.Unapplied, 2)
}

func (s *ReconcilerSuite) TestSerializesPassesPerKey() {
	s.grant(addrA)

	var mu sync.Mutex
	active, maxActive := 0, 0
	tracker := &trackingOps{RegistryOps: s.ledger, enter: func() {
		mu.Lock()
		active++
		if active > maxActive {
			maxActive = active
		}
		mu.Unlock()
		time.Sleep(time.Millisecond)
		mu.Lock()
		active--
		mu.Unlock()
	}}
	r := New(tracker, s.ledger, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			desired := []common.Address{addrA}
			if i%2 == 0 {
				desired = []common.Address{addrB}
			}
			_, err := r.Reconcile(context.Background(), s.key, desired)
			assert.NoError(s.T(), err)
		}(i)
	}
	wg.Wait()

	assert.Equal(s.T(), 1, maxActive, "passes for one key must not interleave")
}

func TestReconcilerSuite(t *testing.T) {
	suite.Run(t, new(ReconcilerSuite))
}

func TestDiffScenario(t *testing.T) {
	// Controllers {A,B,C}, desired {A}: revoke B, revoke C, no grants.
	ops := diff([]common.Address{addrA, addrB, addrC}, []common.Address{addrA})
	assert.Equal(t, []Op{
		{Kind: OpRevoke, Controller: addrB},
		{Kind: OpRevoke, Controller: addrC},
	}, ops)

	// Re-running against the converged state computes an empty diff.
	assert.Empty(t, diff([]common.Address{addrA}, []common.Address{addrA}))
}

func TestDiffIgnoresDuplicateDesired(t *testing.T) {
	ops := diff(nil, []common.Address{addrA, addrA})
	assert.Equal(t, []Op{{Kind: OpGrant, Controller: addrA}}, ops)
}

// failNth fails the nth mutating call (1-based) with err.
type failNth struct {
	RegistryOps
	calls  int
	failAt int
	err    error
}

func (f *failNth) RevokeController(ctx context.Context, keyID string, c common.Address, s *models.AuthorizationSession) error {
	f.calls++
	if f.calls == f.failAt {
		return f.err
	}
	return f.RegistryOps.RevokeController(ctx, keyID, c, s)
}

func (f *failNth) GrantController(ctx context.Context, keyID string, c common.Address, s *models.AuthorizationSession) error {
	f.calls++
	if f.calls == f.failAt {
		return f.err
	}
	return f.RegistryOps.GrantController(ctx, keyID, c, s)
}

// cancelAfterFirst cancels the pass context after the first mutating call lands.
type cancelAfterFirst struct {
	RegistryOps
	cancel context.CancelFunc
	once   sync.Once
}

func (c *cancelAfterFirst) RevokeController(ctx context.Context, keyID string, addr common.Address, s *models.AuthorizationSession) error {
	err := c.RegistryOps.RevokeController(ctx, keyID, addr, s)
	c.once.Do(c.cancel)
	return err
}

// trackingOps observes concurrent mutating calls.
type trackingOps struct {
	RegistryOps
	enter func()
}

func (t *trackingOps) RevokeController(ctx context.Context, keyID string, c common.Address, s *models.AuthorizationSession) error {
	t.enter()
	return t.RegistryOps.RevokeController(ctx, keyID, c, s)
}

func (t *trackingOps) GrantController(ctx context.Context, keyID string, c common.Address, s *models.AuthorizationSession) error {
	t.enter()
	return t.RegistryOps.GrantController(ctx, keyID, c, s)
}
