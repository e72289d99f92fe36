package relay

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/mock/gomock"

	"github.com/JLabsAU/relay-server/internal/keys/models"
	"github.com/JLabsAU/relay-server/internal/reconcile"
	domErrors "github.com/JLabsAU/relay-server/pkg/domain-errors"
)

func (s *ServiceSuite) TestReconcileConverges() {
	key := s.testKey("key-1", 0)
	desired := []common.Address{addrA}
	s.expectVerified()
	s.mockResolver.EXPECT().
		Resolve(gomock.Any(), s.testHandle()).
		Return([]models.KeyRecord{key}, nil)
	s.mockReconciler.EXPECT().
		Reconcile(gomock.Any(), key, desired).
		Return(&reconcile.Result{
			KeyID:   "key-1",
			Applied: []reconcile.Op{{Kind: reconcile.OpGrant, Controller: addrA}},
		}, nil)

	result, err := s.service.Reconcile(context.Background(), testToken, "key-1", desired)
	s.Require().NoError(err)
	s.True(result.Converged())
	s.Len(result.Applied, 1)
}

func (s *ServiceSuite) TestReconcileRefusesForeignKey() {
	s.expectVerified()
	s.mockResolver.EXPECT().
		Resolve(gomock.Any(), s.testHandle()).
		Return([]models.KeyRecord{s.testKey("key-1", 0)}, nil)

	// No reconciler expectation: a key outside the identity's list must not
	// reach the registry.
	_, err := s.service.Reconcile(context.Background(), testToken, "someone-elses-key", nil)
	s.Require().Error(err)
	s.True(domErrors.HasCode(err, domErrors.CodeNotFound))
}

func (s *ServiceSuite) TestReconcilePartialPassSurfacesUnapplied() {
	key := s.testKey("key-1", 0)
	desired := []common.Address{addrA, addrB}
	unapplied := []reconcile.Op{{Kind: reconcile.OpGrant, Controller: addrB}}
	s.expectVerified()
	s.mockResolver.EXPECT().
		Resolve(gomock.Any(), s.testHandle()).
		Return([]models.KeyRecord{key}, nil)
	s.mockReconciler.EXPECT().
		Reconcile(gomock.Any(), key, desired).
		Return(&reconcile.Result{
			KeyID:     "key-1",
			Applied:   []reconcile.Op{{Kind: reconcile.OpGrant, Controller: addrA}},
			Unapplied: unapplied,
		}, nil)

	result, err := s.service.Reconcile(context.Background(), testToken, "key-1", desired)
	s.Require().Error(err)
	s.True(domErrors.HasCode(err, domErrors.CodePartialReconciliation))

	// The partial result still comes back so the caller can resume.
	s.Require().NotNil(result)
	s.Equal(unapplied, result.Unapplied)
}

func (s *ServiceSuite) TestReconcileTranslatesAuthorizationFailure() {
	key := s.testKey("key-1", 0)
	s.expectVerified()
	s.mockResolver.EXPECT().
		Resolve(gomock.Any(), s.testHandle()).
		Return([]models.KeyRecord{key}, nil)
	s.mockReconciler.EXPECT().
		Reconcile(gomock.Any(), key, gomock.Nil()).
		Return(nil, reconcile.ErrAuthorizationUnavailable)

	_, err := s.service.Reconcile(context.Background(), testToken, "key-1", nil)
	s.Require().Error(err)
	s.True(domErrors.HasCode(err, domErrors.CodeAuthorizationUnavailable))
}
