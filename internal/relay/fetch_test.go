package relay

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/mock/gomock"

	"github.com/JLabsAU/relay-server/internal/keys/models"
	"github.com/JLabsAU/relay-server/internal/keys/registry"
	domErrors "github.com/JLabsAU/relay-server/pkg/domain-errors"
)

func (s *ServiceSuite) TestFetchReturnsKeysWithControllers() {
	keys := []models.KeyRecord{s.testKey("key-1", 0), s.testKey("key-2", 1)}
	s.expectVerified()
	s.mockResolver.EXPECT().
		Resolve(gomock.Any(), s.testHandle()).
		Return(keys, nil)
	s.mockInspector.EXPECT().
		ListControllers(gomock.Any(), "key-1").
		Return([]common.Address{addrA, addrB}, nil)
	s.mockInspector.EXPECT().
		ListControllers(gomock.Any(), "key-2").
		Return(nil, nil)

	bindings, err := s.service.Fetch(context.Background(), testToken)
	s.Require().NoError(err)
	s.Require().Len(bindings, 2)

	// Output order follows mint order regardless of inspection order.
	s.Equal("key-1", bindings[0].Key.KeyID)
	s.Equal([]common.Address{addrA, addrB}, bindings[0].Controllers)
	s.Equal("key-2", bindings[1].Key.KeyID)
	s.Empty(bindings[1].Controllers)
}

func (s *ServiceSuite) TestFetchUnmintedIdentityYieldsEmptyList() {
	s.expectVerified()
	s.mockResolver.EXPECT().
		Resolve(gomock.Any(), s.testHandle()).
		Return([]models.KeyRecord{}, nil)

	bindings, err := s.service.Fetch(context.Background(), testToken)
	s.Require().NoError(err)
	s.Empty(bindings)
}

func (s *ServiceSuite) TestFetchTranslatesInspectionFailure() {
	keys := []models.KeyRecord{s.testKey("key-1", 0)}
	s.expectVerified()
	s.mockResolver.EXPECT().
		Resolve(gomock.Any(), s.testHandle()).
		Return(keys, nil)
	s.mockInspector.EXPECT().
		ListControllers(gomock.Any(), "key-1").
		Return(nil, registry.ErrUnavailable)

	_, err := s.service.Fetch(context.Background(), testToken)
	s.Require().Error(err)
	s.True(domErrors.HasCode(err, domErrors.CodeRegistryUnavailable))
}

func (s *ServiceSuite) TestFetchDoesNotMintOrMutate() {
	// No minter, reconciler, or lifecycle expectations: any such call fails
	// the test through the controller.
	s.expectVerified()
	s.mockResolver.EXPECT().
		Resolve(gomock.Any(), s.testHandle()).
		Return([]models.KeyRecord{s.testKey("key-1", 0)}, nil)
	s.mockInspector.EXPECT().
		ListControllers(gomock.Any(), "key-1").
		Return([]common.Address{addrA}, nil)

	_, err := s.service.Fetch(context.Background(), testToken)
	s.Require().NoError(err)
}
