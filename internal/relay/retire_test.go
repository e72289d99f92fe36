package relay

import (
	"context"

	"go.uber.org/mock/gomock"

	"github.com/JLabsAU/relay-server/internal/keys/models"
	"github.com/JLabsAU/relay-server/internal/keys/registry"
	"github.com/JLabsAU/relay-server/internal/lifecycle"
	domErrors "github.com/JLabsAU/relay-server/pkg/domain-errors"
)

func (s *ServiceSuite) TestRetireSucceeds() {
	s.expectVerified()
	s.mockResolver.EXPECT().
		Resolve(gomock.Any(), s.testHandle()).
		Return([]models.KeyRecord{s.testKey("key-1", 0)}, nil)
	s.mockLifecycle.EXPECT().
		Retire(gomock.Any(), "key-1").
		Return(nil)

	s.Require().NoError(s.service.Retire(context.Background(), testToken, "key-1"))
}

func (s *ServiceSuite) TestRetireRefusedWhileControllersRemain() {
	s.expectVerified()
	s.mockResolver.EXPECT().
		Resolve(gomock.Any(), s.testHandle()).
		Return([]models.KeyRecord{s.testKey("key-1", 0)}, nil)
	s.mockLifecycle.EXPECT().
		Retire(gomock.Any(), "key-1").
		Return(lifecycle.ErrUnsafeRetire)

	err := s.service.Retire(context.Background(), testToken, "key-1")
	s.Require().Error(err)
	s.True(domErrors.HasCode(err, domErrors.CodeUnsafeRetire))
}

func (s *ServiceSuite) TestRetireRefusesForeignKey() {
	s.expectVerified()
	s.mockResolver.EXPECT().
		Resolve(gomock.Any(), s.testHandle()).
		Return([]models.KeyRecord{s.testKey("key-1", 0)}, nil)

	err := s.service.Retire(context.Background(), testToken, "someone-elses-key")
	s.Require().Error(err)
	s.True(domErrors.HasCode(err, domErrors.CodeNotFound))
}

func (s *ServiceSuite) TestRetireTranslatesRegistryUnavailable() {
	s.expectVerified()
	s.mockResolver.EXPECT().
		Resolve(gomock.Any(), s.testHandle()).
		Return([]models.KeyRecord{s.testKey("key-1", 0)}, nil)
	s.mockLifecycle.EXPECT().
		Retire(gomock.Any(), "key-1").
		Return(registry.ErrUnavailable)

	err := s.service.Retire(context.Background(), testToken, "key-1")
	s.Require().Error(err)
	s.True(domErrors.HasCode(err, domErrors.CodeRegistryUnavailable))
}
