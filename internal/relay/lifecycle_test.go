package relay

import (
	"context"

	"go.uber.org/mock/gomock"

	"github.com/JLabsAU/relay-server/internal/keys/models"
	"github.com/JLabsAU/relay-server/internal/lifecycle"
	domErrors "github.com/JLabsAU/relay-server/pkg/domain-errors"
)

func (s *ServiceSuite) TestApplyLifecycleCleanPass() {
	keys := []models.KeyRecord{s.testKey("key-1", 0), s.testKey("key-2", 1)}
	s.expectVerified()
	s.mockResolver.EXPECT().
		Resolve(gomock.Any(), s.testHandle()).
		Return(keys, nil)
	s.mockLifecycle.EXPECT().
		ApplyPolicy(gomock.Any(), lifecycle.StripAllButNewest{}, keys).
		Return(lifecycle.Result{
			Policy:    "strip-all-but-newest",
			Completed: []lifecycle.Action{{Kind: lifecycle.ActionStripControllers, Key: keys[0]}},
		}, nil)

	result, err := s.service.ApplyLifecycle(context.Background(), testToken)
	s.Require().NoError(err)
	s.True(result.Clean())
	s.Len(result.Completed, 1)
}

func (s *ServiceSuite) TestApplyLifecyclePartialPass() {
	keys := []models.KeyRecord{s.testKey("key-1", 0), s.testKey("key-2", 1)}
	failures := []lifecycle.Failure{{
		Action: lifecycle.Action{Kind: lifecycle.ActionStripControllers, Key: keys[0]},
		Reason: "registry unavailable",
	}}
	s.expectVerified()
	s.mockResolver.EXPECT().
		Resolve(gomock.Any(), s.testHandle()).
		Return(keys, nil)
	s.mockLifecycle.EXPECT().
		ApplyPolicy(gomock.Any(), lifecycle.StripAllButNewest{}, keys).
		Return(lifecycle.Result{Policy: "strip-all-but-newest", Failures: failures}, nil)

	result, err := s.service.ApplyLifecycle(context.Background(), testToken)
	s.Require().Error(err)
	s.True(domErrors.HasCode(err, domErrors.CodePartialLifecycle))
	s.Equal(failures, result.Failures)
}

func (s *ServiceSuite) TestApplyLifecycleUsesConfiguredPolicy() {
	s.service.policy = lifecycle.RetireAllButNewest{}
	keys := []models.KeyRecord{s.testKey("key-1", 0)}
	s.expectVerified()
	s.mockResolver.EXPECT().
		Resolve(gomock.Any(), s.testHandle()).
		Return(keys, nil)
	s.mockLifecycle.EXPECT().
		ApplyPolicy(gomock.Any(), lifecycle.RetireAllButNewest{}, keys).
		Return(lifecycle.Result{Policy: "retire-all-but-newest"}, nil)

	_, err := s.service.ApplyLifecycle(context.Background(), testToken)
	s.Require().NoError(err)
}
