package relay

import (
	"context"

	"go.uber.org/mock/gomock"

	"github.com/JLabsAU/relay-server/internal/identity"
	"github.com/JLabsAU/relay-server/internal/keys/registry"
	domErrors "github.com/JLabsAU/relay-server/pkg/domain-errors"
)

func (s *ServiceSuite) TestMintReturnsKey() {
	record := s.testKey("key-1", 0)
	s.expectVerified()
	s.mockMinter.EXPECT().
		MintIfAbsent(gomock.Any(), s.testHandle(), identity.AuthMethodOAuthGoogle).
		Return(&record, nil)

	got, err := s.service.Mint(context.Background(), testToken, "")
	s.Require().NoError(err)
	s.Equal(record, *got)
}

func (s *ServiceSuite) TestMintReplayServedFromIdempotencyStore() {
	record := s.testKey("key-1", 0)
	s.mockVerifier.EXPECT().
		Verify(gomock.Any(), testToken).
		Return(s.testClaim(), nil).
		Times(2)
	s.mockMinter.EXPECT().
		MintIfAbsent(gomock.Any(), s.testHandle(), identity.AuthMethodOAuthGoogle).
		Return(&record, nil).
		Times(1)

	first, err := s.service.Mint(context.Background(), testToken, "req-42")
	s.Require().NoError(err)
	second, err := s.service.Mint(context.Background(), testToken, "req-42")
	s.Require().NoError(err)
	s.Equal(first, second)
}

func (s *ServiceSuite) TestMintDistinctIdempotencyKeysHitTheMinter() {
	record := s.testKey("key-1", 0)
	s.mockVerifier.EXPECT().
		Verify(gomock.Any(), testToken).
		Return(s.testClaim(), nil).
		Times(2)
	s.mockMinter.EXPECT().
		MintIfAbsent(gomock.Any(), s.testHandle(), identity.AuthMethodOAuthGoogle).
		Return(&record, nil).
		Times(2)

	_, err := s.service.Mint(context.Background(), testToken, "req-1")
	s.Require().NoError(err)
	_, err = s.service.Mint(context.Background(), testToken, "req-2")
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestMintVerificationFailurePassesThrough() {
	s.mockVerifier.EXPECT().
		Verify(gomock.Any(), testToken).
		Return(identity.Claim{}, domErrors.New(domErrors.CodeVerificationFailed, "signature invalid"))

	_, err := s.service.Mint(context.Background(), testToken, "")
	s.Require().Error(err)
	s.True(domErrors.HasCode(err, domErrors.CodeVerificationFailed))
}

func (s *ServiceSuite) TestMintRejectsClaimMissingSubject() {
	claim := s.testClaim()
	claim.Subject = ""
	s.mockVerifier.EXPECT().
		Verify(gomock.Any(), testToken).
		Return(claim, nil)

	_, err := s.service.Mint(context.Background(), testToken, "")
	s.Require().Error(err)
	s.True(domErrors.HasCode(err, domErrors.CodeInvalidClaim))
}

func (s *ServiceSuite) TestMintTranslatesRegistryUnavailable() {
	s.expectVerified()
	s.mockMinter.EXPECT().
		MintIfAbsent(gomock.Any(), s.testHandle(), identity.AuthMethodOAuthGoogle).
		Return(nil, registry.ErrUnavailable)

	_, err := s.service.Mint(context.Background(), testToken, "")
	s.Require().Error(err)
	s.True(domErrors.HasCode(err, domErrors.CodeRegistryUnavailable))
}

func (s *ServiceSuite) TestMintTranslatesUpstreamTimeout() {
	s.expectVerified()
	s.mockMinter.EXPECT().
		MintIfAbsent(gomock.Any(), s.testHandle(), identity.AuthMethodOAuthGoogle).
		Return(nil, registry.ErrTimedOut)

	_, err := s.service.Mint(context.Background(), testToken, "")
	s.Require().Error(err)
	s.True(domErrors.HasCode(err, domErrors.CodeUpstreamTimeout))
}

func (s *ServiceSuite) TestMintTranslatesRegistryRejection() {
	s.expectVerified()
	s.mockMinter.EXPECT().
		MintIfAbsent(gomock.Any(), s.testHandle(), identity.AuthMethodOAuthGoogle).
		Return(nil, registry.ErrRejected)

	_, err := s.service.Mint(context.Background(), testToken, "")
	s.Require().Error(err)
	s.True(domErrors.HasCode(err, domErrors.CodeRegistryRejected))
}
