package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "github.com/JLabsAU/relay-server/pkg/domain-errors"
)

func TestCanonicalEncoding(t *testing.T) {
	got, err := Canonical(Claim{Subject: "u1", Audience: "aud1", Type: AuthMethodOAuthGoogle})
	require.NoError(t, err)
	assert.Equal(t, "6:u1:aud1", got)
}

func TestCanonicalIsDeterministic(t *testing.T) {
	c := Claim{Subject: "110169484474386276334", Audience: "client.apps.example.com", Type: AuthMethodOAuthGoogle}
	a, err := Canonical(c)
	require.NoError(t, err)
	b, err := Canonical(c)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCanonicalDistinguishesProviders(t *testing.T) {
	google, err := Canonical(Claim{Subject: "u1", Audience: "aud1", Type: AuthMethodOAuthGoogle})
	require.NoError(t, err)
	discord, err := Canonical(Claim{Subject: "u1", Audience: "aud1", Type: AuthMethodOAuthDiscord})
	require.NoError(t, err)
	assert.NotEqual(t, google, discord)
}

func TestCanonicalRejectsInvalidClaims(t *testing.T) {
	cases := map[string]Claim{
		"empty subject":  {Subject: "", Audience: "aud1", Type: AuthMethodOAuthGoogle},
		"empty audience": {Subject: "u1", Audience: "", Type: AuthMethodOAuthGoogle},
		"unknown type":   {Subject: "u1", Audience: "aud1", Type: AuthMethodUnknown},
	}
	for name, claim := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Canonical(claim)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidClaim))
		})
	}
}
