package identity

import (
	"fmt"

	dErrors "github.com/JLabsAU/relay-server/pkg/domain-errors"
)

// Canonical produces the canonical byte string for a claim:
// "<type>:<subject>:<audience>" with the auth method type encoded as its
// decimal registry value. Every key handle for this claim is derived from
// this exact encoding, so it must stay stable across releases.
func Canonical(c Claim) (string, error) {
	if !c.Type.Valid() {
		return "", dErrors.New(dErrors.CodeInvalidClaim, "unknown auth method type")
	}
	if c.Subject == "" {
		return "", dErrors.New(dErrors.CodeInvalidClaim, "subject is empty")
	}
	if c.Audience == "" {
		return "", dErrors.New(dErrors.CodeInvalidClaim, "audience is empty")
	}
	return fmt.Sprintf("%d:%s:%s", uint32(c.Type), c.Subject, c.Audience), nil
}
