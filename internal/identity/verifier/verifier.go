// Package verifier adapts external identity providers to the relay's
// verified-claim model. The relay trusts a Verifier's output unconditionally:
// everything downstream of this seam performs no cryptographic re-validation.
package verifier

import (
	"context"

	"github.com/JLabsAU/relay-server/internal/identity"
)

// Verifier validates a raw provider token and returns the verified claim.
// Implementations must reject tokens they cannot positively verify; a
// returned Claim is the relay's sole proof of identity for the request.
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (identity.Claim, error)
}
