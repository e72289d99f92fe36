// Package authmethod derives the stable handle under which all keys for an
// identity are indexed in the external registry.
package authmethod

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/JLabsAU/relay-server/internal/identity"
)

// HandleSize is the width of an auth method handle in bytes.
const HandleSize = 32

// Handle is the fixed-width identifier binding an identity claim to its key
// namespace. Equal claims always derive equal handles, so the registry can
// arbitrate key uniqueness per identity on the handle alone.
type Handle [HandleSize]byte

// Hex returns the 0x-prefixed hex encoding used on the wire and in logs.
func (h Handle) Hex() string {
	return hexutil.Encode(h[:])
}

// Bytes returns the raw handle bytes.
func (h Handle) Bytes() []byte {
	return h[:]
}

// Derive hashes a canonical identity string into a Handle with Keccak-256.
//
// Keccak-256 over the UTF-8 canonical bytes is a compatibility contract:
// handles already minted by the system this relay interoperates with were
// derived the same way, and changing either the hash or the input encoding
// would orphan every existing key.
func Derive(canonical string) Handle {
	return Handle(crypto.Keccak256Hash([]byte(canonical)))
}

// ForClaim derives the handle for a verified claim. It is the composition
// of canonicalization and Derive, failing only on invalid claims.
func ForClaim(c identity.Claim) (Handle, error) {
	canonical, err := identity.Canonical(c)
	if err != nil {
		return Handle{}, err
	}
	return Derive(canonical), nil
}
