// Package models holds the registry-owned records the relay reads and writes.
// The external registry is the system of record for everything here; these
// values are never cached across requests.
package models

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// KeyRecord is one minted cryptographic key bound to one auth method handle.
type KeyRecord struct {
	// KeyID is the registry-assigned token identifier, unique per key.
	KeyID string `json:"keyId"`

	// PublicKey is the key's uncompressed public key bytes.
	PublicKey hexutil.Bytes `json:"publicKey"`

	// ControllerAddress is the wallet address derived from PublicKey. It is
	// the address the key itself signs as, distinct from the external
	// controller addresses permitted to direct it.
	ControllerAddress common.Address `json:"controllerAddress"`

	// MintSequence orders keys by issuance within one handle, ascending.
	MintSequence uint64 `json:"mintSequence"`
}

// AuthorizationSession is a short-lived capability to act as a key's wallet.
// It is obtained from the signing network immediately before registry-mutating
// calls and discarded after one reconciliation pass; it is never persisted.
type AuthorizationSession struct {
	KeyID       string
	ExpiresAt   time.Time
	Credentials []byte
}

// Expired reports whether the session can no longer authorize calls.
func (s *AuthorizationSession) Expired(now time.Time) bool {
	return s == nil || !now.Before(s.ExpiresAt)
}
