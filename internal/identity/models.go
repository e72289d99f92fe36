// Package identity defines verified identity claims and their canonical form.
//
// Claims arrive post-verification: the external identity provider's token has
// already been validated by the time a Claim exists, and nothing in this
// package re-checks signatures. A Claim lives only for the duration of one
// request and is never persisted.
package identity

import "fmt"

// AuthMethodType namespaces key handles by identity provider. The numeric
// values are registry-level constants shared with every other writer of the
// key registry; they must never be renumbered.
type AuthMethodType uint32

const (
	AuthMethodUnknown      AuthMethodType = 0
	AuthMethodOAuthDiscord AuthMethodType = 4
	AuthMethodOAuthGoogle  AuthMethodType = 6
)

// String returns the provider name used in logs and route paths.
func (t AuthMethodType) String() string {
	switch t {
	case AuthMethodOAuthDiscord:
		return "discord"
	case AuthMethodOAuthGoogle:
		return "google"
	default:
		return fmt.Sprintf("unknown(%d)", uint32(t))
	}
}

// Valid reports whether t is a known auth method type.
func (t AuthMethodType) Valid() bool {
	switch t {
	case AuthMethodOAuthDiscord, AuthMethodOAuthGoogle:
		return true
	default:
		return false
	}
}

// Claim is a verified identity assertion: who the subject is and which
// relying party (audience) the assertion was issued for.
type Claim struct {
	Subject  string
	Audience string
	Type     AuthMethodType
}
