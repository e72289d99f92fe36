// Package keys presents an ordered, de-duplicated view of the keys bound to
// an identity. Downstream consumers (reconciliation, lifecycle policy) depend
// on this view rather than on the raw registry response, whose ordering and
// duplicate behavior are the registry's business.
package keys

import (
	"context"
	"sort"

	"github.com/JLabsAU/relay-server/internal/authmethod"
	"github.com/JLabsAU/relay-server/internal/keys/models"
)

// Lister is the read capability the resolver needs from the registry client.
type Lister interface {
	ListKeys(ctx context.Context, handle authmethod.Handle) ([]models.KeyRecord, error)
}

// Resolver returns all keys bound to a handle, ordered by mint sequence
// ascending and de-duplicated by key ID.
type Resolver struct {
	registry Lister
}

// NewResolver creates a resolver over the given registry read capability.
func NewResolver(registry Lister) *Resolver {
	return &Resolver{registry: registry}
}

// Resolve lists the handle's keys. An unminted handle yields an empty slice.
func (r *Resolver) Resolve(ctx context.Context, handle authmethod.Handle) ([]models.KeyRecord, error) {
	raw, err := r.registry.ListKeys(ctx, handle)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(raw))
	keys := make([]models.KeyRecord, 0, len(raw))
	for _, k := range raw {
		if _, dup := seen[k.KeyID]; dup {
			continue
		}
		seen[k.KeyID] = struct{}{}
		keys = append(keys, k)
	}

	sort.SliceStable(keys, func(i, j int) bool {
		return keys[i].MintSequence < keys[j].MintSequence
	})
	return keys, nil
}
