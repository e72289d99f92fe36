// Package idempotency remembers recent mint outcomes so a retried request
// carrying the same idempotency key is answered from memory instead of
// re-entering the mint path.
package idempotency

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/JLabsAU/relay-server/internal/keys/models"
)

// Store is a TTL-bounded cache of mint results keyed by caller-supplied
// idempotency keys. Entries expire; idempotency here is best-effort replay
// suppression, not a durability guarantee.
type Store struct {
	cache *gocache.Cache
}

// NewStore creates a store whose entries live for ttl.
func NewStore(ttl time.Duration) *Store {
	return &Store{cache: gocache.New(ttl, 2*ttl)}
}

// Get returns the remembered mint result for the key, if any.
func (s *Store) Get(key string) (*models.KeyRecord, bool) {
	v, ok := s.cache.Get(key)
	if !ok {
		return nil, false
	}
	record := v.(models.KeyRecord)
	return &record, true
}

// Put remembers a mint result under the key.
func (s *Store) Put(key string, record *models.KeyRecord) {
	s.cache.SetDefault(key, *record)
}
