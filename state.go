package oauth

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// DefaultStateTTL bounds how long a pending authorization stays valid between
// the redirect to the provider and the callback.
const DefaultStateTTL = 10 * time.Minute

// PendingAuthStore records outstanding authorization attempts keyed by their
// state token. Consume must be atomic: of two concurrent calls presenting the
// same token, exactly one may succeed.
type PendingAuthStore interface {
	Put(state string) error
	Consume(state string) bool
}

type memoryPendingAuthStore struct {
	mu    sync.Mutex
	cache *cache.Cache
}

// NewPendingAuthStore returns an in-memory store whose entries expire after
// ttl. A ttl of zero or less selects DefaultStateTTL.
func NewPendingAuthStore(ttl time.Duration) PendingAuthStore {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}

	return &memoryPendingAuthStore{
		cache: cache.New(ttl, ttl),
	}
}

func (s *memoryPendingAuthStore) Put(state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Set(state, time.Now(), cache.DefaultExpiration)

	return nil
}

// Consume checks and deletes under one lock so a replayed token loses the
// race deterministically.
func (s *memoryPendingAuthStore) Consume(state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cache.Get(state); !ok {
		return false
	}

	s.cache.Delete(state)

	return true
}
