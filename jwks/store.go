package jwks

import (
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

// Entry is a point-in-time view of the cached key set.
//
// ExpiresAt is only meaningful when Set is non-nil.
type Entry struct {
	Set       jwk.Set
	ExpiresAt time.Time
}

// Present reports whether the entry holds a key set.
func (e Entry) Present() bool {
	return e.Set != nil
}

// Fresh reports whether the entry holds a key set that has not expired at now.
// An entry expires once now is strictly after ExpiresAt.
func (e Entry) Fresh(now time.Time) bool {
	return e.Set != nil && !now.After(e.ExpiresAt)
}

// Store holds the current Entry. Readers never block each other; writers
// hold the lock only for the assignment.
type Store struct {
	mu    sync.RWMutex
	entry Entry
}

// Snapshot returns the current entry. Value and expiry are always read together.
func (s *Store) Snapshot() Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entry
}

// Replace atomically swaps in a new key set and its expiry.
func (s *Store) Replace(set jwk.Set, expiresAt time.Time) {
	s.mu.Lock()
	s.entry = Entry{Set: set, ExpiresAt: expiresAt}
	s.mu.Unlock()
}

// Clear empties the store. Calling it on an empty store is a no-op.
func (s *Store) Clear() {
	s.mu.Lock()
	s.entry = Entry{}
	s.mu.Unlock()
}
