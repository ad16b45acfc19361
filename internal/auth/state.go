package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultStateTTL is how long an issued OAuth state stays redeemable
const DefaultStateTTL = 10 * time.Minute

// StateStore issues single-use OAuth state values
type StateStore struct {
	states map[string]time.Time
	mu     sync.RWMutex
	ttl    time.Duration
	now    func() time.Time
}

func NewStateStore(ttl time.Duration) *StateStore {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &StateStore{
		states: make(map[string]time.Time),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue creates and remembers a new state value
func (s *StateStore) Issue() string {
	state := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	s.states[state] = s.now().Add(s.ttl)
	return state
}

// Consume redeems state. It returns false for unknown, expired or
// already consumed values.
func (s *StateStore) Consume(state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	expires, exists := s.states[state]
	if !exists {
		return false
	}
	delete(s.states, state)
	return s.now().Before(expires)
}

// Len returns the number of outstanding states
func (s *StateStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}

// sweep drops expired states; callers hold the write lock
func (s *StateStore) sweep() {
	now := s.now()
	for k, expires := range s.states {
		if !now.Before(expires) {
			delete(s.states, k)
		}
	}
}
