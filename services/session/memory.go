package session

import (
	"context"
	"sync"
	"time"

	"meetbot/models"
)

// MemoryStore keeps sessions in process memory. Sessions are copied on the way
// in and out so callers never alias stored state.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
	keys     *KeyedMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*models.Session),
		keys:     NewKeyedMutex(),
	}
}

func (s *MemoryStore) GetOrCreate(_ context.Context, identity string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrCreateLocked(identity).Clone(), nil
}

func (s *MemoryStore) getOrCreateLocked(identity string) *models.Session {
	sess, ok := s.sessions[identity]
	if !ok {
		sess = models.NewSession()
		s.sessions[identity] = sess
	}
	return sess
}

func (s *MemoryStore) Replace(_ context.Context, identity string, sess *models.Session) error {
	next := sess.Clone()
	if next == nil {
		next = models.NewSession()
	}
	next.UpdatedAt = time.Now()

	unlock := s.keys.Lock(identity)
	defer unlock()
	s.mu.Lock()
	s.sessions[identity] = next
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Mutate(_ context.Context, identity string, fn func(*models.Session) error) error {
	unlock := s.keys.Lock(identity)
	defer unlock()

	s.mu.Lock()
	working := s.getOrCreateLocked(identity).Clone()
	s.mu.Unlock()

	if err := fn(working); err != nil {
		return err
	}
	working.UpdatedAt = time.Now()

	s.mu.Lock()
	s.sessions[identity] = working
	s.mu.Unlock()
	return nil
}

// Len returns the number of known identities.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
