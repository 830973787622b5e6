package api

import (
	"sync"

	"github.com/Nephrolytics-ai/lecture-notes/pkg/orchestrator"
)

// SessionStore keeps finished runs in memory. A result is published once its run ends and
// is replaced whole on reprocessing.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*orchestrator.SessionResult
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*orchestrator.SessionResult)}
}

func (s *SessionStore) Get(id string) (*orchestrator.SessionResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.sessions[id]
	return result, ok
}

func (s *SessionStore) Put(result *orchestrator.SessionResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[result.ID] = result
}

func (s *SessionStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	return ok
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
