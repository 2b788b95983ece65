package auth

import (
	"context"
	"sync"

	"github.com/ukydev/fleetfix/internal/models"
)

// SessionStore keeps login sessions and their remote tokens.
type SessionStore interface {
	CreateSession(ctx context.Context, session models.Session) error
	FindSession(ctx context.Context, id string) (*models.Session, error)
	FindSessionByRefreshToken(ctx context.Context, token string) (*models.Session, error)
	UpdateSession(ctx context.Context, session models.Session) error
	DeleteSession(ctx context.Context, id string) error
}

// MemorySessionStore is a process-local SessionStore.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
}

// NewMemorySessionStore creates an empty store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]models.Session)}
}

func (s *MemorySessionStore) CreateSession(_ context.Context, session models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	return nil
}

func (s *MemorySessionStore) FindSession(_ context.Context, id string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &session, nil
}

func (s *MemorySessionStore) FindSessionByRefreshToken(_ context.Context, token string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, session := range s.sessions {
		if token != "" && session.RefreshToken == token {
			session := session
			return &session, nil
		}
	}
	return nil, ErrSessionNotFound
}

func (s *MemorySessionStore) UpdateSession(_ context.Context, session models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.ID]; !ok {
		return ErrSessionNotFound
	}
	s.sessions[session.ID] = session
	return nil
}

func (s *MemorySessionStore) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}
