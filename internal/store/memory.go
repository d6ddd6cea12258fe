package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/redresshq/redress/internal/domain"
)

// In-memory store implementations, used when no DATABASE_URL is
// configured and throughout the tests. They honor the same contracts as
// the Postgres stores, including copy-on-read so callers can never
// mutate stored state in place.

type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]*domain.Session)}
}

func (s *MemorySessionStore) Save(ctx context.Context, sess *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess.Clone()
	return nil
}

func (s *MemorySessionStore) Load(ctx context.Context, id string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return sess.Clone(), nil
}

type MemoryCaseStore struct {
	mu    sync.RWMutex
	cases []domain.Case
}

func NewMemoryCaseStore() *MemoryCaseStore {
	return &MemoryCaseStore{}
}

func (s *MemoryCaseStore) Create(ctx context.Context, c *domain.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = uuid.New()
	c.CreatedAt = time.Now().UTC()
	s.cases = append(s.cases, *c)
	return nil
}

func (s *MemoryCaseStore) GetByID(ctx context.Context, id string) (*domain.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.cases {
		if s.cases[i].ID.String() == id {
			c := s.cases[i]
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryCaseStore) ListBySession(ctx context.Context, sessionID string) ([]domain.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Case
	for i := len(s.cases) - 1; i >= 0; i-- {
		if s.cases[i].SessionID == sessionID {
			out = append(out, s.cases[i])
		}
	}
	return out, nil
}

type MemoryMessageStore struct {
	mu       sync.RWMutex
	messages []domain.TurnMessage
}

func NewMemoryMessageStore() *MemoryMessageStore {
	return &MemoryMessageStore{}
}

func (s *MemoryMessageStore) Append(ctx context.Context, m *domain.TurnMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = uuid.New()
	m.CreatedAt = time.Now().UTC()
	s.messages = append(s.messages, *m)
	return nil
}

func (s *MemoryMessageStore) ListBySession(ctx context.Context, sessionID string) ([]domain.TurnMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.TurnMessage
	for _, m := range s.messages {
		if m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	return out, nil
}
