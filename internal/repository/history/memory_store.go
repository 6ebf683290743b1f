package history

import (
	"context"
	"sync"

	"bank-advisor-be/pkg/llm"
)

// MemoryStore is the fallback history backend for development and tests.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string][]llm.Message
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string][]llm.Message),
	}
}

func (s *MemoryStore) Append(ctx context.Context, sessionID string, msgs ...llm.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := append(s.sessions[sessionID], msgs...)
	if len(entries) > maxEntries {
		entries = entries[len(entries)-maxEntries:]
	}
	s.sessions[sessionID] = entries
	return nil
}

func (s *MemoryStore) Recent(ctx context.Context, sessionID string, limit int) ([]llm.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.sessions[sessionID]
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	out := make([]llm.Message, len(entries))
	copy(out, entries)
	return out, nil
}

func (s *MemoryStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}
