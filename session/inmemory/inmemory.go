// Package inmemory is the map-backed session store used by tests and
// single-process runs.
package inmemory

import (
	"context"
	"fmt"
	"sync"

	"github.com/seniormts/seniormts/session"
)

type Store struct {
	mu       sync.RWMutex
	sessions map[string][]session.Message
}

func New() *Store {
	return &Store{sessions: make(map[string][]session.Message)}
}

func (s *Store) Get(ctx context.Context, id string) ([]session.Message, error) {
	if id == "" {
		return nil, fmt.Errorf("session: empty id")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.sessions[id]
	out := make([]session.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (s *Store) Append(ctx context.Context, id string, msgs ...session.Message) error {
	if id == "" {
		return fmt.Errorf("session: empty id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = append(s.sessions[id], msgs...)
	return nil
}
