package game

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// RoundStore keeps active snakes rounds by round id for the length of a
// round. The Redis-backed store lives in the cache package.
type RoundStore interface {
	Save(ctx context.Context, round *SnakesRound) error
	Load(ctx context.Context, id string) (*SnakesRound, error)
	Delete(ctx context.Context, id string) error
}

// MemoryRoundStore is an in-process RoundStore. Rounds are stored as JSON so
// callers never share a *SnakesRound with the store.
type MemoryRoundStore struct {
	mu     sync.Mutex
	rounds map[string][]byte
}

func NewMemoryRoundStore() *MemoryRoundStore {
	return &MemoryRoundStore{rounds: make(map[string][]byte)}
}

func (s *MemoryRoundStore) Save(_ context.Context, round *SnakesRound) error {
	data, err := json.Marshal(round)
	if err != nil {
		return fmt.Errorf("marshal round %s: %w", round.ID, err)
	}
	s.mu.Lock()
	s.rounds[round.ID] = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryRoundStore) Load(_ context.Context, id string) (*SnakesRound, error) {
	s.mu.Lock()
	data, ok := s.rounds[id]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRoundNotFound, id)
	}
	var round SnakesRound
	if err := json.Unmarshal(data, &round); err != nil {
		return nil, fmt.Errorf("unmarshal round %s: %w", id, err)
	}
	return &round, nil
}

func (s *MemoryRoundStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.rounds, id)
	s.mu.Unlock()
	return nil
}

func (s *MemoryRoundStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rounds)
}
