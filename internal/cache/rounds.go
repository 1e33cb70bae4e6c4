package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"fairplay/internal/game"
)

const REDIS_KEY_SNAKES_ROUND = "fairplay:snakes:round:"

// RoundStore keeps active snakes rounds as JSON with a TTL, so abandoned
// rounds expire on their own.
type RoundStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ game.RoundStore = (*RoundStore)(nil)

func NewRoundStore(client *redis.Client, ttl time.Duration) *RoundStore {
	return &RoundStore{client: client, ttl: ttl}
}

func (s *RoundStore) Save(ctx context.Context, round *game.SnakesRound) error {
	data, err := json.Marshal(round)
	if err != nil {
		return fmt.Errorf("marshal round %s: %w", round.ID, err)
	}
	return s.client.Set(ctx, REDIS_KEY_SNAKES_ROUND+round.ID, data, s.ttl).Err()
}

func (s *RoundStore) Load(ctx context.Context, id string) (*game.SnakesRound, error) {
	data, err := s.client.Get(ctx, REDIS_KEY_SNAKES_ROUND+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", game.ErrRoundNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get round %s: %w", id, err)
	}

	var round game.SnakesRound
	if err := json.Unmarshal(data, &round); err != nil {
		return nil, fmt.Errorf("unmarshal round %s: %w", id, err)
	}
	return &round, nil
}

func (s *RoundStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, REDIS_KEY_SNAKES_ROUND+id).Err()
}
