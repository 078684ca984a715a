// Package redis_session stores chat history in Redis lists with a sliding
// TTL, the production backend for multi-instance deployments.
package redis_session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/seniormts/seniormts/session"
)

type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func New(addr, password string, db int, ttl time.Duration) *Store {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{client: rdb, ttl: ttl}
}

// Ping verifies connectivity at startup.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func key(id string) string { return fmt.Sprintf("session:%s:messages", id) }

func (s *Store) Get(ctx context.Context, id string) ([]session.Message, error) {
	if id == "" {
		return nil, fmt.Errorf("session: empty id")
	}
	vals, err := s.client.LRange(ctx, key(id), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis session get: %w", err)
	}
	msgs := make([]session.Message, 0, len(vals))
	for _, v := range vals {
		var m session.Message
		if err := json.Unmarshal([]byte(v), &m); err != nil {
			return nil, fmt.Errorf("redis session get: corrupt message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

func (s *Store) Append(ctx context.Context, id string, msgs ...session.Message) error {
	if id == "" {
		return fmt.Errorf("session: empty id")
	}
	if len(msgs) == 0 {
		return nil
	}
	vals := make([]interface{}, 0, len(msgs))
	for _, m := range msgs {
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("redis session append: %w", err)
		}
		vals = append(vals, data)
	}
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key(id), vals...)
	pipe.Expire(ctx, key(id), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis session append: %w", err)
	}
	return nil
}
