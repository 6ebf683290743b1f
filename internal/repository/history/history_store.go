package history

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"bank-advisor-be/pkg/llm"
)

// Store keeps the per-session conversation transcript that feeds the
// extraction and generation prompts.
type Store interface {
	Append(ctx context.Context, sessionID string, msgs ...llm.Message) error
	Recent(ctx context.Context, sessionID string, limit int) ([]llm.Message, error)
	Clear(ctx context.Context, sessionID string) error
}

const (
	keyPrefix = "advisor:history:"
	// Twice the API history limit: we store user and assistant turns as
	// separate entries.
	maxEntries = 40
)

// RedisStore persists history in a Redis list with a sliding TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 1 * time.Hour
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Append(ctx context.Context, sessionID string, msgs ...llm.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	key := keyPrefix + sessionID
	values := make([]interface{}, 0, len(msgs))
	for _, msg := range msgs {
		b, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		values = append(values, b)
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, values...)
	pipe.LTrim(ctx, key, -maxEntries, -1)
	pipe.Expire(ctx, key, s.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Recent(ctx context.Context, sessionID string, limit int) ([]llm.Message, error) {
	if limit <= 0 {
		limit = maxEntries
	}

	raw, err := s.client.LRange(ctx, keyPrefix+sessionID, int64(-limit), -1).Result()
	if err != nil {
		return nil, err
	}

	msgs := make([]llm.Message, 0, len(raw))
	for _, item := range raw {
		var msg llm.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			continue
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, keyPrefix+sessionID).Err()
}

// NewStore connects to Redis and falls back to process memory when Redis is
// unreachable, so a missing broker never blocks local development.
func NewStore(redisURL string, ttl time.Duration, logger *zap.Logger) Store {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Warn("invalid redis url, using in-memory history", zap.Error(err))
		return NewMemoryStore()
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unreachable, using in-memory history", zap.Error(err))
		return NewMemoryStore()
	}

	logger.Info("conversation history backed by redis")
	return NewRedisStore(client, ttl)
}
