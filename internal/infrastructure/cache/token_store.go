package cache

import (
	"context"
	"fmt"
	"time"

	"passmais-agenda/internal/infrastructure/upstream"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

// RedisTokenStore persists upstream session tokens in a hash per user.
type RedisTokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisTokenStore(client *redis.Client, ttl time.Duration) *RedisTokenStore {
	return &RedisTokenStore{client: client, ttl: ttl}
}

func (s *RedisTokenStore) Load(ctx context.Context, key string) (upstream.Tokens, error) {
	values, err := s.client.HGetAll(ctx, sessionKeyPrefix+key).Result()
	if err != nil {
		return upstream.Tokens{}, fmt.Errorf("load session %s: %w", key, err)
	}
	if len(values) == 0 {
		return upstream.Tokens{}, upstream.ErrTokensNotFound
	}
	return upstream.Tokens{
		AccessToken:  values["access"],
		RefreshToken: values["refresh"],
	}, nil
}

func (s *RedisTokenStore) Save(ctx context.Context, key string, tokens upstream.Tokens) error {
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, sessionKeyPrefix+key, "access", tokens.AccessToken, "refresh", tokens.RefreshToken)
	pipe.Expire(ctx, sessionKeyPrefix+key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save session %s: %w", key, err)
	}
	return nil
}

func (s *RedisTokenStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("delete session %s: %w", key, err)
	}
	return nil
}
