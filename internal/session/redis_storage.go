package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisStorage guarda el token en Redis bajo plog:storage:<origin>:token.
type RedisStorage struct {
	client redisKV
	key    string
}

func NewRedisStorage(client *redis.Client, origin string) *RedisStorage {
	return newRedisStorage(client, origin)
}

func newRedisStorage(client redisKV, origin string) *RedisStorage {
	return &RedisStorage{
		client: client,
		key:    "plog:storage:" + normalizeOrigin(origin) + ":" + storageKey,
	}
}

func (s *RedisStorage) Load() (string, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	val, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (s *RedisStorage) Save(token string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	return s.client.Set(ctx, s.key, token, 0).Err()
}

func (s *RedisStorage) Delete() error {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	return s.client.Del(ctx, s.key).Err()
}
