package feeds

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the list in a redis LIST, so several serve instances
// can share one subscription set.
type RedisStore struct {
	client redis.Cmdable
	key    string
}

// NewRedisStore returns a store using key on client.
func NewRedisStore(client redis.Cmdable, key string) *RedisStore {
	return &RedisStore{client: client, key: key}
}

// OpenRedis connects to addr and checks the connection. The returned
// client must be closed by the caller.
func OpenRedis(ctx context.Context, addr, key string) (*RedisStore, *redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return NewRedisStore(client, key), client, nil
}

func (r *RedisStore) Load(ctx context.Context) ([]string, error) {
	urls, err := r.client.LRange(ctx, r.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange %s: %w", r.key, err)
	}
	return urls, nil
}

// Save replaces the whole list in one MULTI/EXEC.
func (r *RedisStore) Save(ctx context.Context, urls []string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.key)
		if len(urls) == 0 {
			return nil
		}
		values := make([]any, len(urls))
		for i, u := range urls {
			values[i] = u
		}
		pipe.RPush(ctx, r.key, values...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis replace %s: %w", r.key, err)
	}
	return nil
}
