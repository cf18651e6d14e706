package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces limiter entries so they can coexist with other data
// in a shared Redis instance.
const keyPrefix = "quotaguard:"

// RedisStore provides Redis-backed shared counters for distributed
// deployments. Many stateless instances pointed at the same Redis see one
// consistent count per window because INCR is atomic on the server.
type RedisStore struct {
	client *redis.Client
}

// Ensure RedisStore implements Store interface
var _ Store = (*RedisStore)(nil)

// RedisConfig for creating a Redis store
type RedisConfig struct {
	Addr     string // Redis address (e.g., "localhost:6379")
	Password string // Redis password (empty for no auth)
	DB       int    // Redis database number
}

// NewRedisStore creates a new Redis-backed store.
func NewRedisStore(config RedisConfig) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	return &RedisStore{client: client}
}

// Increment runs INCR and EXPIRE NX in one transactional pipeline.
// EXPIRE NX only arms the expiry when the key has none, so the ttl is set by
// whichever call created the entry and never refreshed afterwards. With a ttl
// of twice the window, a crash between the two commands only delays cleanup:
// window keys are unique per time bucket, so a lingering entry can never
// block a future window.
func (s *RedisStore) Increment(ctx context.Context, windowKey string, ttl time.Duration) (int64, error) {
	key := keyPrefix + windowKey

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return incr.Val(), nil
}

// Ping checks if the Redis connection is alive.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Clear removes all limiter keys from Redis. Intended for tests.
func (s *RedisStore) Clear(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
