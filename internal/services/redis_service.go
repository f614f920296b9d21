package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisService provides the optional shared cache. When REDIS_URL is not
// set the service is nil and every caller skips caching.
type RedisService struct {
	client *redis.Client
	mu     sync.RWMutex
}

var (
	redisInstance *RedisService
	redisOnce     sync.Once
)

// NewRedisService creates a new Redis service instance
func NewRedisService(redisURL string) (*RedisService, error) {
	var initErr error

	redisOnce.Do(func() {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			initErr = fmt.Errorf("failed to parse Redis URL: %w", err)
			return
		}

		// Configure connection pool
		opts.PoolSize = 10
		opts.MinIdleConns = 2
		opts.MaxRetries = 3
		opts.DialTimeout = 5 * time.Second
		opts.ReadTimeout = 3 * time.Second
		opts.WriteTimeout = 3 * time.Second

		client := redis.NewClient(opts)

		// Test connection
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := client.Ping(ctx).Err(); err != nil {
			initErr = fmt.Errorf("failed to connect to Redis: %w", err)
			return
		}

		redisInstance = &RedisService{
			client: client,
		}

		log.Println("✅ Redis connection established")
	})

	if initErr != nil {
		return nil, initErr
	}

	return redisInstance, nil
}

// GetRedisService returns the singleton Redis service instance
func GetRedisService() *RedisService {
	return redisInstance
}

// Client returns the underlying Redis client
func (r *RedisService) Client() *redis.Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.client
}

// GetJSON fetches a cached JSON blob. Misses and errors both report not
// found; the cache is best-effort.
func (r *RedisService) GetJSON(ctx context.Context, key string) ([]byte, bool) {
	if r == nil {
		return nil, false
	}
	data, err := r.Client().Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// SetJSON stores a JSON blob with a TTL. Errors are logged, not returned:
// a cache write failure must never affect the caller.
func (r *RedisService) SetJSON(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if r == nil {
		return
	}
	if err := r.Client().Set(ctx, key, data, ttl).Err(); err != nil {
		log.Printf("⚠️  [REDIS] Cache write failed for %s: %v", key, err)
	}
}

// Close closes the Redis connection
func (r *RedisService) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.client != nil {
		return r.client.Close()
	}
	return nil
}
