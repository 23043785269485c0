// ABOUTME: Redis-backed credential store
// ABOUTME: Lets several machines or containers share one signed-in session

package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrEmptyAddress is returned when the Redis address is not configured
var ErrEmptyAddress = errors.New("redis address is required")

// connectionTimeout bounds the initial ping
const connectionTimeout = 5 * time.Second

// RedisOptions configures the Redis store
type RedisOptions struct {
	Address  string
	Password string
	DB       int
	Key      string
	TTL      time.Duration // 0 keeps the key until cleared
}

// Redis stores the credential under a single key
type Redis struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedis connects to Redis and verifies the connection
func NewRedis(opts RedisOptions) (*Redis, error) {
	if opts.Address == "" {
		return nil, ErrEmptyAddress
	}
	if opts.Key == "" {
		return nil, errors.New("redis key is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Address,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Redis{client: client, key: opts.Key, ttl: opts.TTL}, nil
}

// Get returns the stored credential or ErrNotFound
func (r *Redis) Get(ctx context.Context) (string, error) {
	token, err := r.client.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", r.key, err)
	}
	return token, nil
}

// Set stores the credential, expiring it after the configured TTL
func (r *Redis) Set(ctx context.Context, token string) error {
	if err := r.client.Set(ctx, r.key, token, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key, err)
	}
	return nil
}

// Clear deletes the key
func (r *Redis) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", r.key, err)
	}
	return nil
}

// Close releases the connection pool
func (r *Redis) Close() error {
	return r.client.Close()
}
