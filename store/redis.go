package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configures the Redis backend connection.
type RedisOptions struct {
	// URL is the Redis connection string (e.g., "redis://localhost:6379").
	URL string

	// Prefix namespaces every stored location. Default: "store".
	Prefix string

	// ConnectTimeout is the maximum time to wait for connection
	// establishment.
	ConnectTimeout time.Duration
}

// RedisBackend implements Backend on a Redis server using go-redis/v9.
// Stored content is addressed as "<prefix>:<location>".
type RedisBackend struct {
	client *redis.Client
	prefix string
}

// NewRedisBackend creates a Redis backend with the given options and
// verifies connectivity.
func NewRedisBackend(opts RedisOptions) (*RedisBackend, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}
	if opts.Prefix == "" {
		opts.Prefix = "store"
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("store: failed to parse Redis URL: %w", err)
	}
	redisOpts.DialTimeout = opts.ConnectTimeout

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("store: failed to connect to Redis: %w", err)
	}

	return &RedisBackend{client: client, prefix: opts.Prefix}, nil
}

// NewRedisBackendFromClient wraps an existing Redis client. The caller
// remains responsible for the client's lifecycle when sharing it.
func NewRedisBackendFromClient(client *redis.Client, prefix string) *RedisBackend {
	if prefix == "" {
		prefix = "store"
	}
	return &RedisBackend{client: client, prefix: prefix}
}

func (r *RedisBackend) key(location string) string {
	return r.prefix + ":" + location
}

// Put stores data at location.
func (r *RedisBackend) Put(ctx context.Context, location string, data []byte) error {
	if err := validLocation(location); err != nil {
		return fmt.Errorf("%w: %q", err, location)
	}
	if err := r.client.Set(ctx, r.key(location), data, 0).Err(); err != nil {
		return fmt.Errorf("store: failed to put %q: %w", location, err)
	}
	return nil
}

// Get returns the content at location.
func (r *RedisBackend) Get(ctx context.Context, location string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key(location)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, location)
		}
		return nil, fmt.Errorf("store: failed to get %q: %w", location, err)
	}
	return data, nil
}

// Delete removes the content at location.
func (r *RedisBackend) Delete(ctx context.Context, location string) error {
	n, err := r.client.Del(ctx, r.key(location)).Result()
	if err != nil {
		return fmt.Errorf("store: failed to delete %q: %w", location, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, location)
	}
	return nil
}

// List returns all locations with the given prefix, sorted.
func (r *RedisBackend) List(ctx context.Context, prefix string) ([]string, error) {
	pattern := r.key(prefix) + "*"
	trim := r.prefix + ":"

	var out []string
	iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		out = append(out, strings.TrimPrefix(iter.Val(), trim))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("store: failed to list %q: %w", prefix, err)
	}
	sort.Strings(out)
	return out, nil
}

// Close closes the Redis connection.
func (r *RedisBackend) Close() error {
	return r.client.Close()
}
