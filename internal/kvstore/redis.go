package kvstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on a Redis server. Namespaces become key
// prefixes ("<namespace>:<key>").
type RedisStore struct {
	client *redis.Client
}

// NewRedis connects to the Redis server at the given URL (redis://...)
// or plain host:port address.
func NewRedis(url string) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		opt = &redis.Options{Addr: url}
	}

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

func redisKey(ns Namespace, key string) string {
	return string(ns) + ":" + key
}

// Get retrieves the value stored under (ns, key).
func (s *RedisStore) Get(ctx context.Context, ns Namespace, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, redisKey(ns, key)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read key %s/%s: %w", ns, key, err)
	}
	return value, nil
}

// Set stores value under (ns, key) with no expiration; TTL handling is
// the caller's responsibility.
func (s *RedisStore) Set(ctx context.Context, ns Namespace, key string, value []byte) error {
	if err := s.client.Set(ctx, redisKey(ns, key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to write key %s/%s: %w", ns, key, err)
	}
	return nil
}

// Delete removes (ns, key).
func (s *RedisStore) Delete(ctx context.Context, ns Namespace, key string) error {
	if err := s.client.Del(ctx, redisKey(ns, key)).Err(); err != nil {
		return fmt.Errorf("failed to delete key %s/%s: %w", ns, key, err)
	}
	return nil
}

// List returns all key/value pairs in a namespace by scanning its prefix.
func (s *RedisStore) List(ctx context.Context, ns Namespace) (map[string][]byte, error) {
	prefix := string(ns) + ":"
	result := make(map[string][]byte)

	iter := s.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		fullKey := iter.Val()
		value, err := s.client.Get(ctx, fullKey).Bytes()
		if err == redis.Nil {
			continue // Expired between scan and read
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read key %s: %w", fullKey, err)
		}
		result[fullKey[len(prefix):]] = value
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan namespace %s: %w", ns, err)
	}
	return result, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
