// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sessionconfig

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces sandbox keys in a shared Redis.
const DefaultRedisPrefix = "voice-sandbox:"

// Compile-time interface check.
var _ Backend = (*RedisBackend)(nil)

// RedisBackend stores values as plain Redis strings under prefix+key.
// Values never expire.
type RedisBackend struct {
	client *redis.Client
	prefix string
}

// NewRedisBackend wraps an existing client. An empty prefix selects
// DefaultRedisPrefix.
func NewRedisBackend(client *redis.Client, prefix string) *RedisBackend {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisBackend{client: client, prefix: prefix}
}

func (b *RedisBackend) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := b.client.Get(ctx, b.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (b *RedisBackend) Set(ctx context.Context, key, value string) error {
	return b.client.Set(ctx, b.key(key), value, 0).Err()
}

func (b *RedisBackend) key(key string) string {
	return b.prefix + key
}
