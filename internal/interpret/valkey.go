// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package interpret

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// interpKeyPrefix namespaces interpretation entries in Valkey so they never
// collide with session keys sharing the same instance.
const interpKeyPrefix = "interp:"

// valkeyBackend stores interpretation text in Valkey with server-side TTL
// expiry. Used when the cache must be shared across processes.
type valkeyBackend struct {
	client *redis.Client
	ttl    time.Duration
}

// NewValkeyBackend creates a Valkey-backed cache backend with the given TTL.
func NewValkeyBackend(client *redis.Client, ttl time.Duration) Backend {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &valkeyBackend{client: client, ttl: ttl}
}

func (v *valkeyBackend) Get(ctx context.Context, key string) (string, bool, error) {
	text, err := v.client.Get(ctx, interpKeyPrefix+key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("valkey get: %w", err)
	}
	return text, true, nil
}

func (v *valkeyBackend) Put(ctx context.Context, key, text string) error {
	if err := v.client.Set(ctx, interpKeyPrefix+key, text, v.ttl).Err(); err != nil {
		return fmt.Errorf("valkey set: %w", err)
	}
	return nil
}

func (v *valkeyBackend) Delete(ctx context.Context, key string) error {
	if err := v.client.Del(ctx, interpKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("valkey del: %w", err)
	}
	return nil
}
