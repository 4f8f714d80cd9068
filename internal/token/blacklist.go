package token

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Blacklist хранит id отозванных токенов до их истечения.
type Blacklist interface {
	Add(ctx context.Context, id string, ttl time.Duration) error
	Contains(ctx context.Context, id string) (bool, error)
}

const blacklistPrefix = "jwt:blacklist:"

type RedisBlacklist struct {
	client *redis.Client
}

func NewRedisBlacklist(client *redis.Client) *RedisBlacklist {
	return &RedisBlacklist{client: client}
}

func (b *RedisBlacklist) Add(ctx context.Context, id string, ttl time.Duration) error {
	if err := b.client.Set(ctx, blacklistPrefix+id, "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (b *RedisBlacklist) Contains(ctx context.Context, id string) (bool, error) {
	err := b.client.Get(ctx, blacklistPrefix+id).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get: %w", err)
	}
	return true, nil
}

// MemoryBlacklist используется, когда REDIS_ADDR не задан. Отзывы теряются
// при перезапуске и не видны другим экземплярам.
type MemoryBlacklist struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemoryBlacklist() *MemoryBlacklist {
	return &MemoryBlacklist{entries: map[string]time.Time{}, now: time.Now}
}

func (b *MemoryBlacklist) Add(_ context.Context, id string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	for k, until := range b.entries {
		if !now.Before(until) {
			delete(b.entries, k)
		}
	}
	b.entries[id] = now.Add(ttl)
	return nil
}

func (b *MemoryBlacklist) Contains(_ context.Context, id string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	until, ok := b.entries[id]
	return ok && b.now().Before(until), nil
}
