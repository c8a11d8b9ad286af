package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// MemoryIdempotencyStore keeps replay records in process for deployments without Redis.
// Misses are reported with redis.Nil like the Redis-backed store.
type MemoryIdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]memoryIdempotencyEntry
	now     func() time.Time
}

type memoryIdempotencyEntry struct {
	value     string
	expiresAt time.Time
}

func NewMemoryIdempotencyStore() *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{entries: map[string]memoryIdempotencyEntry{}, now: time.Now}
}

func (m *MemoryIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[key]
	if !ok {
		return "", redis.Nil
	}
	if !entry.expiresAt.IsZero() && !m.now().Before(entry.expiresAt) {
		delete(m.entries, key)
		return "", redis.Nil
	}
	return entry.value, nil
}

func (m *MemoryIdempotencyStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if entry, ok := m.entries[key]; ok && (entry.expiresAt.IsZero() || now.Before(entry.expiresAt)) {
		return false, nil
	}
	entry := memoryIdempotencyEntry{value: fmt.Sprint(value)}
	if ttl > 0 {
		entry.expiresAt = now.Add(ttl)
	}
	m.entries[key] = entry
	return true, nil
}

func (m *MemoryIdempotencyStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("idempotency:%s:%s", scope, id)
}
