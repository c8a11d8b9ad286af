package sessions

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/angelmondragon/orderdesk/internal/drafts"
	pkgerrors "github.com/angelmondragon/orderdesk/pkg/errors"
	"github.com/angelmondragon/orderdesk/pkg/redis"
)

// Store persists builder drafts between requests.
type Store interface {
	Get(ctx context.Context, id string) (drafts.Draft, error)
	Save(ctx context.Context, d drafts.Draft) error
	Delete(ctx context.Context, id string) error
	// AcquireSubmit takes the in-flight submission lock; false means it is already held.
	AcquireSubmit(ctx context.Context, id string) (bool, error)
	ReleaseSubmit(ctx context.Context, id string) error
}

func errDraftNotFound(id string) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "order draft not found").WithDetails(map[string]any{"draft_id": id})
}

type memoryEntry struct {
	draft     drafts.Draft
	expiresAt time.Time
}

// MemoryStore keeps drafts in process. Used when no Redis endpoint is configured.
type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]memoryEntry
	locks   map[string]time.Time
	lockTTL time.Duration
}

func NewMemoryStore(ttl, lockTTL time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		lockTTL: lockTTL,
		now:     time.Now,
		entries: map[string]memoryEntry{},
		locks:   map[string]time.Time{},
	}
}

func (m *MemoryStore) Get(_ context.Context, id string) (drafts.Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[id]
	if !ok {
		return drafts.Draft{}, errDraftNotFound(id)
	}
	if m.ttl > 0 && m.now().After(entry.expiresAt) {
		delete(m.entries, id)
		return drafts.Draft{}, errDraftNotFound(id)
	}
	return entry.draft, nil
}

func (m *MemoryStore) Save(_ context.Context, d drafts.Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[d.ID] = memoryEntry{draft: d, expiresAt: m.now().Add(m.ttl)}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	delete(m.locks, id)
	return nil
}

func (m *MemoryStore) AcquireSubmit(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if until, held := m.locks[id]; held && (m.lockTTL <= 0 || m.now().Before(until)) {
		return false, nil
	}
	m.locks[id] = m.now().Add(m.lockTTL)
	return true, nil
}

func (m *MemoryStore) ReleaseSubmit(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, id)
	return nil
}

type redisClient interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key string) error
	DraftKey(draftID string) string
	SubmitLockKey(draftID string) string
}

// RedisStore keeps drafts as JSON documents so any replica can serve a session.
type RedisStore struct {
	client  redisClient
	ttl     time.Duration
	lockTTL time.Duration
}

func NewRedisStore(client redisClient, ttl, lockTTL time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, lockTTL: lockTTL}
}

func (r *RedisStore) Get(ctx context.Context, id string) (drafts.Draft, error) {
	raw, err := r.client.Get(ctx, r.client.DraftKey(id))
	if err != nil {
		if redis.IsNil(err) {
			return drafts.Draft{}, errDraftNotFound(id)
		}
		return drafts.Draft{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order draft")
	}
	var d drafts.Draft
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return drafts.Draft{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode order draft")
	}
	return d, nil
}

func (r *RedisStore) Save(ctx context.Context, d drafts.Draft) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode order draft")
	}
	if err := r.client.Set(ctx, r.client.DraftKey(d.ID), string(payload), r.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order draft")
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.client.DraftKey(id), r.client.SubmitLockKey(id)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order draft")
	}
	return nil
}

func (r *RedisStore) AcquireSubmit(ctx context.Context, id string) (bool, error) {
	ok, err := r.client.AcquireLock(ctx, r.client.SubmitLockKey(id), r.lockTTL)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire submit lock")
	}
	return ok, nil
}

func (r *RedisStore) ReleaseSubmit(ctx context.Context, id string) error {
	if err := r.client.ReleaseLock(ctx, r.client.SubmitLockKey(id)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release submit lock")
	}
	return nil
}
