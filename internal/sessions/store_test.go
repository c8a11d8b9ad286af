package sessions

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/orderdesk/internal/drafts"
	pkgerrors "github.com/angelmondragon/orderdesk/pkg/errors"
	"github.com/angelmondragon/orderdesk/pkg/models"
)

type fakeRedis struct {
	data map[string]string
	ttls map[string]time.Duration
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) (string, error) {
	v, ok := f.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	f.data[key] = value.(string)
	f.ttls[key] = ttl
	return nil
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeRedis) AcquireLock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	f.data[key] = "1"
	f.ttls[key] = ttl
	return true, nil
}

func (f *fakeRedis) ReleaseLock(ctx context.Context, key string) error {
	return f.Del(ctx, key)
}

func (f *fakeRedis) DraftKey(id string) string      { return "od:draft:" + id }
func (f *fakeRedis) SubmitLockKey(id string) string { return "od:submit_lock:" + id }

func TestRedisStoreRoundTrip(t *testing.T) {
	fake := newFakeRedis()
	store := NewRedisStore(fake, 12*time.Hour, 30*time.Second)
	ctx := context.Background()

	d := drafts.New(time.Now())
	d, err := d.Select(models.Product{ProductID: "P-1", ProductName: "Widget A"}, time.Now())
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, d))
	assert.Equal(t, 12*time.Hour, fake.ttls["od:draft:"+d.ID])

	got, err := store.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.ID, got.ID)
	assert.Equal(t, d.Items.Items(), got.Items.Items())

	ok, err := store.AcquireSubmit(ctx, d.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = store.AcquireSubmit(ctx, d.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, store.ReleaseSubmit(ctx, d.ID))

	require.NoError(t, store.Delete(ctx, d.ID))
	_, err = store.Get(ctx, d.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore(time.Minute, time.Second)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }
	ctx := context.Background()

	d := drafts.New(clock)
	require.NoError(t, store.Save(ctx, d))
	_, err := store.Get(ctx, d.ID)
	require.NoError(t, err)

	ok, _ := store.AcquireSubmit(ctx, d.ID)
	assert.True(t, ok)
	ok, _ = store.AcquireSubmit(ctx, d.ID)
	assert.False(t, ok)
	clock = clock.Add(2 * time.Second)
	ok, _ = store.AcquireSubmit(ctx, d.ID)
	assert.True(t, ok, "expired submit lock should be reacquirable")

	clock = clock.Add(2 * time.Minute)
	_, err = store.Get(ctx, d.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
