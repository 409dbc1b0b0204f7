package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	f.values[key] = value.(string)
	f.ttls[key] = ttl
	return nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, exists := f.values[key]; exists {
		return false, nil
	}
	f.values[key] = value.(string)
	f.ttls[key] = ttl
	return true, nil
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	value, exists := f.values[key]
	if !exists {
		return "", redis.Nil
	}
	return value, nil
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func TestRedisLockAcquireAndRelease(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()

	lock, err := NewRedisLock(store, "roas:lock:worker", time.Minute)
	require.NoError(t, err)

	held, err := lock.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, held)
	assert.NotEmpty(t, store.values["roas:lock:worker"])

	other, err := NewRedisLock(store, "roas:lock:worker", time.Minute)
	require.NoError(t, err)
	held, err = other.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, held)

	require.NoError(t, lock.Release(ctx))
	assert.Empty(t, store.values)
}

func TestRedisLockReleaseSkipsForeignOwner(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()

	lock, err := NewRedisLock(store, "roas:lock:worker", time.Minute)
	require.NoError(t, err)
	_, err = lock.Acquire(ctx)
	require.NoError(t, err)

	// another worker stole the key after our TTL expired
	store.values["roas:lock:worker"] = "someone-else"

	require.NoError(t, lock.Release(ctx))
	assert.Equal(t, "someone-else", store.values["roas:lock:worker"])
}

func TestRedisLockRefresh(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()

	lock, err := NewRedisLock(store, "roas:lock:worker", time.Minute)
	require.NoError(t, err)

	assert.Error(t, lock.Refresh(ctx))

	_, err = lock.Acquire(ctx)
	require.NoError(t, err)
	require.NoError(t, lock.Refresh(ctx))

	// key expired: refresh reclaims it
	delete(store.values, "roas:lock:worker")
	require.NoError(t, lock.Refresh(ctx))
	assert.NotEmpty(t, store.values["roas:lock:worker"])

	// key stolen: refresh must fail
	store.values["roas:lock:worker"] = "someone-else"
	assert.Error(t, lock.Refresh(ctx))
}

func TestNewRedisLockValidation(t *testing.T) {
	_, err := NewRedisLock(nil, "key", time.Minute)
	assert.Error(t, err)

	_, err = NewRedisLock(newFakeStore(), "", time.Minute)
	assert.Error(t, err)

	lock, err := NewRedisLock(newFakeStore(), "key", 0)
	require.NoError(t, err)
	assert.Equal(t, defaultLockTTL, lock.ttl)
}
