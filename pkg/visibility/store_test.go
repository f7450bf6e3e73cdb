package visibility_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/tourguide/pkg/adapters/memory"
	"github.com/aretw0/tourguide/pkg/adapters/redis"
	"github.com/aretw0/tourguide/pkg/domain"
	"github.com/aretw0/tourguide/pkg/visibility"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_EmptyBackend(t *testing.T) {
	store := visibility.New(memory.NewStore())
	ctx := context.Background()

	assert.Empty(t, store.GetViewed(ctx))
	assert.Empty(t, store.GetDismissCount(ctx))

	_, ok := store.Viewed(ctx, "home")
	assert.False(t, ok)
	assert.Equal(t, 0, store.DismissCountOf(ctx, "home"))
}

func TestStore_CorruptRecordsReadAsEmpty(t *testing.T) {
	kv := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, domain.KeyViewed, []byte("{not json")))
	require.NoError(t, kv.Set(ctx, domain.KeyDismissCount, []byte(`{"home":"many"}`)))

	store := visibility.New(kv)

	assert.Empty(t, store.GetViewed(ctx))
	assert.Empty(t, store.GetDismissCount(ctx))

	// A write replaces the corrupt record.
	require.NoError(t, store.SetDismissCount(ctx, "home", 1))
	assert.Equal(t, 1, store.DismissCountOf(ctx, "home"))
}

func TestStore_WireFormat(t *testing.T) {
	kv := memory.NewStore()
	store := visibility.New(kv)
	ctx := context.Background()
	dismissedAt := time.UnixMilli(1700000000000)

	require.NoError(t, store.SetViewed(ctx, "home", domain.CompletedEntry()))
	require.NoError(t, store.SetViewed(ctx, "about", domain.DismissedEntry(dismissedAt)))
	require.NoError(t, store.SetDismissCount(ctx, "about", 2))

	raw, err := kv.Get(ctx, domain.KeyViewed)
	require.NoError(t, err)
	assert.JSONEq(t, `{"home":true,"about":1700000000000}`, string(raw))

	raw, err = kv.Get(ctx, domain.KeyDismissCount)
	require.NoError(t, err)
	assert.JSONEq(t, `{"about":2}`, string(raw))

	// Reload through a fresh facade.
	reloaded := visibility.New(kv)
	entry, ok := reloaded.Viewed(ctx, "about")
	require.True(t, ok)
	assert.False(t, entry.Completed)
	assert.True(t, entry.DismissedAt.Equal(dismissedAt))

	entry, ok = reloaded.Viewed(ctx, "home")
	require.True(t, ok)
	assert.True(t, entry.Completed)
}

func TestStore_SetKeepsOtherPages(t *testing.T) {
	store := visibility.New(memory.NewStore())
	ctx := context.Background()

	require.NoError(t, store.SetDismissCount(ctx, "a", 1))
	require.NoError(t, store.SetDismissCount(ctx, "b", 3))

	assert.Equal(t, domain.DismissCount{"a": 1, "b": 3}, store.GetDismissCount(ctx))
	assert.Error(t, store.SetDismissCount(ctx, "a", -1))
}

func TestStore_UpdateWritesOnlyChangedRecords(t *testing.T) {
	kv := &countingKV{Store: memory.NewStore()}
	store := visibility.New(kv)
	ctx := context.Background()

	err := store.Update(ctx, func(v domain.ViewedRecord, c domain.DismissCount) error {
		c["home"]++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{domain.KeyDismissCount: 1}, kv.sets)

	boom := errors.New("boom")
	err = store.Update(ctx, func(v domain.ViewedRecord, c domain.DismissCount) error {
		v["home"] = domain.CompletedEntry()
		return boom
	})
	assert.ErrorIs(t, err, boom)
	_, ok := store.Viewed(ctx, "home")
	assert.False(t, ok, "failed update must not persist")
}

func TestStore_Namespace(t *testing.T) {
	kv := memory.NewStore()
	ctx := context.Background()

	alice := visibility.New(visibility.Namespace(kv, "alice"))
	bob := visibility.New(visibility.Namespace(kv, "bob"))

	require.NoError(t, alice.SetViewed(ctx, "home", domain.CompletedEntry()))

	_, ok := bob.Viewed(ctx, "home")
	assert.False(t, ok)

	keys, err := kv.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice." + domain.KeyViewed}, keys)
}

func TestStore_DistributedLock(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	kv := redis.NewFromClient(client)
	locker := redis.NewLocker(client, "tourguide:")

	store := visibility.New(kv, visibility.WithLocker(locker, "visitor-1"))
	ctx := context.Background()

	require.NoError(t, store.SetDismissCount(ctx, "home", 2))
	assert.Equal(t, 2, store.DismissCountOf(ctx, "home"))
	assert.False(t, mr.Exists("tourguide:lock:visitor-1"), "lock must be released after the write")
}

type countingKV struct {
	*memory.Store
	sets map[string]int
}

func (c *countingKV) Set(ctx context.Context, key string, value []byte) error {
	if c.sets == nil {
		c.sets = map[string]int{}
	}
	c.sets[key]++
	return c.Store.Set(ctx, key, value)
}
