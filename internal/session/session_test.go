package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) (*miniredis.Miniredis, Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, NewRedisStore(rdb, time.Hour)
}

func TestSession_GetSet(t *testing.T) {
	s := New()
	assert.False(t, s.Modified())

	var viewed map[string]string
	found, err := s.Get("viewed", &viewed)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set("viewed", map[string]string{"1": "2024-01-01 10:00:00"}))
	assert.True(t, s.Modified())

	found, err = s.Get("viewed", &viewed)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "2024-01-01 10:00:00", viewed["1"])

	var wrong int
	_, err = s.Get("viewed", &wrong)
	assert.Error(t, err)
}

func TestRedisStore_RoundTrip(t *testing.T) {
	mr, store := setupStore(t)
	ctx := context.Background()

	s := New()
	require.NoError(t, s.Set("viewed", map[string]string{"3": "2024-01-01 10:00:00"}))
	require.NoError(t, store.Save(ctx, s))
	assert.False(t, s.Modified())
	assert.Equal(t, time.Hour, mr.TTL(keyPrefix+s.ID()))

	loaded, err := store.Load(ctx, s.ID())
	require.NoError(t, err)
	assert.Equal(t, s.ID(), loaded.ID())
	assert.False(t, loaded.Modified())

	var viewed map[string]string
	found, err := loaded.Get("viewed", &viewed)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, map[string]string{"3": "2024-01-01 10:00:00"}, viewed)
}

func TestRedisStore_LoadUnknownID(t *testing.T) {
	_, store := setupStore(t)

	id := uuid.NewString()
	s, err := store.Load(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, s.ID())

	_, err = store.Load(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrInvalidSessionID)
}

func TestRedisStore_LoadCorruptPayload(t *testing.T) {
	mr, store := setupStore(t)

	id := uuid.NewString()
	require.NoError(t, mr.Set(keyPrefix+id, "{not json"))

	s, err := store.Load(context.Background(), id)
	require.NoError(t, err)
	found, err := s.Get("viewed", &map[string]string{})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	km := NewKeyedMutex()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		active  int
		overlap bool
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("same")
			defer unlock()

			mu.Lock()
			active++
			if active > 1 {
				overlap = true
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.False(t, overlap)
	assert.Zero(t, km.size())
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	km := NewKeyedMutex()

	unlockA := km.Lock("a")
	done := make(chan struct{})
	go func() {
		unlockB := km.Lock("b")
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on b blocked behind a")
	}
	unlockA()
}
