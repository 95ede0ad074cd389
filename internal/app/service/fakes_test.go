package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ikkim/atelier-catalog/internal/app/repository"
	"github.com/ikkim/atelier-catalog/internal/cache"
	"github.com/ikkim/atelier-catalog/internal/db"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	testCtx      = context.Background()
	errCacheDown = errors.New("cache down")
)

// fakeClock is a settable Clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// memoryViewCache is an in-process cache.ViewCache. Setting down makes
// every call fail.
type memoryViewCache struct {
	mu        sync.Mutex
	counts    map[uint]int64
	lastSaved map[uint]time.Time
	down      bool
}

var _ cache.ViewCache = (*memoryViewCache)(nil)

func newMemoryViewCache() *memoryViewCache {
	return &memoryViewCache{
		counts:    map[uint]int64{},
		lastSaved: map[uint]time.Time{},
	}
}

func (m *memoryViewCache) Increment(_ context.Context, id uint, seed int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return 0, errCacheDown
	}
	if _, ok := m.counts[id]; !ok {
		m.counts[id] = seed
	}
	m.counts[id]++
	return m.counts[id], nil
}

func (m *memoryViewCache) Count(_ context.Context, id uint) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return 0, false, errCacheDown
	}
	v, ok := m.counts[id]
	return v, ok, nil
}

func (m *memoryViewCache) LastSaved(_ context.Context, id uint) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return time.Time{}, false, errCacheDown
	}
	v, ok := m.lastSaved[id]
	return v, ok, nil
}

func (m *memoryViewCache) SetLastSaved(_ context.Context, id uint, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return errCacheDown
	}
	m.lastSaved[id] = at
	return nil
}

func (m *memoryViewCache) PendingProductIDs(context.Context) ([]uint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return nil, errCacheDown
	}
	ids := make([]uint, 0, len(m.counts))
	for id := range m.counts {
		ids = append(ids, id)
	}
	return ids, nil
}

// viewStore fakes the durable side of the view counter. Only the view
// methods are implemented.
type viewStore struct {
	repository.ProductRepository
	mu        sync.Mutex
	views     map[uint]int64
	writes    int
	updateErr error
}

func newViewStore(views map[uint]int64) *viewStore {
	return &viewStore{views: views}
}

func (s *viewStore) UpdateViews(_ context.Context, id uint, views int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	if _, ok := s.views[id]; !ok {
		return repository.ErrProductNotFound
	}
	s.views[id] = views
	s.writes++
	return nil
}

func (s *viewStore) durable(id uint) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.views[id]
}

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	return testDB
}
