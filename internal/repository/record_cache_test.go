package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticketing/internal/retry"
)

// countingStore wraps a MemoryStore, counts reads and can be told to fail.
type countingStore struct {
	*MemoryStore
	reads atomic.Int32
	fail  atomic.Bool
}

func (s *countingStore) ReadAll(ctx context.Context) ([]map[string]string, error) {
	s.reads.Add(1)
	if s.fail.Load() {
		return nil, errors.New("sheet unavailable")
	}
	return s.MemoryStore.ReadAll(ctx)
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newCache(store TicketStore, clock *fakeClock) *RecordCache {
	return NewRecordCache(store, time.Minute, WithClock(clock.Now))
}

func TestGetWithinTTLFetchesOnce(t *testing.T) {
	store := &countingStore{MemoryStore: NewMemoryStoreWithSlots(2)}
	clock := &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	c := newCache(store, clock)

	_, err := c.Get(context.Background())
	require.NoError(t, err)
	clock.Advance(30 * time.Second)
	rows, err := c.Get(context.Background())
	require.NoError(t, err)

	assert.Len(t, rows, 2)
	assert.EqualValues(t, 1, store.reads.Load())
}

func TestGetAfterTTLFetchesAgain(t *testing.T) {
	store := &countingStore{MemoryStore: NewMemoryStoreWithSlots(1)}
	clock := &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	c := newCache(store, clock)

	_, err := c.Get(context.Background())
	require.NoError(t, err)
	clock.Advance(time.Minute + time.Second)
	_, err = c.Get(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 2, store.reads.Load())
}

func TestGetDoesNotSeeWritesUntilExpiry(t *testing.T) {
	store := &countingStore{MemoryStore: NewMemoryStoreWithSlots(1)}
	clock := &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	c := newCache(store, clock)
	ctx := context.Background()

	_, err := c.Get(ctx)
	require.NoError(t, err)
	require.NoError(t, store.WriteCell(ctx, Cell(2, HeaderCode), "ABC123"))

	rows, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", rows[0].Code)

	rows, err = c.ForceRefresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ABC123", rows[0].Code)

	rows, err = c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ABC123", rows[0].Code, "force refresh replaces the held snapshot")
}

func TestGetServesPreviousSnapshotWhenRefreshFails(t *testing.T) {
	store := &countingStore{MemoryStore: NewMemoryStoreWithSlots(3)}
	clock := &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	c := newCache(store, clock)
	ctx := context.Background()

	_, err := c.Get(ctx)
	require.NoError(t, err)
	store.fail.Store(true)
	clock.Advance(2 * time.Minute)

	rows, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	_, err = c.ForceRefresh(ctx)
	assert.Error(t, err)
}

func TestGetFailsWithoutAnySnapshot(t *testing.T) {
	store := &countingStore{MemoryStore: NewMemoryStoreWithSlots(1)}
	store.fail.Store(true)
	c := newCache(store, &fakeClock{t: time.Now()})

	_, err := c.Get(context.Background())
	assert.True(t, errors.Is(err, ErrNoSnapshot), "got %v", err)
}

func TestRefreshRetriesReads(t *testing.T) {
	store := &flakyStore{MemoryStore: NewMemoryStoreWithSlots(1), failures: 2}
	c := NewRecordCache(store, time.Minute, WithRetry(retry.Constant(3, 0)))

	rows, err := c.ForceRefresh(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, 3, store.calls)
}

type flakyStore struct {
	*MemoryStore
	failures int
	calls    int
}

func (s *flakyStore) ReadAll(ctx context.Context) ([]map[string]string, error) {
	s.calls++
	if s.calls <= s.failures {
		return nil, errors.New("503")
	}
	return s.MemoryStore.ReadAll(ctx)
}

func TestConcurrentGetsShareOneFetch(t *testing.T) {
	store := &countingStore{MemoryStore: NewMemoryStoreWithSlots(5)}
	c := newCache(store, &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rows, err := c.Get(context.Background())
			assert.NoError(t, err)
			assert.Len(t, rows, 5)
		}()
	}
	wg.Wait()
	// The clock never moves, so every call after the first fetch is a hit or
	// joined the first fetch.
	assert.EqualValues(t, 1, store.reads.Load())
}
