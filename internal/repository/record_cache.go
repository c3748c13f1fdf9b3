package repository

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/labstack/gommon/log"
	"golang.org/x/sync/singleflight"

	"github.com/iliyamo/event-ticketing/internal/metrics"
	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/retry"
)

// cacheEntry is an immutable snapshot of the ticket sheet.  fetchedAt is the
// moment the fetch that produced it began, so the staleness bound is
// conservative.
type cacheEntry struct {
	rows      []model.TicketRow
	fetchedAt time.Time
	valid     bool
}

// RecordCache is the process-wide read-through cache over the ticket sheet.
// The held snapshot is swapped as a whole and never patched: write paths go
// straight to the store and the cache only learns about them on the next
// refresh.  Snapshots handed out are shared and must be treated as
// read-only.
type RecordCache struct {
	store   TicketStore
	ttl     time.Duration
	timeout time.Duration
	retry   retry.Policy
	now     func() time.Time

	entry atomic.Pointer[cacheEntry]
	group singleflight.Group
}

// CacheOption customises a RecordCache.
type CacheOption func(*RecordCache)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) CacheOption {
	return func(c *RecordCache) { c.now = now }
}

// WithRetry sets the retry policy applied to remote reads.
func WithRetry(p retry.Policy) CacheOption {
	return func(c *RecordCache) { c.retry = p }
}

// WithTimeout bounds each remote read attempt.
func WithTimeout(d time.Duration) CacheOption {
	return func(c *RecordCache) { c.timeout = d }
}

// NewRecordCache returns an empty cache; the first read always fetches.
func NewRecordCache(store TicketStore, ttl time.Duration, opts ...CacheOption) *RecordCache {
	c := &RecordCache{
		store:   store,
		ttl:     ttl,
		timeout: 15 * time.Second,
		retry:   retry.None(),
		now:     time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	c.entry.Store(&cacheEntry{})
	return c
}

// Get returns the held snapshot while it is younger than the TTL and
// refreshes it otherwise.  When the refresh fails but an older snapshot
// exists, that snapshot is served; the error surfaces only when there is
// nothing to serve.  Concurrent misses share one remote fetch.
func (c *RecordCache) Get(ctx context.Context) ([]model.TicketRow, error) {
	e := c.entry.Load()
	if e.valid && c.now().Sub(e.fetchedAt) <= c.ttl {
		metrics.CacheReads.WithLabelValues("hit").Inc()
		return e.rows, nil
	}
	v, err, _ := c.group.Do("snapshot", func() (interface{}, error) {
		// Another caller may have refreshed between our load and this point.
		if cur := c.entry.Load(); cur.valid && c.now().Sub(cur.fetchedAt) <= c.ttl {
			return cur.rows, nil
		}
		return c.refresh(context.WithoutCancel(ctx))
	})
	if err != nil {
		if prev := c.entry.Load(); prev.valid {
			metrics.CacheReads.WithLabelValues("stale").Inc()
			log.Warnf("record cache: refresh failed, serving snapshot from %s: %v",
				prev.fetchedAt.Format(time.RFC3339), err)
			return prev.rows, nil
		}
		return nil, errors.Mark(err, ErrNoSnapshot)
	}
	metrics.CacheReads.WithLabelValues("miss").Inc()
	return v.([]model.TicketRow), nil
}

// ForceRefresh ignores the TTL and always fetches.  It never joins a fetch
// that was already in flight, so the result reflects every write that
// completed before the call.  On failure the previous snapshot is kept and
// the error is returned.
func (c *RecordCache) ForceRefresh(ctx context.Context) ([]model.TicketRow, error) {
	return c.refresh(ctx)
}

func (c *RecordCache) refresh(ctx context.Context) ([]model.TicketRow, error) {
	started := c.now()
	var records []map[string]string
	err := c.retry.Do(ctx, "read ticket sheet", func() error {
		cctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		var err error
		records, err = c.store.ReadAll(cctx)
		return err
	})
	if err != nil {
		metrics.CacheRefreshes.WithLabelValues("error").Inc()
		return nil, errors.Wrap(err, "refreshing ticket snapshot")
	}
	metrics.CacheRefreshes.WithLabelValues("ok").Inc()
	next := &cacheEntry{rows: TicketsFromRecords(records), fetchedAt: started, valid: true}
	for {
		cur := c.entry.Load()
		// A slower fetch that began earlier must not replace a newer snapshot.
		if cur.valid && cur.fetchedAt.After(started) {
			break
		}
		if c.entry.CompareAndSwap(cur, next) {
			break
		}
	}
	return next.rows, nil
}
