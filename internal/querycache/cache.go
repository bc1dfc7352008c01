package querycache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/stellar/go-stellar-sdk/support/log"
	"golang.org/x/sync/singleflight"

	"github.com/statewallet/wallet-session/internal/metrics"
)

var (
	ErrCacheClosed        = errors.New("query cache is closed")
	ErrSubscriptionClosed = errors.New("subscription is closed")
)

// Fetcher loads the value of one entry.
type Fetcher func(ctx context.Context) (any, error)

type entry struct {
	key            Key
	status         Status
	data           any
	err            error
	version        uint64
	appliedVersion uint64
	stale          bool
	loading        bool
	loadingVersion uint64
	updatedAt      time.Time
	subscribers    map[*Subscription]struct{}
}

func (e *entry) loadingCurrent() bool {
	return e.loading && e.loadingVersion == e.version
}

func (e *entry) snapshot() Snapshot {
	status := e.status
	if e.loadingCurrent() && status == StatusIdle {
		status = StatusLoading
	}
	return Snapshot{
		Data:      e.data,
		Err:       e.err,
		Status:    status,
		IsLoading: e.loadingCurrent(),
		IsError:   e.status == StatusErrored,
		IsStale:   e.stale,
		Version:   e.version,
		UpdatedAt: e.updatedAt,
	}
}

func (e *entry) notify() {
	for sub := range e.subscribers {
		select {
		case sub.updates <- struct{}{}:
		default:
		}
	}
}

// Cache is a keyed, reference counted fetch cache. Entries exist while at least one
// subscription holds them. Every invalidation bumps the entry version and any fetch result
// tagged with an older version is discarded.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	closed  bool

	group          singleflight.Group
	pool           pond.Pool
	baseCtx        context.Context
	cancel         context.CancelFunc
	fetchTimeout   time.Duration
	maxConcurrency int
	metricsService metrics.MetricsService
}

func NewCache(metricsService metrics.MetricsService, opts ...Option) (*Cache, error) {
	if metricsService == nil {
		return nil, errors.New("metrics service cannot be nil")
	}
	c := &Cache{
		entries:        make(map[string]*entry),
		maxConcurrency: defaultMaxConcurrency,
		metricsService: metricsService,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxConcurrency <= 0 {
		return nil, fmt.Errorf("max concurrency must be positive, got %d", c.maxConcurrency)
	}
	c.baseCtx, c.cancel = context.WithCancel(context.Background())
	c.pool = pond.NewPool(c.maxConcurrency)
	metricsService.RegisterPoolMetrics("query_cache", c.pool)
	return c, nil
}

// Subscribe attaches to the entry for key, creating it on first subscription.
func (c *Cache) Subscribe(key Key) *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := key.id()
	e, ok := c.entries[id]
	if !ok {
		e = &entry{key: key, subscribers: make(map[*Subscription]struct{})}
		c.entries[id] = e
		c.metricsService.SetCacheEntries(len(c.entries))
	}
	sub := &Subscription{
		cache:   c,
		key:     key,
		updates: make(chan struct{}, 1),
	}
	e.subscribers[sub] = struct{}{}
	return sub
}

// Invalidate marks every entry selected by prefix as stale and returns how many were marked.
// Stale entries keep their data until a fresh result replaces it.
func (c *Cache) Invalidate(prefix Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, e := range c.entries {
		if !e.key.HasPrefix(prefix) {
			continue
		}
		e.version++
		e.stale = true
		e.notify()
		c.metricsService.IncCacheInvalidations(e.key.Resource, 1)
		n++
	}
	return n
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close cancels running fetches and stops the fetch pool.
func (c *Cache) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.pool.StopAndWait()
}

func (c *Cache) release(sub *Subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := sub.key.id()
	e, ok := c.entries[id]
	if !ok {
		return
	}
	delete(e.subscribers, sub)
	if len(e.subscribers) == 0 {
		delete(c.entries, id)
		c.metricsService.SetCacheEntries(len(c.entries))
	}
}

// needsFetch must be called with c.mu held.
func (e *entry) needsFetch() bool {
	if e.loadingCurrent() {
		return false
	}
	return e.status == StatusIdle || e.stale
}

// startLoading must be called with c.mu held. It returns the single-flight key for the
// entry's current version.
func (c *Cache) startLoading(e *entry) (string, uint64) {
	e.loading = true
	e.loadingVersion = e.version
	return flightKey(e.key, e.version), e.version
}

func flightKey(key Key, version uint64) string {
	return key.id() + "@" + strconv.FormatUint(version, 10)
}

// fetchFunc runs fetcher for key at version and applies its result. A successful result for
// this exact version that was already applied is returned without fetching again.
func (c *Cache) fetchFunc(key Key, version uint64, fetcher Fetcher) func() (any, error) {
	return func() (any, error) {
		c.mu.Lock()
		if e, ok := c.entries[key.id()]; ok && e.appliedVersion == version && e.status == StatusReady && !e.stale {
			data, err := e.data, e.err
			c.mu.Unlock()
			return data, err
		}
		c.mu.Unlock()

		ctx := c.baseCtx
		if c.fetchTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.fetchTimeout)
			defer cancel()
		}

		val, err := safeFetch(ctx, fetcher)
		c.apply(key, version, val, err)
		return val, err
	}
}

func safeFetch(ctx context.Context, fetcher Fetcher) (val any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fetcher panicked: %v", r)
		}
	}()
	return fetcher(ctx)
}

func (c *Cache) apply(key Key, version uint64, val any, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.metricsService.IncCacheFetches(key.Resource, err == nil)
	e, ok := c.entries[key.id()]
	if !ok {
		return
	}
	if e.loadingVersion == version {
		e.loading = false
	}
	if version != e.version {
		c.metricsService.IncCacheStaleDiscards(key.Resource)
		log.Debugf("[querycache] discarding %s result for version %d, entry is at %d", key, version, e.version)
		return
	}

	if err != nil {
		e.status = StatusErrored
		e.err = err
	} else {
		e.status = StatusReady
		e.data = val
		e.err = nil
	}
	e.stale = false
	e.appliedVersion = version
	e.updatedAt = time.Now()
	e.notify()
}
