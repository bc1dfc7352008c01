package querycache

import (
	"context"
	"fmt"
	"sync"
)

// Subscription holds one reference to a cache entry. Close releases it and must always run.
type Subscription struct {
	cache   *Cache
	key     Key
	updates chan struct{}
	once    sync.Once
	closed  bool
}

func (s *Subscription) Key() Key {
	return s.key
}

// Updates signals, coalesced, that the entry changed.
func (s *Subscription) Updates() <-chan struct{} {
	return s.updates
}

// Get returns the current snapshot without blocking. When the entry has never been fetched or
// was invalidated since its last fetch, a fetch is started in the background.
func (s *Subscription) Get(fetcher Fetcher, opts ...GetOption) Snapshot {
	o := getOptions{enabled: true}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.enabled {
		return Snapshot{}
	}

	c := s.cache
	c.mu.Lock()
	e, ok := c.entries[s.key.id()]
	if s.closed || !ok {
		c.mu.Unlock()
		return Snapshot{Status: StatusErrored, IsError: true, Err: ErrSubscriptionClosed}
	}
	if c.closed {
		c.mu.Unlock()
		return Snapshot{Status: StatusErrored, IsError: true, Err: ErrCacheClosed}
	}

	if !e.needsFetch() {
		if !e.loadingCurrent() {
			c.metricsService.IncCacheHits(s.key.Resource)
		}
		snap := e.snapshot()
		c.mu.Unlock()
		return snap
	}

	c.metricsService.IncCacheMisses(s.key.Resource)
	flight, version := c.startLoading(e)
	snap := e.snapshot()
	c.mu.Unlock()

	fn := c.fetchFunc(s.key, version, fetcher)
	c.pool.Submit(func() {
		//nolint:errcheck
		c.group.Do(flight, fn)
	})
	return snap
}

// Fetch returns the entry's value, fetching it when it is missing, stale or errored, and joins a
// fetch already in flight for the same version. If the entry is invalidated while the fetch
// runs, the fetch is repeated for the new version.
func (s *Subscription) Fetch(ctx context.Context, fetcher Fetcher) (any, error) {
	c := s.cache
	for {
		c.mu.Lock()
		e, ok := c.entries[s.key.id()]
		if s.closed || !ok {
			c.mu.Unlock()
			return nil, ErrSubscriptionClosed
		}
		if c.closed {
			c.mu.Unlock()
			return nil, ErrCacheClosed
		}
		if e.status == StatusReady && !e.stale {
			c.metricsService.IncCacheHits(s.key.Resource)
			data := e.data
			c.mu.Unlock()
			return data, nil
		}

		var flight string
		var version uint64
		if e.loadingCurrent() {
			flight, version = flightKey(e.key, e.version), e.version
		} else {
			c.metricsService.IncCacheMisses(s.key.Resource)
			flight, version = c.startLoading(e)
		}
		c.mu.Unlock()

		ch := c.group.DoChan(flight, c.fetchFunc(s.key, version, fetcher))
		var res singleflightResult
		select {
		case r := <-ch:
			res = singleflightResult{val: r.Val, err: r.Err}
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for %s: %w", s.key, ctx.Err())
		}

		c.mu.Lock()
		current := false
		if e, ok := c.entries[s.key.id()]; ok {
			current = e.version == version
		}
		c.mu.Unlock()
		if current || s.isClosed() {
			return res.val, res.err
		}
	}
}

type singleflightResult struct {
	val any
	err error
}

func (s *Subscription) isClosed() bool {
	s.cache.mu.Lock()
	defer s.cache.mu.Unlock()
	return s.closed
}

// Snapshot returns the current state without starting a fetch.
func (s *Subscription) Snapshot() Snapshot {
	c := s.cache
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[s.key.id()]
	if s.closed || !ok {
		return Snapshot{Status: StatusErrored, IsError: true, Err: ErrSubscriptionClosed}
	}
	return e.snapshot()
}

// Close releases the subscription. The entry is destroyed with its last subscription.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.cache.mu.Lock()
		s.closed = true
		s.cache.mu.Unlock()
		s.cache.release(s)
	})
}

// FetchAs is Fetch with the value asserted to T.
func FetchAs[T any](ctx context.Context, sub *Subscription, fetcher Fetcher) (T, error) {
	var zero T
	v, err := sub.Fetch(ctx, fetcher)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("cached value for %s is %T, not %T", sub.key, v, zero)
	}
	return t, nil
}
