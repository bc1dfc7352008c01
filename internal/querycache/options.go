package querycache

import "time"

const defaultMaxConcurrency = 8

type Option func(*Cache)

// WithFetchTimeout bounds every fetch started by the cache.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Cache) {
		c.fetchTimeout = d
	}
}

// WithMaxConcurrency bounds the number of fetches running at once.
func WithMaxConcurrency(n int) Option {
	return func(c *Cache) {
		c.maxConcurrency = n
	}
}

type getOptions struct {
	enabled bool
}

type GetOption func(*getOptions)

// Enabled gates a read on a dependency. A disabled read never fetches and reports neither
// data nor loading.
func Enabled(enabled bool) GetOption {
	return func(o *getOptions) {
		o.enabled = enabled
	}
}
