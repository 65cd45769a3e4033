// Package cache memoizes hardware signal reads for the duration of a
// control tick, so repeated reads within one tick do not re-poll noisy or
// slow sensors.
package cache

import "time"

// Cache memoizes a sampled value with a time-to-live. Get returns the
// cached value while it is younger than the TTL, otherwise it re-samples.
// Sampling errors propagate to the caller and are never cached.
type Cache[T any] struct {
	sample func() (T, error)
	ttl    time.Duration
	now    func() time.Time

	value  T
	stamp  time.Time
	primed bool
}

// New returns a cache over the given sampler.
func New[T any](sample func() (T, error), ttl time.Duration) *Cache[T] {
	return &Cache[T]{sample: sample, ttl: ttl, now: time.Now}
}

// WithClock replaces the cache's time source. Intended for tests and
// simulated runs.
func (c *Cache[T]) WithClock(now func() time.Time) *Cache[T] {
	c.now = now
	return c
}

// Get returns the most recent sampled value, re-sampling if the cached
// one has expired.
func (c *Cache[T]) Get() (T, error) {
	if c.primed && c.now().Sub(c.stamp) < c.ttl {
		return c.value, nil
	}
	v, err := c.sample()
	if err != nil {
		var zero T
		return zero, err
	}
	c.value = v
	c.stamp = c.now()
	c.primed = true
	return v, nil
}

// Flush discards the cached value so the next Get re-samples. Call after
// re-zeroing an encoder so a stale pre-reset reading is never returned.
func (c *Cache[T]) Flush() {
	c.primed = false
}
