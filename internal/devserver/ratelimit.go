package devserver

import (
	"context"
	"sync"
	"time"
)

// Counter is a fixed-window counter for the auth rate limiter when no redis
// is configured.
type Counter struct {
	mu      sync.Mutex
	now     func() time.Time
	windows map[string]window
}

type window struct {
	count   int64
	expires time.Time
}

func NewCounter(now func() time.Time) *Counter {
	if now == nil {
		now = time.Now
	}
	return &Counter{now: now, windows: map[string]window{}}
}

// IncrWithTTL increments key, starting a new window of ttl when the previous
// one has expired.
func (c *Counter) IncrWithTTL(_ context.Context, key string, ttl time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	w, ok := c.windows[key]
	if !ok || (!w.expires.IsZero() && !now.Before(w.expires)) {
		w = window{}
		if ttl > 0 {
			w.expires = now.Add(ttl)
		}
	}
	w.count++
	c.windows[key] = w
	return w.count, nil
}
