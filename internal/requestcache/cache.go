// Package requestcache coalesces concurrent identical requests. Two rapid
// saves of the same layout, or two views loading the same resource, share
// one in-flight call instead of racing. It is a pure concurrency primitive:
// no retry, no backoff, no persistence. It composes with the transport.
package requestcache

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// Cache coalesces calls by key for as long as one is in flight. The entry
// is cleared as soon as the shared call returns, success or failure.
type Cache struct {
	group singleflight.Group
}

// New constructs an empty cache.
func New() *Cache {
	return &Cache{}
}

// Run executes fn for key unless an identical call is already in flight, in
// which case the caller waits for and receives that call's result. The
// caller's context only detaches the caller; the shared call keeps running
// for whoever else is waiting on it.
func (c *Cache) Run(ctx context.Context, key string, fn func(ctx context.Context) (any, error)) (any, error) {
	ch := c.group.DoChan(key, func() (any, error) {
		return fn(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			hitsTotal.Inc()
		} else {
			missesTotal.Inc()
		}
		return res.Val, res.Err
	}
}

// Forget drops any in-flight entry for key so the next Run starts fresh.
func (c *Cache) Forget(key string) {
	c.group.Forget(key)
}
