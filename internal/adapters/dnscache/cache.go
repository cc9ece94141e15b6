// Package dnscache implements the bounded hostname resolution cache shared by the relays.
package dnscache

import (
	"context"
	"errors"
	"net/netip"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.trai.ch/ferry/internal/core/domain"
	"go.trai.ch/ferry/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

// Upstream performs uncached lookups.
type Upstream interface {
	// Lookup returns the addresses of host and how long they may be cached.
	Lookup(ctx context.Context, host string) ([]netip.Addr, time.Duration, error)
}

type entry struct {
	addrs   []netip.Addr
	expires time.Time
}

// Stats reports cache effectiveness counters.
type Stats struct {
	Hits   uint64
	Misses uint64
}

// Cache resolves hostnames through an Upstream, keeping at most a fixed
// number of answers until their TTL expires.
type Cache struct {
	upstream Upstream
	capacity int
	entries  *lru.Cache[string, entry]
	group    singleflight.Group
	now      func() time.Time

	hits   atomic.Uint64
	misses atomic.Uint64
}

var _ ports.Resolver = (*Cache)(nil)

// New creates a Cache holding at most capacity hostnames.
// A capacity of zero disables caching.
func New(capacity int, upstream Upstream) *Cache {
	c := &Cache{
		upstream: upstream,
		capacity: max(capacity, 0),
		now:      time.Now,
	}
	if capacity > 0 {
		// lru.New only fails on a non-positive size.
		c.entries, _ = lru.New[string, entry](capacity)
	}
	return c
}

// Resolve returns the addresses of host. IP literals are returned without a lookup.
func (c *Cache) Resolve(ctx context.Context, host string) ([]netip.Addr, error) {
	if addr, err := netip.ParseAddr(strings.Trim(host, "[]")); err == nil {
		return []netip.Addr{addr.Unmap()}, nil
	}

	key := strings.ToLower(strings.TrimSuffix(host, "."))
	if key == "" {
		return nil, zerr.With(errors.Join(domain.ErrResolveFailed), "host", host)
	}

	if addrs, ok := c.lookupCached(key); ok {
		c.hits.Add(1)
		return addrs, nil
	}
	c.misses.Add(1)

	// The shared lookup outlives any single caller; each caller stops waiting on its own ctx.
	ch := c.group.DoChan(key, func() (any, error) {
		return c.fill(context.WithoutCancel(ctx), key)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return slices.Clone(res.Val.([]netip.Addr)), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Len returns the number of cached hostnames.
func (c *Cache) Len() int {
	if c.entries == nil {
		return 0
	}
	return c.entries.Len()
}

// Capacity returns the configured bound. Zero means caching is disabled.
func (c *Cache) Capacity() int {
	return c.capacity
}

// Stats returns the hit and miss counters.
func (c *Cache) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

func (c *Cache) lookupCached(key string) ([]netip.Addr, bool) {
	if c.entries == nil {
		return nil, false
	}
	e, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expires) {
		c.entries.Remove(key)
		return nil, false
	}
	return slices.Clone(e.addrs), true
}

func (c *Cache) fill(ctx context.Context, key string) ([]netip.Addr, error) {
	addrs, ttl, err := c.upstream.Lookup(ctx, key)
	if err != nil {
		return nil, zerr.With(errors.Join(domain.ErrResolveFailed, err), "host", key)
	}
	if len(addrs) == 0 {
		return nil, zerr.With(errors.Join(domain.ErrNoAddresses), "host", key)
	}

	if c.entries != nil && ttl > 0 {
		c.entries.Add(key, entry{addrs: addrs, expires: c.now().Add(ttl)})
	}
	return addrs, nil
}
