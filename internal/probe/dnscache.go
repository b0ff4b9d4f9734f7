package probe

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	// DefaultDNSTTL is how long a resolved host stays cached.
	DefaultDNSTTL = 300 * time.Second

	// lookupTimeout bounds a shared lookup, which is detached from the
	// deadline of the probe that triggered it.
	lookupTimeout = 10 * time.Second
)

// resolver is the subset of *net.Resolver used by dnsCache.
type resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

type cachedHost struct {
	addrs   []string
	expires time.Time
}

// dnsCache caches successful host lookups for a fixed TTL.
// Concurrent lookups of the same host share one resolver call.
// Failed lookups are not cached.
type dnsCache struct {
	resolver resolver
	ttl      time.Duration
	now      func() time.Time

	mu    sync.RWMutex
	hosts map[string]cachedHost
	group singleflight.Group
}

func newDNSCache(r resolver, ttl time.Duration) *dnsCache {
	if r == nil {
		r = net.DefaultResolver
	}
	if ttl <= 0 {
		ttl = DefaultDNSTTL
	}
	return &dnsCache{
		resolver: r,
		ttl:      ttl,
		now:      time.Now,
		hosts:    make(map[string]cachedHost),
	}
}

// LookupHost returns the cached addresses of host, resolving it on a miss.
func (c *dnsCache) LookupHost(ctx context.Context, host string) ([]string, error) {
	c.mu.RLock()
	cached, ok := c.hosts[host]
	c.mu.RUnlock()
	if ok && c.now().Before(cached.expires) {
		return cached.addrs, nil
	}

	ch := c.group.DoChan(host, func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lookupTimeout)
		defer cancel()
		addrs, err := c.resolver.LookupHost(lookupCtx, host)
		if err != nil {
			return nil, asDNSError(host, err)
		}
		if len(addrs) == 0 {
			return nil, &net.DNSError{Err: ErrNoAddress.Error(), Name: host, IsNotFound: true}
		}
		c.mu.Lock()
		c.hosts[host] = cachedHost{addrs: addrs, expires: c.now().Add(c.ttl)}
		c.mu.Unlock()
		return addrs, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		addrs, _ := res.Val.([]string) //nolint:errcheck // type is fixed by the closure above
		return addrs, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Len returns the number of cached hosts, including expired ones.
func (c *dnsCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.hosts)
}

// asDNSError wraps resolver failures so they classify as connection failures.
// Deadline errors are kept so they still classify as timeouts.
func asDNSError(host string, err error) error {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &net.DNSError{Err: err.Error(), Name: host}
}
