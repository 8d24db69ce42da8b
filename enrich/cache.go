package enrich

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/hubenschmidt/go-mfginsight/monitor"
)

// Cached memoizes hits of the wrapped source. Misses are not cached so a
// transient outage does not pin a "not found" answer.
type Cached struct {
	Source
	cache   *expirable.LRU[string, Reference]
	metrics *monitor.Manager
}

// NewCached wraps src. Hits served from the cache are counted on metrics,
// which may be nil.
func NewCached(src Source, size int, ttl time.Duration, metrics *monitor.Manager) *Cached {
	if size <= 0 {
		size = 256
	}
	return &Cached{
		Source: src,
		cache:   expirable.NewLRU[string, Reference](size, nil, ttl),
		metrics: metrics,
	}
}

func (c *Cached) Lookup(ctx context.Context, query string) (*Reference, bool) {
	key := strings.ToLower(strings.TrimSpace(query))
	if ref, ok := c.cache.Get(key); ok {
		c.metrics.RecordEnrichment(c.Name(), monitor.OutcomeCacheHit)
		return &ref, true
	}

	ref, ok := c.Source.Lookup(ctx, query)
	if ok && ref != nil {
		c.cache.Add(key, *ref)
	}
	return ref, ok
}

// Cached reports whether query currently has a cached hit.
func (c *Cached) Cached(query string) bool {
	return c.cache.Contains(strings.ToLower(strings.TrimSpace(query)))
}
