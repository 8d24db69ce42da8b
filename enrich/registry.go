package enrich

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hubenschmidt/go-mfginsight/monitor"
)

// Finding pairs a source with the outcome of one lookup. Ref is nil when
// nothing was found.
type Finding struct {
	Source Source
	Ref    *Reference
}

// Line renders the finding for an analysis prompt.
func (f Finding) Line() string {
	return f.Source.Describe(f.Ref)
}

// Registry holds the enrichment sources in registration order.
type Registry struct {
	mu      sync.RWMutex
	sources []Source
	log     *zap.Logger
	metrics *monitor.Manager
}

func NewRegistry(log *zap.Logger, metrics *monitor.Manager) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{log: log.Named("enrich"), metrics: metrics}
}

// Register adds src, replacing any source with the same name in place.
func (r *Registry) Register(src Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, s := range r.sources {
		if s.Name() == src.Name() {
			r.sources[i] = src
			return
		}
	}
	r.sources = append(r.sources, src)
}

func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.sources))
	for i, s := range r.sources {
		names[i] = s.Name()
	}
	return names
}

// LookupAll queries every source concurrently and waits for all of them.
// Findings keep registration order.
func (r *Registry) LookupAll(ctx context.Context, query string) []Finding {
	r.mu.RLock()
	sources := append([]Source(nil), r.sources...)
	r.mu.RUnlock()

	findings := make([]Finding, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			ref, ok := src.Lookup(gctx, query)
			if !ok {
				ref = nil
			}
			findings[i] = Finding{Source: src, Ref: ref}

			outcome := monitor.OutcomeNotFound
			if ref != nil {
				outcome = monitor.OutcomeFound
			}
			r.metrics.RecordEnrichment(src.Name(), outcome)
			r.log.Debug("lookup", zap.String("source", src.Name()), zap.String("outcome", outcome))
			return nil
		})
	}
	_ = g.Wait()
	return findings
}

// Default registers Wikipedia then Google, each behind an LRU cache when
// cacheSize is positive.
func Default(cfg WikipediaConfig, cacheSize int, cacheTTL time.Duration, metrics *monitor.Manager) *Registry {
	r := NewRegistry(cfg.Logger, metrics)
	var wiki Source = NewWikipedia(cfg)
	var google Source = NewGoogle()
	if cacheSize > 0 {
		wiki = NewCached(wiki, cacheSize, cacheTTL, metrics)
	}
	r.Register(wiki)
	r.Register(google)
	return r
}
