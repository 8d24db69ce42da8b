// Package retrieval exposes nearest-neighbour and pairwise similarity over
// stored event embeddings.
package retrieval

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hubenschmidt/go-mfginsight/core"
	"github.com/hubenschmidt/go-mfginsight/monitor"
	"github.com/hubenschmidt/go-mfginsight/vector"
)

const DefaultTopK = 5

type Engine struct {
	index   vector.Index
	log     *zap.Logger
	metrics *monitor.Manager
}

type Option func(*Engine)

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l.Named("retrieval")
		}
	}
}

func WithMetrics(m *monitor.Manager) Option {
	return func(e *Engine) { e.metrics = m }
}

func New(index vector.Index, opts ...Option) *Engine {
	e := &Engine{index: index, log: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// TopKSimilar returns up to k neighbours of eventID by descending
// similarity. k <= 0 selects DefaultTopK. Store failures are returned as
// execution errors; an unembedded target is an empty result.
func (e *Engine) TopKSimilar(ctx context.Context, eventID int64, k int) ([]core.SimilarityResult, error) {
	if k <= 0 {
		k = DefaultTopK
	}

	start := time.Now()
	results, err := e.index.TopK(ctx, eventID, k)
	e.metrics.ObserveRetrieval("top_k", time.Since(start), err)
	if err != nil {
		e.log.Warn("top-k lookup failed", zap.Int64("event_id", eventID), zap.Error(err))
		return nil, core.NewError(core.KindExecution, "retrieval.top_k", err)
	}

	if len(results) > k {
		results = results[:k]
	}
	e.log.Debug("top-k lookup", zap.Int64("event_id", eventID), zap.Int("k", k), zap.Int("results", len(results)))
	return results, nil
}

// PairwiseSimilarity scores two events. The result is nil when either event
// is missing or has no embedding.
func (e *Engine) PairwiseSimilarity(ctx context.Context, id1, id2 int64) (*core.PairwiseResult, error) {
	start := time.Now()
	res, err := e.index.Pairwise(ctx, id1, id2)
	e.metrics.ObserveRetrieval("pairwise", time.Since(start), err)
	if err != nil {
		e.log.Warn("pairwise lookup failed", zap.Int64("id1", id1), zap.Int64("id2", id2), zap.Error(err))
		return nil, core.NewError(core.KindExecution, "retrieval.pairwise", err)
	}
	return res, nil
}
