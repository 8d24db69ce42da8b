package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubenschmidt/go-mfginsight/core"
	"github.com/hubenschmidt/go-mfginsight/monitor"
)

type stubIndex struct {
	gotK    int
	results []core.SimilarityResult
	pair    *core.PairwiseResult
	err     error
}

func (s *stubIndex) TopK(_ context.Context, _ int64, k int) ([]core.SimilarityResult, error) {
	s.gotK = k
	return s.results, s.err
}

func (s *stubIndex) Pairwise(context.Context, int64, int64) (*core.PairwiseResult, error) {
	return s.pair, s.err
}

func sims(ids ...int64) []core.SimilarityResult {
	out := make([]core.SimilarityResult, len(ids))
	for i, id := range ids {
		out[i] = core.SimilarityResult{Event: core.Event{ID: id}, Similarity: 1 - float64(i)/10}
	}
	return out
}

func TestTopKSimilarDefaults(t *testing.T) {
	idx := &stubIndex{results: sims(2, 3)}
	e := New(idx, WithMetrics(monitor.NewManager()))

	res, err := e.TopKSimilar(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTopK, idx.gotK)
	assert.Len(t, res, 2)
}

func TestTopKSimilarCapsResults(t *testing.T) {
	idx := &stubIndex{results: sims(2, 3, 4, 5)}
	e := New(idx)

	res, err := e.TopKSimilar(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Len(t, res, 2)
}

func TestTopKSimilarExecutionError(t *testing.T) {
	e := New(&stubIndex{err: errors.New("connection refused")})

	_, err := e.TopKSimilar(context.Background(), 1, 3)
	require.Error(t, err)
	assert.Equal(t, core.KindExecution, core.KindOf(err))
}

func TestPairwiseSimilarity(t *testing.T) {
	pair := &core.PairwiseResult{Event1: core.Event{ID: 1}, Event2: core.Event{ID: 2}, CosineSimilarity: 0.8}
	e := New(&stubIndex{pair: pair})

	res, err := e.PairwiseSimilarity(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Same(t, pair, res)

	e = New(&stubIndex{})
	res, err = e.PairwiseSimilarity(context.Background(), 1, 99)
	require.NoError(t, err)
	assert.Nil(t, res)

	e = New(&stubIndex{err: errors.New("timeout")})
	_, err = e.PairwiseSimilarity(context.Background(), 1, 2)
	assert.Equal(t, core.KindExecution, core.KindOf(err))
}
