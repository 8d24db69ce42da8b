package projection

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubenschmidt/go-mfginsight/core"
	"github.com/hubenschmidt/go-mfginsight/monitor"
)

// clusters builds two groups of points around opposite corners of a
// 4-dimensional cube.
func clusters(perGroup int) []core.EmbeddingRecord {
	var out []core.EmbeddingRecord
	id := int64(1)
	for g, label := range []string{"Jam", "Overheat"} {
		base := float64(g) * 10
		for i := range perGroup {
			off := float64(i) * 0.05
			out = append(out, core.EmbeddingRecord{
				ID:        id,
				EventType: label,
				Vector:    []float64{base + off, base - off, base + off/2, base},
			})
			id++
		}
	}
	return out
}

func TestProjectAlignment(t *testing.T) {
	recs := clusters(8)
	p := New(DefaultOptions(), WithMetrics(monitor.NewManager()))

	res, err := p.Project(context.Background(), recs)
	require.NoError(t, err)
	require.Len(t, res.Points, len(recs))
	require.Len(t, res.Labels, len(recs))
	for i, r := range recs {
		assert.Equal(t, r.EventType, res.Labels[i])
		assert.False(t, math.IsNaN(res.Points[i][0]) || math.IsNaN(res.Points[i][1]), "point %d", i)
	}
}

func TestProjectDeterministic(t *testing.T) {
	recs := clusters(6)
	opts := DefaultOptions()
	opts.Epochs = 100

	first, err := New(opts).Project(context.Background(), recs)
	require.NoError(t, err)
	second, err := New(opts).Project(context.Background(), recs)
	require.NoError(t, err)
	assert.Equal(t, first.Points, second.Points)
}

func TestProjectSeparatesClusters(t *testing.T) {
	recs := clusters(10)
	opts := DefaultOptions()
	opts.NNeighbors = 5

	res, err := New(opts).Project(context.Background(), recs)
	require.NoError(t, err)

	centroid := func(pts [][2]float64) [2]float64 {
		var c [2]float64
		for _, p := range pts {
			c[0] += p[0] / float64(len(pts))
			c[1] += p[1] / float64(len(pts))
		}
		return c
	}
	spread := func(pts [][2]float64, c [2]float64) float64 {
		var s float64
		for _, p := range pts {
			s += math.Hypot(p[0]-c[0], p[1]-c[1]) / float64(len(pts))
		}
		return s
	}

	a, b := res.Points[:10], res.Points[10:]
	ca, cb := centroid(a), centroid(b)
	gap := math.Hypot(ca[0]-cb[0], ca[1]-cb[1])
	assert.Greater(t, gap, spread(a, ca)+spread(b, cb))
}

func TestProjectRawEmbeddings(t *testing.T) {
	recs := []core.EmbeddingRecord{
		{ID: 1, EventType: "Jam", Raw: "[0.1,0.2,0.3]"},
		{ID: 2, EventType: "Stop", Raw: "[0.3,0.2,0.1]"},
		{ID: 3, EventType: "Jam", Vector: []float64{0.2, 0.2, 0.2}},
	}
	res, err := New(DefaultOptions()).Project(context.Background(), recs)
	require.NoError(t, err)
	assert.Equal(t, []string{"Jam", "Stop", "Jam"}, res.Labels)
	assert.Len(t, res.Points, 3)
}

func TestProjectParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		recs  []core.EmbeddingRecord
		index int
		id    int64
	}{
		{
			name: "malformed",
			recs: []core.EmbeddingRecord{
				{ID: 7, Raw: "[0.1,0.2]"},
				{ID: 9, Raw: "[0.1,abc]"},
			},
			index: 1,
			id:    9,
		},
		{
			name: "non-finite component",
			recs: []core.EmbeddingRecord{
				{ID: 4, Raw: "[0,1]"},
				{ID: 5, Raw: "[NaN,1]"},
				{ID: 6, Raw: "[1,0]"},
			},
			index: 1,
			id:    5,
		},
		{
			name: "dimension mismatch",
			recs: []core.EmbeddingRecord{
				{ID: 1, Raw: "[0.1,0.2]"},
				{ID: 2, Raw: "[0.1,0.2]"},
				{ID: 3, Raw: "[0.1,0.2,0.3]"},
			},
			index: 2,
			id:    3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := New(DefaultOptions()).Project(context.Background(), tt.recs)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.Equal(t, core.KindProjectionParse, core.KindOf(err))

			var e *core.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, tt.index, e.Context["index"])
			assert.Equal(t, tt.id, e.Context["id"])
		})
	}
}

func TestProjectSmallInputs(t *testing.T) {
	p := New(DefaultOptions())

	res, err := p.Project(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, res.Points)
	assert.Empty(t, res.Labels)
	assert.NotNil(t, res.Points)

	res, err = p.Project(context.Background(), []core.EmbeddingRecord{{ID: 1, EventType: "Jam", Raw: "[1,2,3]"}})
	require.NoError(t, err)
	assert.Equal(t, [][2]float64{{0, 0}}, res.Points)
	assert.Equal(t, []string{"Jam"}, res.Labels)

	res, err = p.Project(context.Background(), []core.EmbeddingRecord{
		{ID: 1, EventType: "Jam", Raw: "[1,2,3]"},
		{ID: 2, EventType: "Jam", Raw: "[1,2,3]"},
	})
	require.NoError(t, err)
	assert.Len(t, res.Points, 2)
}

func TestProjectCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(DefaultOptions()).Project(ctx, clusters(4))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFitCurve(t *testing.T) {
	a, b := fitCurve(0.1, 1)
	assert.InDelta(t, 1.577, a, 0.1)
	assert.InDelta(t, 0.895, b, 0.05)
}

func TestFuzzyGraphSymmetricWeights(t *testing.T) {
	data := [][]float64{{0, 0}, {1, 0}, {0, 1}, {5, 5}}
	edges := fuzzyGraph(data, 2)
	require.NotEmpty(t, edges)
	for _, e := range edges {
		assert.Less(t, e.head, e.tail)
		assert.Greater(t, e.weight, 0.0)
		assert.LessOrEqual(t, e.weight, 1.0)
	}
}
