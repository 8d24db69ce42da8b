// Package projection lays out event embeddings in two dimensions with a
// UMAP-style fuzzy neighbour graph and stochastic gradient descent.
package projection

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hubenschmidt/go-mfginsight/core"
	"github.com/hubenschmidt/go-mfginsight/monitor"
)

// Result is index-aligned with the projected records: Points[i] and
// Labels[i] describe record i.
type Result struct {
	Points [][2]float64 `json:"points"`
	Labels []string     `json:"labels"`
}

type Options struct {
	NNeighbors int
	MinDist    float64
	Seed       uint64
	// Epochs of SGD; zero picks 500 for small inputs and 200 otherwise.
	Epochs int
}

func DefaultOptions() Options {
	return Options{NNeighbors: 15, MinDist: 0.1, Seed: 42}
}

type Projector struct {
	opts    Options
	log     *zap.Logger
	metrics *monitor.Manager
}

type Option func(*Projector)

func WithLogger(l *zap.Logger) Option {
	return func(p *Projector) {
		if l != nil {
			p.log = l.Named("projection")
		}
	}
}

func WithMetrics(m *monitor.Manager) Option {
	return func(p *Projector) { p.metrics = m }
}

func New(opts Options, options ...Option) *Projector {
	d := DefaultOptions()
	if opts.NNeighbors <= 0 {
		opts.NNeighbors = d.NNeighbors
	}
	if opts.MinDist <= 0 {
		opts.MinDist = d.MinDist
	}
	p := &Projector{opts: opts, log: zap.NewNop()}
	for _, o := range options {
		o(p)
	}
	return p
}

// Project parses every record's embedding and returns its 2-D layout. A
// malformed embedding or a dimension mismatch fails the whole call with a
// KindProjectionParse error naming the record.
func (p *Projector) Project(ctx context.Context, records []core.EmbeddingRecord) (*Result, error) {
	data, labels, err := parseRecords(records)
	if err != nil {
		return nil, err
	}

	res := &Result{Points: make([][2]float64, len(data)), Labels: labels}
	switch len(data) {
	case 0:
		return res, nil
	case 1:
		p.metrics.ObserveProjection(1)
		return res, nil
	}

	k := min(p.opts.NNeighbors, len(data)-1)
	graph := fuzzyGraph(data, k)
	a, b := fitCurve(p.opts.MinDist, 1.0)

	epochs := p.opts.Epochs
	if epochs <= 0 {
		epochs = 500
		if len(data) > 10000 {
			epochs = 200
		}
	}

	rng := newRand(p.opts.Seed)
	emb := initialLayout(data, rng)
	if err := optimizeLayout(ctx, emb, graph, a, b, epochs, rng); err != nil {
		return nil, fmt.Errorf("optimize layout: %w", err)
	}

	copy(res.Points, emb)
	p.metrics.ObserveProjection(len(data))
	p.log.Debug("projected",
		zap.Int("points", len(data)),
		zap.Int("n_neighbors", k),
		zap.Int("edges", len(graph)),
		zap.Int("epochs", epochs),
	)
	return res, nil
}

func parseRecords(records []core.EmbeddingRecord) ([][]float64, []string, error) {
	data := make([][]float64, len(records))
	labels := make([]string, len(records))

	dim := -1
	for i, r := range records {
		vec := r.Vector
		if vec == nil {
			parsed, err := core.ParseEmbedding(r.Raw)
			if err != nil {
				return nil, nil, parseError(i, r.ID, err)
			}
			vec = parsed
		}
		if dim >= 0 && len(vec) != dim {
			return nil, nil, parseError(i, r.ID, fmt.Errorf("%w: got %d, want %d", core.ErrDimension, len(vec), dim))
		}
		dim = len(vec)
		data[i] = vec
		labels[i] = r.EventType
	}
	return data, labels, nil
}

func parseError(index int, id int64, err error) error {
	e := core.NewError(core.KindProjectionParse, "projection.parse",
		fmt.Errorf("record %d (id %d): %w", index, id, err))
	core.WithContext(e, "index", index)
	core.WithContext(e, "id", id)
	return e
}
