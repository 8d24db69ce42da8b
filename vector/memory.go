package vector

import (
	"context"
	"fmt"
	"sort"

	"github.com/hubenschmidt/go-mfginsight/core"
	"github.com/hubenschmidt/go-mfginsight/store"
)

// MemoryIndex loads events per call and ranks them with brute-force cosine
// similarity. It backs stores without a vector operator, such as SQLite.
type MemoryIndex struct {
	events store.EventReader
}

func NewMemoryIndex(events store.EventReader) *MemoryIndex {
	return &MemoryIndex{events: events}
}

func (x *MemoryIndex) TopK(ctx context.Context, eventID int64, k int) ([]core.SimilarityResult, error) {
	events, err := x.events.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}

	target, ok := findEvent(events, eventID)
	if !ok || !target.HasEmbedding() {
		return []core.SimilarityResult{}, nil
	}

	results := make([]core.SimilarityResult, 0, len(events))
	for _, ev := range events {
		if ev.ID == eventID || len(ev.Embedding) != len(target.Embedding) {
			continue
		}
		results = append(results, core.SimilarityResult{
			Event:      ev,
			Similarity: CosineSimilarity(target.Embedding, ev.Embedding),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].ID < results[j].ID
	})

	if k >= 0 && len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (x *MemoryIndex) Pairwise(ctx context.Context, id1, id2 int64) (*core.PairwiseResult, error) {
	events, err := x.events.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}

	e1, ok1 := findEvent(events, id1)
	e2, ok2 := findEvent(events, id2)
	if !ok1 || !ok2 || !e1.HasEmbedding() || !e2.HasEmbedding() {
		return nil, nil
	}
	if len(e1.Embedding) != len(e2.Embedding) {
		return nil, fmt.Errorf("events %d and %d: %w", id1, id2, core.ErrDimension)
	}

	return &core.PairwiseResult{
		Event1:           e1,
		Event2:           e2,
		CosineSimilarity: CosineSimilarity(e1.Embedding, e2.Embedding),
	}, nil
}

func findEvent(events []core.Event, id int64) (core.Event, bool) {
	for _, ev := range events {
		if ev.ID == id {
			return ev, true
		}
	}
	return core.Event{}, false
}
