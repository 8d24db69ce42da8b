// Package vector ranks events by embedding similarity, either by pushing the
// distance operator to pgvector or by computing cosine similarity in-process.
package vector

import (
	"context"

	"github.com/hubenschmidt/go-mfginsight/core"
)

// Index answers nearest-neighbour and pairwise similarity queries.
type Index interface {
	// TopK returns up to k events most similar to eventID, excluding it,
	// ordered by descending similarity. An event without an embedding
	// yields an empty slice.
	TopK(ctx context.Context, eventID int64, k int) ([]core.SimilarityResult, error)

	// Pairwise returns nil when either event is missing or has no embedding.
	Pairwise(ctx context.Context, id1, id2 int64) (*core.PairwiseResult, error)
}
