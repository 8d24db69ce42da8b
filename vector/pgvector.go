package vector

import (
	"context"
	"fmt"

	"github.com/hubenschmidt/go-mfginsight/core"
	"github.com/hubenschmidt/go-mfginsight/store"
)

// The target embedding is resolved inside the query so a missing or
// unembedded target produces zero rows.
const topKQuery = `
	WITH target AS (
		SELECT embedding FROM manufacturing_events
		WHERE id = :id AND embedding IS NOT NULL
	)
	SELECT e.id, e.event_type, e.machine_name, e.notes, e.timestamp, e.city, e.duration_minutes,
		1 - (e.embedding <=> t.embedding) AS similarity
	FROM manufacturing_events e CROSS JOIN target t
	WHERE e.id <> :id AND e.embedding IS NOT NULL
	ORDER BY e.embedding <=> t.embedding, e.id
	LIMIT :top_k`

// Both rows come back in one round trip; a missing side drops the join row.
const pairwiseQuery = `
	WITH pair AS (
		SELECT id, event_type, machine_name, notes, timestamp, city, duration_minutes, embedding
		FROM manufacturing_events
		WHERE id IN (:id1, :id2) AND embedding IS NOT NULL
	)
	SELECT
		a.id AS e1_id, a.event_type AS e1_event_type, a.machine_name AS e1_machine_name,
		a.notes AS e1_notes, a.timestamp AS e1_timestamp, a.city AS e1_city,
		a.duration_minutes AS e1_duration_minutes,
		b.id AS e2_id, b.event_type AS e2_event_type, b.machine_name AS e2_machine_name,
		b.notes AS e2_notes, b.timestamp AS e2_timestamp, b.city AS e2_city,
		b.duration_minutes AS e2_duration_minutes,
		1 - (a.embedding <=> b.embedding) AS cosine_similarity
	FROM pair a JOIN pair b ON a.id = :id1 AND b.id = :id2`

// PgVectorIndex pushes cosine distance (<=>) to PostgreSQL with pgvector.
type PgVectorIndex struct {
	reader store.Reader
}

func NewPgVectorIndex(reader store.Reader) *PgVectorIndex {
	return &PgVectorIndex{reader: reader}
}

func (x *PgVectorIndex) TopK(ctx context.Context, eventID int64, k int) ([]core.SimilarityResult, error) {
	rows, err := x.reader.ExecuteRead(ctx, topKQuery, map[string]any{"id": eventID, "top_k": k})
	if err != nil {
		return nil, fmt.Errorf("top-k query: %w", err)
	}

	results := make([]core.SimilarityResult, 0, len(rows))
	for _, r := range rows {
		ev, err := store.EventFromRow(r, "")
		if err != nil {
			return nil, err
		}
		sim, _ := r.Get("similarity")
		results = append(results, core.SimilarityResult{Event: ev, Similarity: store.AsFloat64(sim)})
	}
	return results, nil
}

func (x *PgVectorIndex) Pairwise(ctx context.Context, id1, id2 int64) (*core.PairwiseResult, error) {
	rows, err := x.reader.ExecuteRead(ctx, pairwiseQuery, map[string]any{"id1": id1, "id2": id2})
	if err != nil {
		return nil, fmt.Errorf("pairwise query: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	e1, err := store.EventFromRow(rows[0], "e1_")
	if err != nil {
		return nil, err
	}
	e2, err := store.EventFromRow(rows[0], "e2_")
	if err != nil {
		return nil, err
	}
	sim, _ := rows[0].Get("cosine_similarity")

	return &core.PairwiseResult{Event1: e1, Event2: e2, CosineSimilarity: store.AsFloat64(sim)}, nil
}
