package core

// Event is a recorded manufacturing event. Events are created by an external
// ingestion process and are only read here.
type Event struct {
	ID              int64     `json:"id" db:"id"`
	EventType       string    `json:"event_type" db:"event_type"`
	MachineName     string    `json:"machine_name" db:"machine_name"`
	Notes           *string   `json:"notes" db:"notes"`
	Timestamp       string    `json:"timestamp" db:"timestamp"`
	City            string    `json:"city" db:"city"`
	DurationMinutes float64   `json:"duration_minutes" db:"duration_minutes"`
	Embedding       []float64 `json:"embedding,omitempty" db:"-"`
}

// HasEmbedding reports whether the event carries a vector.
func (e Event) HasEmbedding() bool {
	return len(e.Embedding) > 0
}

// EmbeddingRecord is the projection input for one event. Raw holds the stored
// textual form and is parsed when Vector is nil.
type EmbeddingRecord struct {
	ID        int64     `json:"id"`
	EventType string    `json:"event_type"`
	Raw       string    `json:"embedding"`
	Vector    []float64 `json:"-"`
}

// SimilarityResult embeds the neighbour so it encodes as a flat event object
// with an extra similarity field.
type SimilarityResult struct {
	Event
	Similarity float64 `json:"similarity"`
}

type PairwiseResult struct {
	Event1           Event   `json:"event1"`
	Event2           Event   `json:"event2"`
	CosineSimilarity float64 `json:"cosine_similarity"`
}
