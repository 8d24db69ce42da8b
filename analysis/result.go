package analysis

import (
	"fmt"
	"time"

	"github.com/hubenschmidt/go-mfginsight/store"
)

// Source tags which path produced an answer.
type Source string

const (
	SourceLocal    Source = "local"
	SourceSQL      Source = "sambanova+sql"
	SourceFallback Source = "sambanova-fallback"
)

const (
	ConfidenceLocal = 0.5
	ConfidenceModel = 0.95
)

type Result struct {
	Summary    string      `json:"summary"`
	Data       []store.Row `json:"data,omitzero"`
	Confidence float64     `json:"confidence"`
	Source     Source      `json:"source"`
	// Timestamp is Unix seconds.
	Timestamp  float64  `json:"timestamp"`
	RAGRecall  *int     `json:"rag_recall,omitempty"`
	RAGLatency *float64 `json:"rag_latency,omitempty"`
}

// LocalSummary is the answer given without any model.
func LocalSummary(events int) string {
	return fmt.Sprintf("Found %d events. Most common: ... (local mode fallback)", events)
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func seconds(d time.Duration) *float64 {
	s := d.Seconds()
	return &s
}

func count(n int) *int {
	return &n
}
