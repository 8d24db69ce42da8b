package server

import "github.com/hubenschmidt/go-mfginsight/enrich"

// Envelope wraps every JSON API response except /umap.
type Envelope struct {
	Data any            `json:"data"`
	Meta map[string]any `json:"meta"`
}

type SimilarityRequest struct {
	EventID int64 `json:"event_id"`
	TopK    int   `json:"top_k,omitempty"`
}

type CosineSimilarityRequest struct {
	EventID1 int64 `json:"event_id1"`
	EventID2 int64 `json:"event_id2"`
}

type AskRequest struct {
	Question string `json:"question"`
}

type AskData struct {
	Answer   string   `json:"answer"`
	External External `json:"external"`
}

type External struct {
	Wikipedia *enrich.Reference `json:"wikipedia"`
	Google    *enrich.Reference `json:"google"`
}

type SuggestionRequest struct {
	Suggestion string `json:"suggestion"`
}

type errorResponse struct {
	Error string `json:"error,omitempty"`
	// Detail carries unexpected failures.
	Detail string `json:"detail,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}
