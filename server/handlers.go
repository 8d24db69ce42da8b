package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hubenschmidt/go-mfginsight/core"
	"github.com/hubenschmidt/go-mfginsight/retrieval"
)

const maxBody = 1 << 20

func now() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}

// writeJSON encodes v before sending the status so an unencodable value
// becomes a 500 instead of a truncated 200.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorResponse{Detail: "encode response: " + err.Error()})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBody)).Decode(v)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.log.Error(op,
		zap.String("request_id", r.Header.Get(requestIDHeader)),
		zap.Stringer("kind", core.KindOf(err)),
		zap.Error(err),
	)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: err.Error()})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Write([]byte("OK"))
}

func (s *Server) handleEventList(w http.ResponseWriter, r *http.Request) {
	events, err := s.cfg.Events.ListEvents(r.Context())
	if err != nil {
		s.fail(w, r, "list events", err)
		return
	}
	if events == nil {
		events = []core.Event{}
	}
	writeJSON(w, http.StatusOK, Envelope{
		Data: events,
		Meta: map[string]any{"count": len(events), "timestamp": now()},
	})
}

func (s *Server) handleEventGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "event id must be an integer"})
		return
	}

	event, err := s.cfg.Events.GetEvent(r.Context(), id)
	if errors.Is(err, core.ErrNotFound) {
		writeJSON(w, http.StatusOK, Envelope{
			Data: nil,
			Meta: map[string]any{"found": false, "timestamp": now()},
		})
		return
	}
	if err != nil {
		s.fail(w, r, "get event", err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{
		Data: event,
		Meta: map[string]any{"found": true, "timestamp": now()},
	})
}

func (s *Server) handleSimilarity(w http.ResponseWriter, r *http.Request) {
	var req SimilarityRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: err.Error()})
		return
	}
	k := req.TopK
	if k <= 0 {
		k = retrieval.DefaultTopK
	}

	similar, err := s.cfg.Retrieval.TopKSimilar(r.Context(), req.EventID, k)
	if err != nil {
		s.fail(w, r, "similarity", err)
		return
	}
	if similar == nil {
		similar = []core.SimilarityResult{}
	}
	writeJSON(w, http.StatusOK, Envelope{
		Data: similar,
		Meta: map[string]any{"count": len(similar), "timestamp": now()},
	})
}

func (s *Server) handleCosineSimilarity(w http.ResponseWriter, r *http.Request) {
	var req CosineSimilarityRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: err.Error()})
		return
	}

	pair, err := s.cfg.Retrieval.PairwiseSimilarity(r.Context(), req.EventID1, req.EventID2)
	if err != nil {
		s.fail(w, r, "cosine similarity", err)
		return
	}
	if pair == nil {
		writeJSON(w, http.StatusOK, Envelope{
			Data: nil,
			Meta: map[string]any{"error": "Events not found", "timestamp": now()},
		})
		return
	}
	writeJSON(w, http.StatusOK, Envelope{
		Data: pair,
		Meta: map[string]any{"timestamp": now()},
	})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: err.Error()})
		return
	}

	events, err := s.cfg.Events.ListEvents(r.Context())
	if err != nil {
		s.fail(w, r, "list events", err)
		return
	}

	res := s.cfg.Analyst.Answer(r.Context(), events, req.Question)

	var ext External
	if s.cfg.Enricher != nil {
		for _, f := range s.cfg.Enricher.LookupAll(r.Context(), req.Question) {
			switch f.Source.Name() {
			case "wikipedia":
				ext.Wikipedia = f.Ref
			case "google":
				ext.Google = f.Ref
			}
		}
	}

	meta := map[string]any{
		"confidence": res.Confidence,
		"source":     res.Source,
		"timestamp":  res.Timestamp,
	}
	if res.RAGRecall != nil {
		meta["rag_recall"] = *res.RAGRecall
	}
	if res.RAGLatency != nil {
		meta["rag_latency"] = *res.RAGLatency
	}
	writeJSON(w, http.StatusOK, Envelope{
		Data: AskData{Answer: res.Summary, External: ext},
		Meta: meta,
	})
}

func (s *Server) handleProjection(w http.ResponseWriter, r *http.Request) {
	records, err := s.cfg.Events.EmbeddingRecords(r.Context())
	if err != nil {
		s.fail(w, r, "embedding records", err)
		return
	}
	res, err := s.cfg.Projector.Project(r.Context(), records)
	if err != nil {
		s.fail(w, r, "project", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	lines := []string{}
	if s.cfg.Failures != nil {
		got, err := s.cfg.Failures.Lines()
		if err != nil {
			s.log.Warn("read failure log", zap.Error(err))
		} else {
			lines = got
		}
	}
	writeJSON(w, http.StatusOK, Envelope{
		Data: lines,
		Meta: map[string]any{"count": len(lines)},
	})
}

func (s *Server) handleSuggestion(w http.ResponseWriter, r *http.Request) {
	var req SuggestionRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: err.Error()})
		return
	}
	suggestion := strings.TrimSpace(req.Suggestion)
	if suggestion == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "No suggestion provided"})
		return
	}
	if err := s.cfg.Suggestions.Add(suggestion); err != nil {
		s.fail(w, r, "suggestion", err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Suggestion received"})
}
