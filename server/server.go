// Package server exposes the analysis pipeline over HTTP.
package server

import (
	"context"
	"net/http"

	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/hubenschmidt/go-mfginsight/analysis"
	"github.com/hubenschmidt/go-mfginsight/core"
	"github.com/hubenschmidt/go-mfginsight/monitor"
	"github.com/hubenschmidt/go-mfginsight/projection"
	"github.com/hubenschmidt/go-mfginsight/store"
)

type Retriever interface {
	TopKSimilar(ctx context.Context, eventID int64, k int) ([]core.SimilarityResult, error)
	PairwiseSimilarity(ctx context.Context, id1, id2 int64) (*core.PairwiseResult, error)
}

type Analyst interface {
	Answer(ctx context.Context, events []core.Event, question string) analysis.Result
}

type Projector interface {
	Project(ctx context.Context, records []core.EmbeddingRecord) (*projection.Result, error)
}

type LogReader interface {
	Lines() ([]string, error)
}

// Config configures a new Server instance. Events, Retrieval, Analyst and
// Projector are required.
type Config struct {
	Events      store.EventReader
	Retrieval   Retriever
	Analyst     Analyst
	Enricher    analysis.Enricher
	Projector   Projector
	Failures    LogReader
	Suggestions *SuggestionBox
	Metrics     *monitor.Manager
	Logger      *zap.Logger

	// StaticDir serves the browser UI at / and /static/ when set.
	StaticDir string
	// AllowedOrigins defaults to any origin.
	AllowedOrigins []string
}

type Server struct {
	cfg Config
	log *zap.Logger
}

func New(cfg Config) *Server {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Suggestions == nil {
		cfg.Suggestions = NewSuggestionBox("data/suggestions.txt")
	}
	return &Server{cfg: cfg, log: log.Named("server")}
}

// Handler returns the API routes wrapped with request ids, metrics and CORS.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	s.route(mux, "GET /health", s.handleHealth)
	s.route(mux, "GET /events", s.handleEventList)
	s.route(mux, "GET /events/{id}", s.handleEventGet)
	s.route(mux, "POST /similarity", s.handleSimilarity)
	s.route(mux, "POST /cosine-similarity", s.handleCosineSimilarity)
	s.route(mux, "POST /ask-ai", s.handleAsk)
	s.route(mux, "GET /umap", s.handleProjection)
	s.route(mux, "GET /logs", s.handleLogs)
	s.route(mux, "POST /suggestion", s.handleSuggestion)

	if s.cfg.Metrics != nil {
		mux.Handle("GET /metrics", s.cfg.Metrics.Handler())
	}
	if s.cfg.StaticDir != "" {
		files := http.FileServer(http.Dir(s.cfg.StaticDir))
		mux.Handle("GET /static/", http.StripPrefix("/static/", files))
		mux.Handle("GET /", files)
	}

	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
	})
	return c.Handler(requestID(mux))
}

func (s *Server) route(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, s.instrument(pattern, h))
}
