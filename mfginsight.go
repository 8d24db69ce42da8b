// Package mfginsight wires the manufacturing-events analysis pipeline from
// a config.Config: store, similarity retrieval, enrichment, tiered
// analysis, projection, failure log and metrics.
//
//	cfg, _ := config.Load(ctx)
//	app, err := mfginsight.New(ctx, cfg, log)
//	defer app.Close()
//	res, err := app.Ask(ctx, "Which machine jams most often?")
package mfginsight

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/hubenschmidt/go-mfginsight/analysis"
	"github.com/hubenschmidt/go-mfginsight/config"
	"github.com/hubenschmidt/go-mfginsight/enrich"
	"github.com/hubenschmidt/go-mfginsight/failurelog"
	"github.com/hubenschmidt/go-mfginsight/llm"
	"github.com/hubenschmidt/go-mfginsight/monitor"
	"github.com/hubenschmidt/go-mfginsight/projection"
	"github.com/hubenschmidt/go-mfginsight/retrieval"
	"github.com/hubenschmidt/go-mfginsight/server"
	"github.com/hubenschmidt/go-mfginsight/sqlgen"
	"github.com/hubenschmidt/go-mfginsight/store"
	"github.com/hubenschmidt/go-mfginsight/vector"
)

type App struct {
	Config       *config.Config
	Store        store.Store
	Retrieval    *retrieval.Engine
	Enrichment   *enrich.Registry
	Orchestrator *analysis.Orchestrator
	Projector    *projection.Projector
	Failures     *failurelog.Log
	Metrics      *monitor.Manager

	log *zap.Logger
}

func New(_ context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", config.ErrInvalidConfig)
	}
	if log == nil {
		log = zap.NewNop()
	}
	metrics := monitor.NewManager()

	db, err := store.New(cfg.DatabaseURL, store.Options{
		QueryTimeout:    cfg.Store.QueryTimeout,
		MaxOpenConns:    cfg.Store.MaxOpenConns,
		MaxIdleConns:    cfg.Store.MaxIdleConns,
		ConnMaxLifetime: cfg.Store.ConnMaxLifetime,
		Logger:          log,
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	failures, err := failurelog.New(failureConfig(cfg.FailureLog), log)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open failure log: %w", err)
	}

	var index vector.Index = vector.NewMemoryIndex(db)
	if db.Dialect() == store.Postgres {
		index = vector.NewPgVectorIndex(db)
	}
	engine := retrieval.New(index, retrieval.WithLogger(log), retrieval.WithMetrics(metrics))

	registry := enrich.Default(enrich.WikipediaConfig{
		Endpoint:        cfg.Enrich.WikipediaURL,
		SearchTimeout:   cfg.Enrich.SearchTimeout,
		FallbackTimeout: cfg.Enrich.FallbackTimeout,
		RatePerSecond:   cfg.Enrich.RatePerSec,
		Logger:          log,
	}, cfg.Enrich.CacheSize, cfg.Enrich.CacheTTL, metrics)

	deps := analysis.Deps{
		Reader:   db,
		Enricher: registry,
		Failures: failures,
	}
	client := llm.NewUnifiedClient(llm.UnifiedConfig{
		APIKey:       cfg.LLM.APIKey,
		BaseURL:      cfg.LLM.BaseURL,
		AnthropicKey: cfg.LLM.AnthropicAPIKey,
		OllamaURL:    cfg.LLM.OllamaURL,
		Timeout:      cfg.LLM.Timeout,
	})
	if client.HasCompat() || client.HasAnthropic() || client.HasOllama() {
		completer := llm.NewModelCompleter(client, cfg.LLM.Model)
		deps.Completer = completer
		deps.Synthesizer = sqlgen.NewSynthesizer(completer, log)
		log.Info("completion provider configured", zap.String("model", completer.Model()))
	} else if !cfg.LocalMode {
		log.Warn("no completion provider configured; answers use the local summary")
	}

	orch := analysis.New(deps,
		analysis.WithLocalMode(cfg.LocalMode),
		analysis.WithTierTimeout(cfg.Analysis.TierTimeout),
		analysis.WithLogger(log),
		analysis.WithMetrics(metrics),
	)

	proj := projection.New(projection.Options{
		NNeighbors: cfg.Projection.NNeighbors,
		MinDist:    cfg.Projection.MinDist,
		Seed:       cfg.Projection.Seed,
		Epochs:     cfg.Projection.Epochs,
	}, projection.WithLogger(log), projection.WithMetrics(metrics))

	log.Info("pipeline ready",
		zap.String("dialect", string(db.Dialect())),
		zap.Bool("local_mode", cfg.LocalMode),
		zap.Strings("enrichment", registry.List()),
	)

	return &App{
		Config:       cfg,
		Store:        db,
		Retrieval:    engine,
		Enrichment:   registry,
		Orchestrator: orch,
		Projector:    proj,
		Failures:     failures,
		Metrics:      metrics,
		log:          log,
	}, nil
}

// Ask answers question over every stored event.
func (a *App) Ask(ctx context.Context, question string) (analysis.Result, error) {
	events, err := a.Store.ListEvents(ctx)
	if err != nil {
		return analysis.Result{}, fmt.Errorf("list events: %w", err)
	}
	return a.Orchestrator.Answer(ctx, events, question), nil
}

// Project lays out every embedded event in two dimensions.
func (a *App) Project(ctx context.Context) (*projection.Result, error) {
	records, err := a.Store.EmbeddingRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("embedding records: %w", err)
	}
	return a.Projector.Project(ctx, records)
}

func (a *App) Handler() http.Handler {
	return server.New(server.Config{
		Events:      a.Store,
		Retrieval:   a.Retrieval,
		Analyst:     a.Orchestrator,
		Enricher:    a.Enrichment,
		Projector:   a.Projector,
		Failures:    a.Failures,
		Suggestions: server.NewSuggestionBox(a.Config.SuggestionsFile),
		Metrics:     a.Metrics,
		Logger:      a.log,
		StaticDir:   a.Config.StaticDir,
	}).Handler()
}

func (a *App) Close() error {
	return errors.Join(a.Failures.Close(), a.Store.Close())
}

func failureConfig(path string) failurelog.Config {
	c := failurelog.DefaultConfig()
	if path != "" {
		c.Path = path
	}
	return c
}
