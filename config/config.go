// Package config defines process configuration and its loading layers.
package config

import (
	"context"
	"time"
)

type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr is the HTTP listen address.
	Addr string `koanf:"addr"`

	// DatabaseURL selects the store: empty for the default SQLite file, a
	// postgres:// URL for Postgres, anything else is a SQLite path.
	DatabaseURL string `koanf:"database_url"`

	// LocalMode answers every question with the static local summary.
	LocalMode bool `koanf:"local_mode"`

	// StaticDir holds the browser UI; empty disables static serving.
	StaticDir string `koanf:"static_dir"`

	FailureLog      string `koanf:"failure_log"`
	SuggestionsFile string `koanf:"suggestions_file"`

	LLM        LLMConfig        `koanf:"llm"`
	Store      StoreConfig      `koanf:"store"`
	Enrich     EnrichConfig     `koanf:"enrich"`
	Projection ProjectionConfig `koanf:"projection"`
	Analysis   AnalysisConfig   `koanf:"analysis"`
}

type LLMConfig struct {
	APIKey          string        `koanf:"api_key"`
	AnthropicAPIKey string        `koanf:"anthropic_api_key"`
	OllamaURL       string        `koanf:"ollama_url"`
	BaseURL         string        `koanf:"base_url"`
	Model           string        `koanf:"model"`
	Timeout         time.Duration `koanf:"timeout"`
}

type StoreConfig struct {
	QueryTimeout    time.Duration `koanf:"query_timeout"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

type EnrichConfig struct {
	WikipediaURL    string        `koanf:"wikipedia_url"`
	SearchTimeout   time.Duration `koanf:"search_timeout"`
	FallbackTimeout time.Duration `koanf:"fallback_timeout"`
	CacheSize       int           `koanf:"cache_size"`
	CacheTTL        time.Duration `koanf:"cache_ttl"`
	RatePerSec      float64       `koanf:"rate_per_sec"`
}

type ProjectionConfig struct {
	NNeighbors int     `koanf:"n_neighbors"`
	MinDist    float64 `koanf:"min_dist"`
	Seed       uint64  `koanf:"seed"`
	// Epochs of layout optimization; zero chooses by input size.
	Epochs int `koanf:"epochs"`
}

type AnalysisConfig struct {
	// TierTimeout bounds each outbound call of an analysis tier.
	TierTimeout time.Duration `koanf:"tier_timeout"`
}

// New returns a Config holding the defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:        "info",
		Addr:            ":8000",
		FailureLog:      "logs/api_failures.log",
		SuggestionsFile: "data/suggestions.txt",
		LLM: LLMConfig{
			BaseURL: "https://api.sambanova.ai/v1",
			Model:   "Llama-4-Maverick-17B-128E-Instruct",
			Timeout: 60 * time.Second,
		},
		Store: StoreConfig{
			QueryTimeout:    15 * time.Second,
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Enrich: EnrichConfig{
			SearchTimeout:   3 * time.Second,
			FallbackTimeout: 2 * time.Second,
			CacheSize:       256,
			CacheTTL:        10 * time.Minute,
			RatePerSec:      5,
		},
		Projection: ProjectionConfig{
			NNeighbors: 15,
			MinDist:    0.1,
			Seed:       42,
		},
		Analysis: AnalysisConfig{
			TierTimeout: 90 * time.Second,
		},
	}
}
