package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "MFG_"

// Unprefixed variables honoured for compatibility with existing deployments.
var legacyEnv = map[string]string{
	"SAMBANOVA_API_KEY": "llm.api_key",
	"ANTHROPIC_API_KEY": "llm.anthropic_api_key",
	"DATABASE_URL":      "database_url",
	"LOCAL_MODE":        "local_mode",
}

// Load layers, lowest precedence first:
//  1. defaults (New)
//  2. YAML file named by MFG_CONFIG
//  3. legacy unprefixed variables (DATABASE_URL, SAMBANOVA_API_KEY, ...)
//  4. MFG_ variables; "__" separates nested keys, e.g. MFG_LLM__API_KEY
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)
	k := koanf.New(".")

	if path := os.Getenv(envPrefix + "CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	legacy := env.Provider("", ".", func(s string) string {
		return legacyEnv[s]
	})
	if err := k.Load(legacy, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	prefixed := env.Provider(envPrefix, ".", envKey)
	if err := k.Load(prefixed, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps MFG_LLM__API_KEY to llm.api_key. MFG_CONFIG names the file
// and is not a key.
func envKey(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	if s == "CONFIG" {
		return ""
	}
	return strings.ReplaceAll(strings.ToLower(s), "__", ".")
}

func (c *Config) Validate() error {
	var problems []string
	if c.Addr == "" {
		problems = append(problems, "addr must not be empty")
	}
	if c.LLM.Timeout <= 0 {
		problems = append(problems, "llm.timeout must be positive")
	}
	if c.Store.QueryTimeout <= 0 {
		problems = append(problems, "store.query_timeout must be positive")
	}
	if c.Store.MaxOpenConns < 0 || c.Store.MaxIdleConns < 0 {
		problems = append(problems, "store connection limits must not be negative")
	}
	if c.Enrich.SearchTimeout <= 0 || c.Enrich.FallbackTimeout <= 0 {
		problems = append(problems, "enrich timeouts must be positive")
	}
	if c.Enrich.CacheSize < 0 {
		problems = append(problems, "enrich.cache_size must not be negative")
	}
	if c.Projection.NNeighbors < 2 {
		problems = append(problems, "projection.n_neighbors must be at least 2")
	}
	if c.Projection.MinDist <= 0 {
		problems = append(problems, "projection.min_dist must be positive")
	}
	if c.Projection.Epochs < 0 {
		problems = append(problems, "projection.epochs must not be negative")
	}
	if c.Analysis.TierTimeout <= 0 {
		problems = append(problems, "analysis.tier_timeout must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
