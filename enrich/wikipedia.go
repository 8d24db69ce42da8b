package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hubenschmidt/go-mfginsight/core"
)

const (
	DefaultWikipediaEndpoint = "https://en.wikipedia.org/w/api.php"
	DefaultArticleBase       = "https://en.wikipedia.org/wiki/"
	userAgent                = "mfginsight/1.0 (manufacturing analytics)"
)

type WikipediaConfig struct {
	Endpoint        string
	ArticleBase     string
	SearchTimeout   time.Duration
	FallbackTimeout time.Duration
	// RatePerSecond bounds outbound API calls; zero disables limiting.
	RatePerSecond float64
	Logger        *zap.Logger
}

func DefaultWikipediaConfig() WikipediaConfig {
	return WikipediaConfig{
		Endpoint:        DefaultWikipediaEndpoint,
		ArticleBase:     DefaultArticleBase,
		SearchTimeout:   3 * time.Second,
		FallbackTimeout: 2 * time.Second,
		RatePerSecond:   5,
	}
}

// Wikipedia searches the MediaWiki API with keyword-boosted variants of the
// query and prefers manufacturing-related articles.
type Wikipedia struct {
	cfg     WikipediaConfig
	client  *http.Client
	limiter *rate.Limiter
	log     *zap.Logger
}

func NewWikipedia(cfg WikipediaConfig) *Wikipedia {
	d := DefaultWikipediaConfig()
	if cfg.Endpoint == "" {
		cfg.Endpoint = d.Endpoint
	}
	if cfg.ArticleBase == "" {
		cfg.ArticleBase = d.ArticleBase
	}
	if cfg.SearchTimeout <= 0 {
		cfg.SearchTimeout = d.SearchTimeout
	}
	if cfg.FallbackTimeout <= 0 {
		cfg.FallbackTimeout = d.FallbackTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	w := &Wikipedia{
		cfg:    cfg,
		client: &http.Client{},
		log:    cfg.Logger.Named("wikipedia"),
	}
	if cfg.RatePerSecond > 0 {
		w.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), max(1, int(cfg.RatePerSecond)))
	}
	return w
}

func (w *Wikipedia) Name() string {
	return "wikipedia"
}

func (w *Wikipedia) Heading() string {
	return "Wikipedia Information"
}

func (w *Wikipedia) Describe(ref *Reference) string {
	if ref == nil {
		return "No relevant Wikipedia article found."
	}
	return fmt.Sprintf("Wikipedia: %s - %s", ref.Title, ref.URL)
}

// Lookup tries each search term in turn, then a plain search as a last
// resort. Attempt failures are logged and skipped.
func (w *Wikipedia) Lookup(ctx context.Context, query string) (*Reference, bool) {
	terms := SearchTerms(query)

	for _, term := range terms {
		hits, err := w.search(ctx, term, 5, w.cfg.SearchTimeout)
		if err != nil {
			w.log.Debug("search attempt failed", zap.String("term", term), zap.Error(err))
			if ctx.Err() != nil {
				return nil, false
			}
			continue
		}
		for _, h := range hits {
			if isManufacturingRelated(h.Title, h.Snippet) || len(terms) == 1 {
				return &Reference{
					Title:   h.Title,
					URL:     w.articleURL(h.Title),
					Context: "Manufacturing context: " + term,
				}, true
			}
		}
	}

	hits, err := w.search(ctx, query, 0, w.cfg.FallbackTimeout)
	if err != nil {
		w.log.Debug("fallback search failed", zap.String("query", query), zap.Error(err))
		return nil, false
	}
	if len(hits) == 0 {
		return nil, false
	}
	return &Reference{Title: hits[0].Title, URL: w.articleURL(hits[0].Title)}, true
}

func (w *Wikipedia) articleURL(title string) string {
	return w.cfg.ArticleBase + strings.ReplaceAll(title, " ", "_")
}

type wikiHit struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

type wikiSearchResponse struct {
	Query struct {
		Search []wikiHit `json:"search"`
	} `json:"query"`
}

func (w *Wikipedia) search(ctx context.Context, term string, limit int, timeout time.Duration) ([]wikiHit, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if w.limiter != nil {
		if err := w.limiter.Wait(ctx); err != nil {
			return nil, core.NewError(core.KindEnrichment, "wikipedia.rate", err)
		}
	}

	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "search")
	params.Set("srsearch", term)
	params.Set("format", "json")
	if limit > 0 {
		params.Set("srlimit", strconv.Itoa(limit))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.cfg.Endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, core.NewError(core.KindEnrichment, "wikipedia.request", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, core.NewError(core.KindEnrichment, "wikipedia.search", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, core.NewError(core.KindEnrichment, "wikipedia.search", fmt.Errorf("status %d", resp.StatusCode))
	}

	var out wikiSearchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return nil, core.NewError(core.KindEnrichment, "wikipedia.decode", err)
	}
	return out.Query.Search, nil
}
