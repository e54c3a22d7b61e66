// Package search queries the DuckDuckGo HTML endpoint.
package search

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

	"github.com/povarna/generative-ai-agents/mcp-tools/internal/cache"
	"github.com/povarna/generative-ai-agents/mcp-tools/internal/models"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL    = "https://html.duckduckgo.com/html/"
	DefaultMaxResults = 10
	maxResultsCap     = 50
	maxResponseBytes  = 2 << 20
	userAgent         = "Mozilla/5.0 (compatible; mcp-tools/1.0)"
)

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	RatePerMin int
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      cache.Cache
	logger     *zerolog.Logger
}

func NewClient(cfg Config, c cache.Cache, logger *zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.RatePerMin <= 0 {
		cfg.RatePerMin = 30
	}
	if c == nil {
		c = cache.NopCache{}
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(float64(cfg.RatePerMin)/60.0), cfg.RatePerMin),
		cache:      c,
		logger:     logger,
	}
}

func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]models.SearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, models.NewError(models.KindInvalidRequest, "search query is empty", nil)
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	if maxResults > maxResultsCap {
		maxResults = maxResultsCap
	}

	key := cache.Key("search", query, strconv.Itoa(maxResults))
	if cached, ok := c.cache.Get(ctx, key); ok {
		var hits []models.SearchHit
		if err := json.Unmarshal([]byte(cached), &hits); err == nil {
			c.logger.Debug().Str("query", query).Msg("Search served from cache")
			return hits, nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, models.NewError(models.KindUpstreamFailure, "search rate limit wait aborted", err)
	}

	hits, err := c.fetch(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(hits) > maxResults {
		hits = hits[:maxResults]
	}

	if payload, err := json.Marshal(hits); err == nil {
		c.cache.Set(ctx, key, string(payload))
	}

	c.logger.Info().Str("query", query).Int("results", len(hits)).Msg("Search complete")
	return hits, nil
}

func (c *Client) fetch(ctx context.Context, query string) ([]models.SearchHit, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, models.NewError(models.KindUpstreamFailure, "invalid search endpoint", err)
	}
	q := u.Query()
	q.Set("q", query)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, models.NewError(models.KindUpstreamFailure, "failed to build search request", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, models.NewError(models.KindUpstreamFailure, "search request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, models.NewError(models.KindUpstreamFailure, fmt.Sprintf("search provider returned status %d", resp.StatusCode), nil)
	}

	hits, err := parseResults(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, models.NewError(models.KindUpstreamFailure, "failed to parse search results", err)
	}
	return hits, nil
}
