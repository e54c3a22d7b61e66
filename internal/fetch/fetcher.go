// Package fetch downloads a web page and reduces it to readable text.
package fetch

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/povarna/generative-ai-agents/mcp-tools/internal/cache"
	"github.com/povarna/generative-ai-agents/mcp-tools/internal/models"
	"github.com/rs/zerolog"
)

const (
	DefaultMaxLength = 20000
	defaultMaxBytes  = 5 << 20
	userAgent        = "Mozilla/5.0 (compatible; mcp-tools/1.0)"
)

type Config struct {
	Timeout  time.Duration
	MaxBytes int64
}

type Page struct {
	URL       string
	Title     string
	Text      string
	Truncated bool
}

type Fetcher struct {
	httpClient *http.Client
	maxBytes   int64
	cache      cache.Cache
	logger     *zerolog.Logger
}

func NewFetcher(cfg Config, c cache.Cache, logger *zerolog.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = defaultMaxBytes
	}
	if c == nil {
		c = cache.NopCache{}
	}

	return &Fetcher{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		maxBytes:   cfg.MaxBytes,
		cache:      c,
		logger:     logger,
	}
}

// Fetch retrieves rawURL and returns at most maxLength characters of text.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, maxLength int) (Page, error) {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return Page{}, models.NewError(models.KindInvalidRequest, fmt.Sprintf("invalid url %q: only absolute http and https urls are supported", rawURL), nil)
	}

	page := Page{URL: u.String()}

	key := cache.Key("fetch", page.URL)
	text, ok := f.cache.Get(ctx, key)
	if ok {
		page.Title, text = splitCached(text)
	} else {
		page.Title, text, err = f.download(ctx, page.URL)
		if err != nil {
			return Page{}, err
		}
		f.cache.Set(ctx, key, page.Title+"\n"+text)
	}

	page.Text, page.Truncated = truncate(text, maxLength)

	f.logger.Info().Str("url", page.URL).Int("chars", utf8.RuneCountInString(page.Text)).Bool("truncated", page.Truncated).Msg("Page fetched")
	return page, nil
}

func (f *Fetcher) download(ctx context.Context, target string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", "", models.NewError(models.KindInvalidRequest, "failed to build request", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html, text/plain;q=0.9, */*;q=0.1")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", "", models.NewError(models.KindUpstreamFailure, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", "", models.NewError(models.KindUpstreamFailure, "server returned status "+strconv.Itoa(resp.StatusCode), nil)
	}

	body := io.LimitReader(resp.Body, f.maxBytes)

	mediaType := "text/html"
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err == nil {
			mediaType = mt
		}
	}

	switch {
	case mediaType == "text/html" || mediaType == "application/xhtml+xml":
		title, text, err := extractText(body)
		if err != nil {
			return "", "", models.NewError(models.KindUpstreamFailure, "failed to parse html", err)
		}
		return title, text, nil
	case strings.HasPrefix(mediaType, "text/") || mediaType == "application/json" || mediaType == "application/xml":
		raw, err := io.ReadAll(body)
		if err != nil {
			return "", "", models.NewError(models.KindUpstreamFailure, "failed to read body", err)
		}
		return "", strings.ToValidUTF8(string(raw), "�"), nil
	default:
		return "", "", models.NewError(models.KindInvalidRequest, fmt.Sprintf("unsupported content type %q", mediaType), nil)
	}
}

func splitCached(s string) (string, string) {
	title, text, _ := strings.Cut(s, "\n")
	return title, text
}

func truncate(s string, maxRunes int) (string, bool) {
	if utf8.RuneCountInString(s) <= maxRunes {
		return s, false
	}
	runes := []rune(s)
	return string(runes[:maxRunes]), true
}
