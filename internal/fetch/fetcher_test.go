package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/povarna/generative-ai-agents/mcp-tools/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articlePage = `<!DOCTYPE html>
<html>
<head>
  <title>  Release   Notes </title>
  <style>body { color: red; }</style>
  <script>console.log("hidden")</script>
</head>
<body>
  <h1>Go 1.25</h1>
  <p>This release brings
     several improvements.</p>
  <ul><li>Faster builds</li><li>Better <b>tooling</b></li></ul>
  <noscript>Enable JavaScript</noscript>
</body>
</html>`

func newTestFetcher() *Fetcher {
	logger := zerolog.Nop()
	return NewFetcher(Config{Timeout: 2 * time.Second, MaxBytes: 1 << 20}, nil, &logger)
}

func TestExtractText(t *testing.T) {
	title, text, err := extractText(strings.NewReader(articlePage))
	require.NoError(t, err)

	assert.Equal(t, "Release Notes", title)
	assert.Equal(t, "Go 1.25\nThis release brings several improvements.\nFaster builds\nBetter tooling", text)
	assert.NotContains(t, text, "console.log")
	assert.NotContains(t, text, "color: red")
	assert.NotContains(t, text, "Enable JavaScript")
}

func TestFetcher_Fetch_HTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(articlePage))
	}))
	defer srv.Close()

	page, err := newTestFetcher().Fetch(context.Background(), srv.URL+"/notes", 0)
	require.NoError(t, err)

	assert.Equal(t, "Release Notes", page.Title)
	assert.True(t, strings.HasPrefix(page.Text, "Go 1.25"))
	assert.False(t, page.Truncated)
}

func TestFetcher_Fetch_Truncates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("héllo world"))
	}))
	defer srv.Close()

	page, err := newTestFetcher().Fetch(context.Background(), srv.URL, 5)
	require.NoError(t, err)

	assert.Equal(t, "héllo", page.Text)
	assert.True(t, page.Truncated)
}

func TestFetcher_Fetch_RejectsBadURLs(t *testing.T) {
	f := newTestFetcher()

	for _, u := range []string{"", "ftp://example.com/file", "file:///etc/passwd", "not a url", "/relative/path"} {
		_, err := f.Fetch(context.Background(), u, 0)
		assert.True(t, errors.Is(err, models.ErrInvalidRequest), "url %q: %v", u, err)
	}
}

func TestFetcher_Fetch_UpstreamStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := newTestFetcher().Fetch(context.Background(), srv.URL, 0)
	require.Error(t, err)
	assert.Equal(t, models.KindUpstreamFailure, models.KindOf(err))
}

func TestFetcher_Fetch_UnsupportedContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
	}))
	defer srv.Close()

	_, err := newTestFetcher().Fetch(context.Background(), srv.URL, 0)
	assert.True(t, errors.Is(err, models.ErrInvalidRequest))
}
