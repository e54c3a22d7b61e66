// Package tools turns adapter outcomes into the text results handed back to
// an agent. Every transport (MCP, REST, CLI) goes through a Toolbox.
package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/povarna/generative-ai-agents/mcp-tools/internal/audit"
	"github.com/povarna/generative-ai-agents/mcp-tools/internal/database"
	"github.com/povarna/generative-ai-agents/mcp-tools/internal/fetch"
	"github.com/povarna/generative-ai-agents/mcp-tools/internal/filesystem"
	"github.com/povarna/generative-ai-agents/mcp-tools/internal/models"
	"github.com/rs/zerolog"
)

const (
	ListDirectory = "list_directory"
	ReadFile      = "read_file"
	WriteFile     = "write_file"
	Query         = "query"
	Search        = "search"
	FetchPage     = "fetch_page"
)

const (
	textPathMissing = "Path does not exist."
	textEmptyDir    = "(empty directory)"
	textFileMissing = "File does not exist."
	textNoResults   = "No results found."
	decodeWarning   = "Warning: file is not valid UTF-8; undecodable bytes were replaced.\n\n"
)

type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]models.SearchHit, error)
}

type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string, maxLength int) (fetch.Page, error)
}

// Options carries the adapters a Toolbox dispatches to. Files is required;
// a nil Database, Search or Fetcher disables the matching tool.
type Options struct {
	Files    *filesystem.Adapter
	Database *database.Adapter
	Search   Searcher
	Fetcher  PageFetcher
	Audit    audit.Publisher
}

type Toolbox struct {
	files   *filesystem.Adapter
	db      *database.Adapter
	search  Searcher
	fetcher PageFetcher
	audit   audit.Publisher
	logger  *zerolog.Logger
}

func New(opts Options, logger *zerolog.Logger) *Toolbox {
	if opts.Audit == nil {
		opts.Audit = audit.NopPublisher{}
	}
	return &Toolbox{
		files:   opts.Files,
		db:      opts.Database,
		search:  opts.Search,
		fetcher: opts.Fetcher,
		audit:   opts.Audit,
		logger:  logger,
	}
}

// Names lists the enabled tools in registration order.
func (t *Toolbox) Names() []string {
	names := []string{ListDirectory, ReadFile, WriteFile}
	if t.db != nil {
		names = append(names, Query)
	}
	if t.search != nil {
		names = append(names, Search)
	}
	if t.fetcher != nil {
		names = append(names, FetchPage)
	}
	return names
}

func (t *Toolbox) Enabled(name string) bool {
	for _, n := range t.Names() {
		if n == name {
			return true
		}
	}
	return false
}

func (t *Toolbox) ListDirectory(ctx context.Context, path string) models.Result {
	start := time.Now()
	if path == "" {
		path = "."
	}

	listing, err := t.files.List(ctx, path)
	var result models.Result
	switch {
	case err != nil:
		result = failure(err)
	case !listing.Found:
		result = models.Result{Text: textPathMissing}
	case len(listing.Entries) == 0:
		result = models.Result{Text: textEmptyDir}
	default:
		result = models.Result{Text: strings.Join(listing.Entries, "\n")}
	}

	return t.record(ctx, ListDirectory, start, result)
}

func (t *Toolbox) ReadFile(ctx context.Context, path string) models.Result {
	start := time.Now()

	doc, err := t.files.ReadText(ctx, path)
	var result models.Result
	switch {
	case errors.Is(err, models.ErrDecode):
		// Lossy content is still useful to the caller.
		result = models.Result{Text: decodeWarning + doc.Content, Kind: models.KindDecode}
	case err != nil:
		result = failure(err)
	case !doc.Found:
		result = models.Result{Text: textFileMissing}
	default:
		result = models.Result{Text: doc.Content}
	}

	return t.record(ctx, ReadFile, start, result)
}

func (t *Toolbox) WriteFile(ctx context.Context, path, content string) models.Result {
	start := time.Now()

	_, err := t.files.WriteText(ctx, path, content)
	result := models.Result{Text: fmt.Sprintf("Successfully wrote to %s", path)}
	if err != nil {
		result = failure(err)
	}

	return t.record(ctx, WriteFile, start, result)
}

func (t *Toolbox) Query(ctx context.Context, sql string) models.Result {
	start := time.Now()
	if t.db == nil {
		return t.record(ctx, Query, start, disabled(Query))
	}

	rs, err := t.db.Execute(ctx, sql)
	var result models.Result
	switch {
	case err != nil:
		result = failure(err)
	case len(rs.Rows) == 0:
		result = models.Result{Text: textNoResults}
	default:
		text, encErr := encodeRows(rs)
		if encErr != nil {
			result = failure(models.NewError(models.KindExecutionFailure, "failed to encode rows", encErr))
		} else {
			result = models.Result{Text: text}
		}
	}

	return t.record(ctx, Query, start, result)
}

func (t *Toolbox) Search(ctx context.Context, query string, maxResults int) models.Result {
	start := time.Now()
	if t.search == nil {
		return t.record(ctx, Search, start, disabled(Search))
	}

	hits, err := t.search.Search(ctx, query, maxResults)
	var result models.Result
	switch {
	case err != nil:
		result = failure(err)
	case len(hits) == 0:
		result = models.Result{Text: textNoResults}
	default:
		result = models.Result{Text: formatHits(hits)}
	}

	return t.record(ctx, Search, start, result)
}

func (t *Toolbox) FetchPage(ctx context.Context, rawURL string, maxLength int) models.Result {
	start := time.Now()
	if t.fetcher == nil {
		return t.record(ctx, FetchPage, start, disabled(FetchPage))
	}

	page, err := t.fetcher.Fetch(ctx, rawURL, maxLength)
	result := models.Result{Text: formatPage(page)}
	if err != nil {
		result = failure(err)
	}

	return t.record(ctx, FetchPage, start, result)
}

func (t *Toolbox) record(ctx context.Context, tool string, start time.Time, result models.Result) models.Result {
	elapsed := time.Since(start)

	event := t.logger.Info()
	if result.IsError {
		event = t.logger.Warn().Str("kind", string(result.Kind))
	}
	event.Str("tool", tool).Dur("duration", elapsed).Bool("is_error", result.IsError).Msg("tool invoked")

	t.audit.Publish(ctx, audit.NewInvocation(tool, result, elapsed))
	return result
}

func failure(err error) models.Result {
	kind := models.KindOf(err)
	prefix := "Infrastructure error: "
	if kind.UserCorrectable() {
		prefix = "Request rejected: "
	}
	return models.Result{Text: prefix + err.Error(), IsError: true, Kind: kind}
}

func disabled(tool string) models.Result {
	return failure(models.NewError(models.KindInvalidRequest, fmt.Sprintf("tool %s is not enabled", tool), nil))
}
