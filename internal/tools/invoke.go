package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/povarna/generative-ai-agents/mcp-tools/internal/fetch"
	"github.com/povarna/generative-ai-agents/mcp-tools/internal/models"
	"github.com/povarna/generative-ai-agents/mcp-tools/internal/search"
)

var (
	ErrUnknownTool = errors.New("unknown tool")
	ErrInvalidArgs = errors.New("invalid arguments")
)

// Invoke dispatches a tool call by name with loosely typed arguments, as
// they arrive from JSON or the command line. It errors only when the tool
// is unknown or disabled, or when the arguments cannot be used; everything
// else is reported through the Result.
func (t *Toolbox) Invoke(ctx context.Context, name string, args map[string]any) (models.Result, error) {
	if !t.Enabled(name) {
		return models.Result{}, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	a := arguments(args)

	switch name {
	case ListDirectory:
		path, err := a.str("path", false, ".")
		if err != nil {
			return models.Result{}, err
		}
		return t.ListDirectory(ctx, path), nil

	case ReadFile:
		path, err := a.str("path", true, "")
		if err != nil {
			return models.Result{}, err
		}
		return t.ReadFile(ctx, path), nil

	case WriteFile:
		path, err := a.str("path", true, "")
		if err != nil {
			return models.Result{}, err
		}
		content, err := a.str("content", true, "")
		if err != nil {
			return models.Result{}, err
		}
		return t.WriteFile(ctx, path, content), nil

	case Query:
		sql, err := a.str("sql", true, "")
		if err != nil {
			return models.Result{}, err
		}
		return t.Query(ctx, sql), nil

	case Search:
		query, err := a.str("query", true, "")
		if err != nil {
			return models.Result{}, err
		}
		maxResults, err := a.integer("max_results", search.DefaultMaxResults)
		if err != nil {
			return models.Result{}, err
		}
		return t.Search(ctx, query, maxResults), nil

	case FetchPage:
		rawURL, err := a.str("url", true, "")
		if err != nil {
			return models.Result{}, err
		}
		maxLength, err := a.integer("max_length", fetch.DefaultMaxLength)
		if err != nil {
			return models.Result{}, err
		}
		return t.FetchPage(ctx, rawURL, maxLength), nil
	}

	return models.Result{}, fmt.Errorf("%w: %s", ErrUnknownTool, name)
}

type arguments map[string]any

func (a arguments) str(key string, required bool, def string) (string, error) {
	v, ok := a[key]
	if !ok || v == nil {
		if required {
			return "", fmt.Errorf("%w: missing %q", ErrInvalidArgs, key)
		}
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %q must be a string", ErrInvalidArgs, key)
	}
	return s, nil
}

func (a arguments) integer(key string, def int) (int, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return def, nil
	}

	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%w: %q must be an integer", ErrInvalidArgs, key)
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q must be an integer", ErrInvalidArgs, key)
		}
		return int(i), nil
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, fmt.Errorf("%w: %q must be an integer", ErrInvalidArgs, key)
		}
		return i, nil
	}
	return 0, fmt.Errorf("%w: %q must be an integer", ErrInvalidArgs, key)
}
