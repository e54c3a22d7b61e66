// Package mcpadapter exposes a tools.Toolbox over the Model Context Protocol.
package mcpadapter

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/povarna/generative-ai-agents/mcp-tools/internal/models"
	"github.com/povarna/generative-ai-agents/mcp-tools/internal/tools"
)

type ListDirectoryInput struct {
	Path string `json:"path,omitempty" jsonschema:"directory relative to the allowed root (default: .)"`
}

type ReadFileInput struct {
	Path string `json:"path" jsonschema:"file path relative to the allowed root"`
}

type WriteFileInput struct {
	Path    string `json:"path" jsonschema:"file path relative to the allowed root; parent directories are created"`
	Content string `json:"content" jsonschema:"UTF-8 text that replaces the file contents"`
}

type QueryInput struct {
	SQL string `json:"sql" jsonschema:"a single SQL statement; write statements are rejected in read-only mode"`
}

type SearchInput struct {
	Query      string `json:"query" jsonschema:"search terms"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"maximum number of results (default: 10)"`
}

type FetchPageInput struct {
	URL       string `json:"url" jsonschema:"absolute http or https URL"`
	MaxLength int    `json:"max_length,omitempty" jsonschema:"maximum characters of page text to return (default: 20000)"`
}

type handler[In any] = func(context.Context, *mcp.CallToolRequest, In) (*mcp.CallToolResult, any, error)

// NewListDirectoryHandler returns a handler for mcp.AddTool.
func NewListDirectoryHandler(box *tools.Toolbox) handler[ListDirectoryInput] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in ListDirectoryInput) (*mcp.CallToolResult, any, error) {
		return toCallResult(box.ListDirectory(ctx, in.Path)), nil, nil
	}
}

func NewReadFileHandler(box *tools.Toolbox) handler[ReadFileInput] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in ReadFileInput) (*mcp.CallToolResult, any, error) {
		return toCallResult(box.ReadFile(ctx, in.Path)), nil, nil
	}
}

func NewWriteFileHandler(box *tools.Toolbox) handler[WriteFileInput] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in WriteFileInput) (*mcp.CallToolResult, any, error) {
		return toCallResult(box.WriteFile(ctx, in.Path, in.Content)), nil, nil
	}
}

func NewQueryHandler(box *tools.Toolbox) handler[QueryInput] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in QueryInput) (*mcp.CallToolResult, any, error) {
		return toCallResult(box.Query(ctx, in.SQL)), nil, nil
	}
}

func NewSearchHandler(box *tools.Toolbox) handler[SearchInput] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in SearchInput) (*mcp.CallToolResult, any, error) {
		return toCallResult(box.Search(ctx, in.Query, in.MaxResults)), nil, nil
	}
}

func NewFetchPageHandler(box *tools.Toolbox) handler[FetchPageInput] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in FetchPageInput) (*mcp.CallToolResult, any, error) {
		return toCallResult(box.FetchPage(ctx, in.URL, in.MaxLength)), nil, nil
	}
}

func toCallResult(r models.Result) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: r.Text}},
		IsError: r.IsError,
	}
}
