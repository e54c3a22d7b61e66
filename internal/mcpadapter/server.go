package mcpadapter

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/povarna/generative-ai-agents/mcp-tools/internal/tools"
)

const (
	ServerName    = "mcp-tools"
	ServerVersion = "1.0.0"
)

var descriptions = map[string]string{
	tools.ListDirectory: "List the entries of a directory inside the allowed root",
	tools.ReadFile:      "Read a UTF-8 text file inside the allowed root",
	tools.WriteFile:     "Create or overwrite a text file inside the allowed root",
	tools.Query:         "Run a SQL statement against the configured database and return rows as JSON",
	tools.Search:        "Search the web and return titles, links and snippets",
	tools.FetchPage:     "Fetch a web page and return its visible text",
}

// NewServer builds an MCP server with every enabled tool registered.
func NewServer(box *tools.Toolbox) *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		}, nil,
	)
	RegisterTools(server, box)
	return server
}

// RegisterTools adds the tools the toolbox has backends for.
func RegisterTools(server *mcp.Server, box *tools.Toolbox) {
	for _, name := range box.Names() {
		tool := &mcp.Tool{Name: name, Description: descriptions[name]}

		switch name {
		case tools.ListDirectory:
			mcp.AddTool(server, tool, NewListDirectoryHandler(box))
		case tools.ReadFile:
			mcp.AddTool(server, tool, NewReadFileHandler(box))
		case tools.WriteFile:
			mcp.AddTool(server, tool, NewWriteFileHandler(box))
		case tools.Query:
			mcp.AddTool(server, tool, NewQueryHandler(box))
		case tools.Search:
			mcp.AddTool(server, tool, NewSearchHandler(box))
		case tools.FetchPage:
			mcp.AddTool(server, tool, NewFetchPageHandler(box))
		}
	}
}
