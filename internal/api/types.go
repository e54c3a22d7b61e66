package api

import "github.com/povarna/generative-ai-agents/mcp-tools/internal/models"

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

type ToolsResponse struct {
	Tools []string `json:"tools"`
}

type ToolResponse struct {
	Tool    string           `json:"tool"`
	Text    string           `json:"text"`
	IsError bool             `json:"is_error"`
	Kind    models.ErrorKind `json:"kind,omitempty"`
}
