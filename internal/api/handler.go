package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/emicklei/go-restful/v3"
	"github.com/povarna/generative-ai-agents/mcp-tools/internal/api/middleware"
	"github.com/povarna/generative-ai-agents/mcp-tools/internal/tools"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 16 << 20

type Handler struct {
	toolbox *tools.Toolbox
	logger  *zerolog.Logger
}

func NewHandler(toolbox *tools.Toolbox, logger *zerolog.Logger) *Handler {
	return &Handler{
		toolbox: toolbox,
		logger:  logger,
	}
}

// Health handler GET /api/v1/health
func (h *Handler) Health(req *restful.Request, resp *restful.Response) {
	_ = resp.WriteHeaderAndEntity(http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: "1.0.0",
	})
}

// GET /api/v1/tools
func (h *Handler) ListTools(req *restful.Request, resp *restful.Response) {
	_ = resp.WriteHeaderAndEntity(http.StatusOK, ToolsResponse{Tools: h.toolbox.Names()})
}

// POST /api/v1/tools/{tool_name}
// Body: JSON object of tool arguments
// Returns: ToolResponse. Tool-level failures are 200 with is_error set.
func (h *Handler) InvokeTool(req *restful.Request, resp *restful.Response) {
	name := req.PathParameter("tool_name")

	args, err := readArgs(req.Request.Body)
	if err != nil {
		h.logger.Error().Err(err).Str("tool", name).Msg("Failed to parse request body")
		middleware.HandleError(resp, err, http.StatusBadRequest)
		return
	}

	result, err := h.toolbox.Invoke(req.Request.Context(), name, args)
	switch {
	case errors.Is(err, tools.ErrUnknownTool):
		middleware.HandleError(resp, err, http.StatusNotFound)
		return
	case errors.Is(err, tools.ErrInvalidArgs):
		middleware.HandleError(resp, err, http.StatusBadRequest)
		return
	case err != nil:
		h.logger.Error().Err(err).Str("tool", name).Msg("Tool invocation failed")
		middleware.HandleError(resp, err, http.StatusInternalServerError)
		return
	}

	_ = resp.WriteHeaderAndEntity(http.StatusOK, ToolResponse{
		Tool:    name,
		Text:    result.Text,
		IsError: result.IsError,
		Kind:    result.Kind,
	})
}

// readArgs accepts an empty body as no arguments.
func readArgs(body io.Reader) (map[string]any, error) {
	if body == nil {
		return map[string]any{}, nil
	}
	raw, err := io.ReadAll(io.LimitReader(body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	if len(raw) == 0 {
		return map[string]any{}, nil
	}

	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("body must be a JSON object: %w", err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}
