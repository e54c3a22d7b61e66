package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/emicklei/go-restful/v3"
	"github.com/povarna/generative-ai-agents/mcp-tools/internal/api"
	"github.com/povarna/generative-ai-agents/mcp-tools/internal/api/middleware"
	"github.com/povarna/generative-ai-agents/mcp-tools/internal/filesystem"
	"github.com/povarna/generative-ai-agents/mcp-tools/internal/models"
	"github.com/povarna/generative-ai-agents/mcp-tools/internal/pathguard"
	"github.com/povarna/generative-ai-agents/mcp-tools/internal/tools"
	"github.com/rs/zerolog"
)

func setupTestAPI(t *testing.T) *restful.Container {
	t.Helper()
	logger := zerolog.Nop()

	guard, err := pathguard.New(t.TempDir())
	if err != nil {
		t.Fatalf("pathguard.New failed: %v", err)
	}
	box := tools.New(tools.Options{Files: filesystem.NewAdapter(guard, 0, &logger)}, &logger)

	return api.NewContainer(api.NewHandler(box, &logger))
}

func post(t *testing.T, c *restful.Container, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	c.ServeHTTP(recorder, req)
	return recorder
}

func decode[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(recorder.Body.Bytes(), &v); err != nil {
		t.Fatalf("Failed to parse response %q: %v", recorder.Body.String(), err)
	}
	return v
}

func TestAPI_Health(t *testing.T) {
	container := setupTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	recorder := httptest.NewRecorder()
	container.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", recorder.Code)
	}
	if response := decode[api.HealthResponse](t, recorder); response.Status != "ok" {
		t.Errorf("Expected status 'ok', got '%s'", response.Status)
	}
}

func TestAPI_ListTools(t *testing.T) {
	container := setupTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tools", nil)
	recorder := httptest.NewRecorder()
	container.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", recorder.Code)
	}
	got := decode[api.ToolsResponse](t, recorder).Tools
	if strings.Join(got, ",") != "list_directory,read_file,write_file" {
		t.Errorf("tools: %v", got)
	}
}

func TestAPI_InvokeTool_WriteThenRead(t *testing.T) {
	container := setupTestAPI(t)

	recorder := post(t, container, "/api/v1/tools/write_file", `{"path":"a/b.txt","content":"hello"}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", recorder.Code, recorder.Body.String())
	}
	if res := decode[api.ToolResponse](t, recorder); res.IsError || res.Tool != "write_file" {
		t.Errorf("write_file: %+v", res)
	}

	recorder = post(t, container, "/api/v1/tools/read_file", `{"path":"a/b.txt"}`)
	if res := decode[api.ToolResponse](t, recorder); res.Text != "hello" {
		t.Errorf("read_file text: %q, want hello", res.Text)
	}
}

func TestAPI_InvokeTool_ToolErrorIs200(t *testing.T) {
	container := setupTestAPI(t)

	recorder := post(t, container, "/api/v1/tools/read_file", `{"path":"../../etc/passwd"}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", recorder.Code)
	}
	res := decode[api.ToolResponse](t, recorder)
	if !res.IsError || res.Kind != models.KindPathEscape {
		t.Errorf("expected path_escape tool error, got %+v", res)
	}
}

func TestAPI_InvokeTool_HTTPErrors(t *testing.T) {
	container := setupTestAPI(t)

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"unknown tool", "/api/v1/tools/format_disk", `{}`, http.StatusNotFound},
		{"disabled tool", "/api/v1/tools/query", `{"sql":"SELECT 1"}`, http.StatusNotFound},
		{"missing arg", "/api/v1/tools/read_file", `{}`, http.StatusBadRequest},
		{"wrong arg type", "/api/v1/tools/read_file", `{"path":7}`, http.StatusBadRequest},
		{"not an object", "/api/v1/tools/read_file", `["path"]`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := post(t, container, tt.path, tt.body)
			if recorder.Code != tt.want {
				t.Fatalf("status: %d, want %d. Body: %s", recorder.Code, tt.want, recorder.Body.String())
			}
			if res := decode[middleware.ErrorResponse](t, recorder); res.Error == "" {
				t.Error("expected an error body")
			}
		})
	}
}

func TestAPI_EmptyBodyMeansNoArgs(t *testing.T) {
	container := setupTestAPI(t)

	recorder := post(t, container, "/api/v1/tools/list_directory", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", recorder.Code, recorder.Body.String())
	}
	if res := decode[api.ToolResponse](t, recorder); res.Text != "(empty directory)" {
		t.Errorf("text: %q", res.Text)
	}
}

func TestAPI_OpenAPIDocument(t *testing.T) {
	container := setupTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/apidocs.json", nil)
	recorder := httptest.NewRecorder()
	container.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "/api/v1/tools/{tool_name}") {
		t.Error("openapi document does not describe the invoke route")
	}
	if !strings.Contains(recorder.Body.String(), "MCP Tools API") {
		t.Error("openapi document is missing the service title")
	}
}

func TestRecoverPanic(t *testing.T) {
	container := restful.NewContainer()
	container.Filter(middleware.RecoverPanic)

	ws := new(restful.WebService)
	ws.Path("/boom").Produces(restful.MIME_JSON)
	ws.Route(ws.GET("").To(func(*restful.Request, *restful.Response) { panic("kaboom") }))
	container.Add(ws)

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	recorder := httptest.NewRecorder()
	container.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusInternalServerError {
		t.Errorf("status: %d, want 500", recorder.Code)
	}
}
