package api

import (
	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	"github.com/emicklei/go-restful/v3"
	"github.com/go-openapi/spec"
	"github.com/povarna/generative-ai-agents/mcp-tools/internal/api/middleware"
)

func RegisterRoutes(container *restful.Container, handler *Handler) {
	ws := new(restful.WebService)

	ws.
		Path("/api/v1").
		Consumes(restful.MIME_JSON).
		Produces(restful.MIME_JSON)

	// Health endpoint
	ws.
		Route(ws.GET("health").
			To(handler.Health).
			Doc("Health check").
			Metadata(restfulspec.KeyOpenAPITags, []string{"health"}).
			Writes(HealthResponse{}).
			Returns(200, "OK", HealthResponse{}))

	ws.
		Route(ws.GET("/tools").
			To(handler.ListTools).
			Doc("List enabled tools").
			Metadata(restfulspec.KeyOpenAPITags, []string{"tools"}).
			Writes(ToolsResponse{}).
			Returns(200, "OK", ToolsResponse{}))

	ws.
		Route(ws.POST("/tools/{tool_name}").
			To(handler.InvokeTool).
			Doc("Invoke a tool").
			Metadata(restfulspec.KeyOpenAPITags, []string{"tools"}).
			Param(ws.PathParameter("tool_name", "Tool name (list_directory, read_file, write_file, query, search, fetch_page)").DataType("string")).
			Reads(map[string]any{}).
			Writes(ToolResponse{}).
			Returns(200, "OK", ToolResponse{}).
			Returns(400, "Bad Request", middleware.ErrorResponse{}).
			Returns(404, "Tool Not Found", middleware.ErrorResponse{}).
			Returns(500, "Internal Server Error", middleware.ErrorResponse{}))

	container.Add(ws)

	container.Add(restfulspec.NewOpenAPIService(restfulspec.Config{
		WebServices:                   container.RegisteredWebServices(),
		APIPath:                       "/apidocs.json",
		PostBuildSwaggerObjectHandler: enrichSwaggerObject,
	}))
}

// NewContainer returns a container with the standard filters and routes.
func NewContainer(handler *Handler) *restful.Container {
	container := restful.NewContainer()
	container.Filter(middleware.Logger)
	container.Filter(middleware.RecoverPanic)
	RegisterRoutes(container, handler)
	return container
}

func enrichSwaggerObject(swo *spec.Swagger) {
	swo.Info = &spec.Info{
		InfoProps: spec.InfoProps{
			Title:       "MCP Tools API",
			Description: "Filesystem, SQL and web tools confined by an access policy",
			Version:     "1.0.0",
		},
	}
	swo.Tags = []spec.Tag{
		{TagProps: spec.TagProps{Name: "health", Description: "Health checks"}},
		{TagProps: spec.TagProps{Name: "tools", Description: "Tool discovery and invocation"}},
	}
}
