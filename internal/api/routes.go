package api

import (
	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	"github.com/emicklei/go-restful/v3"
	"github.com/povarna/generative-ai-agents/blog-agent/internal/api/middleware"
	"github.com/povarna/generative-ai-agents/blog-agent/internal/models"
)

func RegisterRoutes(container *restful.Container, handler *Handler) {
	ws := new(restful.WebService)

	ws.
		Path("/").
		Consumes(restful.MIME_JSON).
		Produces(restful.MIME_JSON)

	ws.
		Route(ws.GET("health").
			To(handler.Health).
			Doc("Health check").
			Metadata(restfulspec.KeyOpenAPITags, []string{"health"}).
			Writes(HealthResponse{}).
			Returns(200, "OK", HealthResponse{}))

	ws.
		Route(ws.POST("generate").
			To(handler.Generate).
			Doc("Generate a blog post for a prompt").
			Metadata(restfulspec.KeyOpenAPITags, []string{"generate"}).
			Reads(models.GenerationRequest{}).
			Writes(models.GenerationRecord{}).
			Returns(201, "Created", models.GenerationRecord{}).
			Returns(400, "Bad Request", middleware.ErrorResponse{}).
			Returns(500, "Generated but not stored", middleware.ErrorResponse{}).
			Returns(502, "Upstream Rejected Request", middleware.ErrorResponse{}).
			Returns(503, "Upstream Unavailable", middleware.ErrorResponse{}).
			Returns(504, "Upstream Timeout", middleware.ErrorResponse{}))

	ws.
		Route(ws.POST("generate/batch").
			To(handler.GenerateBatch).
			Doc("Generate one blog post per prompt, skipping duplicates").
			Metadata(restfulspec.KeyOpenAPITags, []string{"generate"}).
			Reads(models.BatchRequest{}).
			Writes(models.BatchResult{}).
			Returns(200, "OK", models.BatchResult{}).
			Returns(400, "Bad Request", middleware.ErrorResponse{}).
			Returns(500, "Internal Server Error", middleware.ErrorResponse{}))

	ws.
		Route(ws.GET("records").
			To(handler.ListRecords).
			Doc("List all stored records in insertion order").
			Metadata(restfulspec.KeyOpenAPITags, []string{"records"}).
			Writes(models.RecordList{}).
			Returns(200, "OK", models.RecordList{}).
			Returns(500, "Internal Server Error", middleware.ErrorResponse{}))

	container.Add(ws)
}
