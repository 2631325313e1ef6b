package api

import (
	"context"
	"net/http"
	"time"

	"github.com/emicklei/go-restful/v3"
	"github.com/povarna/generative-ai-agents/blog-agent/internal/api/middleware"
	"github.com/povarna/generative-ai-agents/blog-agent/internal/generation"
	"github.com/povarna/generative-ai-agents/blog-agent/internal/llm"
	"github.com/povarna/generative-ai-agents/blog-agent/internal/models"
	"github.com/rs/zerolog"
)

type Handler struct {
	service      *generation.Service
	logger       *zerolog.Logger
	batchTimeout time.Duration
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// NewHandler wires the routes to service. A positive batchTimeout bounds a
// whole batch request; prompts not reached in time are reported as failed.
func NewHandler(service *generation.Service, logger *zerolog.Logger, batchTimeout time.Duration) *Handler {
	return &Handler{
		service:      service,
		logger:       logger,
		batchTimeout: batchTimeout,
	}
}

// POST /generate
// Body: GenerationRequest
// Returns: GenerationRecord
func (h *Handler) Generate(req *restful.Request, resp *restful.Response) {
	var genRequest models.GenerationRequest
	if err := req.ReadEntity(&genRequest); err != nil {
		h.logger.Error().Err(err).Msg("Failed to parse request body")
		middleware.WriteError(resp, middleware.ErrorResponse{
			Code:    http.StatusBadRequest,
			Details: err.Error(),
			Kind:    middleware.KindValidation,
		})
		return
	}

	h.logger.Info().
		Int("prompt_length", len(genRequest.Prompt)).
		Msg("Start generation")

	record, err := h.service.Generate(req.Request.Context(), genRequest.Prompt)
	if err != nil {
		h.writeGenerationError(resp, err)
		return
	}

	resp.WriteHeaderAndEntity(http.StatusCreated, record)
}

// POST /generate/batch
// Body: BatchRequest
// Returns: BatchResult
func (h *Handler) GenerateBatch(req *restful.Request, resp *restful.Response) {
	var batchRequest models.BatchRequest
	if err := req.ReadEntity(&batchRequest); err != nil {
		h.logger.Error().Err(err).Msg("Failed to parse request body")
		middleware.WriteError(resp, middleware.ErrorResponse{
			Code:    http.StatusBadRequest,
			Details: err.Error(),
			Kind:    middleware.KindValidation,
		})
		return
	}

	prompts := generation.ParsePrompts(batchRequest)
	h.logger.Info().Int("prompts", len(prompts)).Msg("Start batch generation")

	ctx := req.Request.Context()
	if h.batchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.batchTimeout)
		defer cancel()
	}

	result, err := h.service.GenerateBatch(ctx, prompts)
	if err != nil {
		h.writeGenerationError(resp, err)
		return
	}

	h.logger.Info().
		Int("created", result.Created).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Msg("Batch generation complete")

	resp.WriteHeaderAndEntity(http.StatusOK, result)
}

// GET /records
func (h *Handler) ListRecords(req *restful.Request, resp *restful.Response) {
	records, err := h.service.List(req.Request.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list records")
		middleware.WriteError(resp, middleware.ErrorResponse{
			Code:    http.StatusInternalServerError,
			Details: err.Error(),
			Kind:    middleware.KindStorage,
		})
		return
	}

	resp.WriteHeaderAndEntity(http.StatusOK, models.RecordList{
		Records: records,
		Count:   len(records),
	})
}

// Health handler GET /health
func (h *Handler) Health(req *restful.Request, resp *restful.Response) {
	healthResponse := HealthResponse{
		Status:  "ok",
		Version: "1.0.0",
	}

	resp.WriteHeaderAndEntity(http.StatusOK, healthResponse)
}

func (h *Handler) writeGenerationError(resp *restful.Response, err error) {
	body := errorResponseFor(err)
	if body.Code >= http.StatusInternalServerError {
		h.logger.Error().Err(err).Str("kind", string(body.Kind)).Int("status", body.Code).Msg("Generation failed")
	}
	middleware.WriteError(resp, body)
}

// errorResponseFor maps service errors onto the HTTP contract.
func errorResponseFor(err error) middleware.ErrorResponse {
	if generation.IsValidationError(err) {
		return middleware.ErrorResponse{
			Code:    http.StatusBadRequest,
			Details: err.Error(),
			Kind:    middleware.KindValidation,
		}
	}

	if se, ok := generation.AsStorageError(err); ok {
		record := se.Record
		return middleware.ErrorResponse{
			Error:   "generated content could not be stored",
			Code:    http.StatusInternalServerError,
			Details: se.Err.Error(),
			Kind:    middleware.KindStorage,
			Record:  &record,
		}
	}

	if ue, ok := llm.AsUpstreamError(err); ok {
		switch {
		case ue.Timeout:
			return middleware.ErrorResponse{
				Error:   "upstream timed out",
				Code:    http.StatusGatewayTimeout,
				Details: ue.Error(),
				Kind:    middleware.KindUpstreamUnavailable,
			}
		case ue.Kind == llm.KindRejected:
			return middleware.ErrorResponse{
				Error:   "upstream rejected request",
				Code:    http.StatusBadGateway,
				Details: ue.Error(),
				Kind:    middleware.KindUpstreamRejected,
			}
		default:
			return middleware.ErrorResponse{
				Error:   "upstream unavailable",
				Code:    http.StatusServiceUnavailable,
				Details: ue.Error(),
				Kind:    middleware.KindUpstreamUnavailable,
			}
		}
	}

	return middleware.ErrorResponse{
		Code:    http.StatusInternalServerError,
		Details: err.Error(),
		Kind:    middleware.KindInternal,
	}
}
