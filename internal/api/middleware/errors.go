package middleware

import (
	"net/http"

	"github.com/emicklei/go-restful/v3"
	"github.com/povarna/generative-ai-agents/blog-agent/internal/models"
)

type ErrorKind string

const (
	KindValidation          ErrorKind = "validation"
	KindUpstreamUnavailable ErrorKind = "upstream_unavailable"
	KindUpstreamRejected    ErrorKind = "upstream_rejected"
	KindStorage             ErrorKind = "storage"
	KindInternal            ErrorKind = "internal"
)

type ErrorResponse struct {
	Error   string                   `json:"error"`
	Code    int                      `json:"code"`
	Details string                   `json:"details,omitempty"`
	Kind    ErrorKind                `json:"kind,omitempty"`
	Record  *models.GenerationRecord `json:"record,omitempty"`
}

// ServiceError writes the router's own failures (unknown route, wrong
// method, unsupported Content-Type or Accept) in the same JSON shape as
// handler errors.
func ServiceError(serviceErr restful.ServiceError, req *restful.Request, resp *restful.Response) {
	for header, values := range serviceErr.Header {
		for _, value := range values {
			resp.Header().Add(header, value)
		}
	}

	var kind ErrorKind
	if serviceErr.Code == http.StatusUnsupportedMediaType || serviceErr.Code == http.StatusBadRequest {
		kind = KindValidation
	}

	resp.SetRequestAccepts(restful.MIME_JSON)
	WriteError(resp, ErrorResponse{
		Code:    serviceErr.Code,
		Details: serviceErr.Message,
		Kind:    kind,
	})
}

func WriteError(resp *restful.Response, body ErrorResponse) {
	if body.Error == "" {
		body.Error = http.StatusText(body.Code)
	}
	resp.WriteHeaderAndEntity(body.Code, body)
}
