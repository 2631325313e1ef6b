package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

type Kind string

const (
	// KindUnavailable covers timeouts, rate limits, 5xx and network failures.
	// The caller may retry.
	KindUnavailable Kind = "upstream_unavailable"
	// KindRejected covers auth failures and invalid requests. Retrying the
	// same request will not help.
	KindRejected Kind = "upstream_rejected"
)

// UpstreamError is returned by every LLMClient implementation.
type UpstreamError struct {
	Provider   string
	Kind       Kind
	StatusCode int
	Timeout    bool
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s %s (status %d): %v", e.Provider, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// NewUpstreamError classifies err using the HTTP status reported by the
// provider SDK (0 when unknown).
func NewUpstreamError(provider string, statusCode int, err error) *UpstreamError {
	ue := &UpstreamError{
		Provider:   provider,
		Kind:       KindUnavailable,
		StatusCode: statusCode,
		Err:        err,
	}

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		ue.Timeout = true
	case statusCode == http.StatusRequestTimeout || statusCode == http.StatusGatewayTimeout:
		ue.Timeout = true
	case statusCode == http.StatusTooManyRequests:
	case statusCode >= 500:
	case statusCode >= 400:
		ue.Kind = KindRejected
	case errors.As(err, &netErr) && netErr.Timeout():
		ue.Timeout = true
	}

	return ue
}

// NewRejectedError is used when the provider answered but produced nothing usable.
func NewRejectedError(provider string, err error) *UpstreamError {
	return &UpstreamError{
		Provider: provider,
		Kind:     KindRejected,
		Err:      err,
	}
}

// AsUpstreamError extracts an *UpstreamError from the chain.
func AsUpstreamError(err error) (*UpstreamError, bool) {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}
