package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/paxto2002/blogtalkhees/internal/pipeline"
)

// Error codes for failures outside the pipeline.
const (
	codeInvalidRequest = "invalid_request"
	codeNotFound       = "not_found"
	codeUnavailable    = "storage_unavailable"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrorPayload is the JSON body of every error response.
type ErrorPayload struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// StatusForKind maps a pipeline failure kind to its HTTP status.
func StatusForKind(kind pipeline.Kind) int {
	switch kind {
	case pipeline.KindInvalidURL:
		return http.StatusBadRequest
	case pipeline.KindInsufficientContent:
		return http.StatusUnprocessableEntity
	case pipeline.KindFetchExhausted:
		return http.StatusBadGateway
	case pipeline.KindTimeout:
		return http.StatusGatewayTimeout
	case pipeline.KindLexiconUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// HTTPStatus returns the status and payload for err.
func HTTPStatus(err error) (int, ErrorPayload) {
	var verr *ErrValidation
	if errors.As(err, &verr) {
		if verr.Field == "url" {
			kind := pipeline.KindInvalidURL
			return http.StatusBadRequest, ErrorPayload{Error: string(kind), Message: kind.Message()}
		}
		return http.StatusBadRequest, ErrorPayload{Error: codeInvalidRequest, Message: verr.Error()}
	}

	kind := pipeline.KindOf(err)
	return StatusForKind(kind), ErrorPayload{Error: string(kind), Message: kind.Message()}
}
