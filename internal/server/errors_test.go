package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/paxto2002/blogtalkhees/internal/pipeline"
)

func TestStatusForKind(t *testing.T) {
	tests := map[pipeline.Kind]int{
		pipeline.KindInvalidURL:          http.StatusBadRequest,
		pipeline.KindInsufficientContent: http.StatusUnprocessableEntity,
		pipeline.KindFetchExhausted:      http.StatusBadGateway,
		pipeline.KindTimeout:             http.StatusGatewayTimeout,
		pipeline.KindLexiconUnavailable:  http.StatusServiceUnavailable,
		pipeline.KindInternal:            http.StatusInternalServerError,
	}
	for kind, want := range tests {
		assert.Equal(t, want, StatusForKind(kind), string(kind))
	}
}

func TestHTTPStatus_Validation(t *testing.T) {
	status, payload := HTTPStatus(&ErrValidation{Field: "body", Message: "invalid JSON"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_request", payload.Error)
	assert.Contains(t, payload.Message, "invalid JSON")

	status, payload = HTTPStatus(&ErrValidation{Field: "url", Message: "required"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_url", payload.Error)
	assert.Equal(t, pipeline.KindInvalidURL.Message(), payload.Message)
}

func TestErrValidation_Error(t *testing.T) {
	err := &ErrValidation{Field: "url", Message: "required"}
	assert.Equal(t, "validation error: url - required", err.Error())
}
