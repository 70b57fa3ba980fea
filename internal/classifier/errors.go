package classifier

import (
	"errors"
	"net/http"
)

// Domain errors for classification operations.
var (
	ErrInvalidInput  = errors.New("term_name is required")
	ErrInvalidMethod = errors.New("method must be embedding, llm, or agent")
)

// MapHTTPStatus maps classification domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrInvalidMethod) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
