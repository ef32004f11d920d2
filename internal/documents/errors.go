package documents

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/caseforge/dossier/internal/authorization"
)

// Domain errors surfaced by the document store.
var (
	ErrNotFound           = errors.New("document not found")
	ErrDefinitionNotFound = errors.New("document definition not found")
	ErrDuplicate          = errors.New("document already exists")
)

// Violation locates one schema validation failure inside document content.
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError reports why document content was rejected by its schema.
// The document is never stored or changed when validation fails.
type ValidationError struct {
	Violations []Violation `json:"violations"`
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 1 {
		return fmt.Sprintf("content invalid: %s at %s", e.Violations[0].Message, e.Violations[0].Path)
	}
	return fmt.Sprintf("content invalid: %d schema violations", len(e.Violations))
}

// MapHTTPStatus translates document errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	var validation *ValidationError

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDefinitionNotFound):
		return http.StatusBadRequest
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.Is(err, authorization.ErrDenied):
		return http.StatusForbidden
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
