package definitions

import (
	"errors"
	"net/http"

	"github.com/caseforge/dossier/internal/authorization"
)

// Domain errors for definition operations.
var (
	ErrNotFound      = errors.New("definition not found")
	ErrDuplicate     = errors.New("definition version already exists")
	ErrInUse         = errors.New("definition is referenced by existing documents")
	ErrImmutable     = errors.New("definition is read-only")
	ErrSchemaInvalid = errors.New("schema is not a valid JSON Schema")
	ErrInvalidName   = errors.New("definition name must contain only lowercase letters, digits, and dashes")
)

// MapHTTPStatus converts domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInUse), errors.Is(err, ErrDuplicate), errors.Is(err, ErrImmutable):
		return http.StatusConflict
	case errors.Is(err, ErrSchemaInvalid), errors.Is(err, ErrInvalidName):
		return http.StatusBadRequest
	case errors.Is(err, authorization.ErrDenied):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
