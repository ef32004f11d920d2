package files

import (
	"errors"
	"net/http"

	"github.com/caseforge/dossier/internal/authorization"
)

// Domain errors surfaced by the file store.
var (
	ErrNotFound   = errors.New("file not found")
	ErrInUse      = errors.New("file is referenced by documents")
	ErrTooLarge   = errors.New("file exceeds the upload size limit")
	ErrEmpty      = errors.New("file has no content")
	ErrInvalidKey = errors.New("invalid blob key")
)

// MapHTTPStatus translates file errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInUse):
		return http.StatusConflict
	case errors.Is(err, ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrEmpty):
		return http.StatusBadRequest
	case errors.Is(err, authorization.ErrDenied):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
