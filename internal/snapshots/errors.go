package snapshots

import (
	"errors"
	"net/http"

	"github.com/caseforge/dossier/internal/authorization"
)

// Domain errors surfaced by the snapshot ledger.
var (
	ErrNotFound         = errors.New("snapshot not found")
	ErrDocumentNotFound = errors.New("snapshot source document not found")
)

// MapHTTPStatus translates snapshot errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDocumentNotFound):
		return http.StatusNotFound
	case errors.Is(err, authorization.ErrDenied):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
