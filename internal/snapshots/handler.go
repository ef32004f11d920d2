package snapshots

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/caseforge/dossier/pkg/handlers"
	"github.com/caseforge/dossier/pkg/pagination"
	"github.com/caseforge/dossier/pkg/routes"
	"github.com/google/uuid"
)

// Handler provides HTTP endpoints for snapshot operations.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// NewHandler creates a snapshot handler with the specified configuration.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "snapshots"),
		pagination: pagination,
	}
}

// Routes returns the snapshot endpoint route group.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/snapshots",
		Description: "Point-in-time document state ledger",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.Query},
			{Method: "POST", Pattern: "", Handler: h.Capture},
			{Method: "GET", Pattern: "/{id}", Handler: h.FindByID},
		},
	}
}

func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)

	filter, err := filterFromQuery(r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := h.sys.Query(r.Context(), handlers.Principal(r), filter, page)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) Capture(w http.ResponseWriter, r *http.Request) {
	var cmd CaptureCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	snap, err := h.sys.Capture(r.Context(), handlers.Principal(r), cmd.DocumentID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, snap)
}

func (h *Handler) FindByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	snap, err := h.sys.FindByID(r.Context(), handlers.Principal(r), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, snap)
}

func filterFromQuery(r *http.Request) (QueryFilter, error) {
	values := r.URL.Query()
	filter := QueryFilter{DefinitionName: values.Get("definition_name")}

	if raw := values.Get("document_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, err
		}
		filter.DocumentID = &id
	}
	if raw := values.Get("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, err
		}
		filter.From = &from
	}
	if raw := values.Get("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, err
		}
		filter.To = &to
	}
	return filter, nil
}
