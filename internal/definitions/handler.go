package definitions

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/caseforge/dossier/pkg/handlers"
	"github.com/caseforge/dossier/pkg/pagination"
	"github.com/caseforge/dossier/pkg/routes"
)

// Handler provides HTTP endpoints for definition operations.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// NewHandler creates a definition handler with the specified configuration.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "definitions"),
		pagination: pagination,
	}
}

// Routes returns the definition endpoint route group.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/definitions",
		Description: "Document definition deployment and versioning",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "POST", Pattern: "", Handler: h.Deploy},
			{Method: "GET", Pattern: "/{name}", Handler: h.FindLatest},
			{Method: "GET", Pattern: "/{name}/versions", Handler: h.ListVersions},
			{Method: "GET", Pattern: "/{name}/versions/{version}", Handler: h.FindVersion},
			{Method: "DELETE", Pattern: "/{name}", Handler: h.Remove},
		},
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)

	result, err := h.sys.List(r.Context(), page)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) Deploy(w http.ResponseWriter, r *http.Request) {
	var cmd DeployCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := h.sys.Deploy(r.Context(), handlers.Principal(r), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	status := http.StatusCreated
	if result.Status == StatusExisting {
		status = http.StatusOK
	}
	handlers.RespondJSON(w, status, result)
}

func (h *Handler) FindLatest(w http.ResponseWriter, r *http.Request) {
	def, err := h.sys.FindLatest(r.Context(), r.PathValue("name"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, def)
}

func (h *Handler) ListVersions(w http.ResponseWriter, r *http.Request) {
	versions, err := h.sys.ListVersions(r.Context(), r.PathValue("name"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, versions)
}

func (h *Handler) FindVersion(w http.ResponseWriter, r *http.Request) {
	version, err := strconv.ParseInt(r.PathValue("version"), 10, 64)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	def, err := h.sys.FindByNameAndVersion(r.Context(), r.PathValue("name"), version)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, def)
}

func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	if err := h.sys.Remove(r.Context(), handlers.Principal(r), r.PathValue("name")); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
