package documents

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/caseforge/dossier/pkg/handlers"
	"github.com/caseforge/dossier/pkg/pagination"
	"github.com/caseforge/dossier/pkg/routes"
	"github.com/google/uuid"
)

// Handler provides HTTP endpoints for document operations.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// NewHandler creates a document handler with the specified configuration.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "documents"),
		pagination: pagination,
	}
}

// Routes returns the document endpoint route group.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/documents",
		Description: "Document storage, modification, and audit trail",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "POST", Pattern: "", Handler: h.Create},
			{Method: "GET", Pattern: "/{id}", Handler: h.FindByID},
			{Method: "PUT", Pattern: "/{id}/content", Handler: h.Modify},
			{Method: "PUT", Pattern: "/{id}/assignee", Handler: h.SetAssignee},
			{Method: "DELETE", Pattern: "/{id}/assignee", Handler: h.Unassign},
			{Method: "PUT", Pattern: "/{id}/files/{fileId}", Handler: h.AddRelatedFile},
			{Method: "DELETE", Pattern: "/{id}/files/{fileId}", Handler: h.RemoveRelatedFile},
			{Method: "GET", Pattern: "/{id}/audit", Handler: h.AuditLog},
		},
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)

	filter := ListFilter{
		DefinitionName: r.URL.Query().Get("definition_name"),
		CreatedBy:      r.URL.Query().Get("created_by"),
	}
	if assignee := r.URL.Query().Get("assignee_id"); assignee != "" {
		filter.AssigneeID = &assignee
	}

	result, err := h.sys.List(r.Context(), handlers.Principal(r), filter, page)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var cmd CreateCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	doc, err := h.sys.Create(r.Context(), handlers.Principal(r), cmd)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, doc)
}

func (h *Handler) FindByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	doc, err := h.sys.FindByID(r.Context(), handlers.Principal(r), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, doc)
}

func (h *Handler) Modify(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	content, err := io.ReadAll(r.Body)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	doc, err := h.sys.Modify(r.Context(), handlers.Principal(r), id, content)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, doc)
}

func (h *Handler) SetAssignee(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	var cmd AssignCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	doc, err := h.sys.SetAssignee(r.Context(), handlers.Principal(r), id, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, doc)
}

func (h *Handler) Unassign(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	doc, err := h.sys.Unassign(r.Context(), handlers.Principal(r), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, doc)
}

func (h *Handler) AddRelatedFile(w http.ResponseWriter, r *http.Request) {
	id, fileID, err := pathIDs(r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	doc, err := h.sys.AddRelatedFile(r.Context(), handlers.Principal(r), id, fileID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, doc)
}

func (h *Handler) RemoveRelatedFile(w http.ResponseWriter, r *http.Request) {
	id, fileID, err := pathIDs(r)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	doc, err := h.sys.RemoveRelatedFile(r.Context(), handlers.Principal(r), id, fileID)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, doc)
}

func (h *Handler) AuditLog(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	entries, err := h.sys.AuditLog(r.Context(), handlers.Principal(r), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	if entries == nil {
		entries = []AuditEntry{}
	}
	handlers.RespondJSON(w, http.StatusOK, entries)
}

// respondDomainError includes the violation list in the response body when
// validation rejected the content.
func (h *Handler) respondDomainError(w http.ResponseWriter, err error) {
	var validation *ValidationError
	if errors.As(err, &validation) {
		handlers.RespondProblem(w, h.logger, http.StatusBadRequest, err, validation.Violations)
		return
	}
	handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
}

func pathIDs(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	fileID, err := uuid.Parse(r.PathValue("fileId"))
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return id, fileID, nil
}
