package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/dom/worknest/internal/domain"
	"github.com/dom/worknest/internal/service"
	"github.com/dom/worknest/internal/ticketquery"
	"github.com/google/uuid"
)

type ProjectHandler struct {
	projectService *service.ProjectService
}

func NewProjectHandler(projectService *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

type CreateProjectRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
}

// UpdateProjectRequest distinguishes an omitted description or color from an
// explicit null, which clears it.
type UpdateProjectRequest struct {
	Name        *string                 `json:"name"`
	Description domain.Optional[string] `json:"description"`
	Color       domain.Optional[string] `json:"color"`
	Archived    *bool                   `json:"archived"`
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, err := caller(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	var req CreateProjectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	project, err := h.projectService.Create(r.Context(), service.CreateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		CreatedBy:   identity.UserID,
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusCreated, project)
}

// List accepts include_archived=true and created_by=<id|me>.
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, err := caller(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	query := r.URL.Query()
	var opts domain.ProjectListOptions

	if v := strings.TrimSpace(query.Get("include_archived")); v != "" {
		include, err := strconv.ParseBool(v)
		if err != nil {
			WriteError(w, r, domain.Invalid("include_archived", "must be true or false"))
			return
		}
		opts.IncludeArchived = include
	}
	if v := strings.TrimSpace(query.Get("created_by")); v != "" {
		id, err := ticketquery.ResolveUserRef(v, identity.UserID)
		if err != nil {
			WriteError(w, r, domain.Invalid("created_by", "must be a valid id or \"me\""))
			return
		}
		opts.CreatedBy = &id
	}

	projects, err := h.projectService.List(r.Context(), opts)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, projects)
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}

	project, err := h.projectService.Get(r.Context(), id)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}

	var req UpdateProjectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}

	project, err := h.projectService.Update(r.Context(), id, domain.ProjectUpdate{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		Archived:    req.Archived,
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) Archive(w http.ResponseWriter, r *http.Request) {
	h.setArchived(w, r, h.projectService.Archive)
}

func (h *ProjectHandler) Unarchive(w http.ResponseWriter, r *http.Request) {
	h.setArchived(w, r, h.projectService.Unarchive)
}

func (h *ProjectHandler) setArchived(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, id uuid.UUID) (*domain.Project, error)) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}

	project, err := apply(r.Context(), id)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, r, err)
		return
	}

	if err := h.projectService.Delete(r.Context(), id); err != nil {
		WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
