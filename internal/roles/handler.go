package roles

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/shoebox/backoffice/internal/audit"
	"github.com/shoebox/backoffice/internal/catalog"
	"github.com/shoebox/backoffice/internal/guard"
	"github.com/shoebox/backoffice/internal/platform/httpx"
	"github.com/shoebox/backoffice/internal/shared"
)

// Handler manages role registry endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	auditor *audit.Service
	guard   guard.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, auditor *audit.Service, guard guard.Middleware) *Handler {
	return &Handler{logger: logger, service: service, auditor: auditor, guard: guard}
}

// MountRoutes registers role routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAccess(catalog.ModuleRoles, string(catalog.ActionRead)))
		r.Get("/", h.list)
		r.Get("/{id}", h.show)
		r.Get("/{id}/selection", h.selection)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAccess(catalog.ModuleRoles, string(catalog.ActionCreate)))
		r.Post("/", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAccess(catalog.ModuleRoles, string(catalog.ActionUpdate)))
		r.Put("/{id}", h.update)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAccess(catalog.ModuleRoles, string(catalog.ActionDelete)))
		r.Delete("/{id}", h.delete)
	})
}

type roleForm struct {
	Name          *string  `json:"name"`
	Description   *string  `json:"description"`
	PermissionIDs *[]int64 `json:"permission_ids"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filters := listFiltersFromQuery(r)
	items, paging, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list roles failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": items, "pagination": paging})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	role, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, role)
}

func (h *Handler) selection(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	groups, err := h.service.Selection(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"modules": groups})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var form roleForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	input := CreateRoleInput{CreatedBy: h.actor(r)}
	if form.Name != nil {
		input.Name = *form.Name
	}
	if form.Description != nil {
		input.Description = *form.Description
	}
	if form.PermissionIDs != nil {
		input.PermissionIDs = *form.PermissionIDs
	}

	role, err := h.service.Create(r.Context(), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.auditor.Record(r.Context(), audit.Entry{
		Actor:    h.actor(r),
		Action:   audit.ActionCreate,
		Entity:   audit.EntityRole,
		EntityID: strconv.FormatInt(role.ID, 10),
		Meta:     map[string]any{"name": role.Name},
	})
	httpx.JSON(w, http.StatusCreated, role)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var form roleForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	role, err := h.service.Update(r.Context(), id, UpdateRoleInput{
		Name:          form.Name,
		Description:   form.Description,
		PermissionIDs: form.PermissionIDs,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.auditor.Record(r.Context(), audit.Entry{
		Actor:    h.actor(r),
		Action:   audit.ActionUpdate,
		Entity:   audit.EntityRole,
		EntityID: strconv.FormatInt(role.ID, 10),
		Meta:     map[string]any{"name": role.Name},
	})
	httpx.JSON(w, http.StatusOK, role)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.auditor.Record(r.Context(), audit.Entry{
		Actor:    h.actor(r),
		Action:   audit.ActionDelete,
		Entity:   audit.EntityRole,
		EntityID: strconv.FormatInt(id, 10),
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) actor(r *http.Request) string {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.Identity() == nil {
		return ""
	}
	return sess.Identity().Email
}

func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "role id must be a positive integer")
		return 0, false
	}
	return id, true
}

func listFiltersFromQuery(r *http.Request) shared.ListFilters {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	return shared.ListFilters{
		Page:    page,
		PerPage: perPage,
		Search:  r.URL.Query().Get("search"),
		SortBy:  r.URL.Query().Get("sort"),
		SortDir: r.URL.Query().Get("dir"),
	}
}
