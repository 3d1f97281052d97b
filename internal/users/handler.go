package users

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/shoebox/backoffice/internal/audit"
	"github.com/shoebox/backoffice/internal/catalog"
	"github.com/shoebox/backoffice/internal/guard"
	"github.com/shoebox/backoffice/internal/platform/httpx"
	"github.com/shoebox/backoffice/internal/shared"
)

// Handler manages user directory endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	auditor   *audit.Service
	guard     guard.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, auditor *audit.Service, guard guard.Middleware) *Handler {
	return &Handler{logger: logger, service: service, auditor: auditor, guard: guard, validator: validator.New()}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAccess(catalog.ModuleUsers, string(catalog.ActionRead)))
		r.Get("/", h.list)
		r.Get("/{id}", h.show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAccess(catalog.ModuleUsers, string(catalog.ActionCreate)))
		r.Post("/", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAccess(catalog.ModuleUsers, string(catalog.ActionUpdate)))
		r.Put("/{id}", h.update)
		r.Post("/{id}/status", h.setStatus)
		r.Post("/{id}/status/toggle", h.toggleStatus)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAccess(catalog.ModuleUsers, string(catalog.ActionDelete)))
		r.Delete("/{id}", h.delete)
	})
}

type createUserForm struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required,contains=@"`
	Phone     string `json:"phone"`
	Avatar    string `json:"avatar"`
	RoleID    int64  `json:"role_id" validate:"required,gt=0"`
}

type updateUserForm struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	Avatar    *string `json:"avatar"`
	Status    *Status `json:"status"`
	RoleID    *int64  `json:"role_id"`
}

type statusForm struct {
	Status Status `json:"status" validate:"required"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	filters := shared.ListFilters{
		Page:    page,
		PerPage: perPage,
		Search:  r.URL.Query().Get("search"),
		SortBy:  r.URL.Query().Get("sort"),
		SortDir: r.URL.Query().Get("dir"),
	}
	items, paging, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list users failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": items, "pagination": paging})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var form createUserForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", validationDetail(err))
		return
	}

	user, err := h.service.Create(r.Context(), CreateUserInput{
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Email:     form.Email,
		Phone:     form.Phone,
		Avatar:    form.Avatar,
		RoleID:    form.RoleID,
		CreatedBy: h.actor(r),
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.auditor.Record(r.Context(), audit.Entry{
		Actor:    h.actor(r),
		Action:   audit.ActionCreate,
		Entity:   audit.EntityUser,
		EntityID: strconv.FormatInt(user.ID, 10),
		Meta:     map[string]any{"email": user.Email, "role": user.Role.Name},
	})
	httpx.JSON(w, http.StatusCreated, user)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var form updateUserForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	user, err := h.service.Update(r.Context(), id, UpdateUserInput{
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Email:     form.Email,
		Phone:     form.Phone,
		Avatar:    form.Avatar,
		Status:    form.Status,
		RoleID:    form.RoleID,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.auditor.Record(r.Context(), audit.Entry{
		Actor:    h.actor(r),
		Action:   audit.ActionUpdate,
		Entity:   audit.EntityUser,
		EntityID: strconv.FormatInt(user.ID, 10),
		Meta:     map[string]any{"email": user.Email},
	})
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var form statusForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	user, err := h.service.SetStatus(r.Context(), id, form.Status)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.recordStatusChange(r, user)
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) toggleStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	user, err := h.service.ToggleStatus(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.recordStatusChange(r, user)
	httpx.JSON(w, http.StatusOK, user)
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
		Entity:   audit.EntityUser,
		EntityID: strconv.FormatInt(id, 10),
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) recordStatusChange(r *http.Request, user User) {
	h.auditor.Record(r.Context(), audit.Entry{
		Actor:    h.actor(r),
		Action:   audit.ActionStatusChange,
		Entity:   audit.EntityUser,
		EntityID: strconv.FormatInt(user.ID, 10),
		Meta:     map[string]any{"status": user.Status},
	})
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
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "user id must be a positive integer")
		return 0, false
	}
	return id, true
}

func validationDetail(err error) string {
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		return errs[0].Error()
	}
	return err.Error()
}
