package catalog

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shoebox/backoffice/internal/guard"
	"github.com/shoebox/backoffice/internal/platform/httpx"
)

// Handler serves the read-only permission catalog.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   guard.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard guard.Middleware) *Handler {
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountRoutes registers catalog routes. The catalog is readable by anyone who
// may view roles, since the role form renders it.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAccess(ModuleRoles, string(ActionRead)))
		r.Get("/", h.list)
		r.Get("/grouped", h.grouped)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list permissions failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": perms})
}

func (h *Handler) grouped(w http.ResponseWriter, r *http.Request) {
	groups, err := h.service.Grouped(r.Context())
	if err != nil {
		h.logger.Error("group permissions failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"modules": groups})
}
