package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/shoebox/backoffice/internal/audit"
	"github.com/shoebox/backoffice/internal/guard"
	"github.com/shoebox/backoffice/internal/platform/httpx"
	"github.com/shoebox/backoffice/internal/shared"
)

// Handler manages sign in, sign out and the current identity endpoint.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	sessions *shared.SessionManager
	csrf     *shared.CSRFManager
	auditor  *audit.Service
	guard    guard.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager, csrf *shared.CSRFManager, auditor *audit.Service, guard guard.Middleware) *Handler {
	return &Handler{logger: logger, service: service, sessions: sessions, csrf: csrf, auditor: auditor, guard: guard}
}

// MountRoutes registers authentication routes. Login carries a tighter
// per-IP rate limit than the global middleware.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(httprate.Limit(10, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
		r.Post("/login", h.login)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAuthenticated)
		r.Post("/logout", h.logout)
		r.Get("/me", h.me)
	})
}

type loginForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var form loginForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}

	identity, err := h.service.Authenticate(r.Context(), form.Email, form.Password)
	if err != nil {
		h.logger.Info("login rejected", slog.String("email", form.Email), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	redirectTo := sess.Get(shared.LoginNextKey)
	if redirectTo == "" {
		redirectTo = "/"
	}
	sess.Delete(shared.LoginNextKey)
	sess.SetIdentity(identity)

	token, err := h.csrf.EnsureToken(r.Context(), sess)
	if err != nil {
		h.logger.Error("csrf token issue failed", slog.Any("error", err))
	}

	h.service.RegisterSession(r.Context(), sess.ID, identity.Email, h.sessions.TTL(), r.RemoteAddr, r.UserAgent())
	h.auditor.Record(r.Context(), audit.Entry{
		Actor:    identity.Email,
		Action:   audit.ActionLogin,
		Entity:   audit.EntityUser,
		EntityID: identity.Email,
	})

	httpx.JSON(w, http.StatusOK, map[string]any{
		"identity":    identity,
		"redirect_to": redirectTo,
		"csrf_token":  token,
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if identity := sess.Identity(); identity != nil {
		h.auditor.Record(r.Context(), audit.Entry{
			Actor:    identity.Email,
			Action:   audit.ActionLogout,
			Entity:   audit.EntityUser,
			EntityID: identity.Email,
		})
	}
	h.service.RemoveSession(r.Context(), sess.ID)
	h.sessions.Destroy(sess)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.Identity() == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"identity": sess.Identity()})
}
