// Package guard wires the authz predicates into chi middleware.
package guard

import (
	"log/slog"
	"net/http"

	"github.com/shoebox/backoffice/internal/authz"
	"github.com/shoebox/backoffice/internal/observability"
	"github.com/shoebox/backoffice/internal/platform/httpx"
	"github.com/shoebox/backoffice/internal/shared"
)

// Middleware holds guard dependencies for HTTP handlers.
type Middleware struct {
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// RequireAuthenticated rejects anonymous requests with 401, remembering the
// requested path so a later login can hand the caller back. The remembered
// target is returned verbatim; it is not revalidated against the new
// identity's permissions.
func (m Middleware) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil || !sess.IsAuthenticated() {
			if sess != nil && r.Method == http.MethodGet {
				sess.Set(shared.LoginNextKey, r.URL.RequestURI())
			}
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAny ensures the identity holds at least one of the named
// permissions. Anonymous or grantless identities are denied.
func (m Middleware) RequireAny(names ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := m.identity(r)
			if identity == nil {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			if !authz.HasAnyPermission(identity, names) {
				m.deny(w, r, identity)
				return
			}
			m.Metrics.RecordAuthzDecision(true)
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAll ensures the identity holds every named permission.
func (m Middleware) RequireAll(names ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := m.identity(r)
			if identity == nil {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			if !authz.HasAllPermissions(identity, names) {
				m.deny(w, r, identity)
				return
			}
			m.Metrics.RecordAuthzDecision(true)
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAccess ensures the identity may perform action within module,
// honouring manage as a module-scoped wildcard.
func (m Middleware) RequireAccess(module, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := m.identity(r)
			if identity == nil {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			if !authz.CanAccess(identity, module, action) {
				m.deny(w, r, identity)
				return
			}
			m.Metrics.RecordAuthzDecision(true)
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) identity(r *http.Request) *authz.Identity {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return nil
	}
	return sess.Identity()
}

func (m Middleware) deny(w http.ResponseWriter, r *http.Request, identity *authz.Identity) {
	m.Metrics.RecordAuthzDecision(false)
	if m.Logger != nil {
		m.Logger.Warn("access denied",
			slog.String("path", r.URL.Path),
			slog.String("email", identity.Email))
	}
	httpx.RespondError(w, httpx.ErrForbidden)
}
