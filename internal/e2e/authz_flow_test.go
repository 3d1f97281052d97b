package e2e

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/shoebox/backoffice/internal/app"
	"github.com/shoebox/backoffice/internal/audit"
	"github.com/shoebox/backoffice/internal/auth"
	"github.com/shoebox/backoffice/internal/catalog"
	"github.com/shoebox/backoffice/internal/guard"
	"github.com/shoebox/backoffice/internal/observability"
	"github.com/shoebox/backoffice/internal/roles"
	"github.com/shoebox/backoffice/internal/shared"
	"github.com/shoebox/backoffice/internal/users"
	_ "github.com/shoebox/backoffice/internal/testing/guard"
)

// fixture assembles the full HTTP surface on in-process stores: memory
// repositories behind the services and miniredis behind sessions, CSRF and
// the login limiter.
type fixture struct {
	router http.Handler
}

type clientSession struct {
	cookie *http.Cookie
	csrf   string
}

func readOnlyPermissions() []catalog.Permission {
	var out []catalog.Permission
	for _, p := range catalog.Seed() {
		if p.Action == catalog.ActionRead {
			out = append(out, p)
		}
	}
	return out
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &app.Config{AppEnv: "test", AppRequestTimeout: 30 * time.Second}

	sessionManager := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	csrfManager := shared.NewCSRFManager("csrfsecret")
	metrics := observability.NewMetrics()
	guardMW := guard.Middleware{Logger: logger, Metrics: metrics}

	auditService := audit.NewService(audit.NewMemoryRepository(), logger)

	catalogService := catalog.NewService(catalog.NewMemoryRepository(catalog.Seed()))

	now := time.Now().UTC()
	adminRole := roles.Role{ID: 1, Name: "Administrator", Description: "Full access", Permissions: catalog.Seed(), IsDefault: true, CreatedAt: now, UpdatedAt: now, CreatedBy: "system"}
	staffRole := roles.Role{ID: 2, Name: "Staff", Description: "Read only", Permissions: readOnlyPermissions(), IsDefault: true, CreatedAt: now, UpdatedAt: now, CreatedBy: "system"}
	rolesService := roles.NewService(roles.NewMemoryRepository([]roles.Role{adminRole, staffRole}), catalogService, nil)

	seedUsers := []users.User{
		{ID: 1, FirstName: "Ava", LastName: "Admin", Email: "admin@shoebox.com", Status: users.StatusActive, Role: adminRole, CreatedAt: now, UpdatedAt: now, CreatedBy: "system"},
		{ID: 2, FirstName: "Sam", LastName: "Staff", Email: "staff@shoebox.com", Status: users.StatusActive, Role: staffRole, CreatedAt: now, UpdatedAt: now, CreatedBy: "system"},
	}
	usersService := users.NewService(users.NewMemoryRepository(seedUsers), rolesService)
	rolesService.BindAssignments(usersService)

	authService := auth.NewService(
		auth.NewCredentialTable(auth.DemoCredentials()),
		usersService,
		auth.NewLoginLimiter(redisClient, 5, time.Minute),
		nil,
		logger,
	)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		CSRFManager:        csrfManager,
		AuthHandler:        auth.NewHandler(logger, authService, sessionManager, csrfManager, auditService, guardMW),
		RolesHandler:       roles.NewHandler(logger, rolesService, auditService, guardMW),
		UsersHandler:       users.NewHandler(logger, usersService, auditService, guardMW),
		PermissionsHandler: catalog.NewHandler(logger, catalogService, guardMW),
		AuditHandler:       audit.NewHandler(logger, auditService, guardMW),
		Metrics:            metrics,
	})

	return &fixture{router: router}
}

func (f *fixture) request(t *testing.T, method, target, body string, sess *clientSession) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if sess != nil {
		if sess.cookie != nil {
			req.AddCookie(sess.cookie)
		}
		if sess.csrf != "" {
			req.Header.Set(shared.CSRFHeader, sess.csrf)
		}
	}
	res := httptest.NewRecorder()
	f.router.ServeHTTP(res, req)
	return res
}

func (f *fixture) login(t *testing.T, email, password string) *clientSession {
	t.Helper()
	res := f.request(t, http.MethodPost, "/auth/login", `{"email":"`+email+`","password":"`+password+`"}`, nil)
	if res.Code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d: %s", email, res.Code, res.Body.String())
	}
	var payload struct {
		CSRFToken string `json:"csrf_token"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	sess := &clientSession{csrf: payload.CSRFToken}
	for _, c := range res.Result().Cookies() {
		if c.Name == "test_session" && c.Value != "" {
			sess.cookie = c
		}
	}
	if sess.cookie == nil {
		t.Fatal("login did not set a session cookie")
	}
	return sess
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)

	res := f.request(t, http.MethodGet, "/healthz", "", nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
}

func TestAdminRoleLifecycle(t *testing.T) {
	f := newFixture(t)
	admin := f.login(t, "admin@shoebox.com", "admin123")

	createBody := `{"name":"Support","description":"Ticket desk","permission_ids":[2,6]}`
	created := f.request(t, http.MethodPost, "/roles", createBody, admin)
	if created.Code != http.StatusCreated {
		t.Fatalf("create role: expected 201, got %d: %s", created.Code, created.Body.String())
	}
	var role struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(created.Body).Decode(&role); err != nil {
		t.Fatalf("decode created role: %v", err)
	}
	if role.Name != "Support" {
		t.Fatalf("unexpected role name %q", role.Name)
	}

	list := f.request(t, http.MethodGet, "/roles", "", admin)
	if list.Code != http.StatusOK {
		t.Fatalf("list roles: expected 200, got %d", list.Code)
	}
	if !strings.Contains(list.Body.String(), "Support") {
		t.Fatalf("created role missing from listing: %s", list.Body.String())
	}

	deleted := f.request(t, http.MethodDelete, "/roles/"+strconv.FormatInt(role.ID, 10), "", admin)
	if deleted.Code != http.StatusNoContent {
		t.Fatalf("delete role: expected 204, got %d: %s", deleted.Code, deleted.Body.String())
	}
}

func TestStaffIsReadOnly(t *testing.T) {
	f := newFixture(t)
	staff := f.login(t, "staff@shoebox.com", "staff123")

	if res := f.request(t, http.MethodGet, "/roles", "", staff); res.Code != http.StatusOK {
		t.Fatalf("staff list roles: expected 200, got %d", res.Code)
	}
	if res := f.request(t, http.MethodGet, "/users", "", staff); res.Code != http.StatusOK {
		t.Fatalf("staff list users: expected 200, got %d", res.Code)
	}

	res := f.request(t, http.MethodPost, "/roles", `{"name":"Rogue","permission_ids":[2]}`, staff)
	if res.Code != http.StatusForbidden {
		t.Fatalf("staff create role: expected 403, got %d", res.Code)
	}

	res = f.request(t, http.MethodDelete, "/users/1", "", staff)
	if res.Code != http.StatusForbidden {
		t.Fatalf("staff delete user: expected 403, got %d", res.Code)
	}
}

func TestAnonymousIsDenied(t *testing.T) {
	f := newFixture(t)

	if res := f.request(t, http.MethodGet, "/roles", "", nil); res.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous list roles: expected 401, got %d", res.Code)
	}
	if res := f.request(t, http.MethodGet, "/auth/me", "", nil); res.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous me: expected 401, got %d", res.Code)
	}
}

func TestMutationsRequireCSRFToken(t *testing.T) {
	f := newFixture(t)
	admin := f.login(t, "admin@shoebox.com", "admin123")

	bare := &clientSession{cookie: admin.cookie}
	res := f.request(t, http.MethodPost, "/roles", `{"name":"NoToken","permission_ids":[2]}`, bare)
	if res.Code != http.StatusForbidden {
		t.Fatalf("mutation without csrf token: expected 403, got %d", res.Code)
	}

	withToken := f.request(t, http.MethodPost, "/roles", `{"name":"WithToken","permission_ids":[2]}`, admin)
	if withToken.Code != http.StatusCreated {
		t.Fatalf("mutation with csrf token: expected 201, got %d: %s", withToken.Code, withToken.Body.String())
	}
}

func TestUserLifecycleAndAuditTrail(t *testing.T) {
	f := newFixture(t)
	admin := f.login(t, "admin@shoebox.com", "admin123")

	created := f.request(t, http.MethodPost, "/users", `{"first_name":"Nina","last_name":"New","email":"nina@shoebox.com","role_id":2}`, admin)
	if created.Code != http.StatusCreated {
		t.Fatalf("create user: expected 201, got %d: %s", created.Code, created.Body.String())
	}
	var user struct {
		ID   int64 `json:"id"`
		Role struct {
			Name string `json:"name"`
		} `json:"role"`
	}
	if err := json.NewDecoder(created.Body).Decode(&user); err != nil {
		t.Fatalf("decode created user: %v", err)
	}
	if user.Role.Name != "Staff" {
		t.Fatalf("expected embedded role snapshot, got %q", user.Role.Name)
	}

	toggled := f.request(t, http.MethodPost, "/users/"+strconv.FormatInt(user.ID, 10)+"/status/toggle", "{}", admin)
	if toggled.Code != http.StatusOK {
		t.Fatalf("toggle status: expected 200, got %d: %s", toggled.Code, toggled.Body.String())
	}

	timeline := f.request(t, http.MethodGet, "/audit", "", admin)
	if timeline.Code != http.StatusOK {
		t.Fatalf("audit timeline: expected 200, got %d", timeline.Code)
	}
	body := timeline.Body.String()
	for _, action := range []string{"login", "create"} {
		if !strings.Contains(body, `"`+action+`"`) {
			t.Fatalf("audit timeline missing %q action: %s", action, body)
		}
	}
}

func TestMetricsEndpointCountsRequests(t *testing.T) {
	f := newFixture(t)

	_ = f.request(t, http.MethodGet, "/healthz", "", nil)

	res := f.request(t, http.MethodGet, "/metrics", "", nil)
	if res.Code != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "backoffice_http_requests_total") {
		t.Fatalf("metrics output missing request counter: %s", res.Body.String())
	}
}

