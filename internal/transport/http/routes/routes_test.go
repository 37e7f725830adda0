package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"

	"github.com/husnainn01/dealership-gateway/internal/core/domain"
	"github.com/husnainn01/dealership-gateway/internal/infra/config"
	"github.com/husnainn01/dealership-gateway/internal/infra/security"
	"github.com/husnainn01/dealership-gateway/internal/repository"
	memoryrepo "github.com/husnainn01/dealership-gateway/internal/repository/memory"
	"github.com/husnainn01/dealership-gateway/internal/transport/http/middleware"
	"github.com/husnainn01/dealership-gateway/internal/usecase"
)

type fakeAdminRepo struct {
	byEmail map[string]*domain.AdminAccount
}

func (f *fakeAdminRepo) GetByEmail(_ context.Context, email string) (*domain.AdminAccount, error) {
	if account, ok := f.byEmail[email]; ok {
		copied := *account
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeAdminRepo) GetByID(_ context.Context, id string) (*domain.AdminAccount, error) {
	for _, account := range f.byEmail {
		if account.ID == id {
			copied := *account
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeAdminRepo) Create(_ context.Context, account domain.AdminAccount) error {
	f.byEmail[account.Email] = &account
	return nil
}

func (f *fakeAdminRepo) Delete(_ context.Context, id string) error {
	for email, account := range f.byEmail {
		if account.ID == id {
			delete(f.byEmail, email)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeAdminRepo) TouchLastLogin(context.Context, string, time.Time) error { return nil }

type fakeCustomerRepo struct{}

func (fakeCustomerRepo) GetByEmail(context.Context, string) (*domain.CustomerAccount, error) {
	return nil, repository.ErrNotFound
}

func (fakeCustomerRepo) GetByID(context.Context, string) (*domain.CustomerAccount, error) {
	return nil, repository.ErrNotFound
}

func (fakeCustomerRepo) TouchLastLogin(context.Context, string, time.Time) error { return nil }

type fakeRoleRepo struct {
	bySlug map[string]domain.DynamicRole
	byID   map[string]domain.DynamicRole
}

func (f *fakeRoleRepo) List(context.Context) ([]domain.DynamicRole, error) {
	out := make([]domain.DynamicRole, 0, len(f.bySlug))
	for _, role := range f.bySlug {
		out = append(out, role)
	}
	return out, nil
}

func (f *fakeRoleRepo) GetByID(_ context.Context, id string) (*domain.DynamicRole, error) {
	if role, ok := f.byID[id]; ok {
		copied := role
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeRoleRepo) GetBySlug(_ context.Context, slug string) (*domain.DynamicRole, error) {
	if role, ok := f.bySlug[slug]; ok {
		copied := role
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeRoleRepo) Create(_ context.Context, role domain.DynamicRole) error {
	f.bySlug[role.Slug] = role
	f.byID[role.ID] = role
	return nil
}

func (f *fakeRoleRepo) Update(_ context.Context, role domain.DynamicRole) error {
	f.bySlug[role.Slug] = role
	f.byID[role.ID] = role
	return nil
}

func (f *fakeRoleRepo) Delete(_ context.Context, id string) error {
	if role, ok := f.byID[id]; ok {
		delete(f.bySlug, role.Slug)
		delete(f.byID, id)
		return nil
	}
	return repository.ErrNotFound
}

type gatewayEnv struct {
	router *gin.Engine
	now    *time.Time
	admins *fakeAdminRepo
}

func newGatewayEnv(t *testing.T) *gatewayEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.AppConfig{
		App: config.AppSettings{Name: "dealership-gateway", Env: "test"},
		Session: config.SessionSettings{
			SigningKey:       "current-secret",
			LegacyKeys:       []string{"legacy-secret"},
			Issuer:           "test",
			AdminTokenTTL:    24 * time.Hour,
			CustomerTokenTTL: 168 * time.Hour,
		},
		RateLimit: config.RateLimitSettings{
			WindowDuration:   time.Minute,
			LoginMaxAttempts: 5,
		},
	}

	codec, err := security.NewTokenCodec(cfg.Session.SigningKeys())
	if err != nil {
		t.Fatalf("failed to build codec: %v", err)
	}

	hash, err := security.HashPassword("sturdy-pass-1")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	admins := &fakeAdminRepo{byEmail: map[string]*domain.AdminAccount{
		"boss@dealership.example": {
			ID: "admin-1", Email: "boss@dealership.example", Name: "Boss",
			PasswordHash: hash, Role: "admin", IsActive: true,
		},
		"editor@dealership.example": {
			ID: "admin-2", Email: "editor@dealership.example", Name: "Edith",
			PasswordHash: hash, Role: "editor", IsActive: true,
		},
	}}
	roles := &fakeRoleRepo{
		bySlug: map[string]domain.DynamicRole{
			"sales_team": {ID: "role-1", Slug: "sales_team", Email: "sales@dealership.example"},
		},
		byID: map[string]domain.DynamicRole{
			"role-1": {ID: "role-1", Slug: "sales_team", Email: "sales@dealership.example"},
		},
	}

	now := time.Date(2025, 10, 12, 10, 0, 0, 0, time.UTC)
	env := &gatewayEnv{now: &now, admins: admins}
	clock := func() time.Time { return *env.now }

	store := memoryrepo.NewRateLimitStore(
		memoryrepo.WithClock(clock),
		memoryrepo.WithSweepInterval(0),
	)
	t.Cleanup(store.Close)

	log := zaptest.NewLogger(t)
	roleService := usecase.NewRoleService(roles, admins, security.DefaultPasswordValidator(), nil, log)
	// Token issuance stays on the wall clock so minted cookies verify; the
	// injected clock drives only the rate limit window.
	authService := usecase.NewAuthService(cfg, admins, fakeCustomerRepo{}, roleService, codec, nil, log)

	env.router = Register(Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: middleware.NewRateLimiter(store, log).WithClock(clock),
		Services: ServiceSet{
			Auth:  authService,
			Roles: roleService,
		},
	})

	return env
}

func (env *gatewayEnv) login(t *testing.T, email, password string) *httptest.ResponseRecorder {
	t.Helper()

	body := strings.NewReader(`{"email":"` + email + `","password":"` + password + `"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/auth/login", body)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	env.router.ServeHTTP(rr, req)
	return rr
}

func adminCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, cookie := range rr.Result().Cookies() {
		if cookie.Name == domain.CookieAdminToken && cookie.Value != "" {
			return cookie
		}
	}
	t.Fatalf("no admin_token cookie in response, cookies: %v", rr.Result().Cookies())
	return nil
}

// Scenario: a successful login sets the admin cookie and the dashboard
// dispatches with it instead of redirecting.
func TestLoginThenDashboardDispatches(t *testing.T) {
	env := newGatewayEnv(t)

	rr := env.login(t, "boss@dealership.example", "sturdy-pass-1")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected login 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Success bool `json:"success"`
		User    struct {
			Role string `json:"role"`
		} `json:"user"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	if !resp.Success || resp.User.Role != "admin" {
		t.Fatalf("unexpected login response: %s", rr.Body.String())
	}

	cookie := adminCookie(t, rr)

	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	req.AddCookie(cookie)
	dash := httptest.NewRecorder()

	env.router.ServeHTTP(dash, req)

	if dash.Code != http.StatusOK {
		t.Fatalf("expected dashboard dispatch, got %d (location %q)", dash.Code, dash.Header().Get("Location"))
	}
}

// Scenario: the sixth login attempt within the window is throttled with no
// token issued; once the window elapses attempts are evaluated normally.
func TestLoginThrottleAndWindowReset(t *testing.T) {
	env := newGatewayEnv(t)

	for i := 0; i < 5; i++ {
		rr := env.login(t, "boss@dealership.example", "wrong-password")
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, rr.Code)
		}
	}

	rr := env.login(t, "boss@dealership.example", "sturdy-pass-1")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 6th attempt to be throttled, got %d", rr.Code)
	}
	if got := rr.Header().Get("Retry-After"); got == "" {
		t.Fatalf("expected Retry-After header on 429")
	}
	for _, cookie := range rr.Result().Cookies() {
		if cookie.Name == domain.CookieAdminToken && cookie.Value != "" {
			t.Fatalf("throttled attempt must not issue a token")
		}
	}

	*env.now = env.now.Add(time.Minute + time.Second)

	rr = env.login(t, "boss@dealership.example", "sturdy-pass-1")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected post-window attempt to be evaluated, got %d: %s", rr.Code, rr.Body.String())
	}
}

// Scenario: an editor principal may read but not delete roles; an admin may
// delete dynamic roles but never the built-in admin role.
func TestRoleManagementAuthorization(t *testing.T) {
	env := newGatewayEnv(t)

	editorCookie := adminCookie(t, env.login(t, "editor@dealership.example", "sturdy-pass-1"))
	bossCookie := adminCookie(t, env.login(t, "boss@dealership.example", "sturdy-pass-1"))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/roles", nil)
	req.AddCookie(editorCookie)
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("editor should list roles, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/admin/roles/sales_team", nil)
	req.AddCookie(editorCookie)
	rr = httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("editor delete should be forbidden, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/admin/roles/admin", nil)
	req.AddCookie(bossCookie)
	rr = httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("built-in admin role must never be deletable, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/admin/roles/sales_team", nil)
	req.AddCookie(bossCookie)
	rr = httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("admin delete of dynamic role should succeed, got %d: %s", rr.Code, rr.Body.String())
	}
}

// Scenario: a token signed by a key outside the configured list redirects to
// the login page and clears the stale cookie.
func TestUnknownKeyCookieRedirectsAndClears(t *testing.T) {
	env := newGatewayEnv(t)

	rogue, err := security.NewTokenCodec([][]byte{[]byte("rogue-secret")})
	if err != nil {
		t.Fatalf("failed to build rogue codec: %v", err)
	}
	claims, err := security.NewSessionClaims(security.SessionClaimsOptions{
		SubjectID: "admin-1",
		Kind:      "admin",
		Role:      "admin",
		TTL:       time.Hour,
	})
	if err != nil {
		t.Fatalf("failed to build claims: %v", err)
	}
	token, err := rogue.Sign(claims)
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: domain.CookieAdminToken, Value: token})
	rr := httptest.NewRecorder()

	env.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusFound {
		t.Fatalf("expected redirect, got %d", rr.Code)
	}
	if got := rr.Header().Get("Location"); got != middleware.AdminLoginPath {
		t.Fatalf("expected redirect to %s, got %q", middleware.AdminLoginPath, got)
	}

	cleared := false
	for _, cookie := range rr.Result().Cookies() {
		if cookie.Name == domain.CookieAdminToken && cookie.Value == "" {
			cleared = true
		}
	}
	if !cleared {
		t.Fatalf("stale cookie was not cleared")
	}
}
