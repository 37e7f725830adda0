package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/husnainn01/dealership-gateway/internal/core/domain"
	"github.com/husnainn01/dealership-gateway/internal/infra/config"
	"github.com/husnainn01/dealership-gateway/internal/usecase"
)

// Context keys populated by the gate after successful resolution.
const (
	PrincipalKey     = "principal"
	PrincipalKindKey = "principal_kind"
)

// Principal headers injected for downstream handlers so they never re-verify
// the token. Inbound copies are stripped before classification.
const (
	HeaderPrincipalID    = "X-Principal-ID"
	HeaderPrincipalKind  = "X-Principal-Kind"
	HeaderPrincipalRole  = "X-Principal-Role"
	HeaderPrincipalEmail = "X-Principal-Email"
)

// Login pages UI rejections redirect to.
const (
	AdminLoginPath    = "/admin/login"
	CustomerLoginPath = "/auth/login"
)

type pathClass int

const (
	classPublic pathClass = iota
	classAdminUI
	classAdminAPI
	classCustomerUI
	classCustomerAPI
)

// RequestGate classifies every inbound request, authenticates the relevant
// cookie slot, and authorizes admin API calls against the role registry. Its
// terminal states are pass-through, redirect, or a structured rejection.
type RequestGate struct {
	auth    *usecase.AuthService
	roles   *usecase.RoleService
	cookies config.CookieSettings
	logger  *zap.Logger

	publicExact    map[string]bool
	publicPrefixes []string
	customerAPI    []string
}

// NewRequestGate constructs the gate over the principal resolver and role
// registry.
func NewRequestGate(auth *usecase.AuthService, roles *usecase.RoleService, cookies config.CookieSettings, logger *zap.Logger) *RequestGate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestGate{
		auth:    auth,
		roles:   roles,
		cookies: cookies,
		logger:  logger,
		publicExact: map[string]bool{
			AdminLoginPath:           true,
			CustomerLoginPath:        true,
			"/api/admin/auth/login":  true,
			"/api/admin/auth/logout": true,
			"/api/admin/auth/check":  true,
			"/api/auth/user/login":   true,
			"/api/auth/user/logout":  true,
			"/api/auth/user/check":   true,
			"/healthz":               true,
			"/readyz":                true,
			"/metrics":               true,
			"/favicon.ico":           true,
		},
		publicPrefixes: []string{"/docs"},
		customerAPI:    []string{"/api/customer/"},
	}
}

// Handle returns the gate middleware. Classification is pure path-prefix
// matching in fixed priority order: the public allow-list wins, then admin
// API, admin UI, customer UI, customer API, else public pass-through.
func (g *RequestGate) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		stripPrincipalHeaders(c.Request)

		switch g.classify(c.Request.URL.Path) {
		case classPublic:
			c.Next()
		case classAdminUI:
			g.handleUI(c, domain.PrincipalKindAdmin)
		case classAdminAPI:
			g.handleAdminAPI(c)
		case classCustomerUI:
			g.handleUI(c, domain.PrincipalKindCustomer)
		case classCustomerAPI:
			g.handleCustomerAPI(c)
		}
	}
}

func (g *RequestGate) classify(path string) pathClass {
	if g.publicExact[path] {
		return classPublic
	}
	for _, prefix := range g.publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return classPublic
		}
	}

	switch {
	case path == "/api/admin" || strings.HasPrefix(path, "/api/admin/"):
		return classAdminAPI
	case path == "/admin" || strings.HasPrefix(path, "/admin/"):
		return classAdminUI
	case path == "/customer-dashboard" || strings.HasPrefix(path, "/customer-dashboard/"):
		return classCustomerUI
	case path == "/auth" || strings.HasPrefix(path, "/auth/"):
		return classCustomerUI
	}

	for _, prefix := range g.customerAPI {
		if strings.HasPrefix(path, prefix) {
			return classCustomerAPI
		}
	}

	return classPublic
}

// handleUI guards redirect-based page routes. A failed resolution clears the
// offending cookie before redirecting so a corrupt-but-present cookie cannot
// cause a redirect loop.
func (g *RequestGate) handleUI(c *gin.Context, kind domain.PrincipalKind) {
	token, cookieName := g.extractToken(c, domain.SessionSlot{Kind: kind})

	principal, err := g.resolve(c, kind, token)
	if err != nil {
		if errors.Is(err, usecase.ErrStoreUnavailable) {
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				newErrorResponse(c, "authentication backend unavailable"))
			return
		}

		if cookieName != "" {
			g.clearCookie(c, cookieName)
		}

		target := AdminLoginPath
		if kind == domain.PrincipalKindCustomer {
			target = CustomerLoginPath
		}
		c.Redirect(http.StatusFound, target)
		c.Abort()
		return
	}

	g.attach(c, principal)
	c.Next()
}

func (g *RequestGate) handleAdminAPI(c *gin.Context) {
	token, cookieName := g.extractToken(c, domain.SessionSlot{Kind: domain.PrincipalKindAdmin})

	principal, err := g.resolve(c, domain.PrincipalKindAdmin, token)
	if err != nil {
		g.rejectAPI(c, cookieName, err)
		return
	}

	resource, ok := adminResourceFor(c.Request.URL.Path)
	if ok {
		action := actionForMethod(c.Request.Method)
		allowed, err := g.roles.Can(c.Request.Context(), principal.Role, resource, action)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				newErrorResponse(c, "authorization backend unavailable"))
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden,
				newErrorResponse(c, "insufficient permissions"))
			return
		}
	}

	g.attach(c, principal)
	c.Next()
}

func (g *RequestGate) handleCustomerAPI(c *gin.Context) {
	token, cookieName := g.extractToken(c, domain.SessionSlot{Kind: domain.PrincipalKindCustomer})

	principal, err := g.resolve(c, domain.PrincipalKindCustomer, token)
	if err != nil {
		g.rejectAPI(c, cookieName, err)
		return
	}

	g.attach(c, principal)
	c.Next()
}

func (g *RequestGate) resolve(c *gin.Context, kind domain.PrincipalKind, token string) (domain.Principal, error) {
	if kind == domain.PrincipalKindAdmin {
		return g.auth.ResolveAdmin(c.Request.Context(), token)
	}
	return g.auth.ResolveCustomer(c.Request.Context(), token)
}

// rejectAPI maps resolution failures to structured JSON, never a redirect.
func (g *RequestGate) rejectAPI(c *gin.Context, cookieName string, err error) {
	switch {
	case errors.Is(err, usecase.ErrStoreUnavailable):
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			newErrorResponse(c, "authentication backend unavailable"))
	case errors.Is(err, usecase.ErrUnrecognizedRole):
		// A data problem on the account, not a client error. Surfaced
		// explicitly so misconfigured accounts are diagnosable.
		c.AbortWithStatusJSON(http.StatusForbidden,
			newErrorResponse(c, "invalid user role"))
	case errors.Is(err, usecase.ErrNoToken):
		c.AbortWithStatusJSON(http.StatusUnauthorized,
			newErrorResponse(c, "authentication required"))
	case errors.Is(err, usecase.ErrTokenExpired):
		if cookieName != "" {
			g.clearCookie(c, cookieName)
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized,
			newErrorResponse(c, "session expired"))
	default:
		if cookieName != "" {
			g.clearCookie(c, cookieName)
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized,
			newErrorResponse(c, "invalid session"))
	}
}

// extractToken reads the first non-empty cookie slot for the principal kind
// and reports which cookie it came from.
func (g *RequestGate) extractToken(c *gin.Context, slot domain.SessionSlot) (string, string) {
	for _, name := range slot.CookieNames() {
		if value, err := c.Cookie(name); err == nil && strings.TrimSpace(value) != "" {
			return value, name
		}
	}
	return "", ""
}

func (g *RequestGate) clearCookie(c *gin.Context, name string) {
	c.SetCookie(name, "", -1, "/", g.cookies.Domain, g.cookies.Secure, true)
}

func (g *RequestGate) attach(c *gin.Context, principal domain.Principal) {
	c.Set(PrincipalKey, principal)
	c.Set(PrincipalKindKey, string(principal.Kind))

	c.Request.Header.Set(HeaderPrincipalID, principal.ID)
	c.Request.Header.Set(HeaderPrincipalKind, string(principal.Kind))
	c.Request.Header.Set(HeaderPrincipalEmail, principal.Email)
	if principal.Role != "" {
		c.Request.Header.Set(HeaderPrincipalRole, principal.Role)
	}

	if reqCtx := GetRequestContext(c); reqCtx != nil {
		reqCtx.IP = c.ClientIP()
	}
}

func stripPrincipalHeaders(r *http.Request) {
	r.Header.Del(HeaderPrincipalID)
	r.Header.Del(HeaderPrincipalKind)
	r.Header.Del(HeaderPrincipalRole)
	r.Header.Del(HeaderPrincipalEmail)
}

// adminResourceFor maps an admin API route family to the resource it manages.
// Unmapped families only require an authenticated admin-kind principal.
func adminResourceFor(path string) (string, bool) {
	rest := strings.TrimPrefix(path, "/api/admin/")
	if rest == path || rest == "" {
		return "", false
	}
	family := rest
	if idx := strings.IndexByte(rest, '/'); idx >= 0 {
		family = rest[:idx]
	}

	switch family {
	case "users":
		return domain.ResourceUsers, true
	case "roles":
		return domain.ResourceRoles, true
	case "cars", "listings":
		return domain.ResourceListings, true
	case "makes":
		return domain.ResourceMakes, true
	case "models":
		return domain.ResourceModels, true
	case "colors":
		return domain.ResourceColors, true
	case "features":
		return domain.ResourceFeatures, true
	case "safety":
		return domain.ResourceSafety, true
	case "types":
		return domain.ResourceTypes, true
	case "blog":
		return domain.ResourceBlog, true
	case "categories":
		return domain.ResourceCategories, true
	case "settings":
		return domain.ResourceSettings, true
	default:
		return "", false
	}
}

func actionForMethod(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return domain.ActionView
	case http.MethodPost:
		return domain.ActionCreate
	case http.MethodPut, http.MethodPatch:
		return domain.ActionEdit
	case http.MethodDelete:
		return domain.ActionDelete
	default:
		return domain.ActionView
	}
}

// GetPrincipal retrieves the resolved principal from context (helper for handlers).
func GetPrincipal(c *gin.Context) (domain.Principal, bool) {
	value, exists := c.Get(PrincipalKey)
	if !exists {
		return domain.Principal{}, false
	}
	principal, ok := value.(domain.Principal)
	return principal, ok
}

// ErrorResponse matches the handlers.ErrorResponse structure
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// newErrorResponse creates an error response with trace ID
func newErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:   errorMsg,
		TraceID: GetTraceID(c),
	}
}
