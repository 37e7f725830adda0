package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/husnainn01/dealership-gateway/internal/core/domain"
	"github.com/husnainn01/dealership-gateway/internal/infra/config"
	"github.com/husnainn01/dealership-gateway/internal/usecase"
)

// AuthHandler wraps the login endpoints: credential verification, token
// issuance, and session cookies for both principal kinds.
type AuthHandler struct {
	auth    *usecase.AuthService
	session config.SessionSettings
	cookies config.CookieSettings
	logger  *zap.Logger
}

// NewAuthHandler builds a new auth handler instance.
func NewAuthHandler(auth *usecase.AuthService, session config.SessionSettings, cookies config.CookieSettings, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{auth: auth, session: session, cookies: cookies, logger: logger}
}

var loginErrorCases = []ErrorCase{
	{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "invalid email or password"},
	{Err: usecase.ErrInactiveAccount, Status: http.StatusForbidden, Message: "account is not active"},
	{Err: usecase.ErrUnrecognizedRole, Status: http.StatusForbidden, Message: "invalid user role"},
	{Err: usecase.ErrStoreUnavailable, Status: http.StatusInternalServerError, Message: "authentication backend unavailable"},
}

// AdminLogin godoc
// @Summary Back-office login
// @Description Verifies admin credentials and sets the admin_token session cookie.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} LoginResponse
// @Failure 401 {object} ErrorResponse
// @Failure 429 {object} middleware.ProblemDetails
// @Router /api/admin/auth/login [post]
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "email and password are required"))
		return
	}

	token, principal, err := h.auth.LoginAdmin(c.Request.Context(), req.Email, req.Password, c.ClientIP())
	if err != nil {
		RespondWithMappedError(c, err, loginErrorCases, http.StatusInternalServerError, "login failed")
		return
	}

	h.setSessionCookie(c, domain.CookieAdminToken, token, int(h.session.AdminTokenTTL.Seconds()), http.SameSiteStrictMode)

	c.JSON(http.StatusOK, LoginResponse{
		Success: true,
		User: UserPayload{
			ID:    principal.ID,
			Email: principal.Email,
			Role:  principal.Role,
			Name:  principal.DisplayName,
		},
	})
}

// AdminLogout godoc
// @Summary Back-office logout
// @Description Clears the admin_token session cookie.
// @Tags Auth
// @Produce json
// @Success 200 {object} MessageResponse
// @Router /api/admin/auth/logout [post]
func (h *AuthHandler) AdminLogout(c *gin.Context) {
	h.clearSessionCookie(c, domain.CookieAdminToken)
	c.JSON(http.StatusOK, MessageResponse{Message: "logged out"})
}

// AdminCheck reports whether the presented admin cookie still resolves.
func (h *AuthHandler) AdminCheck(c *gin.Context) {
	token := h.cookieValue(c, domain.SessionSlot{Kind: domain.PrincipalKindAdmin})

	principal, err := h.auth.ResolveAdmin(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusOK, SessionCheckResponse{Authenticated: false})
		return
	}

	c.JSON(http.StatusOK, SessionCheckResponse{
		Authenticated: true,
		User: &UserPayload{
			ID:    principal.ID,
			Email: principal.Email,
			Role:  principal.Role,
			Name:  principal.DisplayName,
		},
	})
}

// CustomerLogin godoc
// @Summary Customer portal login
// @Description Verifies customer credentials and sets the customer_token session cookie.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} LoginResponse
// @Failure 401 {object} ErrorResponse
// @Failure 429 {object} middleware.ProblemDetails
// @Router /api/auth/user/login [post]
func (h *AuthHandler) CustomerLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "email and password are required"))
		return
	}

	token, principal, err := h.auth.LoginCustomer(c.Request.Context(), req.Email, req.Password, c.ClientIP())
	if err != nil {
		RespondWithMappedError(c, err, loginErrorCases, http.StatusInternalServerError, "login failed")
		return
	}

	h.setSessionCookie(c, domain.CookieCustomerToken, token, int(h.session.CustomerTokenTTL.Seconds()), http.SameSiteLaxMode)

	c.JSON(http.StatusOK, LoginResponse{
		Success: true,
		User: UserPayload{
			ID:    principal.ID,
			Email: principal.Email,
			Name:  principal.DisplayName,
		},
	})
}

// CustomerLogout clears both customer cookie slots, the legacy one included.
func (h *AuthHandler) CustomerLogout(c *gin.Context) {
	h.clearSessionCookie(c, domain.CookieCustomerToken)
	h.clearSessionCookie(c, domain.CookieLegacyToken)
	c.JSON(http.StatusOK, MessageResponse{Message: "logged out"})
}

// CustomerCheck reports whether the presented customer cookie still resolves.
func (h *AuthHandler) CustomerCheck(c *gin.Context) {
	token := h.cookieValue(c, domain.SessionSlot{Kind: domain.PrincipalKindCustomer})

	principal, err := h.auth.ResolveCustomer(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusOK, SessionCheckResponse{Authenticated: false})
		return
	}

	c.JSON(http.StatusOK, SessionCheckResponse{
		Authenticated: true,
		User: &UserPayload{
			ID:    principal.ID,
			Email: principal.Email,
			Name:  principal.DisplayName,
		},
	})
}

func (h *AuthHandler) cookieValue(c *gin.Context, slot domain.SessionSlot) string {
	for _, name := range slot.CookieNames() {
		if value, err := c.Cookie(name); err == nil && value != "" {
			return value
		}
	}
	return ""
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, name, value string, maxAge int, sameSite http.SameSite) {
	c.SetSameSite(sameSite)
	c.SetCookie(name, value, maxAge, "/", h.cookies.Domain, h.cookies.Secure, true)
}

func (h *AuthHandler) clearSessionCookie(c *gin.Context, name string) {
	c.SetCookie(name, "", -1, "/", h.cookies.Domain, h.cookies.Secure, true)
}
