package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/husnainn01/dealership-gateway/internal/transport/http/middleware"
)

// DashboardHandler serves the minimal protected pages behind the gate. The
// real UI lives in the web frontend; these endpoints exist so the gate's
// dispatch path terminates somewhere observable.
type DashboardHandler struct{}

// NewDashboardHandler builds a new dashboard handler instance.
func NewDashboardHandler() *DashboardHandler {
	return &DashboardHandler{}
}

// Admin echoes the resolved admin principal for /admin/* pages.
func (h *DashboardHandler) Admin(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "principal missing after gate"))
		return
	}

	c.JSON(http.StatusOK, PrincipalResponse{
		Kind:  string(principal.Kind),
		ID:    principal.ID,
		Email: principal.Email,
		Role:  principal.Role,
		Name:  principal.DisplayName,
	})
}

// Customer echoes the resolved customer principal for portal pages.
func (h *DashboardHandler) Customer(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "principal missing after gate"))
		return
	}

	c.JSON(http.StatusOK, PrincipalResponse{
		Kind:  string(principal.Kind),
		ID:    principal.ID,
		Email: principal.Email,
		Name:  principal.DisplayName,
	})
}

// LoginPage is the unauthenticated landing target for UI redirects.
func (h *DashboardHandler) LoginPage(c *gin.Context) {
	c.JSON(http.StatusOK, MessageResponse{Message: "login required"})
}
