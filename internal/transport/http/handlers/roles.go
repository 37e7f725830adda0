package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/husnainn01/dealership-gateway/internal/infra/security"
	"github.com/husnainn01/dealership-gateway/internal/transport/http/middleware"
	"github.com/husnainn01/dealership-gateway/internal/usecase"
)

// RolesHandler manages the dynamic role catalogue. The gate has already
// authorized the caller against the roles resource by the time these run.
type RolesHandler struct {
	roles  *usecase.RoleService
	logger *zap.Logger
}

// NewRolesHandler builds a new roles handler instance.
func NewRolesHandler(roles *usecase.RoleService, logger *zap.Logger) *RolesHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RolesHandler{roles: roles, logger: logger}
}

var roleErrorCases = []ErrorCase{
	{Err: usecase.ErrDuplicateRole, Status: http.StatusConflict, Message: "role already exists"},
	{Err: usecase.ErrRoleNotFound, Status: http.StatusNotFound, Message: "role not found"},
	{Err: usecase.ErrProtectedRole, Status: http.StatusForbidden, Message: "built-in roles cannot be modified"},
	{Err: usecase.ErrInvalidRoleName, Status: http.StatusBadRequest, Message: "invalid role name"},
	{Err: usecase.ErrStoreUnavailable, Status: http.StatusInternalServerError, Message: "role store unavailable"},
}

// List godoc
// @Summary List roles
// @Description Returns the built-in roles followed by operator-defined roles.
// @Tags Roles
// @Produce json
// @Success 200 {object} RoleListResponse
// @Router /api/admin/roles [get]
func (h *RolesHandler) List(c *gin.Context) {
	records, err := h.roles.List(c.Request.Context())
	if err != nil {
		RespondWithMappedError(c, err, roleErrorCases, http.StatusInternalServerError, "failed to list roles")
		return
	}

	payload := make([]RolePayload, 0, len(records))
	for _, record := range records {
		payload = append(payload, rolePayload(record))
	}

	c.JSON(http.StatusOK, RoleListResponse{Roles: payload})
}

// Get returns a single role by name, id, or slug.
func (h *RolesHandler) Get(c *gin.Context) {
	record, err := h.roles.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, roleErrorCases, http.StatusInternalServerError, "failed to load role")
		return
	}

	c.JSON(http.StatusOK, rolePayload(*record))
}

// Create godoc
// @Summary Create role
// @Description Provisions a dynamic role and its login account.
// @Tags Roles
// @Accept json
// @Produce json
// @Param request body CreateRoleRequest true "Role definition"
// @Success 201 {object} RolePayload
// @Failure 409 {object} ErrorResponse
// @Router /api/admin/roles [post]
func (h *RolesHandler) Create(c *gin.Context) {
	var req CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "name, email, and password are required"))
		return
	}

	role, err := h.roles.Create(c.Request.Context(), h.actorID(c), usecase.CreateRoleInput{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		Permissions: req.Permissions,
	})
	if err != nil {
		var policyErr *security.PasswordValidationError
		if errors.As(err, &policyErr) {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, policyErr.Message))
			return
		}
		RespondWithMappedError(c, err, roleErrorCases, http.StatusInternalServerError, "failed to create role")
		return
	}

	c.JSON(http.StatusCreated, RolePayload{
		ID:          role.ID,
		Slug:        role.Slug,
		Name:        role.Name,
		Email:       role.Email,
		Permissions: role.Permissions,
	})
}

// Update godoc
// @Summary Update role
// @Description Rewrites a dynamic role's display name and permission set.
// @Tags Roles
// @Accept json
// @Produce json
// @Param id path string true "Role id or slug"
// @Param request body UpdateRoleRequest true "Role changes"
// @Success 200 {object} RolePayload
// @Failure 404 {object} ErrorResponse
// @Router /api/admin/roles/{id} [put]
func (h *RolesHandler) Update(c *gin.Context) {
	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid role payload"))
		return
	}

	role, err := h.roles.Update(c.Request.Context(), h.actorID(c), c.Param("id"), usecase.UpdateRoleInput{
		Name:        req.Name,
		Permissions: req.Permissions,
	})
	if err != nil {
		RespondWithMappedError(c, err, roleErrorCases, http.StatusInternalServerError, "failed to update role")
		return
	}

	c.JSON(http.StatusOK, RolePayload{
		ID:          role.ID,
		Slug:        role.Slug,
		Name:        role.Name,
		Email:       role.Email,
		Permissions: role.Permissions,
	})
}

// Delete godoc
// @Summary Delete role
// @Description Removes a dynamic role and its login account. Built-in roles are protected.
// @Tags Roles
// @Produce json
// @Param id path string true "Role id or slug"
// @Success 200 {object} MessageResponse
// @Failure 403 {object} ErrorResponse
// @Router /api/admin/roles/{id} [delete]
func (h *RolesHandler) Delete(c *gin.Context) {
	if err := h.roles.Delete(c.Request.Context(), h.actorID(c), c.Param("id")); err != nil {
		RespondWithMappedError(c, err, roleErrorCases, http.StatusInternalServerError, "failed to delete role")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "role deleted"})
}

func (h *RolesHandler) actorID(c *gin.Context) string {
	if principal, ok := middleware.GetPrincipal(c); ok {
		return principal.ID
	}
	return ""
}

func rolePayload(record usecase.RoleRecord) RolePayload {
	return RolePayload{
		ID:          record.ID,
		Slug:        record.Slug,
		Name:        record.Name,
		Email:       record.Email,
		BuiltIn:     record.BuiltIn,
		Permissions: record.Permissions,
	}
}
