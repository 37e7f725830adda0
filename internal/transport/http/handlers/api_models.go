package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/husnainn01/dealership-gateway/internal/core/domain"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse reports service liveness.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// ReadinessResponse reports per-dependency readiness.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LoginRequest defines the payload for both login endpoints.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UserPayload describes the principal view returned by auth endpoints.
type UserPayload struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
	Name  string `json:"name,omitempty"`
}

// LoginResponse is returned for a successful login alongside the session cookie.
type LoginResponse struct {
	Success bool        `json:"success"`
	User    UserPayload `json:"user"`
}

// SessionCheckResponse reports whether the presented cookie resolves.
type SessionCheckResponse struct {
	Authenticated bool         `json:"authenticated"`
	User          *UserPayload `json:"user,omitempty"`
}

// RolePayload is the management view of a role.
type RolePayload struct {
	ID          string               `json:"id"`
	Slug        string               `json:"slug"`
	Name        string               `json:"name"`
	Email       string               `json:"email,omitempty"`
	BuiltIn     bool                 `json:"built_in"`
	Permissions domain.PermissionSet `json:"permissions"`
}

// RoleListResponse wraps the role collection.
type RoleListResponse struct {
	Roles []RolePayload `json:"roles"`
}

// CreateRoleRequest defines the payload to provision a dynamic role.
type CreateRoleRequest struct {
	Name        string               `json:"name" binding:"required"`
	Email       string               `json:"email" binding:"required"`
	Password    string               `json:"password" binding:"required"`
	Permissions domain.PermissionSet `json:"permissions"`
}

// UpdateRoleRequest defines the payload to rewrite a dynamic role.
type UpdateRoleRequest struct {
	Name        string               `json:"name"`
	Permissions domain.PermissionSet `json:"permissions"`
}

// PrincipalResponse echoes the principal attached by the gate.
type PrincipalResponse struct {
	Kind  string `json:"kind"`
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	Name  string `json:"name,omitempty"`
}
