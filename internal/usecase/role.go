package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/husnainn01/dealership-gateway/internal/core/domain"
	"github.com/husnainn01/dealership-gateway/internal/core/port"
	"github.com/husnainn01/dealership-gateway/internal/infra/security"
	"github.com/husnainn01/dealership-gateway/internal/repository"
)

var (
	// ErrDuplicateRole indicates the slug or login email is already taken.
	ErrDuplicateRole = errors.New("role already exists")
	// ErrRoleNotFound indicates no role matches the given identifier.
	ErrRoleNotFound = errors.New("role not found")
	// ErrProtectedRole indicates the operation targets a built-in role.
	ErrProtectedRole = errors.New("built-in roles cannot be modified")
	// ErrInvalidRoleName indicates the supplied name slugifies to nothing.
	ErrInvalidRoleName = errors.New("invalid role name")
)

// RoleService is the role registry: it resolves raw stored role values into
// effective roles and manages operator-defined dynamic roles together with
// their login accounts.
type RoleService struct {
	roles     port.DynamicRoleRepository
	admins    port.AdminAccountRepository
	passwords *security.PasswordValidator
	events    port.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewRoleService constructs a RoleService instance.
func NewRoleService(
	roles port.DynamicRoleRepository,
	admins port.AdminAccountRepository,
	passwords *security.PasswordValidator,
	events port.EventPublisher,
	logger *zap.Logger,
) *RoleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if passwords == nil {
		passwords = security.DefaultPasswordValidator()
	}
	return &RoleService{
		roles:     roles,
		admins:    admins,
		passwords: passwords,
		events:    events,
		logger:    logger,
		now:       time.Now,
	}
}

// Resolve maps a raw stored role value to its effective role. Built-in names
// short-circuit to the static permission table; everything else is looked up
// as a dynamic role. Unknown values fail closed with ErrUnrecognizedRole.
func (s *RoleService) Resolve(ctx context.Context, raw string) (domain.Role, error) {
	name, dynamic := domain.ParseRoleValue(raw)
	if name == "" {
		return domain.Role{}, ErrUnrecognizedRole
	}

	if !dynamic {
		role, ok := domain.BuiltInRole(name)
		if !ok {
			return domain.Role{}, ErrUnrecognizedRole
		}
		return role, nil
	}

	record, err := s.roles.GetBySlug(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Role{}, ErrUnrecognizedRole
		}
		return domain.Role{}, fmt.Errorf("%w: lookup role %q: %v", ErrStoreUnavailable, name, err)
	}

	return domain.Role{
		Name:        record.Slug,
		BuiltIn:     false,
		Permissions: record.Permissions.Clone(),
	}, nil
}

// Can reports whether the named role grants action on resource. Built-in
// roles answer from the static table without touching the store.
func (s *RoleService) Can(ctx context.Context, roleName, resource, action string) (bool, error) {
	if domain.IsBuiltInRole(roleName) {
		return domain.HasPermission(roleName, resource, action), nil
	}

	role, err := s.Resolve(ctx, roleName)
	if err != nil {
		if errors.Is(err, ErrUnrecognizedRole) {
			return false, nil
		}
		return false, err
	}
	return role.Allows(resource, action), nil
}

// RoleRecord is the management view of a role: built-ins carry their name as
// both ID and slug, dynamic roles their stored identity.
type RoleRecord struct {
	ID          string
	Slug        string
	Name        string
	Email       string
	BuiltIn     bool
	Permissions domain.PermissionSet
}

// List returns every role: the four built-ins followed by dynamic roles in
// store order.
func (s *RoleService) List(ctx context.Context) ([]RoleRecord, error) {
	builtins := []string{domain.RoleAdmin, domain.RoleEditor, domain.RoleModerator, domain.RoleViewer}

	records := make([]RoleRecord, 0, len(builtins))
	for _, name := range builtins {
		role, _ := domain.BuiltInRole(name)
		records = append(records, RoleRecord{
			ID:          name,
			Slug:        name,
			Name:        name,
			BuiltIn:     true,
			Permissions: role.Permissions,
		})
	}

	dynamic, err := s.roles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list roles: %v", ErrStoreUnavailable, err)
	}
	for _, role := range dynamic {
		records = append(records, RoleRecord{
			ID:          role.ID,
			Slug:        role.Slug,
			Name:        role.Name,
			Email:       role.Email,
			Permissions: role.Permissions,
		})
	}

	return records, nil
}

// CreateRoleInput describes a new dynamic role and its login account.
type CreateRoleInput struct {
	Name        string
	Email       string
	Password    string
	Permissions domain.PermissionSet
}

// Create provisions a dynamic role and the admin account it logs in with.
// Slugs and login emails are unique across built-ins, dynamic roles, and
// existing back-office accounts.
func (s *RoleService) Create(ctx context.Context, actorID string, input CreateRoleInput) (*domain.DynamicRole, error) {
	slug := domain.SlugifyRoleName(input.Name)
	if slug == "" {
		return nil, ErrInvalidRoleName
	}
	if domain.IsBuiltInRole(slug) {
		return nil, fmt.Errorf("%w: %q is a built-in role", ErrDuplicateRole, slug)
	}

	if _, err := s.roles.GetBySlug(ctx, slug); err == nil {
		return nil, fmt.Errorf("%w: slug %q", ErrDuplicateRole, slug)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: check slug: %v", ErrStoreUnavailable, err)
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, fmt.Errorf("role login email is required")
	}
	if _, err := s.admins.GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: email already in use", ErrDuplicateRole)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: check email: %v", ErrStoreUnavailable, err)
	}

	if err := s.passwords.Validate(input.Password); err != nil {
		return nil, err
	}
	hash, err := security.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash role password: %w", err)
	}

	now := s.now().UTC()
	role := domain.DynamicRole{
		ID:          uuid.NewString(),
		Slug:        slug,
		Name:        strings.TrimSpace(input.Name),
		Email:       email,
		Permissions: sanitizePermissions(input.Permissions),
	}

	if err := s.roles.Create(ctx, role); err != nil {
		return nil, fmt.Errorf("%w: create role: %v", ErrStoreUnavailable, err)
	}

	account := domain.AdminAccount{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         role.Name,
		PasswordHash: hash,
		Role:         domain.DynamicRoleValue(slug),
		IsActive:     true,
		CreatedAt:    now,
	}
	if err := s.admins.Create(ctx, account); err != nil {
		// Roll the role record back so a retry is possible.
		if rbErr := s.roles.Delete(ctx, role.ID); rbErr != nil {
			s.logger.Error("failed to roll back role after account creation failure",
				zap.String("role_id", role.ID), zap.Error(rbErr))
		}
		return nil, fmt.Errorf("%w: create role account: %v", ErrStoreUnavailable, err)
	}

	if s.events != nil {
		if err := s.events.PublishRoleCreated(ctx, domain.RoleCreatedEvent{
			RoleID:    role.ID,
			Slug:      role.Slug,
			Email:     email,
			CreatedBy: actorID,
			At:        now,
		}); err != nil {
			s.logger.Warn("failed to publish role created event", zap.Error(err))
		}
	}

	return &role, nil
}

// UpdateRoleInput carries the mutable parts of a dynamic role. The slug is
// fixed at creation because issued tokens reference it.
type UpdateRoleInput struct {
	Name        string
	Permissions domain.PermissionSet
}

// Update rewrites a dynamic role's display name and permission set.
func (s *RoleService) Update(ctx context.Context, actorID, id string, input UpdateRoleInput) (*domain.DynamicRole, error) {
	if domain.IsBuiltInRole(id) {
		return nil, ErrProtectedRole
	}

	role, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		role.Name = name
	}
	if input.Permissions != nil {
		role.Permissions = sanitizePermissions(input.Permissions)
	}

	if err := s.roles.Update(ctx, *role); err != nil {
		return nil, fmt.Errorf("%w: update role: %v", ErrStoreUnavailable, err)
	}

	if s.events != nil {
		if err := s.events.PublishRoleUpdated(ctx, domain.RoleUpdatedEvent{
			RoleID:    role.ID,
			Slug:      role.Slug,
			UpdatedBy: actorID,
			At:        s.now().UTC(),
		}); err != nil {
			s.logger.Warn("failed to publish role updated event", zap.Error(err))
		}
	}

	return role, nil
}

// Delete removes a dynamic role and its login account. Built-in roles, the
// admin role above all, are rejected unconditionally.
func (s *RoleService) Delete(ctx context.Context, actorID, id string) error {
	if domain.IsBuiltInRole(id) {
		return ErrProtectedRole
	}

	role, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	if err := s.roles.Delete(ctx, role.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrRoleNotFound
		}
		return fmt.Errorf("%w: delete role: %v", ErrStoreUnavailable, err)
	}

	// The login account goes with the role. Sessions minted before this
	// point fail closed at resolution time, so a dangling account is the
	// only cleanup that matters here.
	if account, err := s.admins.GetByEmail(ctx, role.Email); err == nil {
		if err := s.admins.Delete(ctx, account.ID); err != nil {
			s.logger.Warn("failed to delete role login account",
				zap.String("role_id", role.ID), zap.Error(err))
		}
	} else if !errors.Is(err, repository.ErrNotFound) {
		s.logger.Warn("failed to look up role login account",
			zap.String("role_id", role.ID), zap.Error(err))
	}

	if s.events != nil {
		if err := s.events.PublishRoleDeleted(ctx, domain.RoleDeletedEvent{
			RoleID:    role.ID,
			Slug:      role.Slug,
			DeletedBy: actorID,
			At:        s.now().UTC(),
		}); err != nil {
			s.logger.Warn("failed to publish role deleted event", zap.Error(err))
		}
	}

	return nil
}

// Get returns a single role by built-in name, dynamic id, or dynamic slug.
func (s *RoleService) Get(ctx context.Context, id string) (*RoleRecord, error) {
	if role, ok := domain.BuiltInRole(id); ok {
		return &RoleRecord{
			ID:          role.Name,
			Slug:        role.Name,
			Name:        role.Name,
			BuiltIn:     true,
			Permissions: role.Permissions,
		}, nil
	}

	role, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return &RoleRecord{
		ID:          role.ID,
		Slug:        role.Slug,
		Name:        role.Name,
		Email:       role.Email,
		Permissions: role.Permissions,
	}, nil
}

// find looks a dynamic role up by id first, then by slug.
func (s *RoleService) find(ctx context.Context, id string) (*domain.DynamicRole, error) {
	role, err := s.roles.GetByID(ctx, id)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: lookup role: %v", ErrStoreUnavailable, err)
	}

	slug := domain.SlugifyRoleName(id)
	role, err = s.roles.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("%w: lookup role: %v", ErrStoreUnavailable, err)
	}
	return role, nil
}

// sanitizePermissions drops unknown resources and actions and keeps only
// affirmative grants.
func sanitizePermissions(in domain.PermissionSet) domain.PermissionSet {
	out := make(domain.PermissionSet, len(domain.Resources))
	known := map[string]bool{
		domain.ActionView:   true,
		domain.ActionCreate: true,
		domain.ActionEdit:   true,
		domain.ActionDelete: true,
	}
	for _, resource := range domain.Resources {
		actions, ok := in[resource]
		if !ok {
			continue
		}
		kept := make(map[string]bool, len(actions))
		for action, allowed := range actions {
			if allowed && known[action] {
				kept[action] = true
			}
		}
		if len(kept) > 0 {
			out[resource] = kept
		}
	}
	return out
}
