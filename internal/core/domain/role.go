package domain

import (
	"regexp"
	"strings"
)

// Canonical built-in role names.
const (
	RoleAdmin     = "admin"
	RoleEditor    = "editor"
	RoleModerator = "moderator"
	RoleViewer    = "viewer"
)

// DynamicRolePrefix is the wire/storage convention marking operator-defined
// roles inside the shared account namespace.
const DynamicRolePrefix = "role_"

// Resources managed through the admin back office.
const (
	ResourceUsers      = "users"
	ResourceRoles      = "roles"
	ResourceListings   = "listings"
	ResourceMakes      = "makes"
	ResourceModels     = "models"
	ResourceColors     = "colors"
	ResourceFeatures   = "features"
	ResourceSafety     = "safety"
	ResourceTypes      = "types"
	ResourceBlog       = "blog"
	ResourceCategories = "categories"
	ResourceSettings   = "settings"
)

// Resources lists every managed resource name.
var Resources = []string{
	ResourceUsers,
	ResourceRoles,
	ResourceListings,
	ResourceMakes,
	ResourceModels,
	ResourceColors,
	ResourceFeatures,
	ResourceSafety,
	ResourceTypes,
	ResourceBlog,
	ResourceCategories,
	ResourceSettings,
}

// Actions applicable to a resource.
const (
	ActionView   = "view"
	ActionCreate = "create"
	ActionEdit   = "edit"
	ActionDelete = "delete"
)

// PermissionSet maps a resource name to the set of allowed actions.
type PermissionSet map[string]map[string]bool

// Allows reports whether the set grants action on resource. Unknown
// resources and actions simply yield false.
func (p PermissionSet) Allows(resource, action string) bool {
	if p == nil {
		return false
	}
	actions, ok := p[resource]
	if !ok {
		return false
	}
	return actions[action]
}

// Clone returns a deep copy so callers can mutate safely.
func (p PermissionSet) Clone() PermissionSet {
	if p == nil {
		return nil
	}
	out := make(PermissionSet, len(p))
	for resource, actions := range p {
		copied := make(map[string]bool, len(actions))
		for action, allowed := range actions {
			copied[action] = allowed
		}
		out[resource] = copied
	}
	return out
}

// Role is either one of the four built-in roles or an operator-defined
// dynamic role resolved from the account collaborator.
type Role struct {
	// Name is the canonical role name: a built-in name or the dynamic slug.
	Name    string
	BuiltIn bool
	// Permissions is the effective permission set. For built-in roles this
	// is the static table entry; for dynamic roles the stored set.
	Permissions PermissionSet
}

// Allows reports whether the role grants action on resource.
func (r Role) Allows(resource, action string) bool {
	return r.Permissions.Allows(resource, action)
}

// builtinPermissions is the static permission table, one entry per built-in
// role. It is the single source of truth for built-in authorization.
var builtinPermissions = map[string]PermissionSet{
	RoleAdmin:     grantAll(),
	RoleEditor:    grantContent(nil),
	RoleModerator: grantContent(map[string][]string{ResourceListings: {ActionDelete}}),
	RoleViewer:    grantViewOnly(),
}

func grantAll() PermissionSet {
	set := make(PermissionSet, len(Resources))
	for _, resource := range Resources {
		set[resource] = map[string]bool{
			ActionView:   true,
			ActionCreate: true,
			ActionEdit:   true,
			ActionDelete: true,
		}
	}
	return set
}

// grantContent builds the editor/moderator shape: view, create, and edit on
// every content resource, no delete, and no access to users/roles/settings
// administration beyond viewing.
func grantContent(extra map[string][]string) PermissionSet {
	set := make(PermissionSet, len(Resources))
	for _, resource := range Resources {
		switch resource {
		case ResourceUsers, ResourceRoles, ResourceSettings:
			set[resource] = map[string]bool{ActionView: true}
		default:
			set[resource] = map[string]bool{
				ActionView:   true,
				ActionCreate: true,
				ActionEdit:   true,
			}
		}
	}
	for resource, actions := range extra {
		for _, action := range actions {
			set[resource][action] = true
		}
	}
	return set
}

func grantViewOnly() PermissionSet {
	set := make(PermissionSet, len(Resources))
	for _, resource := range Resources {
		set[resource] = map[string]bool{ActionView: true}
	}
	return set
}

// BuiltInRole returns the built-in role for the canonical name.
func BuiltInRole(name string) (Role, bool) {
	set, ok := builtinPermissions[name]
	if !ok {
		return Role{}, false
	}
	return Role{Name: name, BuiltIn: true, Permissions: set.Clone()}, true
}

// IsBuiltInRole reports whether name is one of the four built-in roles.
func IsBuiltInRole(name string) bool {
	_, ok := builtinPermissions[name]
	return ok
}

// HasPermission reports whether the named built-in role grants action on
// resource. It is total: unknown roles, resources, and actions return false.
func HasPermission(role, resource, action string) bool {
	set, ok := builtinPermissions[role]
	if !ok {
		return false
	}
	return set.Allows(resource, action)
}

// ParseRoleValue translates a raw stored role value into its canonical name.
// The dynamic "role_" prefix is stripped when present; the result is either
// a built-in name or a dynamic role slug.
func ParseRoleValue(raw string) (name string, dynamic bool) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if slug, ok := strings.CutPrefix(trimmed, DynamicRolePrefix); ok {
		if IsBuiltInRole(slug) {
			return slug, false
		}
		return slug, true
	}
	if IsBuiltInRole(trimmed) {
		return trimmed, false
	}
	return trimmed, true
}

// DynamicRoleValue returns the wire/storage form for a dynamic role slug.
func DynamicRoleValue(slug string) string {
	return DynamicRolePrefix + slug
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// SlugifyRoleName normalizes an operator-supplied role name into its
// canonical slug form.
func SlugifyRoleName(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = slugPattern.ReplaceAllString(slug, "_")
	return strings.Trim(slug, "_")
}

// DynamicRole is the operator-defined role record as stored by the account
// collaborator. Each dynamic role owns a login account (email + password).
type DynamicRole struct {
	ID          string
	Slug        string
	Name        string
	Email       string
	Permissions PermissionSet
}
