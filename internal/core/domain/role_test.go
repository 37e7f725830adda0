package domain

import "testing"

func TestHasPermissionIsTotal(t *testing.T) {
	roles := append([]string{RoleAdmin, RoleEditor, RoleModerator, RoleViewer}, "ghost", "", "role_sales")
	actions := []string{ActionView, ActionCreate, ActionEdit, ActionDelete, "publish", ""}
	resources := append(append([]string{}, Resources...), "unknown", "")

	for _, role := range roles {
		for _, resource := range resources {
			for _, action := range actions {
				// Must never panic; unknown inputs answer false.
				allowed := HasPermission(role, resource, action)
				if role == RoleAdmin && resource != "unknown" && resource != "" &&
					action != "publish" && action != "" && !allowed {
					t.Fatalf("admin should be allowed %s on %s", action, resource)
				}
			}
		}
	}
}

func TestBuiltinPermissionShape(t *testing.T) {
	cases := []struct {
		role     string
		resource string
		action   string
		want     bool
	}{
		{RoleAdmin, ResourceRoles, ActionDelete, true},
		{RoleEditor, ResourceListings, ActionCreate, true},
		{RoleEditor, ResourceListings, ActionDelete, false},
		{RoleEditor, ResourceRoles, ActionView, true},
		{RoleEditor, ResourceRoles, ActionEdit, false},
		{RoleEditor, ResourceUsers, ActionCreate, false},
		{RoleModerator, ResourceListings, ActionDelete, true},
		{RoleModerator, ResourceBlog, ActionDelete, false},
		{RoleModerator, ResourceSettings, ActionEdit, false},
		{RoleViewer, ResourceBlog, ActionView, true},
		{RoleViewer, ResourceBlog, ActionCreate, false},
		{RoleViewer, ResourceSettings, ActionView, true},
	}

	for _, tc := range cases {
		if got := HasPermission(tc.role, tc.resource, tc.action); got != tc.want {
			t.Fatalf("HasPermission(%s, %s, %s) = %v, want %v", tc.role, tc.resource, tc.action, got, tc.want)
		}
	}
}

func TestParseRoleValue(t *testing.T) {
	cases := []struct {
		raw     string
		name    string
		dynamic bool
	}{
		{"admin", "admin", false},
		{"  Editor ", "editor", false},
		{"role_editor", "editor", false},
		{"role_sales_team", "sales_team", true},
		{"sales_team", "sales_team", true},
		{"ROLE_Sales_Team", "sales_team", true},
		{"", "", true},
	}

	for _, tc := range cases {
		name, dynamic := ParseRoleValue(tc.raw)
		if name != tc.name || dynamic != tc.dynamic {
			t.Fatalf("ParseRoleValue(%q) = (%q, %v), want (%q, %v)", tc.raw, name, dynamic, tc.name, tc.dynamic)
		}
	}
}

func TestSlugifyRoleName(t *testing.T) {
	cases := map[string]string{
		"Sales Team":      "sales_team",
		"  Fleet-Ops!  ":  "fleet_ops",
		"ALL CAPS":        "all_caps",
		"already_slugged": "already_slugged",
		"___":             "",
	}

	for in, want := range cases {
		if got := SlugifyRoleName(in); got != want {
			t.Fatalf("SlugifyRoleName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBuiltInRoleClonesPermissions(t *testing.T) {
	first, ok := BuiltInRole(RoleViewer)
	if !ok {
		t.Fatalf("viewer should be a built-in role")
	}

	first.Permissions[ResourceBlog][ActionDelete] = true

	second, _ := BuiltInRole(RoleViewer)
	if second.Allows(ResourceBlog, ActionDelete) {
		t.Fatalf("mutating a resolved role leaked into the static table")
	}
}

func TestSessionSlotCookieNames(t *testing.T) {
	admin := SessionSlot{Kind: PrincipalKindAdmin}.CookieNames()
	if len(admin) != 1 || admin[0] != CookieAdminToken {
		t.Fatalf("unexpected admin cookie names: %v", admin)
	}

	customer := SessionSlot{Kind: PrincipalKindCustomer}.CookieNames()
	if len(customer) != 2 || customer[0] != CookieCustomerToken || customer[1] != CookieLegacyToken {
		t.Fatalf("unexpected customer cookie names: %v", customer)
	}
}
