package domain

import "time"

// PrincipalKind distinguishes the two authenticated principal classes.
type PrincipalKind string

const (
	PrincipalKindAdmin    PrincipalKind = "admin"
	PrincipalKindCustomer PrincipalKind = "customer"
)

// Valid reports whether the kind is one of the known principal classes.
func (k PrincipalKind) Valid() bool {
	return k == PrincipalKindAdmin || k == PrincipalKindCustomer
}

// Principal is the resolved identity attached to an authorized request.
// It is derived fresh per request and never cached beyond it.
type Principal struct {
	Kind        PrincipalKind
	ID          string
	Email       string
	DisplayName string
	// Role is the canonical role name; empty for customer principals.
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Cookie slot names at the wire-compatibility boundary. Existing clients
// carry sessions in these exact cookies; everything behind the gate works
// with SessionSlot instead.
const (
	CookieAdminToken    = "admin_token"
	CookieCustomerToken = "customer_token"
	// CookieLegacyToken is the alternate customer slot still set by older
	// portal builds. Same semantics as customer_token.
	CookieLegacyToken = "token"
)

// SessionSlot identifies the authoritative cookie slot for a principal kind.
type SessionSlot struct {
	Kind PrincipalKind
}

// CookieNames returns the cookie names read for this slot, in priority order.
func (s SessionSlot) CookieNames() []string {
	if s.Kind == PrincipalKindAdmin {
		return []string{CookieAdminToken}
	}
	return []string{CookieCustomerToken, CookieLegacyToken}
}
