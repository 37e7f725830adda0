package domain

import "time"

// LoginSucceededEvent is emitted after a principal authenticates.
type LoginSucceededEvent struct {
	AccountID string
	Kind      PrincipalKind
	Email     string
	Role      string
	IP        string
	At        time.Time
}

// LoginFailedEvent is emitted when credential verification fails.
type LoginFailedEvent struct {
	Kind   PrincipalKind
	Email  string
	Reason string
	IP     string
	At     time.Time
}

// LoginThrottledEvent is emitted when the rate limiter rejects a login
// attempt. A counter increment is the only security handling it receives.
type LoginThrottledEvent struct {
	Kind PrincipalKind
	IP   string
	At   time.Time
}

// RoleCreatedEvent is emitted when an operator provisions a dynamic role.
type RoleCreatedEvent struct {
	RoleID    string
	Slug      string
	Email     string
	CreatedBy string
	At        time.Time
}

// RoleUpdatedEvent is emitted when a dynamic role definition changes.
type RoleUpdatedEvent struct {
	RoleID    string
	Slug      string
	UpdatedBy string
	At        time.Time
}

// RoleDeletedEvent is emitted when a dynamic role is removed.
type RoleDeletedEvent struct {
	RoleID    string
	Slug      string
	DeletedBy string
	At        time.Time
}
