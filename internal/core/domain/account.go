package domain

import "time"

// AdminAccount mirrors the back-office account record held by the account
// collaborator. Dynamic role accounts share this namespace with the stored
// role value carrying the "role_" prefix.
type AdminAccount struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	// Role is the raw stored role value, e.g. "admin" or "role_sales_team".
	Role      string
	IsActive  bool
	CreatedAt time.Time
	LastLogin *time.Time
}

// CustomerAccount mirrors the portal customer record.
type CustomerAccount struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	LastLogin    *time.Time
}
