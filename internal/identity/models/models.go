package models

import (
	"github.com/google/uuid"
)

// Role describes what a user is allowed to administer.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleCustomer
}

// DefaultPlanName is assigned at registration when no plan is requested.
const DefaultPlanName = "basic"

// User is an authenticated account holding a subscription plan.
// PlanName references the plan catalog by name; the quota ceiling is always
// derived from the current plan at access time, never stored per user.
type User struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	Role         Role
	PlanName     string
}

// IsAdmin reports whether the user may call admin endpoints.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
