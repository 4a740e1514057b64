package enums

import (
	"fmt"
	"strings"
)

// Role is the account role the backend reports at sign-in.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "user"
)

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleCustomer
}

// ParseRole normalizes the backend's role spelling ("ADMIN", "USERS", "user").
func ParseRole(value string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "admin", "role_admin":
		return RoleAdmin, nil
	case "user", "users", "role_user", "customer":
		return RoleCustomer, nil
	}
	return "", fmt.Errorf("invalid role %q", value)
}
