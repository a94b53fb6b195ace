package entity

import "fmt"

// Role is the workflow privilege of a user inside one tenant
type Role string

const (
	RoleEmployee Role = "EMPLOYEE"
	RoleManager  Role = "MANAGER"
	RoleFinance  Role = "FINANCE"
	RoleAdmin    Role = "ADMIN"
)

var validRoles = map[Role]bool{
	RoleEmployee: true,
	RoleManager:  true,
	RoleFinance:  true,
	RoleAdmin:    true,
}

// ParseRole converts a stored or submitted role string into a Role
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// IsValid returns true if the role is known
func (r Role) IsValid() bool {
	return validRoles[r]
}

// In reports whether r is one of roles
func (r Role) In(roles ...Role) bool {
	for _, candidate := range roles {
		if r == candidate {
			return true
		}
	}
	return false
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}
