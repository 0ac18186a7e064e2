package enums

import "fmt"

// UserRole is the account-level role carried in session claims.
type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

func (r UserRole) String() string {
	return string(r)
}

func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleUser, UserRoleAdmin:
		return true
	default:
		return false
	}
}

func ParseUserRole(value string) (UserRole, error) {
	role := UserRole(value)
	if !role.IsValid() {
		return "", fmt.Errorf("invalid user role %q", value)
	}
	return role, nil
}

// NormalizeUserRole maps unknown or empty roles to the unprivileged default.
func NormalizeUserRole(value string) UserRole {
	role := UserRole(value)
	if !role.IsValid() {
		return UserRoleUser
	}
	return role
}
