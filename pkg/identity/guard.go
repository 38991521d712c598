package identity

import "strings"

type PermissionCheck struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

type Guard func(user *AuthUser) PermissionCheck

// NewPermissionGuard allows users holding at least one of allowedRoles.
func NewPermissionGuard(allowedRoles ...string) Guard {
	roles := append([]string{}, allowedRoles...)
	denied := "Requires one of: " + strings.Join(roles, ", ")

	return func(user *AuthUser) PermissionCheck {
		if user == nil {
			return PermissionCheck{Allowed: false, Reason: "Not authenticated"}
		}
		if !HasAnyRole(user, roles) {
			return PermissionCheck{Allowed: false, Reason: denied}
		}
		return PermissionCheck{Allowed: true}
	}
}
