package rbac

import "todo-platform/internal/users"

// Role names as stored on users and carried in access tokens.
const (
	RoleUser  = users.RoleUser
	RoleAdmin = users.RoleAdmin
)

func IsAdmin(role string) bool { return role == RoleAdmin }
