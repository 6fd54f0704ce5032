package auth

// Role represents a user role.
type Role string

const (
	RoleClient Role = "Client"
	RoleAdmin  Role = "Administrator"
)

// NormalizeRole validates and normalizes a role string.
func NormalizeRole(value string) (Role, bool) {
	switch Role(value) {
	case RoleClient, RoleAdmin:
		return Role(value), true
	default:
		return "", false
	}
}

// RoleAtLeast returns true when role satisfies required role.
func RoleAtLeast(role Role, required Role) bool {
	return roleRank(role) >= roleRank(required)
}

func roleRank(role Role) int {
	switch role {
	case RoleClient:
		return 1
	case RoleAdmin:
		return 2
	default:
		return 0
	}
}
