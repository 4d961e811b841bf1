package rbac

// Role names. Keep these stable; they are stored on operator accounts and
// carried in access tokens.
const (
	RoleAdmin      = "admin"
	RoleSupervisor = "supervisor"
	RoleOperator   = "operator"
)

func IsAdmin(role string) bool { return role == RoleAdmin }

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleSupervisor, RoleOperator:
		return true
	}
	return false
}
