package zoo

import "fmt"

// Role selects which screen a user works with.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

// Action is an operation a role may be allowed to perform.
type Action string

const (
	ActionList   Action = "list"
	ActionView   Action = "view"
	ActionEdit   Action = "edit"
	ActionCreate Action = "create"
	ActionDelete Action = "delete"
)

// ParseRole validates a role name. An empty string selects RoleAdmin.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case "", RoleAdmin:
		return RoleAdmin, nil
	case RoleEmployee:
		return RoleEmployee, nil
	default:
		return "", fmt.Errorf("zoo: unknown role %q (want %q or %q)", s, RoleAdmin, RoleEmployee)
	}
}

// Allows reports whether the role may perform the action.
// Employees cannot create or delete services.
func (r Role) Allows(a Action) bool {
	switch a {
	case ActionList, ActionView, ActionEdit:
		return r == RoleAdmin || r == RoleEmployee
	case ActionCreate, ActionDelete:
		return r == RoleAdmin
	default:
		return false
	}
}

// Check returns an error wrapping ErrForbidden when the role may not
// perform the action.
func (r Role) Check(a Action) error {
	if r.Allows(a) {
		return nil
	}
	return fmt.Errorf("%w: %s cannot %s services", ErrForbidden, r, a)
}
