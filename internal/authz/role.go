package authz

import "fmt"

// Role is the closed set of principal roles. Roles outside this set
// are rejected at parse time.
type Role string

const (
	// RoleSuperAdmin is global and brand-less. It bypasses tenant
	// scoping and the subscription gate.
	RoleSuperAdmin Role = "super_admin"
	// RoleChairman is the senior role within a brand, assigned to the
	// registering user.
	RoleChairman Role = "chairman"
	// RoleAdmin manages a brand but may never modify a chairman.
	RoleAdmin Role = "admin"
	// RoleRegular is ordinary serving staff.
	RoleRegular Role = "regular"
)

var roleRank = map[Role]int{
	RoleRegular:    1,
	RoleAdmin:      2,
	RoleChairman:   3,
	RoleSuperAdmin: 4,
}

// ParseRole validates a role string against the closed enumeration.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := roleRank[r]; !ok {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Valid reports whether the role belongs to the closed enumeration.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// Outranks reports whether r is strictly senior to other. Equal roles
// never outrank each other.
func (r Role) Outranks(other Role) bool {
	return roleRank[r] > roleRank[other]
}

// Principal is the authenticated identity of a request, derived from a
// verified access token and immutable for the request's lifetime.
// BrandID is empty only for super_admin.
type Principal struct {
	UserID  string
	BrandID string
	Role    Role
}

// AssignableRoles are the roles an authority may grant to brand staff.
// Chairman is fixed at registration and super_admin is never granted.
var AssignableRoles = []Role{RoleAdmin, RoleRegular}

// Assignable reports whether a role may be granted to brand staff.
func Assignable(r Role) bool {
	for _, a := range AssignableRoles {
		if a == r {
			return true
		}
	}
	return false
}
