package auth

import "sort"

// Known roles.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// RoleSet is the set of roles allowed to view a page. A nil set means no
// restriction was supplied; a non-nil empty set admits nobody.
type RoleSet map[string]struct{}

// AnyRole admits every authenticated user.
var AnyRole RoleSet

// Roles builds a restricted set from the given role identifiers.
func Roles(roles ...string) RoleSet {
	set := make(RoleSet, len(roles))
	for _, role := range roles {
		set[role] = struct{}{}
	}
	return set
}

// Allows reports whether role is admitted.
func (s RoleSet) Allows(role string) bool {
	if !s.Restricted() {
		return true
	}
	_, ok := s[role]
	return ok
}

// Restricted reports whether a set was supplied.
func (s RoleSet) Restricted() bool {
	return s != nil
}

// List returns the roles in sorted order.
func (s RoleSet) List() []string {
	roles := make([]string, 0, len(s))
	for role := range s {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}
