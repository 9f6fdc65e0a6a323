package auth

import (
	"slices"

	"cims/internal/model"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	MemberID uint
	Role     string
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == model.RoleAdmin
}

// HasRole reports whether the actor's role is one of roles.
func (a Actor) HasRole(roles ...string) bool {
	return slices.Contains(roles, a.Role)
}

// Policy decides whether an actor may perform a scoped operation.
type Policy interface {
	Allow(actor Actor) bool
}

// AnyAuthenticated admits every caller that presented a valid token.
type AnyAuthenticated struct{}

func (AnyAuthenticated) Allow(Actor) bool { return true }

// RoleAllowList admits callers whose role is listed.
type RoleAllowList []string

func (l RoleAllowList) Allow(actor Actor) bool {
	return actor.HasRole(l...)
}

// PolicyFromRoles returns RoleAllowList for a non-empty list and
// AnyAuthenticated otherwise.
func PolicyFromRoles(roles []string) Policy {
	if len(roles) == 0 {
		return AnyAuthenticated{}
	}
	return RoleAllowList(roles)
}
