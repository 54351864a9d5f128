package router

import "context"

// Role is a guild role as seen by the router. Required roles may name either field.
type Role struct {
	ID   string
	Name string
}

// RoleSet holds every id and every name of a user's roles.
// A nil RoleSet means the roles were not resolved by the transport.
type RoleSet map[string]struct{}

// NewRoleSet indexes roles by both id and name.
func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles)*2)
	for _, r := range roles {
		if r.ID != "" {
			set[r.ID] = struct{}{}
		}
		if r.Name != "" {
			set[r.Name] = struct{}{}
		}
	}
	return set
}

// Roles builds a RoleSet from plain keys.
func Roles(keys ...string) RoleSet {
	set := make(RoleSet, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

// Has reports whether idOrName matches one of the roles.
func (s RoleSet) Has(idOrName string) bool {
	_, ok := s[idOrName]
	return ok
}

// RoleDirectory resolves a member's current roles when the inbound event did not carry them.
type RoleDirectory interface {
	MemberRoles(ctx context.Context, guildID, userID string) (RoleSet, error)
}

// Authorize decides whether userRoles satisfy required.
// An empty requirement always passes; requireAll asks for every role, otherwise any one is enough.
func Authorize(userRoles RoleSet, required []string, requireAll bool) bool {
	if len(required) == 0 {
		return true
	}
	if requireAll {
		for _, r := range required {
			if !userRoles.Has(r) {
				return false
			}
		}
		return true
	}
	for _, r := range required {
		if userRoles.Has(r) {
			return true
		}
	}
	return false
}
