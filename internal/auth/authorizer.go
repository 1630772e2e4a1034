package auth

import (
	"strings"

	"github.com/Tyrowin/roomsignal/internal/signaling"
)

// DefaultModeratorRoles are the roles allowed to kick when none are configured.
var DefaultModeratorRoles = []string{"teacher", "admin"}

// RoleAuthorizer lets an actor moderate any room when its verified role is in
// the configured set. Anonymous actors never qualify.
type RoleAuthorizer struct {
	roles map[string]struct{}
}

// NewRoleAuthorizer builds an authorizer for roles, compared case-insensitively.
func NewRoleAuthorizer(roles []string) *RoleAuthorizer {
	if len(roles) == 0 {
		roles = DefaultModeratorRoles
	}
	set := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		role = strings.ToLower(strings.TrimSpace(role))
		if role != "" {
			set[role] = struct{}{}
		}
	}
	return &RoleAuthorizer{roles: set}
}

// CanModerate implements signaling.Authorizer.
func (a *RoleAuthorizer) CanModerate(actor signaling.Identity, _ string) bool {
	if actor.Role == "" {
		return false
	}
	_, ok := a.roles[strings.ToLower(actor.Role)]
	return ok
}

// NewAuthorizer picks the moderation policy for a deployment: role checks
// when tokens are verified, otherwise trust the caller.
func NewAuthorizer(v *Verifier, roles []string) signaling.Authorizer {
	if v.Enabled() {
		return NewRoleAuthorizer(roles)
	}
	return signaling.AllowAll
}
