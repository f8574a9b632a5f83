package auth

import (
	"github.com/google/uuid"
)

// AuthContext is the authenticated identity available in a request.
// It is a transient value injected by the auth middleware from verified
// token claims; it is never persisted.
type AuthContext struct {
	UserID   uuid.UUID
	CampusID uuid.UUID
	Roles    []string
}

// HasRole reports whether the authenticated user carries the given role.
func (ac *AuthContext) HasRole(role string) bool {
	if ac == nil {
		return false
	}
	for _, r := range ac.Roles {
		if r == role {
			return true
		}
	}
	return false
}
