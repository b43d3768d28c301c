// Package authz holds the role and ownership policy applied per route.
package authz

import (
	"github.com/geocoder89/taskhub/internal/apperr"
	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/geocoder89/taskhub/internal/domain/user"
)

var (
	// user-scoped routes: any authenticated role acting on its own resources
	Members = []user.Role{user.RoleUser, user.RoleAdmin}
	// admin-only routes
	Admins = []user.Role{user.RoleAdmin}
)

func RequireRole(id auth.Identity, allowed ...user.Role) error {
	if !id.Role.Valid() {
		return apperr.ErrForbidden
	}
	for _, r := range allowed {
		if r == id.Role {
			return nil
		}
	}
	return apperr.ErrForbidden
}

func IsAdmin(id auth.Identity) bool {
	switch id.Role {
	case user.RoleAdmin:
		return true
	case user.RoleUser:
		return false
	default:
		return false
	}
}

// CanAccessOwned reports whether id may read a resource owned by ownerID.
func CanAccessOwned(id auth.Identity, ownerID string) bool {
	if id.UserID != "" && id.UserID == ownerID {
		return true
	}
	return IsAdmin(id)
}
