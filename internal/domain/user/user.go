package user

import (
	"strings"
	"time"

	"github.com/geocoder89/taskhub/internal/apperr"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole maps raw input onto the closed role set. Empty input is the default role.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case "", RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", ErrInvalidRole
	}
}

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

type User struct {
	ID           string    `json:"id"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	Role         Role      `json:"role"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ProfileUpdate carries only the fields being changed.
type ProfileUpdate struct {
	FullName     *string
	Email        *string
	PasswordHash *string
}

type Stats struct {
	Total  int64
	Active int64
}

// NormalizeEmail is the canonical form used for storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var (
	ErrNotFound           = apperr.New(apperr.KindNotFound, "user_not_found", "User not found.")
	ErrEmailTaken         = apperr.New(apperr.KindConflict, "email_taken", "Email is already in use.")
	ErrInvalidCredentials = apperr.New(apperr.KindUnauthenticated, "invalid_credentials", "Email or password is incorrect.")
	ErrAccountDeactivated = apperr.New(apperr.KindUnauthenticated, "account_deactivated", "This account has been deactivated.")
	ErrInvalidRole        = apperr.Validation("invalid_role", "role must be one of user, admin")
)
