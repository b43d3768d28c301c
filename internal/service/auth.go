package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/geocoder89/taskhub/internal/apperr"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/security"
	"github.com/google/uuid"
)

const MinPasswordLength = 6

var (
	ErrFullNameRequired = apperr.Validation("full_name_required", "fullName is required")
	ErrEmailRequired    = apperr.Validation("email_required", "a valid email is required")
	ErrPasswordTooShort = apperr.Validation("password_too_short", "password must be at least 6 characters")
	ErrPasswordTooLong  = apperr.Validation("password_too_long", "password must be at most 72 bytes")
	ErrAdminSignupOff   = apperr.New(apperr.KindForbidden, "admin_signup_disabled", "Admin accounts cannot be self-registered.")
)

// hash compared against when the email is unknown, so both paths pay the bcrypt cost
const dummyHash = "$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5BWX4Z0fh4VYSNQG8V1Pqs3S7b3rW"

type RegisterInput struct {
	FullName string
	Email    string
	Password string
	Role     string
}

type AuthResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      user.User `json:"user"`
}

type AuthService struct {
	users            UserStore
	tokens           TokenIssuer
	allowAdminSignup bool
}

func NewAuthService(users UserStore, tokens TokenIssuer, allowAdminSignup bool) *AuthService {
	return &AuthService{
		users:            users,
		tokens:           tokens,
		allowAdminSignup: allowAdminSignup,
	}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	fullName := strings.TrimSpace(in.FullName)
	if fullName == "" {
		return AuthResult{}, ErrFullNameRequired
	}

	email := user.NormalizeEmail(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return AuthResult{}, ErrEmailRequired
	}

	if err := validatePassword(in.Password); err != nil {
		return AuthResult{}, err
	}

	role, err := user.ParseRole(in.Role)
	if err != nil {
		return AuthResult{}, err
	}

	if role == user.RoleAdmin && !s.allowAdminSignup {
		return AuthResult{}, ErrAdminSignupOff
	}

	hash, err := security.HashPassword(in.Password)
	if err != nil {
		return AuthResult{}, storeErr(err)
	}

	now := time.Now().UTC()

	created, err := s.users.Create(ctx, user.User{
		ID:           uuid.NewString(),
		FullName:     fullName,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return AuthResult{}, storeErr(err)
	}

	return s.issue(created)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	found, err := s.users.GetByEmail(ctx, user.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			_ = security.CheckPassword(dummyHash, password)
			return AuthResult{}, user.ErrInvalidCredentials
		}
		return AuthResult{}, storeErr(err)
	}

	if err := security.CheckPassword(found.PasswordHash, password); err != nil {
		return AuthResult{}, user.ErrInvalidCredentials
	}

	if !found.IsActive {
		return AuthResult{}, user.ErrAccountDeactivated
	}

	return s.issue(found)
}

// IsActive backs the optional per-request active check.
func (s *AuthService) IsActive(ctx context.Context, userID string) (bool, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return false, nil
		}
		return false, storeErr(err)
	}
	return u.IsActive, nil
}

func (s *AuthService) issue(u user.User) (AuthResult, error) {
	token, exp, err := s.tokens.GenerateAccessToken(u)
	if err != nil {
		return AuthResult{}, storeErr(err)
	}
	return AuthResult{Token: token, ExpiresAt: exp, User: u}, nil
}

func validatePassword(p string) error {
	if len(p) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(p) > 72 {
		return ErrPasswordTooLong
	}
	return nil
}
