package service

import (
	"context"
	"strings"

	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/security"
)

type UpdateProfileInput struct {
	FullName *string
	Email    *string
	Password *string
}

type ProfileService struct {
	users UserStore
}

func NewProfileService(users UserStore) *ProfileService {
	return &ProfileService{users: users}
}

func (s *ProfileService) Me(ctx context.Context, userID string) (user.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return user.User{}, storeErr(err)
	}
	return u, nil
}

func (s *ProfileService) Update(ctx context.Context, userID string, in UpdateProfileInput) (user.User, error) {
	var upd user.ProfileUpdate

	if in.FullName != nil {
		name := strings.TrimSpace(*in.FullName)
		if name == "" {
			return user.User{}, ErrFullNameRequired
		}
		upd.FullName = &name
	}

	if in.Email != nil {
		email := user.NormalizeEmail(*in.Email)
		if email == "" || !strings.Contains(email, "@") {
			return user.User{}, ErrEmailRequired
		}
		upd.Email = &email
	}

	if in.Password != nil {
		if err := validatePassword(*in.Password); err != nil {
			return user.User{}, err
		}
		hash, err := security.HashPassword(*in.Password)
		if err != nil {
			return user.User{}, storeErr(err)
		}
		upd.PasswordHash = &hash
	}

	if upd == (user.ProfileUpdate{}) {
		return s.Me(ctx, userID)
	}

	u, err := s.users.Update(ctx, userID, upd)
	if err != nil {
		return user.User{}, storeErr(err)
	}
	return u, nil
}
