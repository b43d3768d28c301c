package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/geocoder89/taskhub/internal/apperr"
	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/repo/memory"
	"github.com/geocoder89/taskhub/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterThenLogin_RoleRoundTrip(t *testing.T) {
	for _, role := range []user.Role{user.RoleUser, user.RoleAdmin} {
		t.Run(string(role), func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()

			reg, err := f.auth.Register(ctx, service.RegisterInput{
				FullName: "Ann",
				Email:    "ann@x.com",
				Password: "secret1",
				Role:     string(role),
			})
			require.NoError(t, err)
			assert.NotEmpty(t, reg.Token)
			assert.True(t, reg.User.IsActive)
			assert.NotEqual(t, "secret1", reg.User.PasswordHash)

			res, err := f.auth.Login(ctx, "ann@x.com", "secret1")
			require.NoError(t, err)

			claims, err := f.jwt.VerifyAccessToken(res.Token)
			require.NoError(t, err)
			assert.Equal(t, role, claims.Role)
			assert.Equal(t, reg.User.ID, claims.UserID)
		})
	}
}

func TestRegister_DefaultsToUserRole(t *testing.T) {
	f := newFixture(t)

	res, err := f.auth.Register(context.Background(), service.RegisterInput{
		FullName: "Bob", Email: "bob@x.com", Password: "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, user.RoleUser, res.User.Role)
}

func TestRegister_DuplicateEmailIsConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.register(t, "Ann", "ann@x.com", user.RoleUser)

	_, err := f.auth.Register(ctx, service.RegisterInput{
		FullName: "Ann Again", Email: "  ANN@x.com ", Password: "secret2", Role: "user",
	})
	require.ErrorIs(t, err, user.ErrEmailTaken)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	stats, err := f.users.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.Total)
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		in   service.RegisterInput
		want error
	}{
		{"missing name", service.RegisterInput{Email: "a@x.com", Password: "secret1"}, service.ErrFullNameRequired},
		{"missing email", service.RegisterInput{FullName: "A", Password: "secret1"}, service.ErrEmailRequired},
		{"short password", service.RegisterInput{FullName: "A", Email: "a@x.com", Password: "123"}, service.ErrPasswordTooShort},
		{"unknown role", service.RegisterInput{FullName: "A", Email: "a@x.com", Password: "secret1", Role: "root"}, user.ErrInvalidRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.auth.Register(context.Background(), tt.in)
			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}
}

func TestRegister_AdminSignupDisabled(t *testing.T) {
	users := memory.NewUsersRepo()
	svc := service.NewAuthService(users, auth.NewManager("k", 0), false)

	_, err := svc.Register(context.Background(), service.RegisterInput{
		FullName: "Mallory", Email: "m@x.com", Password: "secret1", Role: "admin",
	})
	require.ErrorIs(t, err, service.ErrAdminSignupOff)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestLogin_InvalidCredentials(t *testing.T) {
	f := newFixture(t)
	f.register(t, "Ann", "ann@x.com", user.RoleUser)

	_, err := f.auth.Login(context.Background(), "ann@x.com", "wrong-password")
	assert.ErrorIs(t, err, user.ErrInvalidCredentials)

	_, err = f.auth.Login(context.Background(), "nobody@x.com", "secret1")
	assert.ErrorIs(t, err, user.ErrInvalidCredentials)
}

func TestLogin_DeactivatedAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ann := f.register(t, "Ann", "ann@x.com", user.RoleUser)

	_, err := f.users.SetActive(ctx, ann.ID, false)
	require.NoError(t, err)

	_, err = f.auth.Login(ctx, "ann@x.com", "secret1")
	require.ErrorIs(t, err, user.ErrAccountDeactivated)
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))

	active, err := f.auth.IsActive(ctx, ann.ID)
	require.NoError(t, err)
	assert.False(t, active)
}

type failingUsers struct {
	*memory.UsersRepo
}

func (failingUsers) GetByEmail(context.Context, string) (user.User, error) {
	return user.User{}, errors.New("connection refused")
}

func TestLogin_StoreFailureIsUpstream(t *testing.T) {
	svc := service.NewAuthService(failingUsers{memory.NewUsersRepo()}, auth.NewManager("k", 0), true)

	_, err := svc.Login(context.Background(), "ann@x.com", "secret1")
	require.Error(t, err)
	assert.Equal(t, apperr.KindUpstream, apperr.KindOf(err))
}
