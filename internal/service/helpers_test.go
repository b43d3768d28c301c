package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/repo/memory"
	"github.com/geocoder89/taskhub/internal/service"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	users   *memory.UsersRepo
	tasks   *memory.TasksRepo
	jwt     *auth.Manager
	auth    *service.AuthService
	task    *service.TaskService
	admin   *service.AdminService
	profile *service.ProfileService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	users := memory.NewUsersRepo()
	tasks := memory.NewTasksRepo()
	jwt := auth.NewManager("test-secret-key", time.Hour)

	return &fixture{
		users:   users,
		tasks:   tasks,
		jwt:     jwt,
		auth:    service.NewAuthService(users, jwt, true),
		task:    service.NewTaskService(tasks),
		admin:   service.NewAdminService(users, tasks),
		profile: service.NewProfileService(users),
	}
}

func (f *fixture) register(t *testing.T, name, email string, role user.Role) user.User {
	t.Helper()

	res, err := f.auth.Register(context.Background(), service.RegisterInput{
		FullName: name,
		Email:    email,
		Password: "secret1",
		Role:     string(role),
	})
	require.NoError(t, err)
	return res.User
}
