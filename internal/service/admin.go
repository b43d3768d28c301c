package service

import (
	"context"

	"github.com/geocoder89/taskhub/internal/apperr"
	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/geocoder89/taskhub/internal/domain/user"
)

var ErrCannotDeactivateSelf = apperr.Validation("cannot_deactivate_self", "Admins cannot deactivate their own account.")

type DashboardStats struct {
	TotalUsers       int64 `json:"totalUsers"`
	ActiveUsers      int64 `json:"activeUsers"`
	DeactivatedUsers int64 `json:"deactivatedUsers"`
	TotalTasks       int64 `json:"totalTasks"`
	PendingTasks     int64 `json:"pendingTasks"`
	CompletedTasks   int64 `json:"completedTasks"`
}

// AdminService runs the cross-user queries. Callers are expected to have passed the
// admin role gate already.
type AdminService struct {
	users UserStore
	tasks TaskStore
}

func NewAdminService(users UserStore, tasks TaskStore) *AdminService {
	return &AdminService{users: users, tasks: tasks}
}

func (s *AdminService) ListUsers(ctx context.Context) ([]user.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	if users == nil {
		users = []user.User{}
	}
	return users, nil
}

func (s *AdminService) GetUser(ctx context.Context, id string) (user.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return user.User{}, storeErr(err)
	}
	return u, nil
}

func (s *AdminService) SetActive(ctx context.Context, actor auth.Identity, id string, active bool) (user.User, error) {
	if !active && actor.UserID == id {
		return user.User{}, ErrCannotDeactivateSelf
	}

	u, err := s.users.SetActive(ctx, id, active)
	if err != nil {
		return user.User{}, storeErr(err)
	}
	return u, nil
}

// ListUserTasks bypasses the ownership check; the owner must exist.
func (s *AdminService) ListUserTasks(ctx context.Context, userID string, f task.Filter) ([]task.Task, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, storeErr(err)
	}

	items, err := s.tasks.List(ctx, userID, f)
	if err != nil {
		return nil, storeErr(err)
	}
	if items == nil {
		items = []task.Task{}
	}
	return items, nil
}

func (s *AdminService) DashboardStats(ctx context.Context) (DashboardStats, error) {
	us, err := s.users.Stats(ctx)
	if err != nil {
		return DashboardStats{}, storeErr(err)
	}

	ts, err := s.tasks.Stats(ctx)
	if err != nil {
		return DashboardStats{}, storeErr(err)
	}

	return DashboardStats{
		TotalUsers:       us.Total,
		ActiveUsers:      us.Active,
		DeactivatedUsers: us.Total - us.Active,
		TotalTasks:       ts.Total,
		PendingTasks:     ts.Pending,
		CompletedTasks:   ts.Completed,
	}, nil
}
