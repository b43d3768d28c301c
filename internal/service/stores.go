// Package service implements the authentication, task and admin use cases on top of
// injected stores. Stores report domain sentinels (user.ErrNotFound, user.ErrEmailTaken,
// task.ErrNotFound); anything else is surfaced as an upstream failure.
package service

import (
	"context"
	"time"

	"github.com/geocoder89/taskhub/internal/apperr"
	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/geocoder89/taskhub/internal/domain/user"
)

type UserStore interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	// GetByEmail expects an already normalized email.
	GetByEmail(ctx context.Context, email string) (user.User, error)
	List(ctx context.Context) ([]user.User, error)
	Update(ctx context.Context, id string, upd user.ProfileUpdate) (user.User, error)
	SetActive(ctx context.Context, id string, active bool) (user.User, error)
	Stats(ctx context.Context) (user.Stats, error)
}

// TaskStore scopes every single-task operation by (id, ownerID). A task that exists but
// belongs to someone else is reported as task.ErrNotFound.
type TaskStore interface {
	Create(ctx context.Context, t task.Task) (task.Task, error)
	Get(ctx context.Context, id, ownerID string) (task.Task, error)
	List(ctx context.Context, ownerID string, f task.Filter) ([]task.Task, error)
	Update(ctx context.Context, id, ownerID string, upd task.Update) (task.Task, error)
	Delete(ctx context.Context, id, ownerID string) error
	MarkComplete(ctx context.Context, id, ownerID string, at time.Time) (task.Task, error)
	Stats(ctx context.Context) (task.Stats, error)
}

type TokenIssuer interface {
	GenerateAccessToken(u user.User) (string, time.Time, error)
}

func storeErr(err error) error {
	return apperr.Upstream(err)
}
