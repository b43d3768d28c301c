package service

import (
	"context"
	"strings"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/task"
)

type CreateTaskInput struct {
	Title       string
	Description string
	Category    string
	DueDate     string
}

type UpdateTaskInput struct {
	Title       *string
	Description *string
	Category    *string
	DueDate     *string
}

type TaskService struct {
	tasks TaskStore
	now   func() time.Time
}

func NewTaskService(tasks TaskStore) *TaskService {
	return &TaskService{tasks: tasks, now: time.Now}
}

func (s *TaskService) Create(ctx context.Context, ownerID string, in CreateTaskInput) (task.Task, error) {
	if strings.TrimSpace(in.Title) == "" {
		return task.Task{}, task.ErrTitleRequired
	}

	due, err := task.ParseDueDate(in.DueDate)
	if err != nil {
		return task.Task{}, err
	}

	t := task.New(task.NewTaskParams{
		OwnerID:     ownerID,
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		DueDate:     due,
	})

	created, err := s.tasks.Create(ctx, t)
	if err != nil {
		return task.Task{}, storeErr(err)
	}
	return created, nil
}

func (s *TaskService) List(ctx context.Context, ownerID string, f task.Filter) ([]task.Task, error) {
	items, err := s.tasks.List(ctx, ownerID, f)
	if err != nil {
		return nil, storeErr(err)
	}
	if items == nil {
		items = []task.Task{}
	}
	return items, nil
}

func (s *TaskService) Get(ctx context.Context, id, ownerID string) (task.Task, error) {
	t, err := s.tasks.Get(ctx, id, ownerID)
	if err != nil {
		return task.Task{}, storeErr(err)
	}
	return t, nil
}

func (s *TaskService) Update(ctx context.Context, id, ownerID string, in UpdateTaskInput) (task.Task, error) {
	var upd task.Update

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return task.Task{}, task.ErrTitleRequired
		}
		upd.Title = &title
	}

	if in.DueDate != nil {
		due, err := task.ParseDueDate(*in.DueDate)
		if err != nil {
			return task.Task{}, err
		}
		upd.DueDate = &due
	}

	if in.Category != nil {
		c := strings.TrimSpace(*in.Category)
		upd.Category = &c
	}

	upd.Description = in.Description

	if upd == (task.Update{}) {
		return s.Get(ctx, id, ownerID)
	}

	t, err := s.tasks.Update(ctx, id, ownerID, upd)
	if err != nil {
		return task.Task{}, storeErr(err)
	}
	return t, nil
}

func (s *TaskService) Delete(ctx context.Context, id, ownerID string) error {
	return storeErr(s.tasks.Delete(ctx, id, ownerID))
}

// MarkComplete is idempotent: completing an already completed task succeeds unchanged.
func (s *TaskService) MarkComplete(ctx context.Context, id, ownerID string) (task.Task, error) {
	t, err := s.tasks.MarkComplete(ctx, id, ownerID, s.now().UTC())
	if err != nil {
		return task.Task{}, storeErr(err)
	}
	return t, nil
}
