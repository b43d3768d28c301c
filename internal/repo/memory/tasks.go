package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/task"
)

type TasksRepo struct {
	mu    sync.RWMutex
	items map[string]task.Task
}

func NewTasksRepo() *TasksRepo {
	return &TasksRepo{
		items: make(map[string]task.Task),
	}
}

func (r *TasksRepo) Create(_ context.Context, t task.Task) (task.Task, error) {
	r.mu.Lock()
	r.items[t.ID] = t
	r.mu.Unlock()

	return t, nil
}

// owned must be called with the lock held.
func (r *TasksRepo) owned(id, ownerID string) (task.Task, bool) {
	t, ok := r.items[id]
	if !ok || t.UserID != ownerID {
		return task.Task{}, false
	}
	return t, true
}

func (r *TasksRepo) Get(_ context.Context, id, ownerID string) (task.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.owned(id, ownerID)
	if !ok {
		return task.Task{}, task.ErrNotFound
	}
	return t, nil
}

func (r *TasksRepo) List(_ context.Context, ownerID string, f task.Filter) ([]task.Task, error) {
	r.mu.RLock()
	out := make([]task.Task, 0)
	for _, t := range r.items {
		if t.UserID == ownerID && f.Matches(t) {
			out = append(out, t)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out, nil
}

func (r *TasksRepo) Update(_ context.Context, id, ownerID string, upd task.Update) (task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.owned(id, ownerID)
	if !ok {
		return task.Task{}, task.ErrNotFound
	}

	upd.Apply(&t)
	t.UpdatedAt = time.Now().UTC()
	r.items[id] = t

	return t, nil
}

func (r *TasksRepo) Delete(_ context.Context, id, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.owned(id, ownerID); !ok {
		return task.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *TasksRepo) MarkComplete(_ context.Context, id, ownerID string, at time.Time) (task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.owned(id, ownerID)
	if !ok {
		return task.Task{}, task.ErrNotFound
	}

	t.Complete(at)
	r.items[id] = t

	return t, nil
}

func (r *TasksRepo) Stats(_ context.Context) (task.Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var s task.Stats
	for _, t := range r.items {
		s.Total++
		switch t.Status {
		case task.StatusCompleted:
			s.Completed++
		case task.StatusPending:
			s.Pending++
		}
	}
	return s, nil
}
