package task

import (
	"strings"
	"time"

	"github.com/geocoder89/taskhub/internal/apperr"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted:
		return true
	default:
		return false
	}
}

type Task struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	DueDate     time.Time  `json:"dueDate"`
	Status      Status     `json:"status"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// with pointers if optional, nil means no filter
type Filter struct {
	Status   *Status
	Category *string
}

// Matches reports whether t passes f. Stores that cannot push the filter down use it.
func (f Filter) Matches(t Task) bool {
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.Category != nil && !strings.EqualFold(t.Category, *f.Category) {
		return false
	}
	return true
}

// ParseStatusFilter accepts all, pending or completed. "all" and "" yield no filter.
func ParseStatusFilter(s string) (*Status, error) {
	switch v := Status(strings.ToLower(strings.TrimSpace(s))); v {
	case "", "all":
		return nil, nil
	case StatusPending, StatusCompleted:
		return &v, nil
	default:
		return nil, ErrInvalidStatusFilter
	}
}

// Update is a partial change; nil fields are left untouched.
type Update struct {
	Title       *string
	Description *string
	Category    *string
	DueDate     *time.Time
}

func (u Update) Apply(t *Task) {
	if u.Title != nil {
		t.Title = *u.Title
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.Category != nil {
		t.Category = *u.Category
	}
	if u.DueDate != nil {
		t.DueDate = *u.DueDate
	}
}

// Complete moves the task to completed. Completing twice keeps the first timestamp.
func (t *Task) Complete(now time.Time) {
	if t.Status == StatusCompleted {
		return
	}
	t.Status = StatusCompleted
	t.CompletedAt = &now
	t.UpdatedAt = now
}

type Stats struct {
	Total     int64
	Pending   int64
	Completed int64
}

const dateLayout = "2006-01-02"

// ParseDueDate accepts a calendar date or a full RFC3339 timestamp.
func ParseDueDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrDueDateRequired
	}

	if d, err := time.Parse(dateLayout, s); err == nil {
		return d.UTC(), nil
	}

	if d, err := time.Parse(time.RFC3339, s); err == nil {
		return d.UTC(), nil
	}

	return time.Time{}, ErrInvalidDueDate
}

var (
	ErrNotFound            = apperr.New(apperr.KindNotFound, "task_not_found", "Task not found.")
	ErrTitleRequired       = apperr.Validation("title_required", "title is required")
	ErrDueDateRequired     = apperr.Validation("due_date_required", "dueDate is required")
	ErrInvalidDueDate      = apperr.Validation("invalid_due_date", "dueDate must be YYYY-MM-DD or RFC3339")
	ErrInvalidStatusFilter = apperr.Validation("invalid_status", "status must be one of all, pending, completed")
)
