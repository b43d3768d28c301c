package task

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type NewTaskParams struct {
	OwnerID     string
	Title       string
	Description string
	Category    string
	DueDate     time.Time
}

func New(p NewTaskParams) Task {
	now := time.Now().UTC()

	return Task{
		ID:          uuid.NewString(),
		UserID:      p.OwnerID,
		Title:       strings.TrimSpace(p.Title),
		Description: p.Description,
		Category:    strings.TrimSpace(p.Category),
		DueDate:     p.DueDate,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
