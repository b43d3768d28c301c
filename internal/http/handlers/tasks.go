package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/taskhub/internal/config"
	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/geocoder89/taskhub/internal/http/middlewares"
	"github.com/geocoder89/taskhub/internal/service"
	"github.com/geocoder89/taskhub/internal/utils"
	"github.com/gin-gonic/gin"
)

type TaskManager interface {
	Create(ctx context.Context, ownerID string, in service.CreateTaskInput) (task.Task, error)
	List(ctx context.Context, ownerID string, f task.Filter) ([]task.Task, error)
	Get(ctx context.Context, id, ownerID string) (task.Task, error)
	Update(ctx context.Context, id, ownerID string, in service.UpdateTaskInput) (task.Task, error)
	Delete(ctx context.Context, id, ownerID string) error
	MarkComplete(ctx context.Context, id, ownerID string) (task.Task, error)
}

type TasksHandler struct {
	tasks TaskManager
}

func NewTasksHandler(tasks TaskManager) *TasksHandler {
	return &TasksHandler{tasks: tasks}
}

type CreateTaskRequest struct {
	Title       string `json:"title" binding:"required,notblank,max=200"`
	Description string `json:"description" binding:"max=2000"`
	Category    string `json:"category" binding:"max=50"`
	DueDate     string `json:"dueDate" binding:"required"`
}

type UpdateTaskRequest struct {
	Title       *string `json:"title" binding:"omitempty,notblank,max=200"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	Category    *string `json:"category" binding:"omitempty,max=50"`
	DueDate     *string `json:"dueDate"`
}

// ParseTaskFilter reads ?status= and ?category= from the query string.
func ParseTaskFilter(ctx *gin.Context) (task.Filter, error) {
	status, err := task.ParseStatusFilter(ctx.Query("status"))
	if err != nil {
		return task.Filter{}, err
	}

	f := task.Filter{Status: status}

	if c := strings.TrimSpace(ctx.Query("category")); c != "" && !strings.EqualFold(c, "all") {
		f.Category = &c
	}

	return f, nil
}

func (h *TasksHandler) List(ctx *gin.Context) {
	ownerID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondError(ctx, http.StatusUnauthorized, "unauthorized", "Missing identity context.", nil)
		return
	}

	f, err := ParseTaskFilter(ctx)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	items, err := h.tasks.List(cctx, ownerID, f)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
	})
}

func (h *TasksHandler) Create(ctx *gin.Context) {
	ownerID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondError(ctx, http.StatusUnauthorized, "unauthorized", "Missing identity context.", nil)
		return
	}

	var req CreateTaskRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	t, err := h.tasks.Create(cctx, ownerID, service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		DueDate:     req.DueDate,
	})
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.Header("Location", "/api/tasks/"+t.ID)
	ctx.JSON(http.StatusCreated, t)
}

func (h *TasksHandler) Get(ctx *gin.Context) {
	ownerID, id, ok := taskRouteIDs(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	t, err := h.tasks.Get(cctx, id, ownerID)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, t)
}

func (h *TasksHandler) Update(ctx *gin.Context) {
	ownerID, id, ok := taskRouteIDs(ctx)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	t, err := h.tasks.Update(cctx, id, ownerID, service.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		DueDate:     req.DueDate,
	})
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, t)
}

func (h *TasksHandler) Delete(ctx *gin.Context) {
	ownerID, id, ok := taskRouteIDs(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.tasks.Delete(cctx, id, ownerID); err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *TasksHandler) Complete(ctx *gin.Context) {
	ownerID, id, ok := taskRouteIDs(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	t, err := h.tasks.MarkComplete(cctx, id, ownerID)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, t)
}

// taskRouteIDs resolves the caller and the :id param. A malformed id cannot name any
// task, so it is answered as not found.
func taskRouteIDs(ctx *gin.Context) (ownerID, id string, ok bool) {
	ownerID, ok = middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondError(ctx, http.StatusUnauthorized, "unauthorized", "Missing identity context.", nil)
		return "", "", false
	}

	id = ctx.Param("id")
	if !utils.IsUUID(id) {
		RespondNotFound(ctx, task.ErrNotFound.Code, task.ErrNotFound.Message)
		return "", "", false
	}

	return ownerID, id, true
}
