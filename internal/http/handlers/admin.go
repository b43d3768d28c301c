package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/geocoder89/taskhub/internal/config"
	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/http/middlewares"
	"github.com/geocoder89/taskhub/internal/service"
	"github.com/geocoder89/taskhub/internal/utils"
	"github.com/gin-gonic/gin"
)

type AdminManager interface {
	ListUsers(ctx context.Context) ([]user.User, error)
	GetUser(ctx context.Context, id string) (user.User, error)
	SetActive(ctx context.Context, actor auth.Identity, id string, active bool) (user.User, error)
	ListUserTasks(ctx context.Context, userID string, f task.Filter) ([]task.Task, error)
	DashboardStats(ctx context.Context) (service.DashboardStats, error)
}

type AdminHandler struct {
	admin AdminManager
	// called after a user's active flag changes, e.g. to drop cached auth state
	onActiveChanged func(userID string)
}

func NewAdminHandler(admin AdminManager, onActiveChanged func(userID string)) *AdminHandler {
	return &AdminHandler{admin: admin, onActiveChanged: onActiveChanged}
}

func (h *AdminHandler) ListUsers(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	users, err := h.admin.ListUsers(cctx)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items": users,
		"count": len(users),
	})
}

func (h *AdminHandler) GetUser(ctx *gin.Context) {
	id, ok := userRouteID(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	u, err := h.admin.GetUser(cctx, id)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, u)
}

func (h *AdminHandler) Activate(ctx *gin.Context) {
	h.setActive(ctx, true)
}

func (h *AdminHandler) Deactivate(ctx *gin.Context) {
	h.setActive(ctx, false)
}

func (h *AdminHandler) setActive(ctx *gin.Context, active bool) {
	actor, ok := middlewares.IdentityFromContext(ctx)
	if !ok {
		RespondError(ctx, http.StatusUnauthorized, "unauthorized", "Missing identity context.", nil)
		return
	}

	id, ok := userRouteID(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	u, err := h.admin.SetActive(cctx, actor, id, active)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	if h.onActiveChanged != nil {
		h.onActiveChanged(u.ID)
	}

	ctx.JSON(http.StatusOK, u)
}

func (h *AdminHandler) ListUserTasks(ctx *gin.Context) {
	id, ok := userRouteID(ctx)
	if !ok {
		return
	}

	f, err := ParseTaskFilter(ctx)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	items, err := h.admin.ListUserTasks(cctx, id, f)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
	})
}

func (h *AdminHandler) Stats(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	stats, err := h.admin.DashboardStats(cctx)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, stats)
}

func userRouteID(ctx *gin.Context) (string, bool) {
	id := ctx.Param("id")
	if !utils.IsUUID(id) {
		RespondNotFound(ctx, user.ErrNotFound.Code, user.ErrNotFound.Message)
		return "", false
	}
	return id, true
}
