package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/taskhub/internal/apperr"
	"github.com/geocoder89/taskhub/internal/config"
	"github.com/geocoder89/taskhub/internal/service"
	"github.com/gin-gonic/gin"
)

type Authenticator interface {
	Register(ctx context.Context, in service.RegisterInput) (service.AuthResult, error)
	Login(ctx context.Context, email, password string) (service.AuthResult, error)
}

// AuthObserver counts auth outcomes. observability.Prom satisfies it.
type AuthObserver interface {
	ObserveAuth(action, result string)
}

type AuthHandler struct {
	auth Authenticator
	obs  AuthObserver
}

func NewAuthHandler(auth Authenticator, obs AuthObserver) *AuthHandler {
	return &AuthHandler{auth: auth, obs: obs}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	FullName string `json:"fullName" binding:"required,notblank,max=100"`
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=6,max=72"`
	Role     string `json:"role" binding:"omitempty,role"`
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req RegisterRequest

	if !BindJSON(ctx, &req) {
		h.observe("register", "rejected")
		return
	}

	// bcrypt dominates this request
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	res, err := h.auth.Register(cctx, service.RegisterInput{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		h.observeErr("register", err)
		RespondAppError(ctx, err)
		return
	}

	h.observe("register", "ok")
	ctx.JSON(http.StatusCreated, res)
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		h.observe("login", "rejected")
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	res, err := h.auth.Login(cctx, req.Email, req.Password)
	if err != nil {
		h.observeErr("login", err)
		RespondAppError(ctx, err)
		return
	}

	h.observe("login", "ok")
	ctx.JSON(http.StatusOK, res)
}

func (h *AuthHandler) observeErr(action string, err error) {
	if apperr.KindOf(err) == apperr.KindUpstream {
		h.observe(action, "error")
		return
	}
	h.observe(action, "rejected")
}

func (h *AuthHandler) observe(action, result string) {
	if h.obs != nil {
		h.obs.ObserveAuth(action, result)
	}
}
