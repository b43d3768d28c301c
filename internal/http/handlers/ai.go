package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/geocoder89/taskhub/internal/describe"
	"github.com/gin-gonic/gin"
)

type AIHandler struct {
	gen describe.Generator
}

func NewAIHandler(gen describe.Generator) *AIHandler {
	return &AIHandler{gen: gen}
}

type DescriptionRequest struct {
	Summary string `json:"summary" binding:"required,notblank,max=500"`
}

func (h *AIHandler) Description(ctx *gin.Context) {
	var req DescriptionRequest
	if !BindJSON(ctx, &req) {
		return
	}

	// the generator applies its own hard timeout
	text, err := h.gen.Generate(ctx.Request.Context(), strings.TrimSpace(req.Summary))
	if err != nil {
		if errors.Is(err, describe.ErrNotConfigured) {
			RespondError(ctx, http.StatusServiceUnavailable, "llm_unavailable", "Description generation is not configured.", nil)
			return
		}

		slog.Default().ErrorContext(ctx.Request.Context(), "llm generation failed",
			"request_id", requestIDFrom(ctx),
			"err", err,
		)
		RespondError(ctx, http.StatusInternalServerError, "llm_failed", "LLM generation failed.", nil)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"description": text})
}
