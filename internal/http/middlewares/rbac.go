package middlewares

import (
	"net/http"

	"github.com/geocoder89/taskhub/internal/apperr"
	"github.com/geocoder89/taskhub/internal/authz"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// RequireRole must run after RequireAuth.
func (m *AuthMiddleware) RequireRole(allowed ...user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFromContext(c)

		if !ok {
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "Missing identity context.")
			return
		}
		if err := authz.RequireRole(id, allowed...); err != nil {
			abortWithError(c, http.StatusForbidden, apperr.ErrForbidden.Code, apperr.ErrForbidden.Message)
			return
		}
		c.Next()
	}
}
