package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/taskhub/internal/actorctx"
	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/geocoder89/taskhub/internal/cache"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*auth.Claims, error)
}

// ActiveChecker reports whether a user may still act. Used only when per-request
// active checks are switched on.
type ActiveChecker interface {
	IsActive(ctx context.Context, userID string) (bool, error)
}

type AuthMiddleware struct {
	jwt    TokenVerifier
	active ActiveChecker
	cache  *cache.Cache
}

func NewAuthMiddleware(jwt TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt}
}

// WithActiveCheck makes RequireAuth reject tokens of deactivated users. Answers are
// cached per user for ttl.
func (m *AuthMiddleware) WithActiveCheck(checker ActiveChecker, ttl time.Duration) *AuthMiddleware {
	m.active = checker
	m.cache = cache.New(ttl)
	return m
}

// Forget drops the cached active state for userID.
func (m *AuthMiddleware) Forget(userID string) {
	if m.cache != nil {
		m.cache.Delete(userID)
	}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortWithError(c, http.StatusUnauthorized, "missing_token", "Missing or invalid Authorization header.")
			return
		}

		claims, err := m.jwt.VerifyAccessToken(raw)
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				abortWithError(c, http.StatusUnauthorized, auth.ErrTokenExpired.Code, auth.ErrTokenExpired.Message)
				return
			}
			abortWithError(c, http.StatusUnauthorized, auth.ErrInvalidToken.Code, auth.ErrInvalidToken.Message)
			return
		}

		id := claims.Identity()

		if m.active != nil {
			active, err := m.isActive(c.Request.Context(), id.UserID)
			if err != nil {
				slog.Default().ErrorContext(c.Request.Context(), "active check failed", "user_id", id.UserID, "err", err)
				abortWithError(c, http.StatusInternalServerError, "internal_error", "Something went wrong.")
				return
			}
			if !active {
				abortWithError(c, http.StatusUnauthorized, user.ErrAccountDeactivated.Code, user.ErrAccountDeactivated.Message)
				return
			}
		}

		// Stash identity on both contexts: gin for handlers, request ctx for code below them
		c.Set(ctxIdentityKey, id)
		c.Request = c.Request.WithContext(actorctx.WithIdentity(c.Request.Context(), id))

		c.Next()
	}
}

func (m *AuthMiddleware) isActive(ctx context.Context, userID string) (bool, error) {
	if active, ok := m.cache.GetBool(userID); ok {
		return active, nil
	}

	active, err := m.active.IsActive(ctx, userID)
	if err != nil {
		return false, err
	}

	m.cache.Set(userID, active)
	return active, nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

// Optional helpers so handlers don't need to know the magic keys.

func IdentityFromContext(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(ctxIdentityKey)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	return id, ok && id.UserID != ""
}

func UserIDFromContext(c *gin.Context) (string, bool) {
	id, ok := IdentityFromContext(c)
	return id.UserID, ok
}

func RoleFromContext(c *gin.Context) (user.Role, bool) {
	id, ok := IdentityFromContext(c)
	return id.Role, ok
}
