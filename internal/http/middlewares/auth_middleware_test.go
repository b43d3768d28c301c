package middlewares

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/taskhub/internal/actorctx"
	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type fakeVerifier struct {
	verifyFn func(token string) (*auth.Claims, error)
}

func (f fakeVerifier) VerifyAccessToken(token string) (*auth.Claims, error) {
	return f.verifyFn(token)
}

type fakeActive struct {
	calls    int
	activeFn func(userID string) (bool, error)
}

func (f *fakeActive) IsActive(_ context.Context, userID string) (bool, error) {
	f.calls++
	return f.activeFn(userID)
}

func validVerifier(role user.Role) fakeVerifier {
	return fakeVerifier{verifyFn: func(token string) (*auth.Claims, error) {
		switch token {
		case "good":
			return &auth.Claims{UserID: "u1", Email: "ann@x.com", Role: role}, nil
		case "old":
			return nil, auth.ErrTokenExpired
		default:
			return nil, auth.ErrInvalidToken
		}
	}}
}

func newAuthRouter(m *AuthMiddleware, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	handlers := append([]gin.HandlerFunc{m.RequireAuth()}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		id, _ := IdentityFromContext(c)
		reqID, _ := actorctx.UserIDFrom(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"userId": id.UserID, "role": id.Role, "ctxUserId": reqID})
	})
	r.GET("/p", handlers...)
	return r
}

func doGet(r http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v body=%s", err, rec.Body.String())
	}
	return body.Error.Code
}

func TestRequireAuth(t *testing.T) {
	r := newAuthRouter(NewAuthMiddleware(validVerifier(user.RoleUser)))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantCode   string
	}{
		{"missing header", "", http.StatusUnauthorized, "missing_token"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "missing_token"},
		{"empty token", "Bearer   ", http.StatusUnauthorized, "missing_token"},
		{"invalid token", "Bearer nope", http.StatusUnauthorized, "invalid_token"},
		{"expired token", "Bearer old", http.StatusUnauthorized, "token_expired"},
		{"valid token", "Bearer good", http.StatusOK, ""},
		{"scheme is case-insensitive", "bearer good", http.StatusOK, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := doGet(r, tc.header)
			if rec.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d body=%s", tc.wantStatus, rec.Code, rec.Body.String())
			}
			if tc.wantCode != "" && errorCode(t, rec) != tc.wantCode {
				t.Fatalf("expected code %q, got body=%s", tc.wantCode, rec.Body.String())
			}
		})
	}
}

func TestRequireAuth_SetsIdentityOnBothContexts(t *testing.T) {
	r := newAuthRouter(NewAuthMiddleware(validVerifier(user.RoleAdmin)))

	rec := doGet(r, "Bearer good")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["userId"] != "u1" || body["ctxUserId"] != "u1" || body["role"] != "admin" {
		t.Fatalf("unexpected identity: %v", body)
	}
}

func TestRequireAuth_ActiveCheck(t *testing.T) {
	checker := &fakeActive{activeFn: func(string) (bool, error) { return false, nil }}
	m := NewAuthMiddleware(validVerifier(user.RoleUser)).WithActiveCheck(checker, time.Minute)
	r := newAuthRouter(m)

	rec := doGet(r, "Bearer good")
	if rec.Code != http.StatusUnauthorized || errorCode(t, rec) != "account_deactivated" {
		t.Fatalf("expected account_deactivated, got %d body=%s", rec.Code, rec.Body.String())
	}

	// cached
	doGet(r, "Bearer good")
	if checker.calls != 1 {
		t.Fatalf("expected 1 checker call, got %d", checker.calls)
	}

	checker.activeFn = func(string) (bool, error) { return true, nil }
	m.Forget("u1")

	rec = doGet(r, "Bearer good")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 after reactivation, got %d", rec.Code)
	}
}

func TestRequireAuth_ActiveCheckFailure(t *testing.T) {
	checker := &fakeActive{activeFn: func(string) (bool, error) { return false, errors.New("db down") }}
	r := newAuthRouter(NewAuthMiddleware(validVerifier(user.RoleUser)).WithActiveCheck(checker, time.Minute))

	rec := doGet(r, "Bearer good")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	t.Run("admin passes admin gate", func(t *testing.T) {
		m := NewAuthMiddleware(validVerifier(user.RoleAdmin))
		rec := doGet(newAuthRouter(m, m.RequireRole(user.RoleAdmin)), "Bearer good")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("user is forbidden from admin gate", func(t *testing.T) {
		m := NewAuthMiddleware(validVerifier(user.RoleUser))
		rec := doGet(newAuthRouter(m, m.RequireRole(user.RoleAdmin)), "Bearer good")
		if rec.Code != http.StatusForbidden || errorCode(t, rec) != "forbidden" {
			t.Fatalf("expected 403 forbidden, got %d body=%s", rec.Code, rec.Body.String())
		}
	})

	t.Run("no identity is unauthenticated", func(t *testing.T) {
		gin.SetMode(gin.TestMode)
		m := NewAuthMiddleware(validVerifier(user.RoleUser))
		r := gin.New()
		r.GET("/p", m.RequireRole(user.RoleUser), func(c *gin.Context) { c.Status(http.StatusOK) })

		rec := doGet(r, "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}
