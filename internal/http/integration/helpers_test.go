package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/taskhub/internal/config"
	"github.com/geocoder89/taskhub/internal/db"
	"github.com/geocoder89/taskhub/internal/describe"
	apphttp "github.com/geocoder89/taskhub/internal/http"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/geocoder89/taskhub/internal/repo/memory"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "admin-secret"
)

func testConfig() config.Config {
	return config.Config{
		Env:                  "test",
		StoreDriver:          config.StoreMemory,
		JWTSecret:            "test-secret-key",
		JWTTTL:               time.Hour,
		AuthAllowAdminSignup: false,
		AuthActiveCacheTTL:   time.Minute,
		AuthRateLimit:        1000,
		AuthRateWindow:       time.Minute,
		MaxBodyBytes:         1 << 20,
		AdminEmail:           adminEmail,
		AdminPassword:        adminPassword,
		AdminName:            "Test Admin",
	}
}

type testEnv struct {
	router *gin.Engine
	reg    *prometheus.Registry
}

type option func(cfg *config.Config, deps *apphttp.Deps)

func withGenerator(g describe.Generator) option {
	return func(_ *config.Config, deps *apphttp.Deps) { deps.Generator = g }
}

func withConfig(fn func(cfg *config.Config)) option {
	return func(cfg *config.Config, _ *apphttp.Deps) { fn(cfg) }
}

func setupRouter(t *testing.T, opts ...option) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testConfig()
	users := memory.NewUsersRepo()
	reg := prometheus.NewRegistry()

	deps := apphttp.Deps{
		Users:    users,
		Tasks:    memory.NewTasksRepo(),
		Prom:     observability.NewProm(reg),
		Gatherer: reg,
	}
	for _, opt := range opts {
		opt(&cfg, &deps)
	}

	created, err := db.EnsureAdminUser(context.Background(), users, cfg)
	require.NoError(t, err)
	require.True(t, created)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &testEnv{
		router: apphttp.NewRouter(logger, cfg, deps),
		reg:    reg,
	}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

type userBody struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	IsActive bool   `json:"isActive"`
}

type authBody struct {
	Token string   `json:"token"`
	User  userBody `json:"user"`
}

type taskBody struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	DueDate     time.Time  `json:"dueDate"`
	Status      string     `json:"status"`
	CompletedAt *time.Time `json:"completedAt"`
}

type taskList struct {
	Items []taskBody `json:"items"`
	Count int        `json:"count"`
}

type errorBody struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"requestId"`
	} `json:"error"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}

func requireError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	require.Equal(t, status, w.Code, "body: %s", w.Body.String())
	require.Equal(t, code, decode[errorBody](t, w).Error.Code)
}

func (e *testEnv) register(t *testing.T, name, email, password string) authBody {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"fullName": name,
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())
	return decode[authBody](t, w)
}

func (e *testEnv) login(t *testing.T, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    email,
		"password": password,
	})
}

func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()
	w := e.login(t, adminEmail, adminPassword)
	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())
	return decode[authBody](t, w).Token
}

func (e *testEnv) createTask(t *testing.T, token string, body map[string]any) taskBody {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/tasks", token, body)
	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())
	return decode[taskBody](t, w)
}
