package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Make sure Gin does not spam the console during the test
func init() {
	gin.SetMode(gin.TestMode)
}

func newUUID() string {
	return uuid.NewString()
}

// tokenVerifier accepts tokens of the form "<userID>:<role>".
type tokenVerifier struct{}

func (tokenVerifier) VerifyAccessToken(token string) (*auth.Claims, error) {
	id, role, ok := strings.Cut(token, ":")
	if !ok || id == "" {
		return nil, errors.New("bad token")
	}
	return &auth.Claims{UserID: id, Role: user.Role(role)}, nil
}

func requireAuth() gin.HandlerFunc {
	return middlewares.NewAuthMiddleware(tokenVerifier{}).RequireAuth()
}

func bearer(userID string, role user.Role) string {
	return "Bearer " + userID + ":" + string(role)
}

func doJSON(r http.Handler, method, path, authHeader string, body any) *httptest.ResponseRecorder {
	var rdr io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			rdr = bytes.NewBufferString(b)
		default:
			raw, _ := json.Marshal(b)
			rdr = bytes.NewReader(raw)
		}
	}

	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type errorBody struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"requestId"`
	} `json:"error"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()

	var resp errorBody
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid error json: %v body=%s", err, w.Body.String())
	}
	return resp
}

func assertError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()

	if w.Code != status {
		t.Fatalf("expected status %d, got %d body=%s", status, w.Code, w.Body.String())
	}
	if got := decodeError(t, w).Error.Code; got != code {
		t.Fatalf("expected error code %q, got %q", code, got)
	}
}
