package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/http/handlers"
	"github.com/geocoder89/taskhub/internal/service"
	"github.com/gin-gonic/gin"
)

type fakeAuth struct {
	registerFn func(ctx context.Context, in service.RegisterInput) (service.AuthResult, error)
	loginFn    func(ctx context.Context, email, password string) (service.AuthResult, error)
}

func (f *fakeAuth) Register(ctx context.Context, in service.RegisterInput) (service.AuthResult, error) {
	return f.registerFn(ctx, in)
}

func (f *fakeAuth) Login(ctx context.Context, email, password string) (service.AuthResult, error) {
	return f.loginFn(ctx, email, password)
}

type countingObserver struct {
	counts map[string]int
}

func (o *countingObserver) ObserveAuth(action, result string) {
	o.counts[action+":"+result]++
}

func newAuthRouter(a handlers.Authenticator, obs handlers.AuthObserver) *gin.Engine {
	h := handlers.NewAuthHandler(a, obs)
	r := gin.New()
	r.POST("/api/auth/register", h.Register)
	r.POST("/api/auth/login", h.Login)
	return r
}

func TestRegister_Created(t *testing.T) {
	var got service.RegisterInput
	fake := &fakeAuth{registerFn: func(_ context.Context, in service.RegisterInput) (service.AuthResult, error) {
		got = in
		return service.AuthResult{
			Token:     "tok",
			ExpiresAt: time.Now().Add(time.Hour),
			User:      user.User{ID: newUUID(), Email: "ann@x.com", Role: user.RoleUser, PasswordHash: "secret-hash", IsActive: true},
		}, nil
	}}
	obs := &countingObserver{counts: map[string]int{}}

	w := doJSON(newAuthRouter(fake, obs), http.MethodPost, "/api/auth/register", "", map[string]string{
		"fullName": "Ann", "email": "ann@x.com", "password": "secret1",
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", w.Code, w.Body.String())
	}
	if got.FullName != "Ann" || got.Email != "ann@x.com" || got.Role != "" {
		t.Fatalf("unexpected input passed to service: %+v", got)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["token"] != "tok" {
		t.Fatalf("expected token in response: %v", body)
	}
	u := body["user"].(map[string]any)
	if _, leaked := u["passwordHash"]; leaked {
		t.Fatalf("password hash must not be serialized: %v", u)
	}
	if obs.counts["register:ok"] != 1 {
		t.Fatalf("expected register:ok counted, got %v", obs.counts)
	}
}

func TestRegister_ValidationNeverReachesService(t *testing.T) {
	fake := &fakeAuth{registerFn: func(context.Context, service.RegisterInput) (service.AuthResult, error) {
		t.Fatalf("service must not be called")
		return service.AuthResult{}, nil
	}}

	tests := []struct {
		name string
		body string
	}{
		{"missing email", `{"fullName":"Ann","password":"secret1"}`},
		{"bad email", `{"fullName":"Ann","email":"nope","password":"secret1"}`},
		{"short password", `{"fullName":"Ann","email":"ann@x.com","password":"abc"}`},
		{"unknown role", `{"fullName":"Ann","email":"ann@x.com","password":"secret1","role":"owner"}`},
		{"blank name", `{"fullName":"  ","email":"ann@x.com","password":"secret1"}`},
	}

	r := newAuthRouter(fake, nil)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(r, http.MethodPost, "/api/auth/register", "", tc.body)
			assertError(t, w, http.StatusBadRequest, "invalid_request")
		})
	}
}

func TestRegister_MapsServiceErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"duplicate email", user.ErrEmailTaken, http.StatusConflict, "email_taken"},
		{"admin signup disabled", service.ErrAdminSignupOff, http.StatusForbidden, "admin_signup_disabled"},
		{"store failure", errors.New("db down"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fake := &fakeAuth{registerFn: func(context.Context, service.RegisterInput) (service.AuthResult, error) {
				return service.AuthResult{}, tc.err
			}}
			w := doJSON(newAuthRouter(fake, nil), http.MethodPost, "/api/auth/register", "", map[string]string{
				"fullName": "Ann", "email": "ann@x.com", "password": "secret1",
			})
			assertError(t, w, tc.wantStatus, tc.wantCode)
		})
	}
}

func TestLogin(t *testing.T) {
	fake := &fakeAuth{loginFn: func(_ context.Context, email, password string) (service.AuthResult, error) {
		switch {
		case email == "off@x.com":
			return service.AuthResult{}, user.ErrAccountDeactivated
		case password != "secret1":
			return service.AuthResult{}, user.ErrInvalidCredentials
		default:
			return service.AuthResult{Token: "tok", User: user.User{ID: newUUID(), Email: email, Role: user.RoleAdmin}}, nil
		}
	}}
	obs := &countingObserver{counts: map[string]int{}}
	r := newAuthRouter(fake, obs)

	w := doJSON(r, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ann@x.com", "password": "secret1"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}

	w = doJSON(r, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ann@x.com", "password": "wrong"})
	assertError(t, w, http.StatusUnauthorized, "invalid_credentials")

	w = doJSON(r, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "off@x.com", "password": "secret1"})
	assertError(t, w, http.StatusUnauthorized, "account_deactivated")

	if obs.counts["login:ok"] != 1 || obs.counts["login:rejected"] != 2 {
		t.Fatalf("unexpected auth counts: %v", obs.counts)
	}
}
