package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap/zaptest"

	"github.com/vedran77/taskmanager/internal/domain"
	"github.com/vedran77/taskmanager/internal/service"
	"github.com/vedran77/taskmanager/internal/transport/http/middleware"
)

type fakeAuth struct {
	users map[string]*domain.User
	err   error
}

func (f *fakeAuth) Authenticate(_ context.Context, token string) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[token]
	if !ok {
		return nil, service.ErrUnauthorized
	}
	return u, nil
}

func TestAuth(t *testing.T) {
	user := &domain.User{ID: uuid.New(), Name: "Ann"}
	auth := &fakeAuth{users: map[string]*domain.User{"good-token": user}}

	tests := []struct {
		name       string
		header     string
		authErr    error
		wantStatus int
	}{
		{name: "missing header", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic good-token", wantStatus: http.StatusUnauthorized},
		{name: "empty bearer", header: "Bearer ", wantStatus: http.StatusUnauthorized},
		{name: "unknown token", header: "Bearer nope", wantStatus: http.StatusUnauthorized},
		{name: "storage failure", header: "Bearer good-token", authErr: errors.New("db down"), wantStatus: http.StatusUnauthorized},
		{name: "valid token", header: "Bearer good-token", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth.err = tt.authErr

			var gotUser *domain.User
			var gotToken string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser = middleware.GetUser(r.Context())
				gotToken = middleware.GetToken(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			middleware.Auth(auth, zaptest.NewLogger(t))(next).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				if gotUser != nil {
					t.Error("handler ran for a rejected request")
				}
				return
			}
			if gotUser.ID != user.ID {
				t.Errorf("user = %v, want %v", gotUser.ID, user.ID)
			}
			if gotToken != "good-token" {
				t.Errorf("token = %q", gotToken)
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("preflight reached the handler")
	})

	req := httptest.NewRequest(http.MethodOptions, "/tasks", nil)
	req.Header.Set("Origin", "https://app.example")
	rec := httptest.NewRecorder()

	middleware.CORS([]string{"https://app.example"})(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Errorf("allow origin = %q", got)
	}
}
