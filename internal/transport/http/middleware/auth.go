package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vedran77/taskmanager/internal/domain"
	"github.com/vedran77/taskmanager/internal/service"
)

type contextKey string

const (
	UserKey  contextKey = "user"
	TokenKey contextKey = "token"
)

// Authenticator resolves a bearer token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

const unauthorizedBody = `{"error":{"code":"UNAUTHORIZED","message":"Please authenticate"}}`

// Auth rejects requests without an active bearer token. On success the user
// and the raw token are stored in the request context.
func Auth(auth Authenticator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			tokenStr, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(tokenStr) == "" {
				unauthorized(w)
				return
			}
			tokenStr = strings.TrimSpace(tokenStr)

			user, err := auth.Authenticate(r.Context(), tokenStr)
			if err != nil {
				if !errors.Is(err, service.ErrUnauthorized) {
					logger.Error("authenticate", zap.Error(err))
				}
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), UserKey, user)
			ctx = context.WithValue(ctx, TokenKey, tokenStr)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(unauthorizedBody))
}

// GetUser extracts the authenticated user from request context
func GetUser(ctx context.Context) *domain.User {
	return ctx.Value(UserKey).(*domain.User)
}

// GetUserID extracts the authenticated user's ID from request context
func GetUserID(ctx context.Context) uuid.UUID {
	return GetUser(ctx).ID
}

// GetToken extracts the bearer token the request was authenticated with
func GetToken(ctx context.Context) string {
	return ctx.Value(TokenKey).(string)
}
