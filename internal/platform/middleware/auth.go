package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"subgate/internal/identity/models"
	dErrors "subgate/pkg/domain-errors"
	"subgate/pkg/httputil"
)

// Authenticator resolves a bearer credential to the user it identifies.
// Token problems (invalid, expired) and unknown users surface as domain errors.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

type userKey struct{}

// WithUser stores the authenticated user in the context. Exported for handler tests.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// GetUser retrieves the authenticated user from the context, or nil.
func GetUser(ctx context.Context) *models.User {
	user, ok := ctx.Value(userKey{}).(*models.User)
	if !ok {
		return nil
	}
	return user
}

// RequireAuth validates the bearer token and loads the caller before the
// handler runs. The resolved user is stored in the request context.
func RequireAuth(auth Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing bearer credential"))
				return
			}

			user, err := auth.Authenticate(ctx, token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized request",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				httputil.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(ctx, user)))
		})
	}
}

// RequireAdmin rejects callers whose role is not admin. Must run after RequireAuth.
func RequireAdmin(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			user := GetUser(ctx)
			if user == nil || !user.IsAdmin() {
				logger.WarnContext(ctx, "admin route denied",
					"request_id", GetRequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "admin role required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
