package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Togather-Foundation/gather/internal/api/problem"
	"github.com/Togather-Foundation/gather/internal/auth"
	"github.com/Togather-Foundation/gather/internal/domain/users"
)

// SessionCookieName carries the same JWT as the Authorization header for
// browser clients.
const SessionCookieName = "gather_session"

const (
	detailNotAuthenticated = "Authentication credentials were not provided."
	detailInvalidToken     = "Given token not valid or expired."
)

type userContextKey struct{}

// UserLookup resolves a token subject to an account.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*users.User, error)
}

// RequireUser rejects requests without a valid session token and stores the
// resolved user in the context for CurrentUser.
func RequireUser(manager *auth.JWTManager, lookup UserLookup, env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				writeUnauthorized(w, r, auth.ErrMissingToken, detailNotAuthenticated, env)
				return
			}

			claims, err := manager.Validate(token)
			if err != nil {
				writeUnauthorized(w, r, err, detailInvalidToken, env)
				return
			}

			user, err := lookup.GetByID(r.Context(), claims.Subject)
			if err != nil {
				if errors.Is(err, users.ErrNotFound) {
					writeUnauthorized(w, r, err, detailInvalidToken, env)
					return
				}
				problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, env)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}

func ContextWithUser(ctx context.Context, user *users.User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// CurrentUser returns the authenticated user, or nil.
func CurrentUser(ctx context.Context) *users.User {
	user, _ := ctx.Value(userContextKey{}).(*users.User)
	return user
}

// tokenFromRequest prefers the Authorization header over the session cookie.
func tokenFromRequest(r *http.Request) string {
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		token, err := auth.TokenFromHeader(header)
		if err != nil {
			return ""
		}
		return token
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}

func writeUnauthorized(w http.ResponseWriter, r *http.Request, err error, detail, env string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", err, env, problem.WithDetail(detail))
}
