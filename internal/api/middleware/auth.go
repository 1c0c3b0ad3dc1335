package middleware

import (
	"context"
	"errors"
	"net/http"

	"dactylo_api/internal/common"
	"dactylo_api/internal/common/security"
	"dactylo_api/internal/domain/model"

	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const (
	UserCtxKey   contextKey = "user"
	LoggerCtxKey contextKey = "logger"
)

// CredentialsError is the detail sent with every 401.
const CredentialsError = "Could not validate credentials"

// UserResolver loads the user a verified token was issued for.
type UserResolver interface {
	UserBySubject(ctx context.Context, subject string) (*model.User, error)
}

// Authenticator requires a valid bearer token, verified upstream by jwtauth.Verifier,
// whose subject names an existing user. The user is stored in the request context.
func Authenticator(resolver UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())
			if err != nil || token == nil {
				unauthorized(w)
				return
			}

			subject, err := security.GetSubjectFromClaims(claims)
			if err != nil {
				unauthorized(w)
				return
			}

			user, err := resolver.UserBySubject(r.Context(), subject)
			if err != nil {
				if errors.Is(err, common.ErrUnauthorized) {
					unauthorized(w)
					return
				}
				common.RespondWithServiceError(w, LoggerFromContext(r.Context()), err)
				return
			}

			ctx := context.WithValue(r.Context(), UserCtxKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminOnly lets site administrators through. It must run after Authenticator.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := GetUserFromContext(r.Context())
		if !ok || !user.EstAdmin {
			common.RespondWithError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Helper to get the authenticated user from context
func GetUserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(UserCtxKey).(*model.User)
	return user, ok && user != nil
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	common.RespondWithError(w, http.StatusUnauthorized, CredentialsError)
}
