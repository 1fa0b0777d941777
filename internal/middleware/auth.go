package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Shrey-Sawant/Sonder/internal/model/user"
	"github.com/Shrey-Sawant/Sonder/pkg/utils"
)

type contextKey string

const principalKey contextKey = "principal"

// TokenValidator resolves a bearer token to the principal it names. Keeps the
// middleware decoupled from the auth service.
type TokenValidator interface {
	ValidateToken(tokenString string) (user.User, error)
}

// Auth guards routes with bearer authentication.
type Auth struct {
	validator TokenValidator
}

// NewAuth builds the auth middleware.
func NewAuth(v TokenValidator) *Auth {
	return &Auth{validator: v}
}

// Handle extracts the token from the Authorization header, falling back to
// the token query parameter for websocket upgrades, and injects the principal
// into the request context.
func (a *Auth) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := ""

		if authHeader := r.Header.Get("Authorization"); authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
				tokenString = parts[1]
			}
		}
		if tokenString == "" {
			tokenString = r.URL.Query().Get("token")
		}
		if tokenString == "" {
			utils.RespondError(w, http.StatusUnauthorized, "missing authentication token")
			return
		}

		principal, err := a.validator.ValidateToken(tokenString)
		if err != nil {
			utils.RespondError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	})
}

// WithPrincipal stores the authenticated user on the context.
func WithPrincipal(ctx context.Context, u user.User) context.Context {
	return context.WithValue(ctx, principalKey, u)
}

// PrincipalFrom retrieves the authenticated user from the context.
func PrincipalFrom(ctx context.Context) (user.User, bool) {
	u, ok := ctx.Value(principalKey).(user.User)
	return u, ok
}
