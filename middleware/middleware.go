package middleware

import (
	"context"
	"net/http"
	"strings"

	authkit "github.com/edusuite/authkit"
)

type principalContextKey struct{}

// Logger is the minimal logging surface the soft middleware needs;
// *log.Logger and logrus loggers both satisfy it.
type Logger interface {
	Printf(format string, v ...any)
}

// PrincipalFromContext returns the principal attached by [Authenticate],
// if any.
func PrincipalFromContext(ctx context.Context) (authkit.Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(authkit.Principal)
	return p, ok
}

// Authenticate is the soft authentication pass that runs once per
// request. It extracts the bearer token, verifies it, resolves a fresh
// principal, and attaches it to the request context.
//
// It never rejects: a missing, expired, forged, or otherwise unusable
// token degrades the request to anonymous (with a log line) and the
// route policy downstream decides whether that is acceptable.
func Authenticate(engine *authkit.Engine, logger Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok || engine == nil {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := engine.Authenticate(r.Context(), token)
			if err != nil {
				if logger != nil {
					logger.Printf("authenticate: treating request as anonymous: %v", err)
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), principalContextKey{}, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuthenticated rejects requests that carry no principal.
func RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := PrincipalFromContext(r.Context()); !ok {
			http.Error(w, "unauthenticated", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRoles rejects requests whose principal's role is not in the
// OR-combined allowed set, and unauthenticated requests outright.
func RequireRoles(roles ...authkit.Role) func(http.Handler) http.Handler {
	allowed := make(map[authkit.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthenticated", http.StatusUnauthorized)
				return
			}
			if _, ok := allowed[principal.Role]; !ok {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
