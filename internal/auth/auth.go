// internal/auth/auth.go
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Principal identifies the authenticated caller. Token verification
// happens upstream of this service; only the verified subject crosses
// this boundary.
type Principal struct {
	Sub string
}

// Authenticator extracts the principal from a request.
type Authenticator interface {
	Authenticate(r *http.Request) (Principal, error)
}

type contextKey struct{}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(contextKey{}).(Principal)
	return p, ok
}

// LocalAuthenticator treats the bearer token as the verified subject.
// Deployments sitting behind a real identity provider replace it with a
// verifier for their token format.
type LocalAuthenticator struct{}

var _ Authenticator = LocalAuthenticator{}

func (LocalAuthenticator) Authenticate(r *http.Request) (Principal, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return Principal{}, fmt.Errorf("missing bearer token")
	}
	return Principal{Sub: token}, nil
}

// Middleware authenticates every request and stores the principal in the
// request context.
func Middleware(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := authn.Authenticate(r)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"code":"Unauthorized","message":"authentication required"}`))
				return
			}
			ctx := context.WithValue(r.Context(), contextKey{}, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
