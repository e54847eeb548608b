package middlewares

import (
	"context"
	"net/http"
	"strings"

	"github.com/jcmexdev/storefront/internal/api-gateway/core/ports"
	"github.com/jcmexdev/storefront/internal/api-gateway/infra/httpx/respond"
	"github.com/jcmexdev/storefront/internal/pkg/apperr"
)

const TokenCookie = "token"

const contextKeyIdentity contextKey = "identity"

// Identity is the authenticated caller, taken from a verified token.
type Identity struct {
	UserID string
	Role   string
}

func (i Identity) IsAdmin() bool { return i.Role == "ADMIN" }

// Authenticate attaches the caller's identity when the request carries a
// valid token, either in the token cookie or as a Bearer header. Requests
// without one continue anonymously.
func Authenticate(tokens ports.TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				if c, err := r.Cookie(TokenCookie); err == nil {
					raw = c.Value
				}
			}
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := tokens.Parse(raw)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), contextKeyIdentity, Identity{UserID: claims.Subject, Role: claims.Role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects anonymous requests.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentityFrom(r.Context()); !ok {
			respond.Error(w, r, apperr.Unauthorized("not authorized, please log in"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects anonymous and non-admin requests.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFrom(r.Context())
		if !ok {
			respond.Error(w, r, apperr.Unauthorized("not authorized, please log in"))
			return
		}
		if !id.IsAdmin() {
			respond.Error(w, r, apperr.Forbidden("admin access required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKeyIdentity).(Identity)
	return id, ok
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
