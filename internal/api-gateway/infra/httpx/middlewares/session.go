package middlewares

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const SessionCookie = "sid"

const contextKeySession contextKey = "session-id"

// Session makes sure every request carries a session id. A missing or
// malformed sid cookie is replaced by a fresh one.
func Session(secure bool, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid := ""
			if c, err := r.Cookie(SessionCookie); err == nil {
				if _, err := uuid.Parse(c.Value); err == nil {
					sid = c.Value
				}
			}

			if sid == "" {
				sid = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookie,
					Value:    sid,
					Path:     "/",
					MaxAge:   int(ttl.Seconds()),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), contextKeySession, sid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func SessionID(ctx context.Context) string {
	sid, _ := ctx.Value(contextKeySession).(string)
	return sid
}
