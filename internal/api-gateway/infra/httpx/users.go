package httpx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/jcmexdev/storefront/internal/api-gateway/infra/httpx/middlewares"
	"github.com/jcmexdev/storefront/internal/pkg/apperr"
	"github.com/jcmexdev/storefront/internal/storefront/session"
	user "github.com/jcmexdev/storefront/internal/user-service/domain"
)

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	u, err := h.users.Register(r.Context(), user.Registration{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "User created successfully",
		"rest":    mapUser(u),
	})
}

// Login sets the token cookie and remembers the profile for the session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	sess, err := h.users.Login(r.Context(), user.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		writeError(w, r, err)
		return
	}

	http.SetCookie(w, h.tokenCookie(sess.Token, sess.ExpiresAt))

	u := sess.User
	if sid := middlewares.SessionID(r.Context()); sid != "" {
		profile := session.Profile{ID: u.ID, Username: u.Username, Email: u.Email, Photo: u.Photo, Role: string(u.Role)}
		if err := h.sessions.SaveProfile(r.Context(), sid, profile); err != nil {
			slog.WarnContext(r.Context(), "failed to store session profile", "user_id", u.ID, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "User logged in successfully",
		"rest":    mapUser(u),
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.tokenCookie("", time.Unix(0, 0)))

	if sid := middlewares.SessionID(r.Context()); sid != "" {
		if err := h.sessions.ClearProfile(r.Context(), sid); err != nil {
			slog.WarnContext(r.Context(), "failed to clear session profile", "error", err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "User logged out successfully"})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := middlewares.IdentityFrom(r.Context())
	if !ok {
		writeError(w, r, apperr.Unauthorized("not authorized, please log in"))
		return
	}

	u, err := h.users.Me(r.Context(), id.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": mapUser(u)})
}

// SessionUser returns the profile remembered for this session at login, or
// null. A profile whose owner no longer holds a valid token is not returned.
func (h *Handler) SessionUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profile, err := h.sessions.LoadProfile(ctx, middlewares.SessionID(ctx))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if id, ok := middlewares.IdentityFrom(ctx); profile != nil && (!ok || id.UserID != profile.ID) {
		profile = nil
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": profile})
}

// tokenCookie builds the HTTP-only token cookie. An expiry in the past
// deletes it.
func (h *Handler) tokenCookie(value string, expires time.Time) *http.Cookie {
	c := &http.Cookie{
		Name:     middlewares.TokenCookie,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if h.cookies.Secure {
		c.SameSite = http.SameSiteNoneMode
	}
	if value == "" {
		c.MaxAge = -1
	}
	return c
}
