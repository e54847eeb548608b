package middlewares

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/storefront/internal/pkg/auth"
)

// capture records the context seen by the final handler.
type capture struct {
	called   bool
	identity Identity
	anon     bool
	sid      string
	reqID    string
	idemKey  string
}

func (c *capture) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.called = true
		id, ok := IdentityFrom(r.Context())
		c.identity, c.anon = id, !ok
		c.sid = SessionID(r.Context())
		c.reqID = RequestID(r.Context())
		c.idemKey = IdempotencyKey(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAttachRequestMetadata(t *testing.T) {
	var c capture
	h := middleware.RequestID(AttachRequestMetadata(c.handler()))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set(HeaderXIdempotencyKey, "k-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.True(t, c.called)
	assert.NotEmpty(t, c.reqID)
	assert.Equal(t, c.reqID, rec.Header().Get(HeaderXRequestID))
	assert.Equal(t, "k-1", c.idemKey)
}

func TestSessionIssuesCookieOnce(t *testing.T) {
	var c capture
	h := Session(true, time.Hour)(c.handler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)
	assert.Equal(t, c.sid, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, 3600, cookies[0].MaxAge)

	first := c.sid
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, first, c.sid)
	assert.Empty(t, rec.Result().Cookies())
}

func TestSessionReplacesMalformedCookie(t *testing.T) {
	var c capture
	h := Session(false, time.Hour)(c.handler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "../../etc"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.NotEqual(t, "../../etc", c.sid)
	require.Len(t, rec.Result().Cookies(), 1)
}

func TestAuthenticate(t *testing.T) {
	issuer := auth.NewIssuer("secret", time.Hour)
	token, _, err := issuer.Issue("u-1", "ADMIN")
	require.NoError(t, err)

	cases := []struct {
		name   string
		setup  func(*http.Request)
		anon   bool
		userID string
	}{
		{"no token", func(*http.Request) {}, true, ""},
		{"bearer header", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, false, "u-1"},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: TokenCookie, Value: token}) }, false, "u-1"},
		{"invalid token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, true, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var c capture
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tc.setup(req)
			Authenticate(issuer)(c.handler()).ServeHTTP(httptest.NewRecorder(), req)

			require.True(t, c.called)
			assert.Equal(t, tc.anon, c.anon)
			assert.Equal(t, tc.userID, c.identity.UserID)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	issuer := auth.NewIssuer("secret", time.Hour)
	userToken, _, err := issuer.Issue("u-1", "USER")
	require.NoError(t, err)
	adminToken, _, err := issuer.Issue("a-1", "ADMIN")
	require.NoError(t, err)

	cases := []struct {
		name    string
		token   string
		status  int
		message string
	}{
		{"anonymous", "", http.StatusForbidden, "not authorized, please log in"},
		{"user", userToken, http.StatusForbidden, "admin access required"},
		{"admin", adminToken, http.StatusNoContent, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var c capture
			h := Authenticate(issuer)(RequireAdmin(c.handler()))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			if tc.message != "" {
				var body map[string]any
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, tc.message, body["message"])
				assert.Equal(t, false, body["success"])
				assert.False(t, c.called)
			}
		})
	}
}

func TestRequireUser(t *testing.T) {
	var c capture
	rec := httptest.NewRecorder()
	RequireUser(c.handler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, c.called)
}
