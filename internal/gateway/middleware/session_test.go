package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intentguard/internal/session"
)

type rejectAll struct{}

func (rejectAll) Validate(context.Context, string, string) error {
	return session.ErrInvalidToken
}

// capture records whether the inner handler ran and which session it saw.
func capture(called *bool, seen *session.Session) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		if sess, ok := SessionFrom(r.Context()); ok {
			*seen = sess
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestSessionsSkipsPrefixes(t *testing.T) {
	store := session.NewStore(session.AcceptAll{}, "mypurecloud.de")
	var called bool
	var seen session.Session
	h := Sessions(store, "/api/auth/")(capture(&called, &seen))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
	assert.Empty(t, seen.ID, "skipped routes carry no session")
}

func TestSessionsResolvesCookie(t *testing.T) {
	store := session.NewStore(session.AcceptAll{}, "mypurecloud.de")
	id := store.Create("tok-1", "mypurecloud.ie")

	var called bool
	var seen session.Session
	h := Sessions(store)(capture(&called, &seen))

	req := httptest.NewRequest(http.MethodGet, "/api/test/report", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: id})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.True(t, called)
	assert.Equal(t, id, seen.ID)
	assert.Equal(t, "mypurecloud.ie", seen.Region)
	assert.Empty(t, rec.Result().Cookies(), "existing sessions get no new cookie")
}

func TestSessionsCreatesFromBearerToken(t *testing.T) {
	store := session.NewStore(session.AcceptAll{}, "mypurecloud.de")

	var called bool
	var seen session.Session
	h := Sessions(store)(capture(&called, &seen))

	req := httptest.NewRequest(http.MethodGet, "/api/flows/list", nil)
	req.Header.Set("Authorization", "Bearer tok-2")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.True(t, called)
	assert.Equal(t, "tok-2", seen.Token)
	assert.Equal(t, "mypurecloud.de", seen.Region, "default region applies")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, session.CookieName, cookies[0].Name)
	assert.Equal(t, seen.ID, cookies[0].Value)
}

func TestSessionsRejectsUnauthenticated(t *testing.T) {
	store := session.NewStore(session.AcceptAll{}, "mypurecloud.de")
	var called bool
	var seen session.Session
	h := Sessions(store)(capture(&called, &seen))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/test/report", nil))

	assert.False(t, called)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "No valid session or token. Please log in again.", body["message"])
}

func TestSessionsRejectsInvalidToken(t *testing.T) {
	store := session.NewStore(rejectAll{}, "mypurecloud.de")
	var called bool
	var seen session.Session
	h := Sessions(store)(capture(&called, &seen))

	req := httptest.NewRequest(http.MethodGet, "/api/test/report", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.False(t, called)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Token rejected by the platform. Please log in again.", body["message"])
}

func TestCORSPreflight(t *testing.T) {
	h := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("preflight must not reach the handler")
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/test/report", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}
