package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"intentguard/internal/session"
)

type sessionKey struct{}

// SessionFrom returns the session the middleware resolved for this
// request, if any.
func SessionFrom(ctx context.Context) (session.Session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(session.Session)
	return sess, ok
}

// WithSession injects a session into a context. Exported for handler
// tests.
func WithSession(ctx context.Context, sess session.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// Sessions resolves a session (or a direct token) for every request
// outside the skipped prefixes and rejects the rest with 401. A session
// created on the fly gets its cookie set on the response.
func Sessions(store *session.Store, skipPrefixes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, prefix := range skipPrefixes {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}

			creds := session.CredentialsFromRequest(r)
			sess, isNew, err := store.Resolve(r.Context(), creds)
			if err != nil {
				status := http.StatusUnauthorized
				msg := "No valid session or token. Please log in again."
				if errors.Is(err, session.ErrInvalidToken) {
					msg = "Token rejected by the platform. Please log in again."
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(status)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"success": false,
					"message": msg,
				})
				return
			}
			if isNew {
				log.Printf("[Session] created %s for region %s", sess.ID, sess.Region)
				http.SetCookie(w, &http.Cookie{
					Name:     session.CookieName,
					Value:    sess.ID,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}
