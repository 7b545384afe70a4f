package handler

import (
	"log"
	"net/http"
	"strings"
	"time"

	"intentguard/internal/session"
)

// HandleHealth answers liveness probes without touching any dependency.
func (s *Service) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ok(w, map[string]any{
		"message":   "Auth service is healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleRelayToken exchanges an OAuth token the frontend obtained for a
// backend session. The cookie carries the session from here on.
func (s *Service) HandleRelayToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		fail(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	var in struct {
		Token  string `json:"token"`
		Region string `json:"region"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	if strings.TrimSpace(in.Token) == "" {
		fail(w, http.StatusBadRequest, "No token provided")
		return
	}

	sess, _, err := s.sessions.Resolve(r.Context(), session.Credentials{
		Token:  in.Token,
		Region: in.Region,
	})
	if err != nil {
		fail(w, http.StatusUnauthorized, "Token rejected by the platform")
		return
	}
	log.Printf("[Auth] session %s created for region %s", sess.ID, sess.Region)

	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(session.TTL / time.Second),
	})
	ok(w, map[string]any{
		"message":   "Token received and stored successfully",
		"sessionId": sess.ID,
	})
}
