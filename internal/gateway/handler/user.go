package handler

import (
	"encoding/json"
	"net/http"

	"intentguard/internal/session"
)

// HandleUserOrg fetches the authenticated user's profile from the
// platform and caches it on the session for the session log.
func (s *Service) HandleUserOrg(w http.ResponseWriter, r *http.Request) {
	sess, found := sessionFrom(w, r)
	if !found {
		return
	}

	info, err := s.platform.GetUserOrg(r.Context(), sess.Region, sess.Token)
	if err != nil {
		failUpstream(w, err, "Failed to fetch user details")
		return
	}

	if sess.ID != "" {
		s.sessions.Update(sess.ID, func(stored *session.Session) {
			stored.OrgInfo = info
		})
	}
	ok(w, map[string]any{"data": json.RawMessage(info)})
}

// HandleUserSession reports the session's own metadata, token excluded.
func (s *Service) HandleUserSession(w http.ResponseWriter, r *http.Request) {
	sess, found := sessionFrom(w, r)
	if !found {
		return
	}

	var orgInfo any
	if len(sess.OrgInfo) > 0 {
		orgInfo = json.RawMessage(sess.OrgInfo)
	}
	ok(w, map[string]any{"data": map[string]any{
		"createdAt":     sess.CreatedAt,
		"lastActivity":  sess.LastActivity,
		"orgInfo":       orgInfo,
		"hasValidToken": sess.Token != "",
	}})
}
