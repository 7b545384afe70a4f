package handler

import (
	"net/http"
)

// HandleDebugSessions lists the IDs of live sessions. No tokens leave
// this endpoint, only opaque identifiers.
func (s *Service) HandleDebugSessions(w http.ResponseWriter, r *http.Request) {
	ids := s.sessions.IDs()
	ok(w, map[string]any{
		"count":    len(ids),
		"sessions": ids,
	})
}
