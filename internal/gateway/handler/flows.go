package handler

import (
	"net/http"
	"strings"

	"intentguard/internal/platform"
	"intentguard/internal/session"
)

// HandleFlowsList returns the bot flows visible to the session's token.
func (s *Service) HandleFlowsList(w http.ResponseWriter, r *http.Request) {
	sess, found := sessionFrom(w, r)
	if !found {
		return
	}

	flows, flowType, err := s.platform.ListFlows(r.Context(), sess.Region, sess.Token)
	if err != nil {
		failUpstream(w, err, "Failed to fetch flows")
		return
	}
	fields := map[string]any{"data": flows}
	if flowType == platform.FlowTypeLegacy {
		fields["flowType"] = flowType
	}
	ok(w, fields)
}

// HandleFlowConfiguration returns the latest flow configuration with the
// extracted NLU metadata, the shape batch testing resolves coordinates
// from.
func (s *Service) HandleFlowConfiguration(w http.ResponseWriter, r *http.Request) {
	sess, found := sessionFrom(w, r)
	if !found {
		return
	}
	flowID := strings.TrimSpace(r.URL.Query().Get("flowId"))
	if flowID == "" {
		fail(w, http.StatusBadRequest, "Flow ID is required")
		return
	}

	cfg, err := s.platform.GetFlowConfiguration(r.Context(), sess.Region, sess.Token, flowID)
	if err != nil {
		failUpstream(w, err, "Failed to fetch flow configuration")
		return
	}
	ok(w, map[string]any{"data": cfg})
}

// HandleFlowDetails returns flow metadata plus the intents and entities
// parsed out of the NLU model.
func (s *Service) HandleFlowDetails(w http.ResponseWriter, r *http.Request) {
	sess, found := sessionFrom(w, r)
	if !found {
		return
	}
	flowID := strings.TrimSpace(r.URL.Query().Get("flowId"))
	if flowID == "" {
		fail(w, http.StatusBadRequest, "Flow ID is required")
		return
	}

	details, err := s.platform.GetFlowDetails(r.Context(), sess.Region, sess.Token, flowID)
	if err != nil {
		failUpstream(w, err, "Failed to fetch flow details")
		return
	}

	if sess.ID != "" {
		s.sessions.Update(sess.ID, func(stored *session.Session) {
			stored.SelectedFlow = flowID
		})
	}
	ok(w, map[string]any{"data": details})
}
