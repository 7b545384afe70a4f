// Package handler implements the HTTP surface of the wizard backend.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"intentguard/internal/gateway/middleware"
	"intentguard/internal/llm/generator"
	"intentguard/internal/orchestrator"
	"intentguard/internal/platform"
	"intentguard/internal/report"
	"intentguard/internal/resultstore"
	"intentguard/internal/session"
)

// Service holds every dependency the route handlers need.
type Service struct {
	sessions *session.Store
	results  *resultstore.Store
	reports  *report.Service
	platform *platform.Client
	orch     *orchestrator.Orchestrator
	gen      *generator.Generator
	hub      *Hub
}

// NewService wires the handlers. gen may be nil when no LLM API key is
// configured; the LLM routes then answer with a configuration error.
func NewService(
	sessions *session.Store,
	results *resultstore.Store,
	reports *report.Service,
	pc *platform.Client,
	orch *orchestrator.Orchestrator,
	gen *generator.Generator,
) *Service {
	return &Service{
		sessions: sessions,
		results:  results,
		reports:  reports,
		platform: pc,
		orch:     orch,
		gen:      gen,
		hub:      NewHub(),
	}
}

// respond writes a JSON body with the given status.
func respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// ok writes the success envelope with extra top-level fields merged in.
func ok(w http.ResponseWriter, fields map[string]any) {
	body := map[string]any{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	respond(w, http.StatusOK, body)
}

// fail writes the error envelope.
func fail(w http.ResponseWriter, status int, message string) {
	respond(w, status, map[string]any{"success": false, "message": message})
}

// failUpstream maps a platform error to a response, forwarding the
// upstream status and payload when there is one.
func failUpstream(w http.ResponseWriter, err error, message string) {
	var apiErr *platform.APIError
	if errors.As(err, &apiErr) {
		body := map[string]any{"success": false, "message": message}
		if len(apiErr.Body) > 0 {
			body["error"] = json.RawMessage(apiErr.Body)
		}
		if apiErr.IsAuth() {
			body["message"] = "Platform rejected the token. Please log in again."
		}
		respond(w, apiErr.Status, body)
		return
	}
	respond(w, http.StatusInternalServerError, map[string]any{
		"success": false,
		"message": message,
		"error":   err.Error(),
	})
}

// sessionFrom pulls the middleware-resolved session, failing the request
// when it is absent.
func sessionFrom(w http.ResponseWriter, r *http.Request) (session.Session, bool) {
	sess, found := middleware.SessionFrom(r.Context())
	if !found {
		fail(w, http.StatusUnauthorized, "No valid session or token. Please log in again.")
	}
	return sess, found
}

// decodeBody parses a JSON request body into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		fail(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

// decodeLoose parses the body when one is present; an absent or broken
// body is fine for endpoints that also accept query parameters.
func decodeLoose(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	return json.NewDecoder(r.Body).Decode(dst)
}

func firstNonEmptyStr(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
