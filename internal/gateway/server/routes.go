package server

import (
	"net/http"

	"intentguard/internal/gateway/handler"
	"intentguard/internal/gateway/middleware"
	"intentguard/internal/session"
)

// NewMux lays out the API surface and wraps it in the session and CORS
// middleware. Auth and debug endpoints stay outside session resolution.
func NewMux(svc *handler.Service, sessions *session.Store) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/auth/relay-token", svc.HandleRelayToken)
	mux.HandleFunc("/api/auth/health", svc.HandleHealth)

	mux.HandleFunc("/api/flows/list", svc.HandleFlowsList)
	mux.HandleFunc("/api/flows/configuration", svc.HandleFlowConfiguration)
	mux.HandleFunc("/api/flows/details", svc.HandleFlowDetails)

	mux.HandleFunc("/api/genesys/batch-test", svc.HandleBatchTest)
	mux.HandleFunc("/api/genesys/test-utterance", svc.HandleTestUtterance)

	mux.HandleFunc("/api/test/report", svc.HandleTestReport)
	mux.HandleFunc("/api/test/export", svc.HandleTestExport)
	mux.HandleFunc("/api/test/session-log", svc.HandleSessionLog)
	mux.HandleFunc("/api/test/watch", svc.HandleWatch)

	mux.HandleFunc("/api/llm/generate-tests", svc.HandleGenerateTests)
	mux.HandleFunc("/api/llm/generate-more-tests", svc.HandleGenerateMoreTests)
	mux.HandleFunc("/api/llm/generate-description", svc.HandleGenerateDescription)

	mux.HandleFunc("/api/user/org", svc.HandleUserOrg)
	mux.HandleFunc("/api/user/session", svc.HandleUserSession)

	mux.HandleFunc("/api/debug/sessions", svc.HandleDebugSessions)

	withSessions := middleware.Sessions(sessions, "/api/auth/", "/api/debug/")
	return middleware.CORS(withSessions(mux))
}
