package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"intentguard/internal/report"
)

// HandleTestReport returns one stored run by testId, or summaries of
// every run in the session when no testId is given.
func (s *Service) HandleTestReport(w http.ResponseWriter, r *http.Request) {
	sess, found := sessionFrom(w, r)
	if !found {
		return
	}

	testID := strings.TrimSpace(r.URL.Query().Get("testId"))
	if testID == "" {
		ok(w, map[string]any{"data": s.reports.ListForSession(sess)})
		return
	}

	run, err := s.reports.Find(sess, testID)
	if err != nil {
		if errors.Is(err, report.ErrNotFound) {
			fail(w, http.StatusNotFound, fmt.Sprintf("Test report with ID %s not found", testID))
			return
		}
		fail(w, http.StatusInternalServerError, "Failed to fetch test report")
		return
	}
	ok(w, map[string]any{"data": run})
}

// HandleTestExport streams a run as a JSON or CSV download.
func (s *Service) HandleTestExport(w http.ResponseWriter, r *http.Request) {
	sess, found := sessionFrom(w, r)
	if !found {
		return
	}

	var in struct {
		TestID string `json:"testId"`
		Format string `json:"format"`
	}
	_ = decodeLoose(r, &in)
	testID := firstNonEmptyStr(in.TestID, r.URL.Query().Get("testId"))
	format := firstNonEmptyStr(in.Format, r.URL.Query().Get("format"), report.FormatJSON)

	if testID == "" {
		fail(w, http.StatusBadRequest, "Test ID is required")
		return
	}

	run, err := s.reports.Find(sess, testID)
	if err != nil {
		fail(w, http.StatusNotFound, "Test results not found")
		return
	}

	payload, contentType, err := report.Export(run, format)
	if err != nil {
		fail(w, http.StatusBadRequest, err.Error())
		return
	}

	ext := report.FormatJSON
	if strings.EqualFold(format, report.FormatCSV) {
		ext = report.FormatCSV
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "test-results-"+testID+"."+ext))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

// HandleSessionLog summarizes the session's activity: who, since when,
// which flow, which runs.
func (s *Service) HandleSessionLog(w http.ResponseWriter, r *http.Request) {
	sess, found := sessionFrom(w, r)
	if !found {
		return
	}

	ok(w, map[string]any{"data": map[string]any{
		"session_id":    sess.ID,
		"created_at":    sess.CreatedAt,
		"last_activity": sess.LastActivity,
		"selected_flow": sess.SelectedFlow,
		"test_runs":     s.reports.ListForSession(sess),
	}})
}
