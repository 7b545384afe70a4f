package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"intentguard/internal/orchestrator"
	"intentguard/internal/session"
	"intentguard/internal/testrun"
)

// HandleBatchTest runs a batch of utterances against a flow's NLU model
// and stores the resulting run under the session and on disk. A watchId
// in the body streams progress to websocket subscribers on that id.
func (s *Service) HandleBatchTest(w http.ResponseWriter, r *http.Request) {
	sess, found := sessionFrom(w, r)
	if !found {
		return
	}

	var in struct {
		Utterances []testrun.Utterance `json:"utterances"`
		FlowID     string              `json:"flowId"`
		Language   string              `json:"language"`
		Region     string              `json:"region"`
		WatchID    string              `json:"watchId"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	if len(in.Utterances) == 0 {
		fail(w, http.StatusBadRequest, "Please provide an array of utterances to test")
		return
	}
	if strings.TrimSpace(in.FlowID) == "" {
		fail(w, http.StatusBadRequest, "Please provide a flow ID")
		return
	}
	language := in.Language
	if language == "" {
		language = "en-us"
	}
	region := strings.TrimSpace(in.Region)
	if region == "" {
		region = sess.Region
	}

	watchID := strings.TrimSpace(in.WatchID)
	total := len(in.Utterances)
	if watchID != "" {
		s.hub.Publish(watchID, WatchEvent{Type: "started", FlowID: in.FlowID, Total: total})
	}

	run, err := s.orch.Run(r.Context(), orchestrator.Request{
		FlowID:     in.FlowID,
		Language:   language,
		Region:     region,
		Token:      sess.Token,
		Utterances: in.Utterances,
		Progress: func(index, total int, result testrun.UtteranceResult) {
			if watchID == "" {
				return
			}
			s.hub.Publish(watchID, WatchEvent{
				Type:   "result",
				Index:  index,
				Total:  total,
				Result: &result,
			})
		},
	})
	if err != nil {
		if watchID != "" {
			s.hub.Publish(watchID, WatchEvent{Type: "error", Message: err.Error()})
		}
		if errors.Is(err, orchestrator.ErrNoCoordinates) {
			fail(w, http.StatusBadRequest, err.Error())
			return
		}
		failUpstream(w, err, "Error processing batch test")
		return
	}

	if saved := s.results.Save(run.ID, run); !saved {
		log.Printf("[Genesys] run %s not persisted to disk", run.ID)
	}
	if sess.ID != "" {
		s.sessions.Update(sess.ID, func(stored *session.Session) {
			stored.StoreRun(run)
		})
	}
	if watchID != "" {
		s.hub.Publish(watchID, WatchEvent{Type: "completed", TestID: run.ID, Summary: &run.Summary})
	}

	ok(w, map[string]any{
		"testId":  run.ID,
		"results": run.Results,
		"summary": run.Summary,
	})
}

// HandleTestUtterance sends a single utterance through a flow's predict
// endpoint, bypassing the batch machinery.
func (s *Service) HandleTestUtterance(w http.ResponseWriter, r *http.Request) {
	sess, found := sessionFrom(w, r)
	if !found {
		return
	}

	var in struct {
		Utterance string `json:"utterance"`
		Language  string `json:"language"`
		FlowID    string `json:"flowId"`
		FlowType  string `json:"flowType"`
		Region    string `json:"region"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	if in.Utterance == "" || in.Language == "" || in.FlowID == "" {
		fail(w, http.StatusBadRequest, "Utterance, language, and flowId are required")
		return
	}
	region := strings.TrimSpace(in.Region)
	if region == "" {
		region = sess.Region
	}

	prediction, err := s.platform.PredictFlow(r.Context(), region, sess.Token, in.FlowID, in.FlowType, in.Utterance, in.Language)
	if err != nil {
		failUpstream(w, err, "Failed to test utterance")
		return
	}
	ok(w, map[string]any{"data": prediction})
}
