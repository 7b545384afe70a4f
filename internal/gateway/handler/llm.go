package handler

import (
	"errors"
	"log"
	"net/http"

	"intentguard/internal/llm"
	"intentguard/internal/llm/generator"
	"intentguard/internal/session"
	"intentguard/internal/testrun"
)

// generatorReady guards the LLM routes against a missing provider.
func (s *Service) generatorReady(w http.ResponseWriter) bool {
	if s.gen == nil {
		fail(w, http.StatusInternalServerError, "LLM API key is not configured")
		return false
	}
	return true
}

func llmFailure(w http.ResponseWriter, err error, message string) {
	if errors.Is(err, llm.ErrInvalidJSON) {
		fail(w, http.StatusInternalServerError, "Failed to parse LLM response")
		return
	}
	fail(w, http.StatusInternalServerError, message)
}

// HandleGenerateTests produces candidate utterances for the selected
// intents and caches them on the session per language.
func (s *Service) HandleGenerateTests(w http.ResponseWriter, r *http.Request) {
	sess, found := sessionFrom(w, r)
	if !found {
		return
	}
	if !s.generatorReady(w) {
		return
	}

	var in struct {
		Intents  []generator.Intent `json:"intents"`
		Language string             `json:"language"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	if len(in.Intents) == 0 || in.Language == "" {
		fail(w, http.StatusBadRequest, "Intents and language are required")
		return
	}

	utterances, err := s.gen.GenerateTests(r.Context(), in.Intents, in.Language)
	if err != nil {
		log.Printf("[LLM] generate tests: %v", err)
		llmFailure(w, err, "Failed to generate test utterances")
		return
	}

	if sess.ID != "" {
		s.sessions.Update(sess.ID, func(stored *session.Session) {
			if stored.TestData == nil {
				stored.TestData = map[string][]testrun.Utterance{}
			}
			stored.TestData[in.Language] = utterances
		})
	}
	ok(w, map[string]any{"data": utterances})
}

// HandleGenerateMoreTests repeats generation with the already-known
// utterances excluded by prompt. The output may still contain duplicates;
// nothing is filtered here.
func (s *Service) HandleGenerateMoreTests(w http.ResponseWriter, r *http.Request) {
	if _, found := sessionFrom(w, r); !found {
		return
	}
	if !s.generatorReady(w) {
		return
	}

	var in struct {
		Intents            []generator.Intent  `json:"intents"`
		Language           string              `json:"language"`
		ExistingUtterances []testrun.Utterance `json:"existingUtterances"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	if len(in.Intents) == 0 || in.Language == "" {
		fail(w, http.StatusBadRequest, "Intents and language are required")
		return
	}
	if len(in.ExistingUtterances) == 0 {
		fail(w, http.StatusBadRequest, "Existing utterances are required and must be a non-empty array")
		return
	}

	utterances, err := s.gen.GenerateMoreTests(r.Context(), in.Intents, in.Language, in.ExistingUtterances)
	if err != nil {
		log.Printf("[LLM] generate more tests: %v", err)
		llmFailure(w, err, "Failed to generate more test utterances")
		return
	}
	ok(w, map[string]any{"data": utterances})
}

// HandleGenerateDescription writes a short natural-language summary of a
// bot from its intents and entities.
func (s *Service) HandleGenerateDescription(w http.ResponseWriter, r *http.Request) {
	if _, found := sessionFrom(w, r); !found {
		return
	}
	if !s.generatorReady(w) {
		return
	}

	var in struct {
		Intents  []generator.Intent `json:"intents"`
		Entities []generator.Entity `json:"entities"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	if len(in.Intents) == 0 {
		fail(w, http.StatusBadRequest, "Intents array is required")
		return
	}

	description, err := s.gen.GenerateDescription(r.Context(), in.Intents, in.Entities)
	if err != nil {
		log.Printf("[LLM] generate description: %v", err)
		llmFailure(w, err, "Failed to generate bot description")
		return
	}
	ok(w, map[string]any{"description": description})
}
