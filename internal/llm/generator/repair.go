package generator

import (
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"

	"intentguard/internal/llm"
	"intentguard/internal/testrun"
	"intentguard/internal/util/jsonutil"
)

// Placeholders substituted when the model omits a field entirely. Items
// are repaired, never dropped, so counts stay aligned with the ask.
const (
	placeholderText   = "Missing text"
	placeholderIntent = "unknown"
)

// Normalize coerces whatever JSON shape the model produced into a flat
// utterance list. Accepted shapes: {"utterances": [...]} and a bare
// top-level array, with or without a Markdown fence. Per item, the
// canonical field names win and the alternates (utterance, intent,
// slots) fill gaps.
func Normalize(raw json.RawMessage) ([]testrun.Utterance, error) {
	var parsed any
	if err := json.Unmarshal([]byte(jsonutil.StripFences(string(raw))), &parsed); err != nil {
		return nil, llm.ErrInvalidJSON
	}

	var items []any
	switch v := parsed.(type) {
	case []any:
		items = v
	case map[string]any:
		list, ok := v["utterances"].([]any)
		if !ok {
			return nil, fmt.Errorf("%w: no utterances array", llm.ErrInvalidJSON)
		}
		items = list
	default:
		return nil, fmt.Errorf("%w: unexpected top-level shape", llm.ErrInvalidJSON)
	}

	out := make([]testrun.Utterance, 0, len(items))
	for _, item := range items {
		obj, _ := item.(map[string]any)
		out = append(out, repairItem(obj))
	}
	return out, nil
}

func repairItem(obj map[string]any) testrun.Utterance {
	u := testrun.Utterance{
		Text:           stringField(obj, "text", "utterance"),
		ExpectedIntent: stringField(obj, "expected_intent", "intent"),
		ExpectedSlots:  slotsField(obj, "expected_slots", "slots"),
	}
	if u.Text == "" {
		log.Printf("[Generator] utterance missing text: %v", obj)
		u.Text = placeholderText
	}
	if u.ExpectedIntent == "" {
		log.Printf("[Generator] utterance missing intent: %v", obj)
		u.ExpectedIntent = placeholderIntent
	}
	return u
}

func stringField(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := obj[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func slotsField(obj map[string]any, keys ...string) map[string]string {
	for _, key := range keys {
		m, ok := obj[key].(map[string]any)
		if !ok {
			continue
		}
		slots := make(map[string]string, len(m))
		for name, value := range m {
			if value == nil {
				continue
			}
			if s, ok := value.(string); ok {
				slots[name] = s
			} else {
				slots[name] = fmt.Sprint(value)
			}
		}
		return slots
	}
	return map[string]string{}
}

var thinkRe = regexp.MustCompile(`(?s)<think>.*?</think>`)

// StripThink removes reasoning markup some models prepend to free-text
// answers.
func StripThink(s string) string {
	return strings.TrimSpace(thinkRe.ReplaceAllString(s, ""))
}
