package generator

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"intentguard/internal/llm"
	"intentguard/internal/testrun"
)

type fakeClient struct {
	jsonOut   string
	textOut   string
	err       error
	lastInput string
}

func (f *fakeClient) Name() string { return "fake" }
func (f *fakeClient) Close() error { return nil }

func (f *fakeClient) GenerateJSON(ctx context.Context, prompt string) (json.RawMessage, error) {
	f.lastInput = prompt
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(f.jsonOut), nil
}

func (f *fakeClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	f.lastInput = prompt
	return f.textOut, f.err
}

func TestNormalizeCanonicalShape(t *testing.T) {
	raw := json.RawMessage(`{"utterances":[
		{"text":"open an account","expected_intent":"account_opening","expected_slots":{"account_type":"checking"}},
		{"text":"hi there","expected_intent":"greet","expected_slots":{}}
	]}`)
	got, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d utterances", len(got))
	}
	if got[0].ExpectedSlots["account_type"] != "checking" {
		t.Fatalf("slots %v", got[0].ExpectedSlots)
	}
}

func TestNormalizeBareArray(t *testing.T) {
	raw := json.RawMessage(`[{"text":"hello","expected_intent":"greet"}]`)
	got, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(got) != 1 || got[0].Text != "hello" {
		t.Fatalf("got %+v", got)
	}
	if got[0].ExpectedSlots == nil {
		t.Fatal("slots must never be nil after repair")
	}
}

func TestNormalizeFencedPayload(t *testing.T) {
	raw := json.RawMessage("```json\n{\"utterances\":[{\"text\":\"hi\",\"expected_intent\":\"greet\"}]}\n```")
	got, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(got) != 1 || got[0].Text != "hi" {
		t.Fatalf("got %+v", got)
	}
}

func TestNormalizeAlternateFieldNames(t *testing.T) {
	raw := json.RawMessage(`{"utterances":[
		{"utterance":"close my account","intent":"account_closing","slots":{"account_type":"savings"}}
	]}`)
	got, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	u := got[0]
	if u.Text != "close my account" || u.ExpectedIntent != "account_closing" {
		t.Fatalf("alternates not applied: %+v", u)
	}
	if u.ExpectedSlots["account_type"] != "savings" {
		t.Fatalf("slots %v", u.ExpectedSlots)
	}
}

func TestNormalizePlaceholdersNeverDrop(t *testing.T) {
	raw := json.RawMessage(`{"utterances":[
		{"expected_slots":{"a":"b"}},
		{"text":"kept","expected_intent":"greet"}
	]}`)
	got, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("items were dropped: %d", len(got))
	}
	if got[0].Text != placeholderText || got[0].ExpectedIntent != placeholderIntent {
		t.Fatalf("placeholders not applied: %+v", got[0])
	}
}

func TestNormalizeRejectsWrongShapes(t *testing.T) {
	for _, raw := range []string{`"just a string"`, `{"data":[]}`, `not json`} {
		if _, err := Normalize(json.RawMessage(raw)); !errors.Is(err, llm.ErrInvalidJSON) {
			t.Fatalf("%q: expected ErrInvalidJSON, got %v", raw, err)
		}
	}
}

func TestStripThink(t *testing.T) {
	in := "<think>reasoning\nover lines</think>The bot books flights."
	if got := StripThink(in); got != "The bot books flights." {
		t.Fatalf("got %q", got)
	}
	if got := StripThink("no markup"); got != "no markup" {
		t.Fatalf("got %q", got)
	}
}

func TestTestsPromptContents(t *testing.T) {
	fake := &fakeClient{jsonOut: `{"utterances":[]}`}
	g := New(fake)

	intents := []Intent{
		{Name: "account_opening", Slots: map[string]any{
			"account_type": []any{"checking", "savings"},
			"branch":       "string",
		}},
		{Name: "greet"},
	}
	if _, err := g.GenerateTests(context.Background(), intents, "de-DE"); err != nil {
		t.Fatalf("GenerateTests: %v", err)
	}

	prompt := fake.lastInput
	for _, want := range []string{
		"German",
		"1. account_opening",
		"2. greet",
		"- Slot: account_type",
		`Values: ["checking", "savings"]`,
		"Type: string",
		"No slots",
		"10 realistic user utterances per intent",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestMoreTestsPromptListsExisting(t *testing.T) {
	fake := &fakeClient{jsonOut: `{"utterances":[]}`}
	g := New(fake)

	existing := []testrun.Utterance{
		{Text: "open a savings account", ExpectedIntent: "account_opening", ExpectedSlots: map[string]string{"account_type": "savings"}},
	}
	if _, err := g.GenerateMoreTests(context.Background(), []Intent{{Name: "account_opening"}}, "en-US", existing); err != nil {
		t.Fatalf("GenerateMoreTests: %v", err)
	}

	prompt := fake.lastInput
	if !strings.Contains(prompt, "DO NOT DUPLICATE") {
		t.Error("missing no-duplicate instruction")
	}
	if !strings.Contains(prompt, `"open a savings account"`) {
		t.Error("existing utterance not enumerated")
	}
}

func TestGenerateDescription(t *testing.T) {
	fake := &fakeClient{textOut: "<think>hmm</think>  A banking bot.  "}
	g := New(fake)

	got, err := g.GenerateDescription(context.Background(),
		[]Intent{{Name: "account_opening", Description: "opens accounts", EntityReferences: []string{"account_type"}}},
		[]Entity{{Name: "account_type", Type: "list"}},
	)
	if err != nil {
		t.Fatalf("GenerateDescription: %v", err)
	}
	if got != "A banking bot." {
		t.Fatalf("got %q", got)
	}
	if !strings.Contains(fake.lastInput, "(Uses entities: account_type)") {
		t.Error("entity references not in prompt")
	}
	if !strings.Contains(fake.lastInput, "- account_type (list)") {
		t.Error("entities section not in prompt")
	}
}

func TestGenerateTestsPropagatesClientError(t *testing.T) {
	fake := &fakeClient{err: llm.ErrInvalidJSON}
	g := New(fake)
	if _, err := g.GenerateTests(context.Background(), []Intent{{Name: "x"}}, "en-US"); !errors.Is(err, llm.ErrInvalidJSON) {
		t.Fatalf("got %v", err)
	}
}
