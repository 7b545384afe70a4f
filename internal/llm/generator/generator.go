// Package generator turns flow intent definitions into candidate test
// utterances and bot descriptions via an LLM completion provider.
package generator

import (
	"context"
	"fmt"
	"strings"

	"intentguard/internal/llm"
	"intentguard/internal/testrun"
)

// Intent describes one NLU intent as the prompt needs it: the name plus
// its slot definitions. A slot whose value is a list enumerates the
// accepted values; anything else is treated as a free string slot.
type Intent struct {
	Name             string         `json:"name"`
	Description      string         `json:"description,omitempty"`
	EntityReferences []string       `json:"entityReferences,omitempty"`
	Slots            map[string]any `json:"slots,omitempty"`
}

// Entity is one entity definition for description prompts.
type Entity struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Generator drives utterance and description generation.
type Generator struct {
	client llm.Client
}

func New(client llm.Client) *Generator {
	return &Generator{client: client}
}

// GenerateTests asks for 10 utterances per intent in the given language.
// The model's JSON is normalized; malformed JSON is terminal.
func (g *Generator) GenerateTests(ctx context.Context, intents []Intent, language string) ([]testrun.Utterance, error) {
	raw, err := g.client.GenerateJSON(ctx, testsPrompt(intents, language))
	if err != nil {
		return nil, err
	}
	return Normalize(raw)
}

// GenerateMoreTests repeats the ask with the existing utterances listed
// as do-not-duplicate context. The result is not de-duplicated here;
// duplicates slipping past the prompt are the caller's to keep.
func (g *Generator) GenerateMoreTests(ctx context.Context, intents []Intent, language string, existing []testrun.Utterance) ([]testrun.Utterance, error) {
	raw, err := g.client.GenerateJSON(ctx, moreTestsPrompt(intents, language, existing))
	if err != nil {
		return nil, err
	}
	return Normalize(raw)
}

// GenerateDescription produces a short natural-language summary of what
// a bot does, with any model "thinking" markup stripped.
func (g *Generator) GenerateDescription(ctx context.Context, intents []Intent, entities []Entity) (string, error) {
	if len(intents) == 0 {
		return "", fmt.Errorf("generator: no intents to describe")
	}
	text, err := g.client.GenerateText(ctx, descriptionPrompt(intents, entities))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(StripThink(text)), nil
}
