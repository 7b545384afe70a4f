package generator

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"intentguard/internal/testrun"
)

// languageNames maps the platform's language codes to names the model
// recognizes more reliably than a bare code.
var languageNames = map[string]string{
	"en-US": "English (US)",
	"en-GB": "English (UK)",
	"es-ES": "Spanish (Spain)",
	"es-MX": "Spanish (Mexico)",
	"fr-FR": "French",
	"de-DE": "German",
	"it-IT": "Italian",
	"pt-BR": "Portuguese (Brazil)",
	"nl-NL": "Dutch",
	"ja-JP": "Japanese",
}

func languageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return code
}

const promptStyleRules = `Some utterances should include slot values naturally, while others should not. Not every utterance is required to mention a slot, even if one is defined. Slot values should be incorporated in a conversational way, like a real customer would speak.

Mix of realism and errors:
- The utterances should be a balanced mix of correctly written utterances (natural, grammatically fine) and slightly imperfect ones (informal tone, mild typos, grammar mistakes, or missing punctuation).
- Do not make all utterances sloppy or typo-heavy; around 40-50% can have informal issues or typos.

Output format:
Return a JSON object with an "utterances" array, no explanations, no markdown. Each object must have:
- "text": the user input string
- "expected_intent": the name of the intent
- "expected_slots": an object showing slot-value pairs (or an empty object if no slots apply)

Example structure:
{
  "utterances": [
    {
      "text": "i wanna open a checking accnt",
      "expected_intent": "account_opening",
      "expected_slots": {
        "account_type": "checking"
      }
    }
  ]
}
`

// testsPrompt builds the initial generation prompt: 10 utterances per
// intent, slots enumerated with their types and accepted values.
func testsPrompt(intents []Intent, language string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a conversational AI testing assistant. I will provide you with a list of intents, some of which include slots. Your task is to generate 10 realistic user utterances per intent in %s. The output should be a flat list, where each utterance is labeled with its expected intent and, if applicable, the expected slot(s) and their values.\n\n", languageName(language))
	b.WriteString(promptStyleRules)
	b.WriteString("\n---\n\n### Intents and Slots:\n\n")
	writeIntentList(&b, intents)
	b.WriteString("Now generate 10 varied utterances per intent, as described above, mixing formal and informal phrasing.")
	return b.String()
}

// moreTestsPrompt repeats the ask with the already-generated utterances
// enumerated as a do-not-duplicate list.
func moreTestsPrompt(intents []Intent, language string, existing []testrun.Utterance) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a conversational AI testing assistant. I will provide you with a list of intents, some of which include slots. Your task is to generate 10 MORE realistic user utterances per intent in %s.\n\nIMPORTANT: DO NOT DUPLICATE any of the existing utterances listed below.\n\n", languageName(language))
	b.WriteString(promptStyleRules)
	b.WriteString("\n---\n\n### Intents and Slots:\n\n")
	writeIntentList(&b, intents)

	b.WriteString("\n### EXISTING UTTERANCES (DO NOT DUPLICATE THESE):\n\n")
	for _, u := range existing {
		slots, _ := json.Marshal(u.ExpectedSlots)
		if u.ExpectedSlots == nil {
			slots = []byte("{}")
		}
		fmt.Fprintf(&b, "- %q (Intent: %s, Slots: %s)\n", u.Text, u.ExpectedIntent, slots)
	}

	b.WriteString("\nNow generate 10 MORE varied utterances per intent that are DIFFERENT from the existing ones listed above. Return the result as a valid JSON object with the \"utterances\" array.")
	return b.String()
}

func writeIntentList(b *strings.Builder, intents []Intent) {
	for i, intent := range intents {
		fmt.Fprintf(b, "%d. %s\n", i+1, intent.Name)
		if len(intent.Slots) == 0 {
			b.WriteString("   - No slots\n\n")
			continue
		}
		for _, name := range sortedKeys(intent.Slots) {
			fmt.Fprintf(b, "   - Slot: %s\n", name)
			if values := listValues(intent.Slots[name]); values != nil {
				b.WriteString("     - Type: list\n")
				quoted := make([]string, len(values))
				for j, v := range values {
					quoted[j] = fmt.Sprintf("%q", v)
				}
				fmt.Fprintf(b, "     - Values: [%s]\n", strings.Join(quoted, ", "))
			} else {
				b.WriteString("     - Type: string\n")
			}
		}
		b.WriteString("\n")
	}
}

// listValues returns the enumerated values when the slot definition is
// list-typed, nil for free string slots.
func listValues(def any) []string {
	switch v := def.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return out
	default:
		return nil
	}
}

// sortedKeys keeps the prompt text stable regardless of map iteration
// order.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// descriptionPrompt asks for a 2-3 sentence capability summary.
func descriptionPrompt(intents []Intent, entities []Entity) string {
	var b strings.Builder
	b.WriteString("You are an expert in conversational AI and chatbot analysis. Based on the following list of intents and entities, generate a concise but informative description of what this bot can do. The description should be around 2-3 sentences and focus on the bot's main capabilities.\n\nIntents:\n")
	for _, intent := range intents {
		b.WriteString("- " + intent.Name)
		if intent.Description != "" {
			b.WriteString(": " + intent.Description)
		}
		if len(intent.EntityReferences) > 0 {
			fmt.Fprintf(&b, " (Uses entities: %s)", strings.Join(intent.EntityReferences, ", "))
		}
		b.WriteString("\n")
	}
	if len(entities) > 0 {
		b.WriteString("\nEntities:\n")
		for _, e := range entities {
			fmt.Fprintf(&b, "- %s (%s)\n", e.Name, e.Type)
		}
	}
	b.WriteString("\nWrite a natural description that explains the bot's purpose, main functionalities, and data collection capabilities to a business user.")
	return b.String()
}
