package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"intentguard/internal/testrun"
)

// DetectedIntent is one ranked intent from the NLU detection endpoint.
type DetectedIntent struct {
	Name        string
	Probability float64
	Entities    []testrun.Slot
}

// Detection is the normalized NLU detection result. Raw retains the full
// upstream payload for debugging.
type Detection struct {
	Intents []DetectedIntent
	Raw     json.RawMessage
}

// TopIntent returns the highest-ranked intent, or the "none" sentinel
// when the response carried no intents.
func (d Detection) TopIntent() DetectedIntent {
	if len(d.Intents) > 0 {
		return d.Intents[0]
	}
	return DetectedIntent{Name: "none", Probability: 0}
}

type detectInput struct {
	Input struct {
		Text     string `json:"text"`
		Language string `json:"language"`
	} `json:"input"`
}

type detectResponse struct {
	Output struct {
		Intents []struct {
			Name        string  `json:"name"`
			Probability float64 `json:"probability"`
			Entities    []struct {
				Name  string `json:"name"`
				Value struct {
					Raw      string `json:"raw"`
					Resolved string `json:"resolved"`
				} `json:"value"`
			} `json:"entities"`
		} `json:"intents"`
	} `json:"output"`
}

// DetectIntent runs one utterance through the language-understanding
// detection endpoint for the given NLU coordinates. Responses below 500
// are treated as structurally valid: a 4xx body simply yields no intents
// and is preserved in Raw rather than raised as an error.
func (c *Client) DetectIntent(ctx context.Context, region, token, domainID, domainVersionID, text, language string) (*Detection, error) {
	var payload detectInput
	payload.Input.Text = text
	payload.Input.Language = strings.ToLower(language)

	path := fmt.Sprintf("/api/v2/languageunderstanding/domains/%s/versions/%s/detect", domainID, domainVersionID)
	status, raw, err := c.do(ctx, http.MethodPost, region, token, path, payload)
	if err != nil {
		return nil, fmt.Errorf("platform: detect: %w", err)
	}
	if status >= 500 {
		return nil, &APIError{Status: status, Body: raw}
	}

	var dr detectResponse
	_ = json.Unmarshal(raw, &dr) // 4xx payloads carry error detail, not output

	out := &Detection{Raw: raw}
	for _, in := range dr.Output.Intents {
		di := DetectedIntent{Name: in.Name, Probability: in.Probability}
		for _, e := range in.Entities {
			di.Entities = append(di.Entities, testrun.Slot{
				Name:  e.Name,
				Value: testrun.SlotValue{Raw: e.Value.Raw, Resolved: e.Value.Resolved},
			})
		}
		out.Intents = append(out.Intents, di)
	}
	return out, nil
}

// Prediction is a single-utterance flow prediction result.
type Prediction struct {
	Utterance        string          `json:"utterance"`
	Language         string          `json:"language"`
	RecognizedIntent string          `json:"recognized_intent"`
	Confidence       float64         `json:"confidence"`
	Slots            json.RawMessage `json:"slots"`
	RawResponse      json.RawMessage `json:"raw_response"`
}

// PredictFlow sends one utterance to a flow's predict endpoint. Digital
// and legacy flow types use different paths but the same body shape.
func (c *Client) PredictFlow(ctx context.Context, region, token, flowID, flowType, text, language string) (*Prediction, error) {
	var payload detectInput
	payload.Input.Text = text
	payload.Input.Language = strings.ToLower(language)

	path := "/api/v2/flows/" + flowID + "/predict"
	if flowType == FlowTypeLegacy {
		path = "/api/v2/architect/botflows/" + flowID + "/predict"
	}
	status, raw, err := c.do(ctx, http.MethodPost, region, token, path, payload)
	if err != nil {
		return nil, fmt.Errorf("platform: predict: %w", err)
	}
	if status >= 300 {
		return nil, &APIError{Status: status, Body: raw}
	}

	var pr struct {
		Intent struct {
			Name       string  `json:"name"`
			Confidence float64 `json:"confidence"`
		} `json:"intent"`
		Slots json.RawMessage `json:"slots"`
	}
	if err := json.Unmarshal(raw, &pr); err != nil {
		return nil, fmt.Errorf("platform: decode prediction: %w", err)
	}

	name := pr.Intent.Name
	if name == "" {
		name = "none"
	}
	slots := pr.Slots
	if len(slots) == 0 {
		slots = json.RawMessage(`{}`)
	}
	return &Prediction{
		Utterance:        text,
		Language:         language,
		RecognizedIntent: name,
		Confidence:       pr.Intent.Confidence,
		Slots:            slots,
		RawResponse:      raw,
	}, nil
}

// GetUserOrg fetches the authenticated user's profile, used both as a
// token sanity check and as cached org info for the session log.
func (c *Client) GetUserOrg(ctx context.Context, region, token string) (json.RawMessage, error) {
	status, raw, err := c.do(ctx, http.MethodGet, region, token, "/api/v2/users/me", nil)
	if err != nil {
		return nil, fmt.Errorf("platform: user org: %w", err)
	}
	if status >= 400 {
		return nil, &APIError{Status: status, Body: raw}
	}
	return raw, nil
}
