package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
)

// FlowSummary is one bot flow in a listing.
type FlowSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type,omitempty"`
}

// FlowTypeLegacy tags listings that came from the legacy bot-flow API.
const FlowTypeLegacy = "legacy"

type entityListing struct {
	Entities []FlowSummary `json:"entities"`
}

// ListFlows fetches available bot flows. The digital endpoint is tried
// first; on any failure the legacy endpoint is attempted and the result
// tagged accordingly. Both failing collapses into a single error.
func (c *Client) ListFlows(ctx context.Context, region, token string) ([]FlowSummary, string, error) {
	status, raw, err := c.do(ctx, http.MethodGet, region, token, "/api/v2/flows?type=bot&pageSize=100", nil)
	if err == nil && status < 300 {
		var listing entityListing
		if jerr := json.Unmarshal(raw, &listing); jerr == nil {
			return listing.Entities, "", nil
		}
	}
	log.Printf("[FlowsAPI] digital flow listing unavailable (status=%d err=%v), trying legacy", status, err)

	status, raw, err = c.do(ctx, http.MethodGet, region, token, "/api/v2/architect/botflows", nil)
	if err != nil {
		return nil, "", fmt.Errorf("platform: list flows: %w", err)
	}
	if status >= 300 {
		return nil, "", &APIError{Status: status, Body: raw}
	}
	var listing entityListing
	if err := json.Unmarshal(raw, &listing); err != nil {
		return nil, "", fmt.Errorf("platform: decode legacy flow listing: %w", err)
	}
	return listing.Entities, FlowTypeLegacy, nil
}

// NLUData is the training metadata embedded in a flow configuration.
type NLUData struct {
	Intents     []IntentSummary `json:"intents"`
	Entities    []Entity        `json:"entities"`
	EntityTypes []EntityType    `json:"entityTypes"`
	Language    string          `json:"language"`
}

type IntentSummary struct {
	Name             string   `json:"name"`
	EntityReferences []string `json:"entityReferences"`
	Utterances       int      `json:"utterances"`
}

type Entity struct {
	Name   string   `json:"name"`
	Type   string   `json:"type"`
	Values []string `json:"values,omitempty"`
}

type EntityType struct {
	Name      string       `json:"name"`
	Mechanism string       `json:"mechanism"`
	Items     []EntityItem `json:"items,omitempty"`
}

type EntityItem struct {
	Value    string   `json:"value"`
	Synonyms []string `json:"synonyms"`
}

// FlowConfiguration is the normalized latest-configuration payload for
// one flow, including the NLU coordinates when the platform exposes them.
type FlowConfiguration struct {
	FlowID             string          `json:"flowId"`
	DomainID           string          `json:"domainId,omitempty"`
	DomainVersionID    string          `json:"domainVersionId,omitempty"`
	NLUData            NLUData         `json:"nluData"`
	BotFlowSettings    map[string]any  `json:"botFlowSettings,omitempty"`
	Manifest           map[string]any  `json:"manifest,omitempty"`
	SupportedLanguages []string        `json:"supportedLanguages,omitempty"`
	Raw                json.RawMessage `json:"-"`
}

// Document renders the configuration as a generic map, the shape the
// NLU-coordinate extraction strategies scan over.
func (fc *FlowConfiguration) Document() map[string]any {
	doc := map[string]any{
		"flowId": fc.FlowID,
	}
	if fc.DomainID != "" {
		doc["domainId"] = fc.DomainID
	}
	if fc.DomainVersionID != "" {
		doc["domainVersionId"] = fc.DomainVersionID
	}
	if fc.BotFlowSettings != nil {
		doc["botFlowSettings"] = fc.BotFlowSettings
	}
	if fc.Manifest != nil {
		doc["manifest"] = fc.Manifest
	}
	return doc
}

// rawFlowConfig mirrors the upstream latestConfiguration response.
type rawFlowConfig struct {
	NLUMetaData struct {
		RawNLU          string `json:"rawNlu"`
		DomainID        string `json:"domainId"`
		DomainVersionID string `json:"domainVersionId"`
	} `json:"nluMetaData"`
	BotFlowSettings    map[string]any `json:"botFlowSettings"`
	Manifest           map[string]any `json:"manifest"`
	SupportedLanguages []string       `json:"supportedLanguages"`
}

type rawNLU struct {
	Intents []struct {
		Name                 string   `json:"name"`
		EntityNameReferences []string `json:"entityNameReferences"`
		Utterances           []any    `json:"utterances"`
	} `json:"intents"`
	Entities []struct {
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"entities"`
	EntityTypes []struct {
		Name      string `json:"name"`
		Mechanism struct {
			Type  string `json:"type"`
			Items []struct {
				Value    string   `json:"value"`
				Synonyms []string `json:"synonyms"`
			} `json:"items"`
		} `json:"mechanism"`
	} `json:"entityTypes"`
	Language string `json:"language"`
}

// GetFlowConfiguration fetches the latest configuration for a flow and
// extracts its NLU metadata. Auth failures (401/403) surface as APIError
// with IsAuth()=true so callers can trigger re-login.
func (c *Client) GetFlowConfiguration(ctx context.Context, region, token, flowID string) (*FlowConfiguration, error) {
	cacheKey := region + "|" + flowID
	if c.configCache != nil {
		if cached, ok := c.configCache.Get(cacheKey); ok {
			return cached, nil
		}
	}

	status, raw, err := c.do(ctx, http.MethodGet, region, token,
		"/api/v2/flows/"+flowID+"/latestConfiguration?deleted=true", nil)
	if err != nil {
		return nil, fmt.Errorf("platform: flow configuration: %w", err)
	}
	if status >= 400 {
		return nil, &APIError{Status: status, Body: raw}
	}

	var rc rawFlowConfig
	if err := json.Unmarshal(raw, &rc); err != nil {
		return nil, fmt.Errorf("platform: decode flow configuration: %w", err)
	}

	cfg := &FlowConfiguration{
		FlowID:             flowID,
		BotFlowSettings:    rc.BotFlowSettings,
		Manifest:           rc.Manifest,
		SupportedLanguages: rc.SupportedLanguages,
		Raw:                raw,
	}
	cfg.DomainID = stringField(rc.BotFlowSettings, "nluDomainId")
	if cfg.DomainID == "" {
		cfg.DomainID = rc.NLUMetaData.DomainID
	}
	cfg.DomainVersionID = stringField(rc.BotFlowSettings, "nluDomainVersionId")
	if cfg.DomainVersionID == "" {
		cfg.DomainVersionID = rc.NLUMetaData.DomainVersionID
	}
	cfg.NLUData = parseRawNLU(rc.NLUMetaData.RawNLU)

	if c.configCache != nil {
		c.configCache.Add(cacheKey, cfg)
	}
	return cfg, nil
}

// parseRawNLU parses the embedded NLU JSON string. A malformed payload
// degrades to empty metadata, matching the platform's own tolerance.
func parseRawNLU(raw string) NLUData {
	out := NLUData{Language: "en-us"}
	if raw == "" {
		raw = "{}"
	}
	var nd rawNLU
	if err := json.Unmarshal([]byte(raw), &nd); err != nil {
		log.Printf("[FlowsAPI] parse NLU data: %v", err)
		return out
	}
	if nd.Language != "" {
		out.Language = nd.Language
	}
	for _, in := range nd.Intents {
		refs := in.EntityNameReferences
		if refs == nil {
			refs = []string{}
		}
		out.Intents = append(out.Intents, IntentSummary{
			Name:             in.Name,
			EntityReferences: refs,
			Utterances:       len(in.Utterances),
		})
	}
	for _, et := range nd.EntityTypes {
		t := EntityType{Name: et.Name, Mechanism: et.Mechanism.Type}
		if t.Mechanism == "" {
			t.Mechanism = "unknown"
		}
		for _, item := range et.Mechanism.Items {
			syn := item.Synonyms
			if syn == nil {
				syn = []string{}
			}
			t.Items = append(t.Items, EntityItem{Value: item.Value, Synonyms: syn})
		}
		out.EntityTypes = append(out.EntityTypes, t)
	}
	for _, en := range nd.Entities {
		e := Entity{Name: en.Name, Type: en.Type, Values: []string{}}
		// Enumerated values come from the entity type when the mechanism
		// is list-typed.
		for _, et := range out.EntityTypes {
			if et.Name != en.Type || et.Mechanism != "List" {
				continue
			}
			for _, item := range et.Items {
				e.Values = append(e.Values, item.Value)
			}
		}
		out.Entities = append(out.Entities, e)
	}
	return out
}

// FlowDetails combines flow metadata with its extracted NLU content.
type FlowDetails struct {
	ID                 string         `json:"id"`
	Name               string         `json:"name"`
	Description        string         `json:"description"`
	Type               string         `json:"type"`
	Intents            []IntentSummary `json:"intents"`
	Entities           []Entity        `json:"entities"`
	EntityTypes        []EntityType    `json:"entityTypes"`
	Language           string          `json:"language"`
	SupportedLanguages []string        `json:"supportedLanguages"`
	NLUDomainID        string          `json:"nluDomainId,omitempty"`
	NLUDomainVersionID string          `json:"nluDomainVersionId,omitempty"`
	BotFlowSettings    map[string]any  `json:"botFlowSettings,omitempty"`
}

// GetFlowDetails combines the flow-metadata call with the configuration
// call into one normalized shape.
func (c *Client) GetFlowDetails(ctx context.Context, region, token, flowID string) (*FlowDetails, error) {
	status, raw, err := c.do(ctx, http.MethodGet, region, token, "/api/v2/flows/"+flowID, nil)
	if err != nil {
		return nil, fmt.Errorf("platform: flow details: %w", err)
	}
	if status >= 400 {
		return nil, &APIError{Status: status, Body: raw}
	}
	var meta struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Type        string `json:"type"`
	}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("platform: decode flow metadata: %w", err)
	}

	cfg, err := c.GetFlowConfiguration(ctx, region, token, flowID)
	if err != nil {
		return nil, err
	}

	desc := meta.Description
	if desc == "" {
		desc = "No description available"
	}
	return &FlowDetails{
		ID:                 flowID,
		Name:               meta.Name,
		Description:        desc,
		Type:               meta.Type,
		Intents:            cfg.NLUData.Intents,
		Entities:           cfg.NLUData.Entities,
		EntityTypes:        cfg.NLUData.EntityTypes,
		Language:           cfg.NLUData.Language,
		SupportedLanguages: cfg.SupportedLanguages,
		NLUDomainID:        cfg.DomainID,
		NLUDomainVersionID: cfg.DomainVersionID,
		BotFlowSettings:    cfg.BotFlowSettings,
	}, nil
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
