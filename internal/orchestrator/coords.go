package orchestrator

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNoCoordinates means no extraction strategy could locate the NLU
// domain/version pair in a flow configuration. Terminal for the run.
var ErrNoCoordinates = errors.New("orchestrator: NLU domain/version not found in flow configuration")

// Coordinates select which trained NLU model the detection endpoint runs.
type Coordinates struct {
	DomainID        string
	DomainVersionID string
}

// coordStrategy attempts to pull coordinates out of a configuration
// document. Returning ok=false defers to the next strategy.
type coordStrategy func(doc map[string]any) (Coordinates, bool)

// coordStrategies is the ordered fallback cascade. The platform has
// shipped the coordinates in several places over time; each strategy
// covers one known shape, and the final one scans key names as a last
// resort.
var coordStrategies = []coordStrategy{
	directFields,
	botFlowSettingsFields,
	legacyFields,
	manifestNLUDomain,
	keyNameScan,
}

// ResolveCoordinates tries each strategy in order and returns the first
// complete pair. Exhaustion is ErrNoCoordinates.
func ResolveCoordinates(doc map[string]any) (Coordinates, error) {
	for _, strat := range coordStrategies {
		if c, ok := strat(doc); ok {
			return c, nil
		}
	}
	return Coordinates{}, ErrNoCoordinates
}

func docString(doc map[string]any, key string) string {
	if doc == nil {
		return ""
	}
	switch v := doc[key].(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return ""
	}
}

func docMap(doc map[string]any, key string) map[string]any {
	if doc == nil {
		return nil
	}
	m, _ := doc[key].(map[string]any)
	return m
}

func pair(id, version string) (Coordinates, bool) {
	if id == "" || version == "" {
		return Coordinates{}, false
	}
	return Coordinates{DomainID: id, DomainVersionID: version}, true
}

func directFields(doc map[string]any) (Coordinates, bool) {
	return pair(docString(doc, "nluDomainId"), docString(doc, "nluDomainVersionId"))
}

func botFlowSettingsFields(doc map[string]any) (Coordinates, bool) {
	settings := docMap(doc, "botFlowSettings")
	return pair(docString(settings, "nluDomainId"), docString(settings, "nluDomainVersionId"))
}

func legacyFields(doc map[string]any) (Coordinates, bool) {
	return pair(docString(doc, "domainId"), docString(doc, "domainVersionId"))
}

func manifestNLUDomain(doc map[string]any) (Coordinates, bool) {
	domain := docMap(docMap(doc, "manifest"), "nluDomain")
	return pair(docString(domain, "id"), docString(domain, "version"))
}

// keyNameScan adopts the first top-level value whose key name merely
// contains "domain" (but not "version") and the first containing
// "version". Very loose, deliberately last in the cascade. Keys are
// visited in sorted order so the pick is deterministic.
func keyNameScan(doc map[string]any) (Coordinates, bool) {
	keys := make([]string, 0, len(doc))
	for key := range doc {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var id, version string
	for _, key := range keys {
		val, ok := doc[key].(string)
		if !ok || val == "" {
			continue
		}
		lower := strings.ToLower(key)
		if id == "" && strings.Contains(lower, "domain") && !strings.Contains(lower, "version") {
			id = val
		}
		if version == "" && strings.Contains(lower, "version") {
			version = val
		}
	}
	return pair(id, version)
}
