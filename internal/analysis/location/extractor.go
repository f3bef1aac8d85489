package location

import (
	"regexp"
	"strings"
)

// queryPattern matches "...weather ... in <place>" and captures the place.
var queryPattern = regexp.MustCompile(`(?i)weather.*in\s+([\w\s]+)`)

// Extract pulls a location name out of a free-text weather question.
// It returns false when the text does not look like "weather ... in <place>".
func Extract(text string) (string, bool) {
	normalized := strings.TrimSpace(text)
	if normalized == "" {
		return "", false
	}

	match := queryPattern.FindStringSubmatch(normalized)
	if len(match) < 2 {
		return "", false
	}

	place := collapseSpaces(match[1])
	if place == "" {
		return "", false
	}
	return place, true
}

// RuntimeContext builds the agent runtime context for a user utterance.
// The map is empty, never nil, when no location is found.
func RuntimeContext(text string) map[string]string {
	ctx := make(map[string]string, 1)
	if place, ok := Extract(text); ok {
		ctx["location"] = place
	}
	return ctx
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
