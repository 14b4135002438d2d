package checklist

import (
	"encoding/json"
	"strings"
)

// Suggestions is the normalized collaborator output. Missing fields are
// zero values, never nil slices.
type Suggestions struct {
	ChangeSummary      string
	DeveloperChecklist []string
	TesterChecklist    []string
}

// ParseResponse normalizes model output field by field. ok is false when
// no JSON object could be decoded; the returned value is still usable.
func ParseResponse(content string) (Suggestions, bool) {
	s := Suggestions{
		DeveloperChecklist: []string{},
		TesterChecklist:    []string{},
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(extractObject(content)), &fields); err != nil {
		return s, false
	}

	if raw, ok := fields["changeSummary"]; ok {
		var summary string
		if json.Unmarshal(raw, &summary) == nil {
			s.ChangeSummary = strings.TrimSpace(summary)
		}
	}
	s.DeveloperChecklist = stringItems(fields["developerChecklist"])
	s.TesterChecklist = stringItems(fields["testerChecklist"])

	return s, true
}

// stringItems decodes a JSON array keeping its string elements unchanged
func stringItems(raw json.RawMessage) []string {
	items := []string{}
	if len(raw) == 0 {
		return items
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return items
	}

	for _, elem := range elems {
		var item string
		if json.Unmarshal(elem, &item) != nil {
			continue
		}
		items = append(items, item)
	}
	return items
}

// extractObject strips markdown code fences and surrounding prose
func extractObject(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		lines := strings.Split(content, "\n")
		if len(lines) >= 2 {
			end := len(lines)
			if strings.TrimSpace(lines[end-1]) == "```" {
				end--
			}
			content = strings.Join(lines[1:end], "\n")
		}
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		return content[start : end+1]
	}
	return content
}
