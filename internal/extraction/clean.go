package extraction

import (
	"encoding/json"
	"strings"
)

// CleanResponse strips the wrappers models put around JSON output: markdown
// code fences and any preamble or trailing prose. Returns the trimmed
// response when no fences are present.
func CleanResponse(response string) string {
	clean := strings.TrimSpace(response)

	if idx := strings.Index(clean, "```json"); idx != -1 {
		clean = clean[idx+len("```json"):]
		if end := strings.Index(clean, "```"); end != -1 {
			clean = clean[:end]
		}
	} else if idx := strings.Index(clean, "```"); idx != -1 {
		clean = clean[idx+3:]
		if end := strings.Index(clean, "```"); end != -1 {
			clean = clean[:end]
		}
	}

	return strings.TrimSpace(clean)
}

// DecodeFirstObject finds and decodes the first valid JSON object embedded
// in text. Models sometimes prefix the object with thinking text or append
// explanations; every "{" is tried in order until one parses.
func DecodeFirstObject(text string) (map[string]any, bool) {
	for idx := 0; idx < len(text); idx++ {
		if text[idx] != '{' {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(text[idx:]))
		var obj map[string]any
		if err := dec.Decode(&obj); err == nil {
			return obj, true
		}
	}
	return nil, false
}

// ParseStructured cleans a raw model response and extracts the structured
// profile object from it.
func ParseStructured(response string) (map[string]any, bool) {
	return DecodeFirstObject(CleanResponse(response))
}
