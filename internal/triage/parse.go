package triage

import (
	"encoding/json"
	"fmt"
	"strings"
)

// extractJSON unmarshals the first JSON object found in s into v. Models
// sometimes wrap structured output in code fences or preamble text, so the
// parse is anchored on the outermost brace pair rather than the whole string.
func extractJSON(s string, v any) error {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return fmt.Errorf("no JSON object in reply")
	}
	if err := json.Unmarshal([]byte(s[start:end+1]), v); err != nil {
		return fmt.Errorf("unmarshal reply: %w", err)
	}
	return nil
}
