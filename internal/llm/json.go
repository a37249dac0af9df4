package llm

import (
	"strings"

	"github.com/handoverhq/handover/internal/apperr"
)

// ExtractJSON pulls the JSON object out of a model reply. Models sometimes
// wrap the payload in a markdown fence or lead with prose, so strip fences
// and cut from the first brace to the last.
func ExtractJSON(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return "", apperr.Parse("no JSON object in model reply", nil)
	}
	return s[start : end+1], nil
}
