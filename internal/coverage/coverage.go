// Package coverage estimates which knowledge areas a topic conversation has
// touched. The analyzer is an interface so the keyword heuristic can later be
// swapped for an LLM-backed classifier without touching the interview flow.
package coverage

import (
	"strings"

	"github.com/handoverhq/handover/internal/llm"
	"github.com/handoverhq/handover/internal/roles"
)

// Analyzer reports, per knowledge area key, whether the conversation so far
// has covered that area.
type Analyzer interface {
	Analyze(messages []llm.Message) map[string]bool
}

// Keyword detects coverage by matching area keywords against the lowercased
// transcript. An area counts as covered once at least two distinct keywords
// appear. Coverage only ever grows as the transcript grows.
type Keyword struct {
	areas []roles.Area
}

func NewKeyword(catalog *roles.Catalog) *Keyword {
	return &Keyword{areas: catalog.Areas}
}

func (k *Keyword) Analyze(messages []llm.Message) map[string]bool {
	covered := make(map[string]bool)
	if len(messages) == 0 {
		return covered
	}

	parts := make([]string, 0, len(messages))
	for _, m := range messages {
		parts = append(parts, strings.ToLower(m.Content))
	}
	transcript := strings.Join(parts, " ")

	for _, area := range k.areas {
		matches := 0
		for _, kw := range area.Keywords {
			if strings.Contains(transcript, kw) {
				matches++
			}
		}
		if matches >= 2 {
			covered[area.Key] = true
		}
	}
	return covered
}

// Percent computes how much of a topic's required areas are covered, rounded
// down to a whole percentage. Topics with no required areas report 100.
func Percent(covered map[string]bool, requiredAreas []string) int {
	if len(requiredAreas) == 0 {
		return 100
	}
	n := 0
	for _, key := range requiredAreas {
		if covered[key] {
			n++
		}
	}
	return n * 100 / len(requiredAreas)
}
