package coverage

import (
	"testing"

	"github.com/handoverhq/handover/internal/llm"
	"github.com/handoverhq/handover/internal/roles"
)

func analyzer(t *testing.T) *Keyword {
	t.Helper()
	return NewKeyword(roles.MustLoad())
}

func TestAnalyzeEmpty(t *testing.T) {
	got := analyzer(t).Analyze(nil)
	if len(got) != 0 {
		t.Errorf("Analyze(nil) = %v, want empty", got)
	}
}

func TestAnalyzeRequiresTwoKeywords(t *testing.T) {
	k := analyzer(t)

	// One keyword only ("deadline") is not enough for the dates area.
	one := []llm.Message{{Role: "user", Content: "The main deadline is tight."}}
	if got := k.Analyze(one); got["dates"] {
		t.Errorf("dates covered with a single keyword: %v", got)
	}

	// Two distinct keywords ("deadline", "timeline") flip it.
	two := []llm.Message{{Role: "user", Content: "The deadline drives the whole timeline."}}
	if got := k.Analyze(two); !got["dates"] {
		t.Errorf("dates not covered with two keywords: %v", got)
	}
}

func TestAnalyzeSpansMessages(t *testing.T) {
	k := analyzer(t)
	msgs := []llm.Message{
		{Role: "assistant", Content: "Which system do you use for this?"},
		{Role: "user", Content: "Mostly Oracle, plus a spreadsheet for reconciliation."},
	}
	got := k.Analyze(msgs)
	if !got["systems"] {
		t.Errorf("systems not covered across messages: %v", got)
	}
}

func TestAnalyzeCaseInsensitive(t *testing.T) {
	k := analyzer(t)
	msgs := []llm.Message{
		{Role: "user", Content: "AVOID the common MISTAKE of posting before review."},
	}
	if got := k.Analyze(msgs); !got["pitfalls"] {
		t.Errorf("pitfalls not covered with uppercase keywords: %v", got)
	}
}

func TestAnalyzeMonotonic(t *testing.T) {
	k := analyzer(t)
	msgs := []llm.Message{
		{Role: "user", Content: "The deadline drives the whole timeline."},
	}
	before := k.Analyze(msgs)

	msgs = append(msgs, llm.Message{Role: "user", Content: "Nothing new here."})
	after := k.Analyze(msgs)

	for area := range before {
		if !after[area] {
			t.Errorf("area %q lost coverage after appending a message", area)
		}
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		name     string
		covered  map[string]bool
		required []string
		want     int
	}{
		{"none", map[string]bool{}, []string{"overview", "tasks"}, 0},
		{"half", map[string]bool{"overview": true}, []string{"overview", "tasks"}, 50},
		{"all", map[string]bool{"overview": true, "tasks": true}, []string{"overview", "tasks"}, 100},
		{"rounds down", map[string]bool{"overview": true}, []string{"overview", "tasks", "tips"}, 33},
		{"no requirements", map[string]bool{}, nil, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Percent(tt.covered, tt.required); got != tt.want {
				t.Errorf("Percent() = %d, want %d", got, tt.want)
			}
		})
	}
}
