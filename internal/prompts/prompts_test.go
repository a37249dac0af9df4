package prompts

import (
	"strings"
	"testing"

	"github.com/handoverhq/handover/internal/roles"
)

func TestInterviewer(t *testing.T) {
	c := roles.MustLoad()
	role, _ := c.Role("Head of Treasury")

	for _, phaseKey := range []string{"warm-up", "core-frameworks", "cases", "meta"} {
		phase, ok := c.Phase(phaseKey)
		if !ok {
			t.Fatalf("phase %q missing from catalog", phaseKey)
		}
		prompt := Interviewer(role, phase)
		if !strings.Contains(prompt, "Head of Treasury") {
			t.Errorf("phase %s: prompt missing role name", phaseKey)
		}
		if !strings.Contains(prompt, phase.Purpose) {
			t.Errorf("phase %s: prompt missing phase purpose", phaseKey)
		}
		if !strings.Contains(prompt, role.KeyAreas[0]) {
			t.Errorf("phase %s: prompt missing key areas", phaseKey)
		}
	}
}

func TestTopicPhase(t *testing.T) {
	tests := []struct {
		covered, messages int
		want              string
	}{
		{0, 5, "opening"},
		{1, 5, "deep-dive"},
		{3, 20, "deep-dive"},
		{4, 20, "coverage-check"},
		{6, 20, "coverage-check"},
		{7, 30, "wrap-up"},
		{8, 30, "wrap-up"},
	}
	for _, tt := range tests {
		if got := TopicPhase(tt.covered, tt.messages); got != tt.want {
			t.Errorf("TopicPhase(%d, %d) = %q, want %q", tt.covered, tt.messages, got, tt.want)
		}
	}
}

func TestTopicInterviewer(t *testing.T) {
	c := roles.MustLoad()
	topic := TopicInfo{Name: "Month-End Close", Description: "Monthly close process", Frequency: "monthly"}
	covered := map[string]bool{"overview": true, "tasks": true}

	prompt := TopicInterviewer(topic, c.Areas, covered, 12)

	if !strings.Contains(prompt, "Month-End Close") {
		t.Error("prompt missing topic name")
	}
	if !strings.Contains(prompt, "COVERED | **Overview**") {
		t.Error("prompt missing covered marker for overview")
	}
	if !strings.Contains(prompt, "NOT YET COVERED | **Key Dates**") {
		t.Error("prompt missing uncovered marker for dates")
	}
	// Two covered areas puts a topic interview in the deep-dive phase.
	if !strings.Contains(prompt, "DEEP-DIVE") {
		t.Error("prompt missing deep-dive phase header")
	}
	// "month-end" matches the month-end subtopic set.
	if !strings.Contains(prompt, "journal processing") {
		t.Error("prompt missing relevant subtopics")
	}
}

func TestChecklistFocus(t *testing.T) {
	c := roles.MustLoad()
	role, _ := c.Role("Head of AP")
	current := role.Topics[1]

	statuses := map[string]string{
		role.Topics[0].ID: "complete",
		current.ID:        "in-progress",
	}
	addendum := ChecklistFocus(current, role.Topics, statuses)

	if !strings.Contains(addendum, current.Name) {
		t.Error("addendum missing current topic name")
	}
	if !strings.Contains(addendum, "1/9 complete") {
		t.Errorf("addendum missing progress count:\n%s", addendum)
	}
}

func TestKnowledgeBuilder(t *testing.T) {
	topic := TopicInfo{Name: "Payment Runs", Frequency: "weekly"}
	prompt := KnowledgeBuilder(topic, []string{"Invoice Processing", "Supplier Setup"})

	if !strings.Contains(prompt, "Payment Runs") {
		t.Error("prompt missing topic name")
	}
	if !strings.Contains(prompt, "- Invoice Processing") {
		t.Error("prompt missing cross-reference topics")
	}
	if !strings.Contains(prompt, `"systemsAndTools"`) {
		t.Error("prompt missing response schema")
	}

	bare := KnowledgeBuilder(TopicInfo{Name: "Solo"}, nil)
	if !strings.Contains(bare, "No other topics defined yet.") {
		t.Error("prompt missing empty cross-reference text")
	}
}
