// Package interview owns the interview lifecycle: starting a session for a
// role or an ad-hoc topic, the message loop with the LLM interviewer,
// phase progression, checklist topic tracking, and the derived reports
// (coverage, transcript, summary).
package interview

import (
	"time"

	"github.com/handoverhq/handover/internal/llm"
)

// Interview phases, in order. An interview only ever moves forward through
// them; complete is terminal.
const (
	PhaseWarmUp         = "warm-up"
	PhaseCoreFrameworks = "core-frameworks"
	PhaseCases          = "cases"
	PhaseMeta           = "meta"
	PhaseComplete       = "complete"
)

var phaseRank = map[string]int{
	PhaseWarmUp:         0,
	PhaseCoreFrameworks: 1,
	PhaseCases:          2,
	PhaseMeta:           3,
	PhaseComplete:       4,
}

// ValidPhase reports whether p names a known phase.
func ValidPhase(p string) bool {
	_, ok := phaseRank[p]
	return ok
}

// Message is one turn of the conversation. The messages slice is append-only.
type Message struct {
	Role      string    `json:"role"` // "user" (the expert) or "assistant" (the interviewer)
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Question is a prepared interview question.
type Question struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Order int    `json:"order"`
}

// Checklist topic progress statuses.
const (
	TopicNotStarted = "not-started"
	TopicInProgress = "in-progress"
	TopicComplete   = "complete"
)

// TopicProgress tracks one checklist topic within a role interview.
type TopicProgress struct {
	Status           string     `json:"status"`
	CoveragePercent  int        `json:"coveragePercent"`
	Validated        bool       `json:"validated"`
	ValidationStatus string     `json:"validationStatus,omitempty"` // draft, reviewed, approved
	DiscussedAt      *time.Time `json:"discussedAt"`
	CompletedAt      *time.Time `json:"completedAt,omitempty"`
	ValidatedAt      *time.Time `json:"validatedAt,omitempty"`
	HasWorkflow      bool       `json:"hasWorkflow"`
	WorkflowID       string     `json:"workflowId,omitempty"`
}

type Interview struct {
	ID                 string                    `json:"id"`
	Role               string                    `json:"role,omitempty"`
	Phase              string                    `json:"phase"`
	Messages           []Message                 `json:"messages"`
	Questions          []Question                `json:"questions"`
	QuestionsCompleted []string                  `json:"questionsCompleted"`
	TopicProgress      map[string]*TopicProgress `json:"topicProgress,omitempty"`
	CurrentTopicID     string                    `json:"currentTopicId,omitempty"`
	Coverage           map[string]bool           `json:"coverage,omitempty"`
	ExpertName         string                    `json:"expertName,omitempty"`
	Industry           string                    `json:"industry,omitempty"`
	Description        string                    `json:"description,omitempty"`
	ExpertID           string                    `json:"expertId,omitempty"`
	TopicID            string                    `json:"topicId,omitempty"`
	CreatedAt          time.Time                 `json:"createdAt"`
	UpdatedAt          *time.Time                `json:"updatedAt,omitempty"`
	CompletedAt        *time.Time                `json:"completedAt,omitempty"`
}

// Derived interview statuses.
const (
	StatusScheduled  = "scheduled"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
)

// Status derives the listing status from phase and message count.
func (iv *Interview) Status() string {
	if iv.Phase == PhaseComplete {
		return StatusCompleted
	}
	if len(iv.Messages) > 0 {
		return StatusInProgress
	}
	return StatusScheduled
}

// UserMessageCount counts the expert's turns.
func (iv *Interview) UserMessageCount() int {
	n := 0
	for _, m := range iv.Messages {
		if m.Role == "user" {
			n++
		}
	}
	return n
}

// LLMMessages converts the conversation for an LLM call.
func (iv *Interview) LLMMessages() []llm.Message {
	msgs := make([]llm.Message, 0, len(iv.Messages))
	for _, m := range iv.Messages {
		msgs = append(msgs, llm.Message{Role: m.Role, Content: m.Content})
	}
	return msgs
}

// Key returns the storage key for an interview id.
func Key(id string) string { return "interviews/" + id }
