package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/handoverhq/handover/internal/apperr"
	"github.com/handoverhq/handover/internal/coverage"
	"github.com/handoverhq/handover/internal/prompts"
	"github.com/handoverhq/handover/internal/roles"
)

// Phrases the expert uses to signal they are finished with the current topic
// or the session. Matched as lowercase substrings of the incoming message.
var donePhrases = []string{
	"i'm done",
	"im done",
	"that's everything",
	"thats everything",
	"let's move on",
	"lets move on",
	"nothing else",
	"that's all",
	"thats all",
	"we're done",
	"were done",
	"finished",
	"complete",
}

// Phrases the interviewer uses when it starts wrapping up. Matched as
// lowercase substrings of the assistant reply.
var completionPhrases = []string{
	"thank you so much for sharing",
	"thank you for sharing",
	"this has been very helpful",
	"that concludes",
	"we've covered a lot",
	"that's a great place to stop",
	"shall we finish",
	"ready to finish",
	"wrap up",
	"that covers everything",
}

func matchesAny(text string, phrases []string) bool {
	lower := strings.ToLower(text)
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// PostMessageResult is the reply to one expert turn.
type PostMessageResult struct {
	Response           string          `json:"response"`
	Coverage           map[string]bool `json:"coverage,omitempty"`
	TopicComplete      bool            `json:"topicComplete,omitempty"`
	CompletionDetected bool            `json:"completionDetected,omitempty"`
}

// PostMessage appends the expert's message, asks the interviewer for the next
// question and appends its reply. Every Nth expert turn, and whenever either
// side signals the session is wrapping up, a snapshot job is queued.
func (s *Service) PostMessage(ctx context.Context, id, content string) (*PostMessageResult, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperr.Validation("message is required")
	}
	iv, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	doneCommand := matchesAny(content, donePhrases)
	iv.Messages = append(iv.Messages, Message{Role: "user", Content: content, Timestamp: time.Now().UTC()})

	system, covered := s.systemPrompt(ctx, iv, doneCommand)

	reply, err := s.llm.Complete(ctx, system, iv.LLMMessages())
	if err != nil {
		return nil, err
	}
	iv.Messages = append(iv.Messages, Message{Role: "assistant", Content: reply, Timestamp: time.Now().UTC()})

	topicComplete := false
	if doneCommand && iv.TopicID != "" {
		if err := s.topics.MarkComplete(ctx, iv.TopicID); err != nil {
			s.logger.Warn("topic not marked complete", "topicId", iv.TopicID, "error", err)
		} else {
			topicComplete = true
		}
	}

	now := time.Now().UTC()
	iv.UpdatedAt = &now
	if err := s.store.Put(ctx, Key(id), iv); err != nil {
		return nil, fmt.Errorf("store interview %s: %w", id, err)
	}

	if iv.UserMessageCount()%s.interval == 0 {
		s.submitSnapshot(ctx, id)
	}
	completionDetected := doneCommand || matchesAny(reply, completionPhrases)
	if completionDetected {
		s.submitSnapshot(ctx, id)
	}

	return &PostMessageResult{
		Response:           reply,
		Coverage:           covered,
		TopicComplete:      topicComplete,
		CompletionDetected: completionDetected,
	}, nil
}

// systemPrompt picks the interviewer prompt for the current turn. Ad-hoc
// topic interviews get a coverage-aware topic prompt; role interviews get the
// phase prompt plus the checklist focus when a checklist topic is active.
func (s *Service) systemPrompt(ctx context.Context, iv *Interview, doneCommand bool) (string, map[string]bool) {
	if iv.TopicID != "" {
		t, err := s.topics.Get(ctx, iv.TopicID)
		if err != nil {
			var ae *apperr.Error
			if !errors.As(err, &ae) || ae.Kind != apperr.KindNotFound {
				s.logger.Warn("topic load failed, using role prompt", "topicId", iv.TopicID, "error", err)
			}
			return s.rolePrompt(iv), nil
		}
		covered := s.analyzer.Analyze(iv.LLMMessages())
		iv.Coverage = covered
		system := prompts.TopicInterviewer(prompts.TopicInfo{
			Name:        t.Name,
			Description: t.Description,
			Frequency:   t.Frequency,
		}, s.catalog.Areas, covered, len(iv.Messages))
		if doneCommand {
			system += prompts.DoneAddendum
		}
		return system, covered
	}

	system := s.rolePrompt(iv)
	role, ok := s.catalog.Role(iv.Role)
	if !ok || iv.CurrentTopicID == "" || len(iv.TopicProgress) == 0 {
		return system, nil
	}
	current, ok := role.Topic(iv.CurrentTopicID)
	if !ok {
		return system, nil
	}
	covered := s.analyzer.Analyze(iv.LLMMessages())
	if tp, ok := iv.TopicProgress[current.ID]; ok {
		tp.CoveragePercent = coverage.Percent(covered, current.RequiredAreas)
	}
	statuses := make(map[string]string, len(iv.TopicProgress))
	for tid, tp := range iv.TopicProgress {
		statuses[tid] = tp.Status
	}
	system += prompts.ChecklistFocus(current, role.Topics, statuses)
	if doneCommand {
		system += prompts.DoneAddendum
	}
	return system, nil
}

// rolePrompt is the phase-based interviewer prompt, falling back to defaults
// when the interview carries no recognized role.
func (s *Service) rolePrompt(iv *Interview) string {
	role, ok := s.catalog.Role(iv.Role)
	if !ok {
		role = roles.Role{Name: "Finance Director"}
		if r, found := s.catalog.Role(role.Name); found {
			role = r
		}
	}
	phaseKey := iv.Phase
	if _, ok := s.catalog.Phase(phaseKey); !ok {
		phaseKey = PhaseWarmUp
	}
	phase, _ := s.catalog.Phase(phaseKey)
	return prompts.Interviewer(role, phase)
}
