package knowledge

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/handoverhq/handover/internal/apperr"
	"github.com/handoverhq/handover/internal/interview"
	"github.com/handoverhq/handover/internal/llm"
	"github.com/handoverhq/handover/internal/prompts"
	"github.com/handoverhq/handover/internal/store"
)

// Workflow is a mermaid process diagram extracted from an interview for one
// process-oriented checklist topic.
type Workflow struct {
	ID          string    `json:"id"`
	InterviewID string    `json:"interviewId"`
	TopicID     string    `json:"topicId"`
	TopicName   string    `json:"topicName"`
	MermaidCode string    `json:"mermaidCode"`
	Status      string    `json:"status"` // draft, reviewed, approved
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func workflowKey(interviewID, workflowID string) string {
	return "workflows/" + interviewID + "/" + workflowID
}

// GenerateWorkflow extracts a mermaid diagram for a process-oriented checklist
// topic from the interview transcript.
func (s *Service) GenerateWorkflow(ctx context.Context, interviewID, topicID string) (*Workflow, error) {
	var iv interview.Interview
	if err := s.store.Get(ctx, interview.Key(interviewID), &iv); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("interview %s not found", interviewID)
		}
		return nil, fmt.Errorf("load interview %s: %w", interviewID, err)
	}
	role, ok := s.catalog.Role(iv.Role)
	if !ok {
		return nil, apperr.Validation("interview %s has no role checklist", interviewID)
	}
	top, ok := role.Topic(topicID)
	if !ok {
		return nil, apperr.Validation("topic %q is not part of the %s checklist", topicID, iv.Role)
	}
	if !top.ProcessOriented {
		return nil, apperr.Validation("Topic %q is not process-oriented and does not have a workflow diagram", top.Name)
	}
	if len(iv.Messages) == 0 {
		return nil, apperr.Validation("interview %s has no messages to extract a workflow from", interviewID)
	}

	user := prompts.WorkflowRequest(top.Name, top.Description, interviewTranscript(&iv))
	reply, err := s.llm.Complete(ctx, prompts.Workflow, []llm.Message{{Role: "user", Content: user}})
	if err != nil {
		return nil, err
	}
	code := SanitizeMermaid(stripMermaidFences(reply))
	if strings.TrimSpace(code) == "" {
		return nil, apperr.Parse("workflow reply contained no diagram", nil)
	}

	wf := &Workflow{
		ID:          "wf_" + uuid.NewString(),
		InterviewID: interviewID,
		TopicID:     topicID,
		TopicName:   top.Name,
		MermaidCode: code,
		Status:      "draft",
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := s.store.Put(ctx, workflowKey(interviewID, wf.ID), wf); err != nil {
		return nil, fmt.Errorf("store workflow: %w", err)
	}

	if tp, ok := iv.TopicProgress[topicID]; ok {
		tp.HasWorkflow = true
		tp.WorkflowID = wf.ID
		now := time.Now().UTC()
		iv.UpdatedAt = &now
		if err := s.store.Put(ctx, interview.Key(interviewID), &iv); err != nil {
			return nil, fmt.Errorf("store interview %s: %w", interviewID, err)
		}
	}
	s.logger.Info("workflow generated", "interviewId", interviewID, "topicId", topicID, "workflowId", wf.ID)
	return wf, nil
}

func stripMermaidFences(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```mermaid")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

var (
	squareLabel = regexp.MustCompile(`\[([^\[\]]*)\]`)
	curlyLabel  = regexp.MustCompile(`\{([^{}]*)\}`)
)

func quoted(s string) bool {
	return len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`)
}

// SanitizeMermaid quotes node labels that contain characters the mermaid
// parser would otherwise treat as syntax. Double quotes inside a label are
// downgraded to single quotes before quoting.
func SanitizeMermaid(code string) string {
	code = squareLabel.ReplaceAllStringFunc(code, func(m string) string {
		inner := m[1 : len(m)-1]
		if !quoted(inner) && strings.ContainsAny(inner, "(){}") {
			return `["` + strings.ReplaceAll(inner, `"`, `'`) + `"]`
		}
		return m
	})
	code = curlyLabel.ReplaceAllStringFunc(code, func(m string) string {
		inner := m[1 : len(m)-1]
		if !quoted(inner) && strings.ContainsAny(inner, "()[]") {
			return `{"` + strings.ReplaceAll(inner, `"`, `'`) + `"}`
		}
		return m
	})
	return code
}

// ListWorkflows returns an interview's workflows, newest first.
func (s *Service) ListWorkflows(ctx context.Context, interviewID string) ([]*Workflow, error) {
	ids, err := s.store.List(ctx, "workflows/"+interviewID)
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	out := make([]*Workflow, 0, len(ids))
	for _, id := range ids {
		var wf Workflow
		if err := s.store.Get(ctx, workflowKey(interviewID, id), &wf); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("load workflow %s: %w", id, err)
		}
		out = append(out, &wf)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Service) GetWorkflow(ctx context.Context, interviewID, workflowID string) (*Workflow, error) {
	var wf Workflow
	if err := s.store.Get(ctx, workflowKey(interviewID, workflowID), &wf); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("workflow %s not found", workflowID)
		}
		return nil, fmt.Errorf("load workflow %s: %w", workflowID, err)
	}
	return &wf, nil
}

// UpdateWorkflowInput carries reviewer edits; nil means leave as is.
type UpdateWorkflowInput struct {
	MermaidCode *string
	Status      *string
}

var workflowStatuses = map[string]bool{"draft": true, "reviewed": true, "approved": true}

func (s *Service) UpdateWorkflow(ctx context.Context, interviewID, workflowID string, in UpdateWorkflowInput) (*Workflow, error) {
	wf, err := s.GetWorkflow(ctx, interviewID, workflowID)
	if err != nil {
		return nil, err
	}
	if in.MermaidCode != nil {
		if strings.TrimSpace(*in.MermaidCode) == "" {
			return nil, apperr.Validation("mermaidCode cannot be empty")
		}
		wf.MermaidCode = *in.MermaidCode
	}
	if in.Status != nil {
		if !workflowStatuses[*in.Status] {
			return nil, apperr.Validation("invalid status %q, expected draft, reviewed or approved", *in.Status)
		}
		wf.Status = *in.Status
	}
	wf.UpdatedAt = time.Now().UTC()
	if err := s.store.Put(ctx, workflowKey(interviewID, workflowID), wf); err != nil {
		return nil, fmt.Errorf("store workflow %s: %w", workflowID, err)
	}
	return wf, nil
}

// DeleteWorkflow removes a workflow and clears the checklist bookkeeping that
// pointed at it.
func (s *Service) DeleteWorkflow(ctx context.Context, interviewID, workflowID string) error {
	wf, err := s.GetWorkflow(ctx, interviewID, workflowID)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, workflowKey(interviewID, workflowID)); err != nil {
		return fmt.Errorf("delete workflow %s: %w", workflowID, err)
	}
	var iv interview.Interview
	if err := s.store.Get(ctx, interview.Key(interviewID), &iv); err == nil {
		if tp, ok := iv.TopicProgress[wf.TopicID]; ok && tp.WorkflowID == workflowID {
			tp.HasWorkflow = false
			tp.WorkflowID = ""
			now := time.Now().UTC()
			iv.UpdatedAt = &now
			if err := s.store.Put(ctx, interview.Key(interviewID), &iv); err != nil {
				return fmt.Errorf("store interview %s: %w", interviewID, err)
			}
		}
	}
	return nil
}
