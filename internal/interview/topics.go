package interview

import (
	"context"
	"fmt"
	"time"

	"github.com/handoverhq/handover/internal/apperr"
	"github.com/handoverhq/handover/internal/roles"
)

// SelectTopicResult reports a checklist focus change.
type SelectTopicResult struct {
	Success         bool                      `json:"success"`
	PreviousTopicID string                    `json:"previousTopicId"`
	CurrentTopicID  string                    `json:"currentTopicId"`
	TopicProgress   map[string]*TopicProgress `json:"topicProgress"`
}

// SelectTopic makes the given checklist topic the interview's current focus.
func (s *Service) SelectTopic(ctx context.Context, id, topicID string) (*SelectTopicResult, error) {
	iv, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	tp, ok := iv.TopicProgress[topicID]
	if !ok {
		return nil, apperr.Validation("topic %q is not part of this interview", topicID)
	}
	prev := iv.CurrentTopicID
	iv.CurrentTopicID = topicID
	if tp.Status == TopicNotStarted {
		now := time.Now().UTC()
		tp.Status = TopicInProgress
		tp.DiscussedAt = &now
	}
	if err := s.persist(ctx, iv); err != nil {
		return nil, err
	}
	return &SelectTopicResult{
		Success:         true,
		PreviousTopicID: prev,
		CurrentTopicID:  iv.CurrentTopicID,
		TopicProgress:   iv.TopicProgress,
	}, nil
}

// CompleteTopicResult reports a checklist completion and the next focus.
type CompleteTopicResult struct {
	Success           bool                      `json:"success"`
	TopicID           string                    `json:"topicId"`
	NewCurrentTopicID string                    `json:"newCurrentTopicId"`
	TopicProgress     map[string]*TopicProgress `json:"topicProgress"`
}

// CompleteTopic marks a checklist topic complete. When it was the current
// focus, the focus advances to the first remaining topic in checklist order.
func (s *Service) CompleteTopic(ctx context.Context, id, topicID string) (*CompleteTopicResult, error) {
	iv, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	tp, ok := iv.TopicProgress[topicID]
	if !ok {
		return nil, apperr.Validation("topic %q is not part of this interview", topicID)
	}
	now := time.Now().UTC()
	tp.Status = TopicComplete
	tp.CompletedAt = &now

	if iv.CurrentTopicID == topicID {
		iv.CurrentTopicID = ""
		role, _ := s.catalog.Role(iv.Role)
		for _, t := range role.Topics {
			if t.ID == topicID {
				continue
			}
			next, ok := iv.TopicProgress[t.ID]
			if !ok || next.Status == TopicComplete {
				continue
			}
			if next.Status == TopicNotStarted {
				next.Status = TopicInProgress
				next.DiscussedAt = &now
			}
			iv.CurrentTopicID = t.ID
			break
		}
	}
	if err := s.persist(ctx, iv); err != nil {
		return nil, err
	}
	return &CompleteTopicResult{
		Success:           true,
		TopicID:           topicID,
		NewCurrentTopicID: iv.CurrentTopicID,
		TopicProgress:     iv.TopicProgress,
	}, nil
}

// Validation statuses a reviewer can assign to a captured topic.
var validationStatuses = map[string]bool{"draft": true, "reviewed": true, "approved": true}

// ValidateTopic records a reviewer's verdict on a checklist topic's captured
// knowledge.
func (s *Service) ValidateTopic(ctx context.Context, id, topicID, status string) (*TopicProgress, error) {
	if !validationStatuses[status] {
		return nil, apperr.Validation("invalid validation status %q, expected draft, reviewed or approved", status)
	}
	iv, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	tp, ok := iv.TopicProgress[topicID]
	if !ok {
		return nil, apperr.Validation("topic %q is not part of this interview", topicID)
	}
	now := time.Now().UTC()
	tp.ValidationStatus = status
	tp.Validated = status == "approved"
	tp.ValidatedAt = &now
	if err := s.persist(ctx, iv); err != nil {
		return nil, err
	}
	return tp, nil
}

// InitializeTopics resets the checklist progress to a clean slate.
func (s *Service) InitializeTopics(ctx context.Context, id string) (*Interview, error) {
	iv, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	role, ok := s.catalog.Role(iv.Role)
	if !ok || len(role.Topics) == 0 {
		return nil, apperr.Validation("interview %s has no role checklist", id)
	}
	iv.TopicProgress = make(map[string]*TopicProgress, len(role.Topics))
	for _, t := range role.Topics {
		iv.TopicProgress[t.ID] = &TopicProgress{Status: TopicNotStarted}
	}
	first := role.Topics[0].ID
	now := time.Now().UTC()
	iv.TopicProgress[first].Status = TopicInProgress
	iv.TopicProgress[first].DiscussedAt = &now
	iv.CurrentTopicID = first
	if err := s.persist(ctx, iv); err != nil {
		return nil, err
	}
	return iv, nil
}

// TopicReportEntry is one checklist topic joined with its progress.
type TopicReportEntry struct {
	roles.Topic
	TopicProgress
	IsCurrent bool `json:"isCurrent"`
}

// TopicProgressSummary aggregates checklist completion.
type TopicProgressSummary struct {
	Total          int  `json:"total"`
	Completed      int  `json:"completed"`
	InProgress     int  `json:"inProgress"`
	NotStarted     int  `json:"notStarted"`
	OverallPercent int  `json:"overallPercent"`
	MeetsThreshold bool `json:"meetsThreshold"`
}

// TopicProgressReport is the full checklist view for a role interview.
type TopicProgressReport struct {
	InterviewID    string               `json:"interviewId"`
	Role           string               `json:"role"`
	CurrentTopicID string               `json:"currentTopicId"`
	Topics         []TopicReportEntry   `json:"topics"`
	Summary        TopicProgressSummary `json:"summary"`
}

// Progress below this percentage means the checklist is not yet ready for
// handover.
const progressThreshold = 70

// TopicProgress builds the checklist report for a role interview.
func (s *Service) TopicProgress(ctx context.Context, id string) (*TopicProgressReport, error) {
	iv, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	role, ok := s.catalog.Role(iv.Role)
	if !ok || len(iv.TopicProgress) == 0 {
		return nil, apperr.Validation("interview %s has no topic progress to report", id)
	}

	report := &TopicProgressReport{
		InterviewID:    iv.ID,
		Role:           iv.Role,
		CurrentTopicID: iv.CurrentTopicID,
		Topics:         make([]TopicReportEntry, 0, len(role.Topics)),
	}
	totalPercent := 0
	for _, t := range role.Topics {
		tp := iv.TopicProgress[t.ID]
		if tp == nil {
			tp = &TopicProgress{Status: TopicNotStarted}
		}
		report.Topics = append(report.Topics, TopicReportEntry{
			Topic:         t,
			TopicProgress: *tp,
			IsCurrent:     t.ID == iv.CurrentTopicID,
		})
		report.Summary.Total++
		totalPercent += tp.CoveragePercent
		switch tp.Status {
		case TopicComplete:
			report.Summary.Completed++
		case TopicInProgress:
			report.Summary.InProgress++
		default:
			report.Summary.NotStarted++
		}
	}
	if report.Summary.Total > 0 {
		report.Summary.OverallPercent = roundDiv(totalPercent, report.Summary.Total)
	}
	report.Summary.MeetsThreshold = report.Summary.OverallPercent >= progressThreshold
	return report, nil
}

func roundDiv(num, den int) int {
	return int(float64(num)/float64(den) + 0.5)
}

func (s *Service) persist(ctx context.Context, iv *Interview) error {
	now := time.Now().UTC()
	iv.UpdatedAt = &now
	if err := s.store.Put(ctx, Key(iv.ID), iv); err != nil {
		return fmt.Errorf("store interview %s: %w", iv.ID, err)
	}
	return nil
}
