package persona

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/handoverhq/handover/internal/apperr"
	"github.com/handoverhq/handover/internal/llm"
	"github.com/handoverhq/handover/internal/store"
)

// AdvisorLog is the audit record of one question put to a persona.
type AdvisorLog struct {
	LogID          string    `json:"logId"`
	PersonaID      string    `json:"personaId"`
	PersonaVersion int       `json:"personaVersion"`
	UserID         string    `json:"userId"`
	Question       string    `json:"question"`
	Response       string    `json:"response"`
	CreatedAt      time.Time `json:"createdAt"`
}

func logKey(id string) string { return "advisor-logs/" + id }

// AdviceResult is the persona's answer to one question.
type AdviceResult struct {
	Response  string `json:"response"`
	PersonaID string `json:"personaId"`
	Role      string `json:"role"`
}

// Advise puts a question to the persona, answering in the expert's voice.
// Every exchange is audit-logged; a failed audit write never fails the
// answer.
func (s *Service) Advise(ctx context.Context, personaID, userID, question string) (*AdviceResult, error) {
	if strings.TrimSpace(question) == "" {
		return nil, apperr.Validation("question is required")
	}
	p, err := s.Get(ctx, personaID)
	if err != nil {
		return nil, err
	}
	response, err := s.llm.Complete(ctx, p.PromptText, []llm.Message{{Role: "user", Content: question}})
	if err != nil {
		return nil, err
	}

	entry := &AdvisorLog{
		LogID:          uuid.NewString(),
		PersonaID:      p.ID,
		PersonaVersion: p.Version,
		UserID:         userID,
		Question:       question,
		Response:       response,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.store.Put(ctx, logKey(entry.LogID), entry); err != nil {
		s.logger.Warn("advisor exchange not logged", "personaId", p.ID, "error", err)
	}

	return &AdviceResult{Response: response, PersonaID: p.ID, Role: p.Role}, nil
}

// LogFilter narrows ListAdvisorLogs results.
type LogFilter struct {
	PersonaID string
	UserID    string
	FromDate  *time.Time
	ToDate    *time.Time
}

// ListAdvisorLogs returns advisor audit records matching the filter, newest
// first.
func (s *Service) ListAdvisorLogs(ctx context.Context, f LogFilter) ([]*AdvisorLog, error) {
	ids, err := s.store.List(ctx, "advisor-logs")
	if err != nil {
		return nil, fmt.Errorf("list advisor logs: %w", err)
	}
	out := make([]*AdvisorLog, 0, len(ids))
	for _, id := range ids {
		var entry AdvisorLog
		if err := s.store.Get(ctx, logKey(id), &entry); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("load advisor log %s: %w", id, err)
		}
		if f.PersonaID != "" && entry.PersonaID != f.PersonaID {
			continue
		}
		if f.UserID != "" && entry.UserID != f.UserID {
			continue
		}
		if f.FromDate != nil && entry.CreatedAt.Before(*f.FromDate) {
			continue
		}
		if f.ToDate != nil && entry.CreatedAt.After(*f.ToDate) {
			continue
		}
		out = append(out, &entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// GetAdvisorLog returns one audit record.
func (s *Service) GetAdvisorLog(ctx context.Context, id string) (*AdvisorLog, error) {
	var entry AdvisorLog
	if err := s.store.Get(ctx, logKey(id), &entry); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("advisor log %s not found", id)
		}
		return nil, fmt.Errorf("load advisor log %s: %w", id, err)
	}
	return &entry, nil
}
