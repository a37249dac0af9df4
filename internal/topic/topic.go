// Package topic manages ad-hoc interview topics: the self-contained subjects
// an expert can be interviewed about outside the fixed role checklists. A
// topic tracks its own lifecycle and, once synthesized, points at its
// knowledge entry.
package topic

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/handoverhq/handover/internal/apperr"
	"github.com/handoverhq/handover/internal/store"
)

const (
	StatusPending    = "pending"
	StatusInProgress = "in-progress"
	StatusComplete   = "complete"
)

var validFrequencies = []string{"daily", "weekly", "monthly", "quarterly", "annual", "ad-hoc"}

var validStatuses = []string{StatusPending, StatusInProgress, StatusComplete}

type Topic struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	Frequency        string    `json:"frequency"`
	Category         string    `json:"category"`
	Order            int       `json:"order"`
	Status           string    `json:"status"`
	KnowledgeEntryID string    `json:"knowledgeEntryId,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

type Service struct {
	store store.Store
}

func NewService(st store.Store) *Service {
	return &Service{store: st}
}

func key(id string) string { return "topics/" + id }

type CreateInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Frequency   string `json:"frequency"`
	Category    string `json:"category"`
	Order       *int   `json:"order"`
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Topic, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperr.Validation("name is required and must be a non-empty string")
	}
	frequency := in.Frequency
	if frequency == "" {
		frequency = "ad-hoc"
	}
	if !contains(validFrequencies, frequency) {
		return nil, apperr.Validation("invalid frequency, must be one of: %s", strings.Join(validFrequencies, ", "))
	}

	order := 0
	if in.Order != nil {
		order = *in.Order
	} else {
		existing, err := s.store.List(ctx, "topics")
		if err != nil {
			return nil, fmt.Errorf("list topics: %w", err)
		}
		order = len(existing)
	}

	now := time.Now().UTC()
	t := &Topic{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Frequency:   frequency,
		Category:    in.Category,
		Order:       order,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Put(ctx, key(t.ID), t); err != nil {
		return nil, fmt.Errorf("store topic: %w", err)
	}
	return t, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Topic, error) {
	var t Topic
	if err := s.store.Get(ctx, key(id), &t); err != nil {
		if err == store.ErrNotFound {
			return nil, apperr.NotFound("topic not found: %s", id)
		}
		return nil, fmt.Errorf("load topic: %w", err)
	}
	return &t, nil
}

// List returns topics ordered by their explicit order, then creation time.
// status and frequency filter when non-empty.
func (s *Service) List(ctx context.Context, status, frequency string) ([]*Topic, error) {
	ids, err := s.store.List(ctx, "topics")
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}

	topics := make([]*Topic, 0, len(ids))
	for _, id := range ids {
		var t Topic
		if err := s.store.Get(ctx, key(id), &t); err != nil {
			continue
		}
		if status != "" && t.Status != status {
			continue
		}
		if frequency != "" && t.Frequency != frequency {
			continue
		}
		topics = append(topics, &t)
	}

	sort.Slice(topics, func(i, j int) bool {
		if topics[i].Order != topics[j].Order {
			return topics[i].Order < topics[j].Order
		}
		return topics[i].CreatedAt.Before(topics[j].CreatedAt)
	})
	return topics, nil
}

type UpdateInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Frequency   *string `json:"frequency"`
	Category    *string `json:"category"`
	Order       *int    `json:"order"`
	Status      *string `json:"status"`
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*Topic, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Frequency != nil && !contains(validFrequencies, *in.Frequency) {
		return nil, apperr.Validation("invalid frequency, must be one of: %s", strings.Join(validFrequencies, ", "))
	}
	if in.Status != nil && !contains(validStatuses, *in.Status) {
		return nil, apperr.Validation("invalid status, must be one of: %s", strings.Join(validStatuses, ", "))
	}

	if in.Name != nil {
		t.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.Frequency != nil {
		t.Frequency = *in.Frequency
	}
	if in.Category != nil {
		t.Category = *in.Category
	}
	if in.Order != nil {
		t.Order = *in.Order
	}
	if in.Status != nil {
		t.Status = *in.Status
	}
	t.UpdatedAt = time.Now().UTC()

	if err := s.store.Put(ctx, key(id), t); err != nil {
		return nil, fmt.Errorf("store topic: %w", err)
	}
	return t, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, key(id)); err != nil {
		return fmt.Errorf("delete topic: %w", err)
	}
	return nil
}

// Reorder rewrites the order of every listed topic to its index. Unknown ids
// are skipped.
func (s *Service) Reorder(ctx context.Context, ids []string) ([]*Topic, error) {
	if ids == nil {
		return nil, apperr.Validation("topicIds must be an array of topic IDs")
	}
	updated := make([]*Topic, 0, len(ids))
	for i, id := range ids {
		var t Topic
		if err := s.store.Get(ctx, key(id), &t); err != nil {
			continue
		}
		t.Order = i
		t.UpdatedAt = time.Now().UTC()
		if err := s.store.Put(ctx, key(id), &t); err != nil {
			return nil, fmt.Errorf("store topic: %w", err)
		}
		updated = append(updated, &t)
	}
	return updated, nil
}

// MarkComplete flips a topic to complete. Used when the expert signals they
// are done with the topic mid-interview; already-complete topics are left
// untouched.
func (s *Service) MarkComplete(ctx context.Context, id string) error {
	t, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if t.Status == StatusComplete {
		return nil
	}
	t.Status = StatusComplete
	t.UpdatedAt = time.Now().UTC()
	if err := s.store.Put(ctx, key(id), t); err != nil {
		return fmt.Errorf("store topic: %w", err)
	}
	return nil
}

// AttachEntry records the knowledge entry produced for this topic and marks
// the topic complete.
func (s *Service) AttachEntry(ctx context.Context, id, entryID string) error {
	t, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	t.KnowledgeEntryID = entryID
	t.Status = StatusComplete
	t.UpdatedAt = time.Now().UTC()
	if err := s.store.Put(ctx, key(id), t); err != nil {
		return fmt.Errorf("store topic: %w", err)
	}
	return nil
}

// DetachEntry clears the knowledge entry reference if it matches entryID.
func (s *Service) DetachEntry(ctx context.Context, id, entryID string) error {
	t, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if t.KnowledgeEntryID != entryID {
		return nil
	}
	t.KnowledgeEntryID = ""
	t.UpdatedAt = time.Now().UTC()
	if err := s.store.Put(ctx, key(id), t); err != nil {
		return fmt.Errorf("store topic: %w", err)
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
