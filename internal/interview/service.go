package interview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/handoverhq/handover/internal/apperr"
	"github.com/handoverhq/handover/internal/coverage"
	"github.com/handoverhq/handover/internal/jobs"
	"github.com/handoverhq/handover/internal/llm"
	"github.com/handoverhq/handover/internal/roles"
	"github.com/handoverhq/handover/internal/store"
	"github.com/handoverhq/handover/internal/topic"
)

type Service struct {
	store    store.Store
	llm      llm.Client
	catalog  *roles.Catalog
	analyzer coverage.Analyzer
	queue    jobs.Queue
	topics   *topic.Service
	interval int // user messages between automatic snapshots
	logger   *slog.Logger
}

func NewService(st store.Store, client llm.Client, catalog *roles.Catalog, analyzer coverage.Analyzer, queue jobs.Queue, topics *topic.Service, snapshotInterval int, logger *slog.Logger) *Service {
	if snapshotInterval < 1 {
		snapshotInterval = 5
	}
	return &Service{
		store:    st,
		llm:      client,
		catalog:  catalog,
		analyzer: analyzer,
		queue:    queue,
		topics:   topics,
		interval: snapshotInterval,
		logger:   logger,
	}
}

// StartInput carries the optional fields accepted when creating an interview.
type StartInput struct {
	Role        string
	ExpertName  string
	Industry    string
	Description string
	ExpertID    string
	TopicID     string
	Questions   []Question
}

// Start creates a new interview. Either a valid role or an existing ad-hoc
// topic id must be supplied; a role interview gets its checklist topic
// progress initialized with the first topic in progress.
func (s *Service) Start(ctx context.Context, in StartInput) (*Interview, error) {
	if in.TopicID != "" {
		if _, err := s.topics.Get(ctx, in.TopicID); err != nil {
			var ae *apperr.Error
			if errors.As(err, &ae) && ae.Kind == apperr.KindNotFound {
				return nil, apperr.Validation("topic %q does not exist", in.TopicID)
			}
			return nil, err
		}
	} else if !s.catalog.ValidRole(in.Role) {
		return nil, apperr.Validation("invalid role %q, expected one of: %s", in.Role, strings.Join(s.catalog.RoleNames(), ", "))
	}

	iv := &Interview{
		ID:                 uuid.NewString(),
		Role:               in.Role,
		Phase:              PhaseWarmUp,
		Messages:           []Message{},
		Questions:          normalizeQuestions(in.Questions),
		QuestionsCompleted: []string{},
		ExpertName:         in.ExpertName,
		Industry:           in.Industry,
		Description:        in.Description,
		ExpertID:           in.ExpertID,
		TopicID:            in.TopicID,
		CreatedAt:          time.Now().UTC(),
	}

	if role, ok := s.catalog.Role(in.Role); ok && len(role.Topics) > 0 {
		iv.TopicProgress = make(map[string]*TopicProgress, len(role.Topics))
		for _, t := range role.Topics {
			iv.TopicProgress[t.ID] = &TopicProgress{Status: TopicNotStarted}
		}
		first := role.Topics[0].ID
		now := time.Now().UTC()
		iv.TopicProgress[first].Status = TopicInProgress
		iv.TopicProgress[first].DiscussedAt = &now
		iv.CurrentTopicID = first
	}

	if err := s.store.Put(ctx, Key(iv.ID), iv); err != nil {
		return nil, fmt.Errorf("store interview: %w", err)
	}
	s.logger.Info("interview started", "interviewId", iv.ID, "role", iv.Role, "topicId", iv.TopicID)
	return iv, nil
}

func normalizeQuestions(qs []Question) []Question {
	out := make([]Question, 0, len(qs))
	for i, q := range qs {
		if strings.TrimSpace(q.Text) == "" {
			continue
		}
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		q.Order = i
		out = append(out, q)
	}
	return out
}

func (s *Service) Get(ctx context.Context, id string) (*Interview, error) {
	var iv Interview
	if err := s.store.Get(ctx, Key(id), &iv); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("interview %s not found", id)
		}
		return nil, fmt.Errorf("load interview %s: %w", id, err)
	}
	return &iv, nil
}

// ListFilter narrows and orders List results.
type ListFilter struct {
	Status   string
	ExpertID string
	TopicID  string
	Role     string
	SortBy   string // createdAt, updatedAt, status, role, expertName, messageCount
	Order    string // asc or desc
}

// List returns interviews matching the filter. The default order is newest
// first by creation time.
func (s *Service) List(ctx context.Context, f ListFilter) ([]*Interview, error) {
	ids, err := s.store.List(ctx, "interviews")
	if err != nil {
		return nil, fmt.Errorf("list interviews: %w", err)
	}
	out := make([]*Interview, 0, len(ids))
	for _, id := range ids {
		var iv Interview
		if err := s.store.Get(ctx, Key(id), &iv); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("load interview %s: %w", id, err)
		}
		if f.Status != "" && iv.Status() != f.Status {
			continue
		}
		if f.ExpertID != "" && iv.ExpertID != f.ExpertID {
			continue
		}
		if f.TopicID != "" && iv.TopicID != f.TopicID {
			continue
		}
		if f.Role != "" && iv.Role != f.Role {
			continue
		}
		out = append(out, &iv)
	}
	sortInterviews(out, f.SortBy, f.Order)
	return out, nil
}

func sortInterviews(ivs []*Interview, sortBy, order string) {
	if sortBy == "" {
		sortBy = "createdAt"
	}
	asc := order == "asc"
	if order == "" {
		asc = false
	}
	sort.SliceStable(ivs, func(i, j int) bool {
		a, b := ivs[i], ivs[j]
		var less bool
		switch sortBy {
		case "updatedAt":
			at, bt := a.CreatedAt, b.CreatedAt
			if a.UpdatedAt != nil {
				at = *a.UpdatedAt
			}
			if b.UpdatedAt != nil {
				bt = *b.UpdatedAt
			}
			less = at.Before(bt)
		case "status":
			less = a.Status() < b.Status()
		case "role":
			less = a.Role < b.Role
		case "expertName":
			less = a.ExpertName < b.ExpertName
		case "messageCount":
			less = len(a.Messages) < len(b.Messages)
		default:
			less = a.CreatedAt.Before(b.CreatedAt)
		}
		if asc {
			return less
		}
		return !less
	})
}

// UpdateInput carries the mutable interview fields; nil means leave as is.
type UpdateInput struct {
	ExpertName         *string
	Industry           *string
	Phase              *string
	ExpertID           *string
	TopicID            *string
	Questions          []Question
	QuestionsCompleted []string
}

// Update merges the given fields into the interview. Phase changes only move
// forward; a regression is rejected.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*Interview, error) {
	iv, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Phase != nil {
		if !ValidPhase(*in.Phase) {
			return nil, apperr.Validation("invalid phase %q", *in.Phase)
		}
		if phaseRank[*in.Phase] < phaseRank[iv.Phase] {
			return nil, apperr.Conflict("phase cannot move backwards from %q to %q", iv.Phase, *in.Phase)
		}
		iv.Phase = *in.Phase
		if iv.Phase == PhaseComplete && iv.CompletedAt == nil {
			now := time.Now().UTC()
			iv.CompletedAt = &now
		}
	}
	if in.ExpertName != nil {
		iv.ExpertName = *in.ExpertName
	}
	if in.Industry != nil {
		iv.Industry = *in.Industry
	}
	if in.ExpertID != nil {
		iv.ExpertID = *in.ExpertID
	}
	if in.TopicID != nil {
		iv.TopicID = *in.TopicID
	}
	if in.Questions != nil {
		iv.Questions = normalizeQuestions(in.Questions)
	}
	if in.QuestionsCompleted != nil {
		iv.QuestionsCompleted = in.QuestionsCompleted
	}
	now := time.Now().UTC()
	iv.UpdatedAt = &now
	if err := s.store.Put(ctx, Key(id), iv); err != nil {
		return nil, fmt.Errorf("store interview %s: %w", id, err)
	}
	return iv, nil
}

// Complete marks the interview finished and queues a final snapshot.
// Completing an already complete interview is a no-op.
func (s *Service) Complete(ctx context.Context, id string) (*Interview, error) {
	iv, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if iv.Phase != PhaseComplete {
		iv.Phase = PhaseComplete
		now := time.Now().UTC()
		iv.CompletedAt = &now
		iv.UpdatedAt = &now
		if err := s.store.Put(ctx, Key(id), iv); err != nil {
			return nil, fmt.Errorf("store interview %s: %w", id, err)
		}
		s.submitSnapshot(ctx, id)
	}
	return iv, nil
}

// Delete removes the interview and everything derived from it.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, Key(id)); err != nil {
		return fmt.Errorf("delete interview %s: %w", id, err)
	}
	for _, prefix := range []string{"snapshots/" + id, "knowledge-points/" + id, "workflows/" + id} {
		if err := s.store.DeleteAll(ctx, prefix); err != nil {
			return fmt.Errorf("cascade delete %s: %w", prefix, err)
		}
	}
	s.logger.Info("interview deleted", "interviewId", id)
	return nil
}

func (s *Service) submitSnapshot(ctx context.Context, id string) {
	if s.queue == nil {
		return
	}
	if err := s.queue.Submit(ctx, jobs.Job{Kind: jobs.KindSnapshot, InterviewID: id}); err != nil {
		s.logger.Warn("snapshot job not queued", "interviewId", id, "error", err)
	}
}
