package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/handoverhq/handover/internal/apperr"
	"github.com/handoverhq/handover/internal/interview"
	"github.com/handoverhq/handover/internal/llm"
	"github.com/handoverhq/handover/internal/prompts"
	"github.com/handoverhq/handover/internal/store"
	"github.com/handoverhq/handover/internal/topic"
)

// Entry statuses through the review pipeline.
const (
	EntryDraft     = "draft"
	EntryReviewed  = "reviewed"
	EntryPublished = "published"
)

// Sections is the eight-part procedures manual structure an entry follows.
type Sections struct {
	Overview        string   `json:"overview"`
	Frequency       string   `json:"frequency"`
	KeyTasks        []string `json:"keyTasks"`
	KeyDates        []string `json:"keyDates"`
	Contacts        []string `json:"contacts"`
	SystemsAndTools []string `json:"systemsAndTools"`
	WatchOutFor     []string `json:"watchOutFor"`
	ProTips         []string `json:"proTips"`
}

// CrossReference links an entry to a related topic. TopicID is empty when the
// referenced name matched no known topic.
type CrossReference struct {
	TopicName string `json:"topicName"`
	Reason    string `json:"reason"`
	TopicID   string `json:"topicId,omitempty"`
}

// Entry is a synthesized procedures manual entry for one topic.
type Entry struct {
	ID              string           `json:"id"`
	TopicID         string           `json:"topicId"`
	TopicName       string           `json:"topicName"`
	InterviewID     string           `json:"interviewId"`
	Sections        Sections         `json:"sections"`
	CrossReferences []CrossReference `json:"crossReferences"`
	QualityNotes    string           `json:"qualityNotes"`
	Status          string           `json:"status"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

func entryKey(id string) string { return "knowledge-entries/" + id }

type entryEnvelope struct {
	Sections        Sections         `json:"sections"`
	CrossReferences []CrossReference `json:"crossReferences"`
	QualityNotes    string           `json:"qualityNotes"`
}

// Synthesize turns the interview held for a topic into a structured knowledge
// entry, resolving cross references against the rest of the topic list, and
// marks the topic complete.
func (s *Service) Synthesize(ctx context.Context, topicID string) (*Entry, error) {
	top, err := s.topics.Get(ctx, topicID)
	if err != nil {
		return nil, err
	}
	iv, err := s.interviewForTopic(ctx, topicID)
	if err != nil {
		return nil, err
	}
	if len(iv.Messages) == 0 {
		return nil, apperr.Validation("interview for topic %q has no messages to synthesize", top.Name)
	}

	all, err := s.topics.List(ctx, "", "")
	if err != nil {
		return nil, err
	}
	var otherNames []string
	for _, t := range all {
		if t.ID != topicID {
			otherNames = append(otherNames, t.Name)
		}
	}

	system := prompts.KnowledgeBuilder(prompts.TopicInfo{
		Name:        top.Name,
		Description: top.Description,
		Frequency:   top.Frequency,
	}, otherNames)
	transcript := interviewTranscript(iv)
	reply, err := s.llm.Complete(ctx, system, []llm.Message{{Role: "user", Content: transcript}})
	if err != nil {
		return nil, err
	}
	payload, err := llm.ExtractJSON(reply)
	if err != nil {
		return nil, err
	}
	var env entryEnvelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return nil, apperr.Parse("knowledge entry reply is not valid JSON", err)
	}

	for i := range env.CrossReferences {
		env.CrossReferences[i].TopicID = resolveTopicID(env.CrossReferences[i].TopicName, all)
	}

	entry := &Entry{
		ID:              uuid.NewString(),
		TopicID:         topicID,
		TopicName:       top.Name,
		InterviewID:     iv.ID,
		Sections:        env.Sections,
		CrossReferences: env.CrossReferences,
		QualityNotes:    env.QualityNotes,
		Status:          EntryDraft,
		CreatedAt:       time.Now().UTC(),
		UpdatedAt:       time.Now().UTC(),
	}
	if err := s.store.Put(ctx, entryKey(entry.ID), entry); err != nil {
		return nil, fmt.Errorf("store knowledge entry: %w", err)
	}
	if err := s.topics.AttachEntry(ctx, topicID, entry.ID); err != nil {
		return nil, err
	}
	s.logger.Info("knowledge entry synthesized", "topicId", topicID, "entryId", entry.ID)
	return entry, nil
}

// interviewForTopic finds the interview conducted for an ad-hoc topic.
func (s *Service) interviewForTopic(ctx context.Context, topicID string) (*interview.Interview, error) {
	ids, err := s.store.List(ctx, "interviews")
	if err != nil {
		return nil, fmt.Errorf("list interviews: %w", err)
	}
	for _, id := range ids {
		var iv interview.Interview
		if err := s.store.Get(ctx, interview.Key(id), &iv); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("load interview %s: %w", id, err)
		}
		if iv.TopicID == topicID {
			return &iv, nil
		}
	}
	return nil, apperr.Validation("no interview found for topic %s", topicID)
}

func interviewTranscript(iv *interview.Interview) string {
	lines := make([]string, 0, len(iv.Messages))
	for _, m := range iv.Messages {
		speaker := "Interviewer"
		if m.Role == "user" {
			speaker = "Expert"
		}
		lines = append(lines, speaker+": "+m.Content)
	}
	return strings.Join(lines, "\n\n")
}

// resolveTopicID maps a referenced topic name to a topic id, tolerating
// partial name matches in either direction.
func resolveTopicID(name string, all []*topic.Topic) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" {
		return ""
	}
	for _, t := range all {
		tn := strings.ToLower(t.Name)
		if tn == lower || strings.Contains(tn, lower) || strings.Contains(lower, tn) {
			return t.ID
		}
	}
	return ""
}

// GetEntry returns one knowledge entry.
func (s *Service) GetEntry(ctx context.Context, id string) (*Entry, error) {
	var e Entry
	if err := s.store.Get(ctx, entryKey(id), &e); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("knowledge entry %s not found", id)
		}
		return nil, fmt.Errorf("load knowledge entry %s: %w", id, err)
	}
	return &e, nil
}

// ListEntries returns knowledge entries, newest first, optionally narrowed by
// status or topic.
func (s *Service) ListEntries(ctx context.Context, status, topicID string) ([]*Entry, error) {
	if status != "" && status != EntryDraft && status != EntryReviewed && status != EntryPublished {
		return nil, apperr.Validation("invalid status %q, expected draft, reviewed or published", status)
	}
	ids, err := s.store.List(ctx, "knowledge-entries")
	if err != nil {
		return nil, fmt.Errorf("list knowledge entries: %w", err)
	}
	out := make([]*Entry, 0, len(ids))
	for _, id := range ids {
		var e Entry
		if err := s.store.Get(ctx, entryKey(id), &e); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("load knowledge entry %s: %w", id, err)
		}
		if status != "" && e.Status != status {
			continue
		}
		if topicID != "" && e.TopicID != topicID {
			continue
		}
		out = append(out, &e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// UpdateEntryInput carries partial edits to an entry. Section fields are
// merged individually so a reviewer can correct one section at a time.
type UpdateEntryInput struct {
	Sections *SectionsPatch
	Status   *string
}

// SectionsPatch holds per-section replacements; nil leaves a section as is.
type SectionsPatch struct {
	Overview        *string
	Frequency       *string
	KeyTasks        []string
	KeyDates        []string
	Contacts        []string
	SystemsAndTools []string
	WatchOutFor     []string
	ProTips         []string
}

func (s *Service) UpdateEntry(ctx context.Context, id string, in UpdateEntryInput) (*Entry, error) {
	e, err := s.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Status != nil {
		switch *in.Status {
		case EntryDraft, EntryReviewed, EntryPublished:
			e.Status = *in.Status
		default:
			return nil, apperr.Validation("invalid status %q, expected draft, reviewed or published", *in.Status)
		}
	}
	if p := in.Sections; p != nil {
		if p.Overview != nil {
			e.Sections.Overview = *p.Overview
		}
		if p.Frequency != nil {
			e.Sections.Frequency = *p.Frequency
		}
		if p.KeyTasks != nil {
			e.Sections.KeyTasks = p.KeyTasks
		}
		if p.KeyDates != nil {
			e.Sections.KeyDates = p.KeyDates
		}
		if p.Contacts != nil {
			e.Sections.Contacts = p.Contacts
		}
		if p.SystemsAndTools != nil {
			e.Sections.SystemsAndTools = p.SystemsAndTools
		}
		if p.WatchOutFor != nil {
			e.Sections.WatchOutFor = p.WatchOutFor
		}
		if p.ProTips != nil {
			e.Sections.ProTips = p.ProTips
		}
	}
	e.UpdatedAt = time.Now().UTC()
	if err := s.store.Put(ctx, entryKey(id), e); err != nil {
		return nil, fmt.Errorf("store knowledge entry %s: %w", id, err)
	}
	return e, nil
}

// DeleteEntry removes an entry and detaches it from its topic.
func (s *Service) DeleteEntry(ctx context.Context, id string) error {
	e, err := s.GetEntry(ctx, id)
	if err != nil {
		return err
	}
	if err := s.topics.DetachEntry(ctx, e.TopicID, e.ID); err != nil {
		s.logger.Warn("entry not detached from topic", "topicId", e.TopicID, "entryId", e.ID, "error", err)
	}
	if err := s.store.Delete(ctx, entryKey(id)); err != nil {
		return fmt.Errorf("delete knowledge entry %s: %w", id, err)
	}
	return nil
}
