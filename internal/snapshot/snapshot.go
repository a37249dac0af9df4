// Package snapshot periodically distills an interview transcript into
// structured insights. Snapshots feed the interview summary, the knowledge
// point backlog and, eventually, persona synthesis.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/handoverhq/handover/internal/apperr"
	"github.com/handoverhq/handover/internal/interview"
	"github.com/handoverhq/handover/internal/knowledge"
	"github.com/handoverhq/handover/internal/llm"
	"github.com/handoverhq/handover/internal/prompts"
	"github.com/handoverhq/handover/internal/store"
)

// Snapshot is the structured extraction of one interview segment.
type Snapshot struct {
	ID                     string    `json:"id"`
	InterviewID            string    `json:"interviewId"`
	Phase                  string    `json:"phase"`
	MessageCount           int       `json:"messageCount"`
	Timestamp              time.Time `json:"timestamp"`
	TopicsCovered          []string  `json:"topicsCovered"`
	KeyInsights            []string  `json:"keyInsights"`
	FrameworksMentioned    []string  `json:"frameworksMentioned"`
	Gaps                   []string  `json:"gaps"`
	SuggestedProbes        []string  `json:"suggestedProbes"`
	KnowledgePointsCreated int       `json:"knowledgePointsCreated"`
}

func key(interviewID, snapshotID string) string {
	return "snapshots/" + interviewID + "/" + snapshotID
}

// Extractor runs the note-taking model over a transcript and files the
// results.
type Extractor struct {
	store  store.Store
	llm    llm.Client
	points *knowledge.Service
	logger *slog.Logger
}

func NewExtractor(st store.Store, client llm.Client, points *knowledge.Service, logger *slog.Logger) *Extractor {
	return &Extractor{store: st, llm: client, points: points, logger: logger}
}

// Create extracts a snapshot for the interview. An interview that does not
// exist or has no messages yields no snapshot and no error; snapshots are
// best-effort and a skipped one is only worth a log line.
func (e *Extractor) Create(ctx context.Context, interviewID string) (*Snapshot, error) {
	var iv interview.Interview
	if err := e.store.Get(ctx, interview.Key(interviewID), &iv); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			e.logger.Warn("snapshot skipped, interview missing", "interviewId", interviewID)
			return nil, nil
		}
		return nil, fmt.Errorf("load interview %s: %w", interviewID, err)
	}
	if len(iv.Messages) == 0 {
		e.logger.Warn("snapshot skipped, no messages", "interviewId", interviewID)
		return nil, nil
	}

	reply, err := e.llm.Complete(ctx, prompts.NoteTaker, []llm.Message{{Role: "user", Content: transcript(&iv)}})
	if err != nil {
		return nil, err
	}
	extracted, err := parseReply(reply)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		ID:                  uuid.NewString(),
		InterviewID:         interviewID,
		Phase:               iv.Phase,
		MessageCount:        len(iv.Messages),
		Timestamp:           time.Now().UTC(),
		TopicsCovered:       extracted.TopicsCovered,
		KeyInsights:         extracted.KeyInsights,
		FrameworksMentioned: extracted.FrameworksMentioned,
		Gaps:                extracted.Gaps,
		SuggestedProbes:     extracted.SuggestedProbes,
	}
	created, err := e.points.AddFromSnapshot(ctx, &iv, snap.KeyInsights, snap.FrameworksMentioned)
	if err != nil {
		return nil, err
	}
	snap.KnowledgePointsCreated = created

	if err := e.store.Put(ctx, key(interviewID, snap.ID), snap); err != nil {
		return nil, fmt.Errorf("store snapshot: %w", err)
	}
	e.logger.Info("snapshot created",
		"interviewId", interviewID,
		"snapshotId", snap.ID,
		"insights", len(snap.KeyInsights),
		"knowledgePointsCreated", created)
	return snap, nil
}

type extraction struct {
	TopicsCovered       []string
	KeyInsights         []string
	FrameworksMentioned []string
	Gaps                []string
	SuggestedProbes     []string
}

var requiredArrays = []string{"topicsCovered", "keyInsights", "frameworksMentioned", "gaps", "suggestedProbes"}

func parseReply(reply string) (*extraction, error) {
	payload, err := llm.ExtractJSON(reply)
	if err != nil {
		return nil, err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, apperr.Parse("snapshot reply is not valid JSON", err)
	}
	arrays := make(map[string][]string, len(requiredArrays))
	for _, field := range requiredArrays {
		val, ok := raw[field]
		if !ok {
			return nil, apperr.Parse(fmt.Sprintf("snapshot reply missing %q", field), nil)
		}
		var items []string
		if err := json.Unmarshal(val, &items); err != nil {
			return nil, apperr.Parse(fmt.Sprintf("snapshot field %q is not a string array", field), err)
		}
		if items == nil {
			items = []string{}
		}
		arrays[field] = items
	}
	return &extraction{
		TopicsCovered:       arrays["topicsCovered"],
		KeyInsights:         arrays["keyInsights"],
		FrameworksMentioned: arrays["frameworksMentioned"],
		Gaps:                arrays["gaps"],
		SuggestedProbes:     arrays["suggestedProbes"],
	}, nil
}

func transcript(iv *interview.Interview) string {
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

// Get returns one stored snapshot.
func (e *Extractor) Get(ctx context.Context, interviewID, snapshotID string) (*Snapshot, error) {
	var snap Snapshot
	if err := e.store.Get(ctx, key(interviewID, snapshotID), &snap); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("snapshot %s not found", snapshotID)
		}
		return nil, fmt.Errorf("load snapshot %s: %w", snapshotID, err)
	}
	return &snap, nil
}

// List returns an interview's snapshots, newest first.
func (e *Extractor) List(ctx context.Context, interviewID string) ([]*Snapshot, error) {
	ids, err := e.store.List(ctx, "snapshots/"+interviewID)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	out := make([]*Snapshot, 0, len(ids))
	for _, id := range ids {
		var snap Snapshot
		if err := e.store.Get(ctx, key(interviewID, id), &snap); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("load snapshot %s: %w", id, err)
		}
		out = append(out, &snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

// ListOldestFirst returns an interview's snapshots in chronological order,
// the order persona synthesis consumes them in.
func (e *Extractor) ListOldestFirst(ctx context.Context, interviewID string) ([]*Snapshot, error) {
	snaps, err := e.List(ctx, interviewID)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(snaps)-1; i < j; i, j = i+1, j-1 {
		snaps[i], snaps[j] = snaps[j], snaps[i]
	}
	return snaps, nil
}
