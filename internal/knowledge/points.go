// Package knowledge turns raw interview material into reviewable artifacts:
// individual knowledge points, synthesized procedures-manual entries, and
// mermaid workflow diagrams.
package knowledge

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
	"github.com/handoverhq/handover/internal/interview"
	"github.com/handoverhq/handover/internal/llm"
	"github.com/handoverhq/handover/internal/roles"
	"github.com/handoverhq/handover/internal/store"
	"github.com/handoverhq/handover/internal/topic"
)

// Point review statuses.
const (
	PointDraft    = "draft"
	PointReviewed = "reviewed"
	PointApproved = "approved"
)

// Point is one atomic piece of captured knowledge, filed under a checklist
// topic and a knowledge area.
type Point struct {
	ID          string    `json:"id"`
	InterviewID string    `json:"interviewId"`
	TopicID     string    `json:"topicId"`
	Area        string    `json:"area"`
	Content     string    `json:"content"`
	Source      string    `json:"source"` // snapshot or manual
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Service struct {
	store   store.Store
	llm     llm.Client
	catalog *roles.Catalog
	topics  *topic.Service
	logger  *slog.Logger
}

func NewService(st store.Store, client llm.Client, catalog *roles.Catalog, topics *topic.Service, logger *slog.Logger) *Service {
	return &Service{store: st, llm: client, catalog: catalog, topics: topics, logger: logger}
}

func pointKey(interviewID, pointID string) string {
	return "knowledge-points/" + interviewID + "/" + pointID
}

// Keyword groups checked in priority order when filing a point under a
// knowledge area. The first group with a hit wins.
var areaKeywords = []struct {
	area     string
	keywords []string
}{
	{"pitfalls", []string{"pitfall", "mistake", "avoid", "careful", "risk"}},
	{"tips", []string{"tip", "recommend", "best practice", "always", "never"}},
	{"contacts", []string{"contact", "stakeholder", "team", "department"}},
	{"systems", []string{"system", "software", "tool", "template"}},
	{"dates", []string{"deadline", "date", "when", "schedule", "timeline"}},
	{"tasks", []string{"step", "process", "task", "action"}},
	{"overview", []string{"overview", "purpose", "why", "important"}},
}

// Categorize picks the knowledge area for a piece of content.
func Categorize(content string) string {
	lower := strings.ToLower(content)
	for _, group := range areaKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(lower, kw) {
				return group.area
			}
		}
	}
	return "tips"
}

// similarity estimates how alike two normalized strings are. Containment of
// one string in the other scores by relative length; wildly different lengths
// score zero.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(longer) == 0 {
		return 1
	}
	if float64(len(longer)-len(shorter))/float64(len(longer)) > 0.5 {
		return 0
	}
	if strings.Contains(longer, shorter) {
		return float64(len(shorter)) / float64(len(longer))
	}
	return 0
}

// isDuplicate reports whether content effectively repeats an existing point.
func isDuplicate(content string, existing []string) bool {
	norm := strings.ToLower(strings.TrimSpace(content))
	for _, e := range existing {
		if strings.Contains(e, norm) || strings.Contains(norm, e) || similarity(norm, e) > 0.8 {
			return true
		}
	}
	return false
}

// AddFromSnapshot files snapshot insights and frameworks as draft knowledge
// points, skipping trivial fragments and near-duplicates of points already
// captured for the interview. Returns the number of points created.
func (s *Service) AddFromSnapshot(ctx context.Context, iv *interview.Interview, insights, frameworks []string) (int, error) {
	existing, err := s.ListPoints(ctx, iv.ID)
	if err != nil {
		return 0, err
	}
	norms := make([]string, len(existing))
	for i, p := range existing {
		norms[i] = strings.ToLower(strings.TrimSpace(p.Content))
	}

	topicID := iv.CurrentTopicID
	if topicID == "" {
		topicID = "general"
	}

	created := 0
	add := func(content, area string) error {
		if isDuplicate(content, norms) {
			return nil
		}
		p := &Point{
			ID:          "kp_" + uuid.NewString(),
			InterviewID: iv.ID,
			TopicID:     topicID,
			Area:        area,
			Content:     strings.TrimSpace(content),
			Source:      "snapshot",
			Status:      PointDraft,
			CreatedAt:   time.Now().UTC(),
			UpdatedAt:   time.Now().UTC(),
		}
		if err := s.store.Put(ctx, pointKey(iv.ID, p.ID), p); err != nil {
			return fmt.Errorf("store knowledge point: %w", err)
		}
		norms = append(norms, strings.ToLower(p.Content))
		created++
		return nil
	}

	for _, insight := range insights {
		if len(strings.TrimSpace(insight)) < 10 {
			continue
		}
		if err := add(insight, Categorize(insight)); err != nil {
			return created, err
		}
	}
	for _, fw := range frameworks {
		if len(strings.TrimSpace(fw)) < 5 {
			continue
		}
		if err := add("Framework: "+fw, "tasks"); err != nil {
			return created, err
		}
	}
	return created, nil
}

// CreatePointInput is a manually entered knowledge point.
type CreatePointInput struct {
	TopicID string
	Area    string
	Content string
}

// Manually fileable areas.
var pointAreas = map[string]bool{
	"overview": true, "tasks": true, "dates": true, "contacts": true,
	"systems": true, "pitfalls": true, "tips": true, "frequency": true,
}

// CreatePoint records a manually entered knowledge point against an interview.
func (s *Service) CreatePoint(ctx context.Context, interviewID string, in CreatePointInput) (*Point, error) {
	if strings.TrimSpace(in.Content) == "" {
		return nil, apperr.Validation("content is required")
	}
	area := in.Area
	if area == "" {
		area = "tips"
	} else if !pointAreas[area] {
		return nil, apperr.Validation("invalid area %q", in.Area)
	}
	topicID := in.TopicID
	if topicID == "" {
		topicID = "general"
	}
	var iv interview.Interview
	if err := s.store.Get(ctx, interview.Key(interviewID), &iv); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("interview %s not found", interviewID)
		}
		return nil, fmt.Errorf("load interview %s: %w", interviewID, err)
	}
	p := &Point{
		ID:          "kp_" + uuid.NewString(),
		InterviewID: interviewID,
		TopicID:     topicID,
		Area:        area,
		Content:     strings.TrimSpace(in.Content),
		Source:      "manual",
		Status:      PointDraft,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := s.store.Put(ctx, pointKey(interviewID, p.ID), p); err != nil {
		return nil, fmt.Errorf("store knowledge point: %w", err)
	}
	return p, nil
}

// ListPoints returns every knowledge point captured for an interview, oldest
// first.
func (s *Service) ListPoints(ctx context.Context, interviewID string) ([]*Point, error) {
	ids, err := s.store.List(ctx, "knowledge-points/"+interviewID)
	if err != nil {
		return nil, fmt.Errorf("list knowledge points: %w", err)
	}
	points := make([]*Point, 0, len(ids))
	for _, id := range ids {
		var p Point
		if err := s.store.Get(ctx, pointKey(interviewID, id), &p); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("load knowledge point %s: %w", id, err)
		}
		points = append(points, &p)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].CreatedAt.Before(points[j].CreatedAt) })
	return points, nil
}

// UpdatePointInput carries the mutable point fields; nil means leave as is.
type UpdatePointInput struct {
	Content *string
	Area    *string
	Status  *string
	TopicID *string
}

var pointStatuses = map[string]bool{PointDraft: true, PointReviewed: true, PointApproved: true}

func (s *Service) UpdatePoint(ctx context.Context, interviewID, pointID string, in UpdatePointInput) (*Point, error) {
	var p Point
	if err := s.store.Get(ctx, pointKey(interviewID, pointID), &p); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("knowledge point %s not found", pointID)
		}
		return nil, fmt.Errorf("load knowledge point %s: %w", pointID, err)
	}
	if in.Content != nil {
		if strings.TrimSpace(*in.Content) == "" {
			return nil, apperr.Validation("content cannot be empty")
		}
		p.Content = strings.TrimSpace(*in.Content)
	}
	if in.Area != nil {
		if !pointAreas[*in.Area] {
			return nil, apperr.Validation("invalid area %q", *in.Area)
		}
		p.Area = *in.Area
	}
	if in.Status != nil {
		if !pointStatuses[*in.Status] {
			return nil, apperr.Validation("invalid status %q, expected draft, reviewed or approved", *in.Status)
		}
		p.Status = *in.Status
	}
	if in.TopicID != nil {
		p.TopicID = *in.TopicID
	}
	p.UpdatedAt = time.Now().UTC()
	if err := s.store.Put(ctx, pointKey(interviewID, pointID), &p); err != nil {
		return nil, fmt.Errorf("store knowledge point %s: %w", pointID, err)
	}
	return &p, nil
}

func (s *Service) DeletePoint(ctx context.Context, interviewID, pointID string) error {
	var p Point
	if err := s.store.Get(ctx, pointKey(interviewID, pointID), &p); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("knowledge point %s not found", pointID)
		}
		return fmt.Errorf("load knowledge point %s: %w", pointID, err)
	}
	if err := s.store.Delete(ctx, pointKey(interviewID, pointID)); err != nil {
		return fmt.Errorf("delete knowledge point %s: %w", pointID, err)
	}
	return nil
}

// PointTopicGroup is one checklist topic's points, bucketed by knowledge area.
type PointTopicGroup struct {
	TopicID    string              `json:"topicId"`
	TopicName  string              `json:"topicName"`
	Areas      map[string][]*Point `json:"areas"`
	PointCount int                 `json:"pointCount"`
}

// PointReportSummary counts points by review status.
type PointReportSummary struct {
	TotalPoints    int `json:"totalPoints"`
	ApprovedPoints int `json:"approvedPoints"`
	ReviewedPoints int `json:"reviewedPoints"`
	DraftPoints    int `json:"draftPoints"`
}

// PointReport is the interview's captured knowledge grouped by checklist
// topic and area.
type PointReport struct {
	InterviewID string             `json:"interviewId"`
	Topics      []*PointTopicGroup `json:"topics"`
	Summary     PointReportSummary `json:"summary"`
}

// PointsByTopic groups an interview's points under the role's checklist
// topics, with a trailing bucket for points not tied to any topic. Each
// group's area map is pre-seeded with the areas the topic requires.
func (s *Service) PointsByTopic(ctx context.Context, interviewID string) (*PointReport, error) {
	var iv interview.Interview
	if err := s.store.Get(ctx, interview.Key(interviewID), &iv); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("interview %s not found", interviewID)
		}
		return nil, fmt.Errorf("load interview %s: %w", interviewID, err)
	}
	points, err := s.ListPoints(ctx, interviewID)
	if err != nil {
		return nil, err
	}

	report := &PointReport{InterviewID: interviewID}
	groups := map[string]*PointTopicGroup{}
	addGroup := func(topicID, name string, areas []string) *PointTopicGroup {
		g := &PointTopicGroup{TopicID: topicID, TopicName: name, Areas: map[string][]*Point{}}
		if len(areas) == 0 {
			areas = s.catalog.AreaKeys()
		}
		for _, a := range areas {
			g.Areas[a] = []*Point{}
		}
		groups[topicID] = g
		report.Topics = append(report.Topics, g)
		return g
	}
	if role, ok := s.catalog.Role(iv.Role); ok {
		for _, t := range role.Topics {
			addGroup(t.ID, t.Name, t.RequiredAreas)
		}
	}
	general := addGroup("general", "General Knowledge", nil)

	for _, p := range points {
		g, ok := groups[p.TopicID]
		if !ok {
			g = general
		}
		g.Areas[p.Area] = append(g.Areas[p.Area], p)
		g.PointCount++
		report.Summary.TotalPoints++
		switch p.Status {
		case PointApproved:
			report.Summary.ApprovedPoints++
		case PointReviewed:
			report.Summary.ReviewedPoints++
		default:
			report.Summary.DraftPoints++
		}
	}
	return report, nil
}
