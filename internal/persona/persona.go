// Package persona synthesizes interview snapshots into queryable expert
// personas and manages their validation lifecycle. Only one Validated persona
// exists per role at a time; validating a new version deprecates the rest.
package persona

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
	"github.com/handoverhq/handover/internal/llm"
	"github.com/handoverhq/handover/internal/prompts"
	"github.com/handoverhq/handover/internal/snapshot"
	"github.com/handoverhq/handover/internal/store"
)

// Persona lifecycle statuses.
const (
	StatusDraft      = "Draft"
	StatusValidated  = "Validated"
	StatusDeprecated = "Deprecated"
)

// Expertise is one domain the persona claims, rated 1 to 5.
type Expertise struct {
	Domain string `json:"domain"`
	Level  int    `json:"level"`
}

// UnmarshalJSON accepts either a bare domain string or the full object. A
// bare string gets the middle rating.
func (e *Expertise) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		e.Domain = s
		e.Level = 3
		return nil
	}
	type plain Expertise
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*e = Expertise(p)
	return nil
}

// Feedback is one validation note attached to a persona.
type Feedback struct {
	Feedback    string    `json:"feedback"`
	SubmittedBy string    `json:"submittedBy"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Persona is a synthesized, versioned expert stand-in for one role.
type Persona struct {
	ID                string      `json:"id"`
	Role              string      `json:"role"`
	Version           int         `json:"version"`
	InterviewID       string      `json:"interviewId"`
	PromptText        string      `json:"promptText"`
	Status            string      `json:"status"`
	Name              string      `json:"name,omitempty"`
	Organization      string      `json:"organization,omitempty"`
	YearsOfExperience int         `json:"yearsOfExperience,omitempty"`
	Bio               string      `json:"bio,omitempty"`
	PhotoURL          string      `json:"photoUrl,omitempty"`
	Traits            []string    `json:"traits,omitempty"`
	Expertise         []Expertise `json:"expertise,omitempty"`
	Industry          string      `json:"industry,omitempty"`
	IsFavorite        bool        `json:"isFavorite"`
	FeedbackHistory   []Feedback  `json:"feedbackHistory,omitempty"`
	ValidatedBy       string      `json:"validatedBy,omitempty"`
	ValidatedAt       *time.Time  `json:"validatedAt,omitempty"`
	CreatedAt         time.Time   `json:"createdAt"`
	UpdatedAt         *time.Time  `json:"updatedAt,omitempty"`
}

func key(id string) string { return "personas/" + id }

type Service struct {
	store     store.Store
	llm       llm.Client
	snapshots *snapshot.Extractor
	logger    *slog.Logger
}

func NewService(st store.Store, client llm.Client, snapshots *snapshot.Extractor, logger *slog.Logger) *Service {
	return &Service{store: st, llm: client, snapshots: snapshots, logger: logger}
}

// Build synthesizes a new persona version from everything snapshotted for the
// interview so far.
func (s *Service) Build(ctx context.Context, interviewID string) (*Persona, error) {
	var iv interview.Interview
	if err := s.store.Get(ctx, interview.Key(interviewID), &iv); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("interview %s not found", interviewID)
		}
		return nil, fmt.Errorf("load interview %s: %w", interviewID, err)
	}
	snaps, err := s.snapshots.ListOldestFirst(ctx, interviewID)
	if err != nil {
		return nil, err
	}
	// An empty snapshot list still builds; the persona is just thin.
	payload, err := json.MarshalIndent(snaps, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshots: %w", err)
	}
	promptText, err := s.llm.Complete(ctx, prompts.PersonaBuilder, []llm.Message{{Role: "user", Content: string(payload)}})
	if err != nil {
		return nil, err
	}

	version, err := s.nextVersion(ctx, iv.Role)
	if err != nil {
		return nil, err
	}
	p := &Persona{
		ID:          uuid.NewString(),
		Role:        iv.Role,
		Version:     version,
		InterviewID: interviewID,
		PromptText:  promptText,
		Status:      StatusDraft,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.Put(ctx, key(p.ID), p); err != nil {
		return nil, fmt.Errorf("store persona: %w", err)
	}
	s.logger.Info("persona built", "personaId", p.ID, "role", p.Role, "version", p.Version, "snapshots", len(snaps))
	return p, nil
}

func (s *Service) nextVersion(ctx context.Context, role string) (int, error) {
	all, err := s.all(ctx)
	if err != nil {
		return 0, err
	}
	max := 0
	for _, p := range all {
		if p.Role == role && p.Version > max {
			max = p.Version
		}
	}
	return max + 1, nil
}

func (s *Service) all(ctx context.Context) ([]*Persona, error) {
	ids, err := s.store.List(ctx, "personas")
	if err != nil {
		return nil, fmt.Errorf("list personas: %w", err)
	}
	out := make([]*Persona, 0, len(ids))
	for _, id := range ids {
		var p Persona
		if err := s.store.Get(ctx, key(id), &p); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("load persona %s: %w", id, err)
		}
		normalize(&p)
		out = append(out, &p)
	}
	return out, nil
}

// normalize fills the defaults older documents may lack.
func normalize(p *Persona) {
	if p.Version == 0 {
		p.Version = 1
	}
	if p.Status == "" {
		p.Status = StatusDraft
	}
}

func (s *Service) Get(ctx context.Context, id string) (*Persona, error) {
	var p Persona
	if err := s.store.Get(ctx, key(id), &p); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("persona %s not found", id)
		}
		return nil, fmt.Errorf("load persona %s: %w", id, err)
	}
	normalize(&p)
	return &p, nil
}

// ListFilter narrows List results. IsFavorite and LatestValidated are
// tri-state via pointers.
type ListFilter struct {
	Status          string
	Role            string
	Industry        string
	IsFavorite      *bool
	LatestValidated bool
}

// Summary is the listing projection of a persona, with display defaults
// filled in.
type Summary struct {
	ID                string      `json:"id"`
	Name              string      `json:"name"`
	Role              string      `json:"role"`
	Version           int         `json:"version"`
	Status            string      `json:"status"`
	Organization      string      `json:"organization,omitempty"`
	YearsOfExperience int         `json:"yearsOfExperience,omitempty"`
	Bio               string      `json:"bio"`
	PhotoURL          string      `json:"photoUrl,omitempty"`
	Traits            []string    `json:"traits,omitempty"`
	Expertise         []Expertise `json:"expertise,omitempty"`
	Industry          string      `json:"industry"`
	IsFavorite        bool        `json:"isFavorite"`
	InterviewID       string      `json:"interviewId"`
	CreatedAt         time.Time   `json:"createdAt"`
}

const defaultIndustry = "Finance & Banking"

func summarize(p *Persona) *Summary {
	name := p.Name
	if name == "" {
		name = p.Role
	}
	bio := p.Bio
	if bio == "" {
		bio = p.PromptText
		if len(bio) > 150 {
			bio = bio[:150] + "..."
		}
	}
	industry := p.Industry
	if industry == "" {
		industry = defaultIndustry
	}
	return &Summary{
		ID:                p.ID,
		Name:              name,
		Role:              p.Role,
		Version:           p.Version,
		Status:            p.Status,
		Organization:      p.Organization,
		YearsOfExperience: p.YearsOfExperience,
		Bio:               bio,
		PhotoURL:          p.PhotoURL,
		Traits:            p.Traits,
		Expertise:         p.Expertise,
		Industry:          industry,
		IsFavorite:        p.IsFavorite,
		InterviewID:       p.InterviewID,
		CreatedAt:         p.CreatedAt,
	}
}

// List returns persona summaries matching the filter, sorted by role then
// newest version first. LatestValidated keeps only the highest validated
// version per role.
func (s *Service) List(ctx context.Context, f ListFilter) ([]*Summary, error) {
	all, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	filtered := make([]*Persona, 0, len(all))
	for _, p := range all {
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if f.Role != "" && p.Role != f.Role {
			continue
		}
		if f.Industry != "" {
			industry := p.Industry
			if industry == "" {
				industry = defaultIndustry
			}
			if !strings.Contains(strings.ToLower(industry), strings.ToLower(f.Industry)) {
				continue
			}
		}
		if f.IsFavorite != nil && p.IsFavorite != *f.IsFavorite {
			continue
		}
		filtered = append(filtered, p)
	}
	if f.LatestValidated {
		best := map[string]*Persona{}
		for _, p := range filtered {
			if p.Status != StatusValidated {
				continue
			}
			if cur, ok := best[p.Role]; !ok || p.Version > cur.Version {
				best[p.Role] = p
			}
		}
		filtered = filtered[:0]
		for _, p := range best {
			filtered = append(filtered, p)
		}
	}
	sort.Slice(filtered, func(i, j int) bool {
		if filtered[i].Role != filtered[j].Role {
			return filtered[i].Role < filtered[j].Role
		}
		return filtered[i].Version > filtered[j].Version
	})
	out := make([]*Summary, len(filtered))
	for i, p := range filtered {
		out[i] = summarize(p)
	}
	return out, nil
}

// UpdateInput carries profile edits; nil means leave as is.
type UpdateInput struct {
	Name              *string
	Role              *string
	Organization      *string
	YearsOfExperience *int
	Bio               *string
	PhotoURL          *string
	Traits            []string
	Expertise         []Expertise
	PromptText        *string
	Status            *string
	Industry          *string
	IsFavorite        *bool
}

var personaStatuses = map[string]bool{StatusDraft: true, StatusValidated: true, StatusDeprecated: true}

// Update merges profile edits into a persona. Promoting a persona to
// Validated retires any other validated version of the same role.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*Persona, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	becameValidated := false
	if in.Status != nil {
		if !personaStatuses[*in.Status] {
			return nil, apperr.Validation("invalid status %q, expected Draft, Validated or Deprecated", *in.Status)
		}
		becameValidated = *in.Status == StatusValidated && p.Status != StatusValidated
		p.Status = *in.Status
	}
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Role != nil {
		p.Role = *in.Role
	}
	if in.Organization != nil {
		p.Organization = *in.Organization
	}
	if in.YearsOfExperience != nil {
		p.YearsOfExperience = *in.YearsOfExperience
	}
	if in.Bio != nil {
		p.Bio = *in.Bio
	}
	if in.PhotoURL != nil {
		p.PhotoURL = *in.PhotoURL
	}
	if in.Traits != nil {
		p.Traits = in.Traits
	}
	if in.Expertise != nil {
		p.Expertise = clampExpertise(in.Expertise)
	}
	if in.PromptText != nil {
		p.PromptText = *in.PromptText
	}
	if in.Industry != nil {
		p.Industry = *in.Industry
	}
	if in.IsFavorite != nil {
		p.IsFavorite = *in.IsFavorite
	}
	now := time.Now().UTC()
	p.UpdatedAt = &now
	if err := s.store.Put(ctx, key(id), p); err != nil {
		return nil, fmt.Errorf("store persona %s: %w", id, err)
	}
	if becameValidated {
		if err := s.deprecateOthers(ctx, p.Role, p.ID); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func clampExpertise(in []Expertise) []Expertise {
	out := make([]Expertise, 0, len(in))
	for _, e := range in {
		if e.Level < 1 {
			e.Level = 1
		}
		if e.Level > 5 {
			e.Level = 5
		}
		out = append(out, e)
	}
	return out
}

// deprecateOthers retires every other validated persona of the role.
func (s *Service) deprecateOthers(ctx context.Context, role, keepID string) error {
	all, err := s.all(ctx)
	if err != nil {
		return err
	}
	for _, p := range all {
		if p.ID == keepID || p.Role != role || p.Status != StatusValidated {
			continue
		}
		p.Status = StatusDeprecated
		now := time.Now().UTC()
		p.UpdatedAt = &now
		if err := s.store.Put(ctx, key(p.ID), p); err != nil {
			return fmt.Errorf("deprecate persona %s: %w", p.ID, err)
		}
		s.logger.Info("persona deprecated", "personaId", p.ID, "role", role)
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, key(id)); err != nil {
		return fmt.Errorf("delete persona %s: %w", id, err)
	}
	return nil
}

// BulkDeleteResult reports which requested personas existed.
type BulkDeleteResult struct {
	Deleted  []string `json:"deleted"`
	NotFound []string `json:"notFound"`
	Message  string   `json:"message"`
}

func (s *Service) BulkDelete(ctx context.Context, ids []string) (*BulkDeleteResult, error) {
	if len(ids) == 0 {
		return nil, apperr.Validation("ids is required")
	}
	res := &BulkDeleteResult{Deleted: []string{}, NotFound: []string{}}
	for _, id := range ids {
		err := s.Delete(ctx, id)
		var ae *apperr.Error
		switch {
		case err == nil:
			res.Deleted = append(res.Deleted, id)
		case errors.As(err, &ae) && ae.Kind == apperr.KindNotFound:
			res.NotFound = append(res.NotFound, id)
		default:
			return nil, err
		}
	}
	res.Message = fmt.Sprintf("Deleted %d personas, %d not found", len(res.Deleted), len(res.NotFound))
	return res, nil
}

// View records that someone opened a persona.
func (s *Service) View(ctx context.Context, id string) (time.Time, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return time.Time{}, err
	}
	viewedAt := time.Now().UTC()
	s.logger.Info("persona viewed", "personaId", id, "viewedAt", viewedAt)
	return viewedAt, nil
}

// ValidateResult reports a successful validation.
type ValidateResult struct {
	Status           string     `json:"status"`
	ValidatedAt      *time.Time `json:"validatedAt"`
	ValidatedBy      string     `json:"validatedBy"`
	FeedbackRecorded bool       `json:"feedbackRecorded,omitempty"`
}

// Validate promotes a draft persona to Validated, recording who signed it off
// and any feedback. Other validated versions of the role are retired.
func (s *Service) Validate(ctx context.Context, id, validatedBy, feedback string) (*ValidateResult, error) {
	if strings.TrimSpace(validatedBy) == "" {
		return nil, apperr.Validation("validatedBy is required")
	}
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != StatusDraft {
		return nil, apperr.Conflict("Cannot validate persona. Current status is %q. Only Draft personas can be validated.", p.Status)
	}
	now := time.Now().UTC()
	recorded := false
	if strings.TrimSpace(feedback) != "" {
		p.FeedbackHistory = append(p.FeedbackHistory, Feedback{
			Feedback:    feedback,
			SubmittedBy: validatedBy,
			SubmittedAt: now,
		})
		recorded = true
	}
	p.Status = StatusValidated
	p.ValidatedBy = validatedBy
	p.ValidatedAt = &now
	p.UpdatedAt = &now
	if err := s.store.Put(ctx, key(id), p); err != nil {
		return nil, fmt.Errorf("store persona %s: %w", id, err)
	}
	if err := s.deprecateOthers(ctx, p.Role, p.ID); err != nil {
		return nil, err
	}
	s.logger.Info("persona validated", "personaId", id, "role", p.Role, "validatedBy", validatedBy)
	return &ValidateResult{
		Status:           p.Status,
		ValidatedAt:      p.ValidatedAt,
		ValidatedBy:      p.ValidatedBy,
		FeedbackRecorded: recorded,
	}, nil
}
