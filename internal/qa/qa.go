// Package qa evaluates personas against role-specific scenarios: run a
// scenario question through a persona, have a human score the answer, then
// aggregate the scores to find personas needing recalibration and scenarios
// that trip everyone up.
package qa

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
	"github.com/handoverhq/handover/internal/llm"
	"github.com/handoverhq/handover/internal/persona"
	"github.com/handoverhq/handover/internal/roles"
	"github.com/handoverhq/handover/internal/store"
)

// Scenario is one test question for a role's persona.
type Scenario struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Context    string `json:"context"`
	Question   string `json:"question"`
	Category   string `json:"category,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
}

// Scores are the four human ratings of a persona's answer, each 1 to 5.
type Scores struct {
	Accuracy      int     `json:"accuracy"`
	Tone          int     `json:"tone"`
	Actionability int     `json:"actionability"`
	RiskAwareness int     `json:"riskAwareness"`
	Average       float64 `json:"average"`
}

// Evaluation statuses.
const (
	StatusPending = "pending"
	StatusScored  = "scored"
)

// Evaluation is one persona-versus-scenario run and, once a human has rated
// it, its scores.
type Evaluation struct {
	ID             string     `json:"id"`
	PersonaID      string     `json:"personaId"`
	PersonaRole    string     `json:"personaRole"`
	PersonaVersion int        `json:"personaVersion"`
	ScenarioID     string     `json:"scenarioId"`
	ScenarioTitle  string     `json:"scenarioTitle"`
	Question       string     `json:"question"`
	Response       string     `json:"response"`
	Status         string     `json:"status"`
	Scores         *Scores    `json:"scores"`
	Comments       string     `json:"comments,omitempty"`
	EvaluatedBy    string     `json:"evaluatedBy,omitempty"`
	EvaluatedAt    *time.Time `json:"evaluatedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

func scenarioKey(slug, id string) string { return "scenarios/" + slug + "/" + id }
func evalKey(id string) string           { return "evaluations/" + id }

type Service struct {
	store    store.Store
	llm      llm.Client
	catalog  *roles.Catalog
	personas *persona.Service
	logger   *slog.Logger
}

func NewService(st store.Store, client llm.Client, catalog *roles.Catalog, personas *persona.Service, logger *slog.Logger) *Service {
	return &Service{store: st, llm: client, catalog: catalog, personas: personas, logger: logger}
}

// ListScenarios returns the scenario set for a role. A role with no scenarios
// loaded yet yields an empty list.
func (s *Service) ListScenarios(ctx context.Context, roleName string) ([]*Scenario, error) {
	if !s.catalog.ValidRole(roleName) {
		return nil, apperr.Validation("invalid role %q, expected one of: %s", roleName, strings.Join(s.catalog.RoleNames(), ", "))
	}
	return s.scenariosForSlug(ctx, roles.Slug(roleName))
}

func (s *Service) scenariosForSlug(ctx context.Context, slug string) ([]*Scenario, error) {
	ids, err := s.store.List(ctx, "scenarios/"+slug)
	if err != nil {
		return nil, fmt.Errorf("list scenarios for %s: %w", slug, err)
	}
	out := make([]*Scenario, 0, len(ids))
	for _, id := range ids {
		var sc Scenario
		if err := s.store.Get(ctx, scenarioKey(slug, id), &sc); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("load scenario %s: %w", id, err)
		}
		out = append(out, &sc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// findScenario looks the scenario up across every role's set.
func (s *Service) findScenario(ctx context.Context, scenarioID string) (*Scenario, error) {
	for _, roleName := range s.catalog.RoleNames() {
		var sc Scenario
		err := s.store.Get(ctx, scenarioKey(roles.Slug(roleName), scenarioID), &sc)
		if err == nil {
			return &sc, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("load scenario %s: %w", scenarioID, err)
		}
	}
	return nil, apperr.NotFound("scenario %s not found", scenarioID)
}

// PutScenario stores a scenario under a role's set. Used by seeding and by
// admin imports.
func (s *Service) PutScenario(ctx context.Context, roleName string, sc *Scenario) error {
	if !s.catalog.ValidRole(roleName) {
		return apperr.Validation("invalid role %q", roleName)
	}
	if sc.ID == "" || strings.TrimSpace(sc.Question) == "" {
		return apperr.Validation("scenario id and question are required")
	}
	return s.store.Put(ctx, scenarioKey(roles.Slug(roleName), sc.ID), sc)
}

// RunResult is the outcome of putting a scenario to a persona.
type RunResult struct {
	EvaluationID string `json:"evaluationId"`
	PersonaID    string `json:"personaId"`
	ScenarioID   string `json:"scenarioId"`
	Response     string `json:"response"`
}

// Run asks the persona the scenario's question and records a pending
// evaluation for a human to score.
func (s *Service) Run(ctx context.Context, personaID, scenarioID string) (*RunResult, error) {
	if strings.TrimSpace(personaID) == "" {
		return nil, apperr.Validation("personaId is required")
	}
	if strings.TrimSpace(scenarioID) == "" {
		return nil, apperr.Validation("scenarioId is required")
	}
	p, err := s.personas.Get(ctx, personaID)
	if err != nil {
		return nil, err
	}
	sc, err := s.findScenario(ctx, scenarioID)
	if err != nil {
		return nil, err
	}

	fullQuestion := fmt.Sprintf("Context: %s\n\nQuestion: %s", sc.Context, sc.Question)
	response, err := s.llm.Complete(ctx, p.PromptText, []llm.Message{{Role: "user", Content: fullQuestion}})
	if err != nil {
		return nil, err
	}

	eval := &Evaluation{
		ID:             uuid.NewString(),
		PersonaID:      p.ID,
		PersonaRole:    p.Role,
		PersonaVersion: p.Version,
		ScenarioID:     sc.ID,
		ScenarioTitle:  sc.Title,
		Question:       fullQuestion,
		Response:       response,
		Status:         StatusPending,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.store.Put(ctx, evalKey(eval.ID), eval); err != nil {
		return nil, fmt.Errorf("store evaluation: %w", err)
	}
	s.logger.Info("evaluation run", "evaluationId", eval.ID, "personaId", p.ID, "scenarioId", sc.ID)
	return &RunResult{EvaluationID: eval.ID, PersonaID: p.ID, ScenarioID: sc.ID, Response: response}, nil
}

// ScoreInput carries the four required ratings plus reviewer metadata. Each
// rating is a pointer so an absent field is distinguishable from zero.
type ScoreInput struct {
	Accuracy      *int
	Tone          *int
	Actionability *int
	RiskAwareness *int
	Comments      string
	EvaluatedBy   string
}

// ScoreResult confirms a recorded evaluation.
type ScoreResult struct {
	EvaluationID string     `json:"evaluationId"`
	Scores       *Scores    `json:"scores"`
	Status       string     `json:"status"`
	EvaluatedAt  *time.Time `json:"evaluatedAt"`
}

// Score records the human ratings for a pending evaluation. Every rating must
// be an integer from 1 to 5; nothing is written unless all four are valid.
func (s *Service) Score(ctx context.Context, evaluationID string, in ScoreInput) (*ScoreResult, error) {
	if strings.TrimSpace(evaluationID) == "" {
		return nil, apperr.Validation("evaluationId is required")
	}
	fields := []struct {
		name string
		val  *int
	}{
		{"accuracy", in.Accuracy},
		{"tone", in.Tone},
		{"actionability", in.Actionability},
		{"riskAwareness", in.RiskAwareness},
	}
	for _, f := range fields {
		if f.val == nil {
			return nil, apperr.Validation("score %q is required", f.name)
		}
		if *f.val < 1 || *f.val > 5 {
			return nil, apperr.Validation("score %q must be an integer between 1 and 5", f.name)
		}
	}

	eval, err := s.GetEvaluation(ctx, evaluationID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	eval.Scores = &Scores{
		Accuracy:      *in.Accuracy,
		Tone:          *in.Tone,
		Actionability: *in.Actionability,
		RiskAwareness: *in.RiskAwareness,
		Average:       float64(*in.Accuracy+*in.Tone+*in.Actionability+*in.RiskAwareness) / 4,
	}
	eval.Comments = in.Comments
	eval.EvaluatedBy = in.EvaluatedBy
	eval.EvaluatedAt = &now
	eval.Status = StatusScored
	if err := s.store.Put(ctx, evalKey(evaluationID), eval); err != nil {
		return nil, fmt.Errorf("store evaluation %s: %w", evaluationID, err)
	}
	return &ScoreResult{
		EvaluationID: eval.ID,
		Scores:       eval.Scores,
		Status:       eval.Status,
		EvaluatedAt:  eval.EvaluatedAt,
	}, nil
}

func (s *Service) GetEvaluation(ctx context.Context, id string) (*Evaluation, error) {
	var eval Evaluation
	if err := s.store.Get(ctx, evalKey(id), &eval); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("evaluation %s not found", id)
		}
		return nil, fmt.Errorf("load evaluation %s: %w", id, err)
	}
	return &eval, nil
}

// EvalFilter narrows ListEvaluations results.
type EvalFilter struct {
	PersonaID  string
	ScenarioID string
	Status     string
}

// ListEvaluations returns evaluations matching the filter, newest first.
func (s *Service) ListEvaluations(ctx context.Context, f EvalFilter) ([]*Evaluation, error) {
	ids, err := s.store.List(ctx, "evaluations")
	if err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	out := make([]*Evaluation, 0, len(ids))
	for _, id := range ids {
		var eval Evaluation
		if err := s.store.Get(ctx, evalKey(id), &eval); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("load evaluation %s: %w", id, err)
		}
		if f.PersonaID != "" && eval.PersonaID != f.PersonaID {
			continue
		}
		if f.ScenarioID != "" && eval.ScenarioID != f.ScenarioID {
			continue
		}
		if f.Status != "" && eval.Status != f.Status {
			continue
		}
		out = append(out, &eval)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
