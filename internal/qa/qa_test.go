package qa

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/handoverhq/handover/internal/apperr"
	"github.com/handoverhq/handover/internal/knowledge"
	"github.com/handoverhq/handover/internal/llm"
	"github.com/handoverhq/handover/internal/persona"
	"github.com/handoverhq/handover/internal/roles"
	"github.com/handoverhq/handover/internal/snapshot"
	"github.com/handoverhq/handover/internal/store"
	"github.com/handoverhq/handover/internal/topic"
)

type fakeLLM struct {
	reply    string
	lastUser string
}

func (f *fakeLLM) Complete(_ context.Context, _ string, messages []llm.Message) (string, error) {
	if len(messages) > 0 {
		f.lastUser = messages[len(messages)-1].Content
	}
	return f.reply, nil
}

func newTestService(t *testing.T) (*Service, store.Store, *fakeLLM) {
	t.Helper()
	st := store.NewMemory()
	client := &fakeLLM{reply: "Escalate to the s151 officer immediately."}
	catalog := roles.MustLoad()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	points := knowledge.NewService(st, client, catalog, topic.NewService(st), logger)
	snaps := snapshot.NewExtractor(st, client, points, logger)
	personas := persona.NewService(st, client, snaps, logger)
	return NewService(st, client, catalog, personas, logger), st, client
}

func seedPersona(t *testing.T, st store.Store, id, role string, version int) {
	t.Helper()
	doc := map[string]any{
		"id":         id,
		"role":       role,
		"version":    version,
		"promptText": "I am the " + role + ".",
		"status":     "Validated",
		"createdAt":  time.Now(),
	}
	if err := st.Put(context.Background(), "personas/"+id, doc); err != nil {
		t.Fatal(err)
	}
}

func seedScenario(t *testing.T, svc *Service, role, id, title string) {
	t.Helper()
	err := svc.PutScenario(context.Background(), role, &Scenario{
		ID:       id,
		Title:    title,
		Context:  "A member has asked about reserves.",
		Question: "What do you tell them?",
	})
	if err != nil {
		t.Fatal(err)
	}
}

func intp(v int) *int { return &v }

func scoreOf(t *testing.T, svc *Service, evalID string, v int) {
	t.Helper()
	_, err := svc.Score(context.Background(), evalID, ScoreInput{
		Accuracy:      intp(v),
		Tone:          intp(v),
		Actionability: intp(v),
		RiskAwareness: intp(v),
		EvaluatedBy:   "reviewer",
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestListScenarios(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.ListScenarios(ctx, "Wizard"); err == nil {
		t.Error("invalid role accepted")
	}
	empty, err := svc.ListScenarios(ctx, "Finance Director")
	if err != nil {
		t.Fatalf("ListScenarios: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected empty list, got %d", len(empty))
	}

	seedScenario(t, svc, "Finance Director", "fd-001", "Reserves question")
	got, _ := svc.ListScenarios(ctx, "Finance Director")
	if len(got) != 1 || got[0].Title != "Reserves question" {
		t.Errorf("scenarios = %+v", got)
	}
	other, _ := svc.ListScenarios(ctx, "Head of Treasury")
	if len(other) != 0 {
		t.Error("scenario leaked across roles")
	}
}

func TestRun(t *testing.T) {
	svc, st, client := newTestService(t)
	ctx := context.Background()
	seedPersona(t, st, "p1", "Finance Director", 2)
	seedScenario(t, svc, "Finance Director", "fd-001", "Reserves question")

	res, err := svc.Run(ctx, "p1", "fd-001")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Response != client.reply {
		t.Errorf("response = %q", res.Response)
	}
	if !strings.HasPrefix(client.lastUser, "Context: ") || !strings.Contains(client.lastUser, "\n\nQuestion: ") {
		t.Errorf("question framing = %q", client.lastUser)
	}

	eval, err := svc.GetEvaluation(ctx, res.EvaluationID)
	if err != nil {
		t.Fatal(err)
	}
	if eval.Status != StatusPending || eval.Scores != nil || eval.PersonaVersion != 2 {
		t.Errorf("evaluation = %+v", eval)
	}

	var ae *apperr.Error
	if _, err := svc.Run(ctx, "ghost", "fd-001"); !errors.As(err, &ae) || ae.Kind != apperr.KindNotFound {
		t.Errorf("missing persona err = %v", err)
	}
	if _, err := svc.Run(ctx, "p1", "ghost"); !errors.As(err, &ae) || ae.Kind != apperr.KindNotFound {
		t.Errorf("missing scenario err = %v", err)
	}
	if _, err := svc.Run(ctx, "", "fd-001"); !errors.As(err, &ae) || ae.Kind != apperr.KindValidation {
		t.Errorf("empty personaId err = %v", err)
	}
}

func TestScoreValidation(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	seedPersona(t, st, "p1", "Finance Director", 1)
	seedScenario(t, svc, "Finance Director", "fd-001", "Reserves question")
	res, _ := svc.Run(ctx, "p1", "fd-001")

	tests := []struct {
		name string
		in   ScoreInput
	}{
		{"missing accuracy", ScoreInput{Tone: intp(4), Actionability: intp(4), RiskAwareness: intp(4)}},
		{"accuracy too high", ScoreInput{Accuracy: intp(6), Tone: intp(4), Actionability: intp(4), RiskAwareness: intp(4)}},
		{"tone too low", ScoreInput{Accuracy: intp(4), Tone: intp(0), Actionability: intp(4), RiskAwareness: intp(4)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ae *apperr.Error
			if _, err := svc.Score(ctx, res.EvaluationID, tt.in); !errors.As(err, &ae) || ae.Kind != apperr.KindValidation {
				t.Fatalf("err = %v, want validation", err)
			}
			// No partial write: the evaluation must still be pending.
			eval, _ := svc.GetEvaluation(ctx, res.EvaluationID)
			if eval.Status != StatusPending || eval.Scores != nil {
				t.Errorf("state changed: %+v", eval)
			}
		})
	}

	out, err := svc.Score(ctx, res.EvaluationID, ScoreInput{
		Accuracy:      intp(5),
		Tone:          intp(4),
		Actionability: intp(4),
		RiskAwareness: intp(3),
		Comments:      "Good, slightly generic.",
		EvaluatedBy:   "j.smith",
	})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if out.Scores.Average != 4 {
		t.Errorf("average = %v, want 4", out.Scores.Average)
	}
	if out.Status != StatusScored || out.EvaluatedAt == nil {
		t.Errorf("result = %+v", out)
	}
}

func TestListEvaluationsFilters(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	seedPersona(t, st, "p1", "Finance Director", 1)
	seedPersona(t, st, "p2", "Head of Treasury", 1)
	seedScenario(t, svc, "Finance Director", "fd-001", "Reserves question")
	seedScenario(t, svc, "Head of Treasury", "ht-001", "Borrowing limits")

	r1, _ := svc.Run(ctx, "p1", "fd-001")
	if _, err := svc.Run(ctx, "p2", "ht-001"); err != nil {
		t.Fatal(err)
	}
	scoreOf(t, svc, r1.EvaluationID, 4)

	all, _ := svc.ListEvaluations(ctx, EvalFilter{})
	if len(all) != 2 {
		t.Fatalf("all = %d", len(all))
	}
	scored, _ := svc.ListEvaluations(ctx, EvalFilter{Status: StatusScored})
	if len(scored) != 1 || scored[0].ID != r1.EvaluationID {
		t.Errorf("scored filter = %d", len(scored))
	}
	byPersona, _ := svc.ListEvaluations(ctx, EvalFilter{PersonaID: "p2"})
	if len(byPersona) != 1 {
		t.Errorf("persona filter = %d", len(byPersona))
	}
}

func TestPersonaAnalytics(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	seedPersona(t, st, "p1", "Finance Director", 1)
	seedScenario(t, svc, "Finance Director", "fd-001", "Reserves question")
	seedScenario(t, svc, "Finance Director", "fd-002", "Overspend recovery")

	r1, _ := svc.Run(ctx, "p1", "fd-001")
	r2, _ := svc.Run(ctx, "p1", "fd-002")
	scoreOf(t, svc, r1.EvaluationID, 5)
	scoreOf(t, svc, r2.EvaluationID, 2)

	got, err := svc.PersonaAnalytics(ctx, "p1")
	if err != nil {
		t.Fatalf("PersonaAnalytics: %v", err)
	}
	if got.TotalEvaluations != 2 {
		t.Errorf("totalEvaluations = %d", got.TotalEvaluations)
	}
	if got.AverageScores.Overall != 3.5 {
		t.Errorf("overall = %v, want 3.5", got.AverageScores.Overall)
	}
	if got.NeedsCalibration {
		t.Error("3.5 average must not flag calibration")
	}
	if len(got.ScenarioEvaluations) != 2 {
		t.Fatalf("scenario breakdowns = %d", len(got.ScenarioEvaluations))
	}
	var weak *ScenarioBreakdown
	for _, sb := range got.ScenarioEvaluations {
		if sb.ScenarioID == "fd-002" {
			weak = sb
		}
	}
	if weak == nil || !weak.NeedsAttention {
		t.Errorf("low-scoring scenario not flagged: %+v", weak)
	}
}

func TestScenarioAnalyticsProblematic(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	seedPersona(t, st, "p1", "Finance Director", 1)
	seedPersona(t, st, "p2", "Finance Director", 2)
	seedScenario(t, svc, "Finance Director", "fd-001", "Reserves question")
	seedScenario(t, svc, "Finance Director", "fd-002", "Overspend recovery")

	// fd-001 scores low for two personas; fd-002 low for only one.
	r1, _ := svc.Run(ctx, "p1", "fd-001")
	r2, _ := svc.Run(ctx, "p2", "fd-001")
	r3, _ := svc.Run(ctx, "p1", "fd-002")
	scoreOf(t, svc, r1.EvaluationID, 2)
	scoreOf(t, svc, r2.EvaluationID, 2)
	scoreOf(t, svc, r3.EvaluationID, 2)

	got, err := svc.ScenarioAnalytics(ctx)
	if err != nil {
		t.Fatalf("ScenarioAnalytics: %v", err)
	}
	if got.TotalScenarios != 2 || got.TotalEvaluations != 3 {
		t.Errorf("totals = %+v", got)
	}
	if got.ProblematicScenarios != 1 {
		t.Errorf("problematic = %d, want 1", got.ProblematicScenarios)
	}
	if got.Scenarios[0].ScenarioID != "fd-001" || !got.Scenarios[0].IsProblematic {
		t.Errorf("problematic scenario not first: %+v", got.Scenarios[0])
	}
	if got.Scenarios[1].IsProblematic {
		t.Error("single-persona scenario wrongly flagged")
	}
}

func TestSummary(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	seedPersona(t, st, "p1", "Finance Director", 1)
	seedScenario(t, svc, "Finance Director", "fd-001", "Reserves question")

	r1, _ := svc.Run(ctx, "p1", "fd-001")
	if _, err := svc.Run(ctx, "p1", "fd-001"); err != nil {
		t.Fatal(err)
	}
	scoreOf(t, svc, r1.EvaluationID, 2)

	got, err := svc.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if got.TotalEvaluations != 2 || got.ScoredEvaluations != 1 || got.PendingEvaluations != 1 {
		t.Errorf("counts = %+v", got)
	}
	if len(got.FlaggedPersonas) != 1 {
		t.Errorf("flagged = %d, want 1", len(got.FlaggedPersonas))
	}
}

func TestExportCSV(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	seedPersona(t, st, "p1", "Finance Director", 1)
	seedScenario(t, svc, "Finance Director", "fd-001", "Reserves question")

	r1, _ := svc.Run(ctx, "p1", "fd-001")
	if _, err := svc.Score(ctx, r1.EvaluationID, ScoreInput{
		Accuracy:      intp(4),
		Tone:          intp(4),
		Actionability: intp(4),
		RiskAwareness: intp(4),
		Comments:      `Said "probably" too often`,
		EvaluatedBy:   "j.smith",
	}); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.ExportCSV(ctx, "xlsx"); err == nil {
		t.Error("non-csv format accepted")
	}
	out, err := svc.ExportCSV(ctx, "csv")
	if err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want header plus one row", len(lines))
	}
	if !strings.HasPrefix(lines[0], `"Evaluation ID","Persona ID"`) {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], `"Said ""probably"" too often"`) {
		t.Errorf("quotes not doubled: %q", lines[1])
	}
	if !strings.Contains(lines[1], `"4","4","4","4","4"`) {
		t.Errorf("scores row = %q", lines[1])
	}
}
