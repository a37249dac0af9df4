package qa

import (
	"context"
	"math"
	"sort"
)

// Threshold below which an average score flags a persona or scenario.
const lowScoreThreshold = 3.5

// AverageScores holds per-dimension averages, 2 decimal places.
type AverageScores struct {
	Accuracy      float64 `json:"accuracy"`
	Tone          float64 `json:"tone"`
	Actionability float64 `json:"actionability"`
	RiskAwareness float64 `json:"riskAwareness"`
	Overall       float64 `json:"overall"`
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func averageOf(evals []*Evaluation) AverageScores {
	if len(evals) == 0 {
		return AverageScores{}
	}
	var acc, tone, act, risk float64
	for _, e := range evals {
		acc += float64(e.Scores.Accuracy)
		tone += float64(e.Scores.Tone)
		act += float64(e.Scores.Actionability)
		risk += float64(e.Scores.RiskAwareness)
	}
	n := float64(len(evals))
	avg := AverageScores{
		Accuracy:      round2(acc / n),
		Tone:          round2(tone / n),
		Actionability: round2(act / n),
		RiskAwareness: round2(risk / n),
	}
	avg.Overall = round2((avg.Accuracy + avg.Tone + avg.Actionability + avg.RiskAwareness) / 4)
	return avg
}

// ScenarioBreakdown is one scenario's slice of a persona's evaluations.
type ScenarioBreakdown struct {
	ScenarioID      string        `json:"scenarioId"`
	ScenarioTitle   string        `json:"scenarioTitle"`
	EvaluationCount int           `json:"evaluationCount"`
	AverageScores   AverageScores `json:"averageScores"`
	NeedsAttention  bool          `json:"needsAttention"`
	Evaluations     []*Evaluation `json:"evaluations"`
}

// PersonaAnalytics aggregates every scored evaluation of one persona.
type PersonaAnalytics struct {
	PersonaID            string               `json:"personaId"`
	PersonaRole          string               `json:"personaRole"`
	Version              int                  `json:"version"`
	TotalEvaluations     int                  `json:"totalEvaluations"`
	AverageScores        AverageScores        `json:"averageScores"`
	NeedsCalibration     bool                 `json:"needsCalibration"`
	CalibrationThreshold float64              `json:"calibrationThreshold"`
	ScenarioEvaluations  []*ScenarioBreakdown `json:"scenarioEvaluations"`
	AllComments          []string             `json:"allComments"`
}

// PersonaAnalytics aggregates the scored evaluations of one persona, broken
// down by scenario.
func (s *Service) PersonaAnalytics(ctx context.Context, personaID string) (*PersonaAnalytics, error) {
	p, err := s.personas.Get(ctx, personaID)
	if err != nil {
		return nil, err
	}
	evals, err := s.scoredEvaluations(ctx, EvalFilter{PersonaID: personaID})
	if err != nil {
		return nil, err
	}

	out := &PersonaAnalytics{
		PersonaID:            p.ID,
		PersonaRole:          p.Role,
		Version:              p.Version,
		TotalEvaluations:     len(evals),
		AverageScores:        averageOf(evals),
		CalibrationThreshold: lowScoreThreshold,
		ScenarioEvaluations:  []*ScenarioBreakdown{},
		AllComments:          []string{},
	}
	out.NeedsCalibration = len(evals) > 0 && out.AverageScores.Overall < lowScoreThreshold

	byScenario := map[string][]*Evaluation{}
	var order []string
	for _, e := range evals {
		if _, seen := byScenario[e.ScenarioID]; !seen {
			order = append(order, e.ScenarioID)
		}
		byScenario[e.ScenarioID] = append(byScenario[e.ScenarioID], e)
		if e.Comments != "" {
			out.AllComments = append(out.AllComments, e.Comments)
		}
	}
	for _, sid := range order {
		group := byScenario[sid]
		avg := averageOf(group)
		out.ScenarioEvaluations = append(out.ScenarioEvaluations, &ScenarioBreakdown{
			ScenarioID:      sid,
			ScenarioTitle:   group[0].ScenarioTitle,
			EvaluationCount: len(group),
			AverageScores:   avg,
			NeedsAttention:  avg.Overall < lowScoreThreshold,
			Evaluations:     group,
		})
	}
	return out, nil
}

// ScenarioStats is one scenario's aggregate across all personas.
type ScenarioStats struct {
	ScenarioID        string        `json:"scenarioId"`
	ScenarioTitle     string        `json:"scenarioTitle"`
	EvaluationCount   int           `json:"evaluationCount"`
	PersonasEvaluated int           `json:"personasEvaluated"`
	AverageScores     AverageScores `json:"averageScores"`
	IsProblematic     bool          `json:"isProblematic"`
}

// ScenarioAnalytics ranks scenarios by how poorly personas handle them.
type ScenarioAnalytics struct {
	TotalScenarios       int              `json:"totalScenarios"`
	TotalEvaluations     int              `json:"totalEvaluations"`
	ProblematicScenarios int              `json:"problematicScenarios"`
	Threshold            float64          `json:"threshold"`
	Scenarios            []*ScenarioStats `json:"scenarios"`
}

// ScenarioAnalytics aggregates scored evaluations per scenario. A scenario is
// problematic when its overall average is low across at least two personas.
func (s *Service) ScenarioAnalytics(ctx context.Context) (*ScenarioAnalytics, error) {
	evals, err := s.scoredEvaluations(ctx, EvalFilter{})
	if err != nil {
		return nil, err
	}
	byScenario := map[string][]*Evaluation{}
	for _, e := range evals {
		byScenario[e.ScenarioID] = append(byScenario[e.ScenarioID], e)
	}

	out := &ScenarioAnalytics{
		TotalScenarios:   len(byScenario),
		TotalEvaluations: len(evals),
		Threshold:        lowScoreThreshold,
		Scenarios:        []*ScenarioStats{},
	}
	for sid, group := range byScenario {
		personas := map[string]bool{}
		for _, e := range group {
			personas[e.PersonaID] = true
		}
		avg := averageOf(group)
		stats := &ScenarioStats{
			ScenarioID:        sid,
			ScenarioTitle:     group[0].ScenarioTitle,
			EvaluationCount:   len(group),
			PersonasEvaluated: len(personas),
			AverageScores:     avg,
			IsProblematic:     avg.Overall < lowScoreThreshold && len(personas) >= 2,
		}
		if stats.IsProblematic {
			out.ProblematicScenarios++
		}
		out.Scenarios = append(out.Scenarios, stats)
	}
	sort.Slice(out.Scenarios, func(i, j int) bool {
		a, b := out.Scenarios[i], out.Scenarios[j]
		if a.IsProblematic != b.IsProblematic {
			return a.IsProblematic
		}
		return a.AverageScores.Overall < b.AverageScores.Overall
	})
	return out, nil
}

// PersonaStats is one persona's aggregate line in the QA summary.
type PersonaStats struct {
	PersonaID        string        `json:"personaId"`
	PersonaRole      string        `json:"personaRole"`
	PersonaVersion   int           `json:"personaVersion"`
	TotalEvaluations int           `json:"totalEvaluations"`
	AverageScores    AverageScores `json:"averageScores"`
	Flagged          bool          `json:"flagged"`
}

// SummaryReport is the QA dashboard aggregate.
type SummaryReport struct {
	TotalEvaluations     int             `json:"totalEvaluations"`
	ScoredEvaluations    int             `json:"scoredEvaluations"`
	PendingEvaluations   int             `json:"pendingEvaluations"`
	OverallAverages      AverageScores   `json:"overallAverages"`
	Personas             []*PersonaStats `json:"personas"`
	FlaggedPersonas      []*PersonaStats `json:"flaggedPersonas"`
	ProblematicScenarios int             `json:"problematicScenarios"`
	Threshold            float64         `json:"threshold"`
}

// Summary aggregates the whole evaluation corpus for the QA dashboard.
func (s *Service) Summary(ctx context.Context) (*SummaryReport, error) {
	all, err := s.ListEvaluations(ctx, EvalFilter{})
	if err != nil {
		return nil, err
	}
	scored := make([]*Evaluation, 0, len(all))
	for _, e := range all {
		if e.Status == StatusScored && e.Scores != nil {
			scored = append(scored, e)
		}
	}

	report := &SummaryReport{
		TotalEvaluations:   len(all),
		ScoredEvaluations:  len(scored),
		PendingEvaluations: len(all) - len(scored),
		OverallAverages:    averageOf(scored),
		Personas:           []*PersonaStats{},
		FlaggedPersonas:    []*PersonaStats{},
		Threshold:          lowScoreThreshold,
	}

	byPersona := map[string][]*Evaluation{}
	var order []string
	for _, e := range scored {
		if _, seen := byPersona[e.PersonaID]; !seen {
			order = append(order, e.PersonaID)
		}
		byPersona[e.PersonaID] = append(byPersona[e.PersonaID], e)
	}
	for _, pid := range order {
		group := byPersona[pid]
		avg := averageOf(group)
		stats := &PersonaStats{
			PersonaID:        pid,
			PersonaRole:      group[0].PersonaRole,
			PersonaVersion:   group[0].PersonaVersion,
			TotalEvaluations: len(group),
			AverageScores:    avg,
			Flagged:          avg.Overall < lowScoreThreshold,
		}
		report.Personas = append(report.Personas, stats)
		if stats.Flagged {
			report.FlaggedPersonas = append(report.FlaggedPersonas, stats)
		}
	}

	scenarios, err := s.ScenarioAnalytics(ctx)
	if err != nil {
		return nil, err
	}
	report.ProblematicScenarios = scenarios.ProblematicScenarios
	return report, nil
}

func (s *Service) scoredEvaluations(ctx context.Context, f EvalFilter) ([]*Evaluation, error) {
	f.Status = StatusScored
	evals, err := s.ListEvaluations(ctx, f)
	if err != nil {
		return nil, err
	}
	out := evals[:0]
	for _, e := range evals {
		if e.Scores != nil {
			out = append(out, e)
		}
	}
	return out, nil
}
