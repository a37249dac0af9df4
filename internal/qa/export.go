package qa

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/handoverhq/handover/internal/apperr"
)

var csvHeaders = []string{
	"Evaluation ID", "Persona ID", "Persona Role", "Persona Version",
	"Scenario ID", "Scenario Title", "Accuracy", "Tone", "Actionability",
	"Risk Awareness", "Average", "Comments", "Evaluated At",
}

// ExportCSV renders every scored evaluation as CSV. Every cell is quoted and
// embedded quotes are doubled, so spreadsheet imports never split on commas
// inside comments.
func (s *Service) ExportCSV(ctx context.Context, format string) (string, error) {
	if format != "csv" {
		return "", apperr.Validation("unsupported format %q, only csv is available", format)
	}
	evals, err := s.scoredEvaluations(ctx, EvalFilter{})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	writeRow(&b, csvHeaders)
	for _, e := range evals {
		evaluatedAt := ""
		if e.EvaluatedAt != nil {
			evaluatedAt = e.EvaluatedAt.Format(time.RFC3339)
		}
		writeRow(&b, []string{
			e.ID,
			e.PersonaID,
			e.PersonaRole,
			strconv.Itoa(e.PersonaVersion),
			e.ScenarioID,
			e.ScenarioTitle,
			strconv.Itoa(e.Scores.Accuracy),
			strconv.Itoa(e.Scores.Tone),
			strconv.Itoa(e.Scores.Actionability),
			strconv.Itoa(e.Scores.RiskAwareness),
			strconv.FormatFloat(e.Scores.Average, 'f', -1, 64),
			e.Comments,
			evaluatedAt,
		})
	}
	return b.String(), nil
}

func writeRow(b *strings.Builder, cells []string) {
	for i, cell := range cells {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(cell, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteByte('\n')
}
