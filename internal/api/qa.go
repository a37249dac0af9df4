package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/handoverhq/handover/internal/qa"
)

func (s *Server) listScenarios(w http.ResponseWriter, r *http.Request) {
	scenarios, err := s.svc.QA.ListScenarios(r.Context(), chi.URLParam(r, "role"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"scenarios": scenarios})
}

func (s *Server) runScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PersonaID  string `json:"personaId"`
		ScenarioID string `json:"scenarioId"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	res, err := s.svc.QA.Run(r.Context(), req.PersonaID, req.ScenarioID)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) scoreEvaluation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EvaluationID string `json:"evaluationId"`
		Scores       struct {
			Accuracy      *int `json:"accuracy"`
			Tone          *int `json:"tone"`
			Actionability *int `json:"actionability"`
			RiskAwareness *int `json:"riskAwareness"`
		} `json:"scores"`
		Comments    string `json:"comments"`
		EvaluatedBy string `json:"evaluatedBy"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	res, err := s.svc.QA.Score(r.Context(), req.EvaluationID, qa.ScoreInput{
		Accuracy:      req.Scores.Accuracy,
		Tone:          req.Scores.Tone,
		Actionability: req.Scores.Actionability,
		RiskAwareness: req.Scores.RiskAwareness,
		Comments:      req.Comments,
		EvaluatedBy:   req.EvaluatedBy,
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) listEvaluations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	evals, err := s.svc.QA.ListEvaluations(r.Context(), qa.EvalFilter{
		PersonaID:  q.Get("personaId"),
		ScenarioID: q.Get("scenarioId"),
		Status:     q.Get("status"),
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"evaluations": evals})
}

func (s *Server) getEvaluation(w http.ResponseWriter, r *http.Request) {
	ev, err := s.svc.QA.GetEvaluation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) personaAnalytics(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.QA.PersonaAnalytics(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) scenarioAnalytics(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.QA.ScenarioAnalytics(r.Context())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) qaSummary(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.QA.Summary(r.Context())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) exportEvaluations(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	data, err := s.svc.QA.ExportCSV(r.Context(), format)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="qa-evaluations.csv"`)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(data))
}
