package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/handoverhq/handover/internal/apperr"
	"github.com/handoverhq/handover/internal/interview"
	"github.com/handoverhq/handover/internal/persona"
	"github.com/handoverhq/handover/internal/topic"
)

func (s *Server) dashboardStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	interviews, err := s.svc.Interviews.List(ctx, interview.ListFilter{})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	ivStats := map[string]int{"total": len(interviews)}
	transcriptsReady := 0
	for _, iv := range interviews {
		ivStats[iv.Status()]++
		// Snapshots live under snapshots/{interviewID}/{id}, so the count
		// has to walk per interview.
		snaps, err := s.svc.Store.List(ctx, "snapshots/"+iv.ID)
		if err != nil {
			writeError(w, s.logger, err)
			return
		}
		if len(snaps) > 0 {
			transcriptsReady++
		}
	}

	personas, err := s.svc.Personas.List(ctx, persona.ListFilter{})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	pStats := map[string]int{"total": len(personas)}
	favorites := 0
	for _, p := range personas {
		pStats[p.Status]++
		if p.IsFavorite {
			favorites++
		}
	}

	topics, err := s.svc.Topics.List(ctx, "", "")
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	tStats := map[string]int{"total": len(topics)}
	for _, t := range topics {
		tStats[t.Status]++
	}

	experts, err := s.svc.Auth.Count(ctx)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"interviews":       ivStats,
		"personas":         pStats,
		"favoritePersonas": favorites,
		"topics":           tStats,
		"transcriptsReady": transcriptsReady,
		"totalExperts":     experts,
		"generatedAt":      time.Now().UTC(),
	})
}

func (s *Server) adminDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	interviews, err := s.svc.Interviews.List(ctx, interview.ListFilter{})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	type interviewLine struct {
		ID           string `json:"id"`
		Role         string `json:"role"`
		ExpertName   string `json:"expertName,omitempty"`
		Status       string `json:"status"`
		Phase        string `json:"phase"`
		MessageCount int    `json:"messageCount"`
	}
	recent := make([]interviewLine, 0, len(interviews))
	for i, iv := range interviews {
		if i >= 10 {
			break
		}
		recent = append(recent, interviewLine{
			ID:           iv.ID,
			Role:         iv.Role,
			ExpertName:   iv.ExpertName,
			Status:       iv.Status(),
			Phase:        iv.Phase,
			MessageCount: len(iv.Messages),
		})
	}

	entries, err := s.svc.Knowledge.ListEntries(ctx, "", "")
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	topics, err := s.svc.Topics.List(ctx, "", "")
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	completedTopics := 0
	for _, t := range topics {
		if t.Status == topic.StatusComplete {
			completedTopics++
		}
	}
	logs, err := s.svc.Personas.ListAdvisorLogs(ctx, persona.LogFilter{})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	summary, err := s.svc.QA.Summary(ctx)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"recentInterviews": recent,
		"knowledgeEntries": len(entries),
		"topics":           map[string]int{"total": len(topics), "completed": completedTopics},
		"advisorQuestions": len(logs),
		"qa":               summary,
		"generatedAt":      time.Now().UTC(),
	})
}

func (s *Server) listAdvisorLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := persona.LogFilter{
		PersonaID: q.Get("personaId"),
		UserID:    q.Get("userId"),
	}
	if v := q.Get("fromDate"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeError(w, s.logger, apperr.Validation("fromDate %q is not a valid YYYY-MM-DD date", v))
			return
		}
		filter.FromDate = &t
	}
	if v := q.Get("toDate"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeError(w, s.logger, apperr.Validation("toDate %q is not a valid YYYY-MM-DD date", v))
			return
		}
		end := t.Add(24*time.Hour - time.Nanosecond)
		filter.ToDate = &end
	}

	logs, err := s.svc.Personas.ListAdvisorLogs(r.Context(), filter)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	p, ok := paginationParams(r, 20)
	if !ok {
		p = pagination{Page: 1, Limit: 20}
	}
	page, totalPages := paginate(logs, p)
	writeJSON(w, http.StatusOK, map[string]any{
		"logs": page,
		"pagination": map[string]any{
			"currentPage": p.Page,
			"totalPages":  totalPages,
			"totalLogs":   len(logs),
			"limit":       p.Limit,
		},
	})
}

func (s *Server) getAdvisorLog(w http.ResponseWriter, r *http.Request) {
	log, err := s.svc.Personas.GetAdvisorLog(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, log)
}
