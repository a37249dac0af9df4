package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/handoverhq/handover/internal/apperr"
	"github.com/handoverhq/handover/internal/persona"
)

func (s *Server) listPersonas(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := persona.ListFilter{
		Status:          q.Get("status"),
		Role:            q.Get("role"),
		Industry:        q.Get("industry"),
		LatestValidated: q.Get("latestValidated") == "true",
	}
	if v := q.Get("isFavorite"); v != "" {
		fav := v == "true"
		filter.IsFavorite = &fav
	}
	summaries, err := s.svc.Personas.List(r.Context(), filter)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	if p, ok := paginationParams(r, 20); ok {
		page, totalPages := paginate(summaries, p)
		writeJSON(w, http.StatusOK, map[string]any{
			"personas": page,
			"pagination": map[string]any{
				"currentPage":   p.Page,
				"totalPages":    totalPages,
				"totalPersonas": len(summaries),
				"limit":         p.Limit,
			},
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"personas": summaries})
}

// buildPersona takes the interview id from the path or, on the bare /build
// form, from the request body.
func (s *Server) buildPersona(w http.ResponseWriter, r *http.Request) {
	interviewID := chi.URLParam(r, "interviewID")
	if interviewID == "" {
		var req struct {
			InterviewID string `json:"interviewId"`
		}
		if err := decode(r, &req); err != nil {
			writeError(w, s.logger, err)
			return
		}
		interviewID = req.InterviewID
	}
	if interviewID == "" {
		writeError(w, s.logger, apperr.Validation("interviewId is required"))
		return
	}
	p, err := s.svc.Personas.Build(r.Context(), interviewID)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) getPersona(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Personas.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) updatePersona(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name       *string             `json:"name"`
		Bio        *string             `json:"bio"`
		Industry   *string             `json:"industry"`
		PromptText *string             `json:"promptText"`
		Status     *string             `json:"status"`
		IsFavorite *bool               `json:"isFavorite"`
		Expertise  []persona.Expertise `json:"expertise"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	p, err := s.svc.Personas.Update(r.Context(), chi.URLParam(r, "id"), persona.UpdateInput{
		Name:       req.Name,
		Bio:        req.Bio,
		Industry:   req.Industry,
		PromptText: req.PromptText,
		Status:     req.Status,
		IsFavorite: req.IsFavorite,
		Expertise:  req.Expertise,
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) deletePersona(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Personas.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) bulkDeletePersonas(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	res, err := s.svc.Personas.BulkDelete(r.Context(), req.IDs)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) viewPersona(w http.ResponseWriter, r *http.Request) {
	viewedAt, err := s.svc.Personas.View(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"viewedAt": viewedAt})
}

func (s *Server) advisePersona(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	expert := expertFrom(r.Context())
	res, err := s.svc.Personas.Advise(r.Context(), chi.URLParam(r, "id"), expert.ID, req.Question)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) personaFeedback(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ValidatedBy string `json:"validatedBy"`
		Feedback    string `json:"feedback"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	res, err := s.svc.Personas.Validate(r.Context(), chi.URLParam(r, "id"), req.ValidatedBy, req.Feedback)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
