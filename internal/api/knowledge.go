package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/handoverhq/handover/internal/knowledge"
	"github.com/handoverhq/handover/internal/topic"
)

func (s *Server) knowledgePoints(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.Knowledge.PointsByTopic(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) createKnowledgePoint(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TopicID string `json:"topicId"`
		Area    string `json:"area"`
		Content string `json:"content"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	p, err := s.svc.Knowledge.CreatePoint(r.Context(), chi.URLParam(r, "id"), knowledge.CreatePointInput{
		TopicID: req.TopicID,
		Area:    req.Area,
		Content: req.Content,
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) updateKnowledgePoint(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content *string `json:"content"`
		Area    *string `json:"area"`
		Status  *string `json:"status"`
		TopicID *string `json:"topicId"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	p, err := s.svc.Knowledge.UpdatePoint(r.Context(), chi.URLParam(r, "interviewID"), chi.URLParam(r, "pointID"), knowledge.UpdatePointInput{
		Content: req.Content,
		Area:    req.Area,
		Status:  req.Status,
		TopicID: req.TopicID,
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) deleteKnowledgePoint(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Knowledge.DeletePoint(r.Context(), chi.URLParam(r, "interviewID"), chi.URLParam(r, "pointID")); err != nil {
		writeError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) generateWorkflow(w http.ResponseWriter, r *http.Request) {
	wf, err := s.svc.Knowledge.GenerateWorkflow(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "topicID"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, wf)
}

func (s *Server) listWorkflows(w http.ResponseWriter, r *http.Request) {
	wfs, err := s.svc.Knowledge.ListWorkflows(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"workflows": wfs})
}

func (s *Server) getWorkflow(w http.ResponseWriter, r *http.Request) {
	wf, err := s.svc.Knowledge.GetWorkflow(r.Context(), chi.URLParam(r, "interviewID"), chi.URLParam(r, "workflowID"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, wf)
}

func (s *Server) updateWorkflow(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MermaidCode *string `json:"mermaidCode"`
		Status      *string `json:"status"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	wf, err := s.svc.Knowledge.UpdateWorkflow(r.Context(), chi.URLParam(r, "interviewID"), chi.URLParam(r, "workflowID"), knowledge.UpdateWorkflowInput{
		MermaidCode: req.MermaidCode,
		Status:      req.Status,
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, wf)
}

func (s *Server) deleteWorkflow(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Knowledge.DeleteWorkflow(r.Context(), chi.URLParam(r, "interviewID"), chi.URLParam(r, "workflowID")); err != nil {
		writeError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listTopics(w http.ResponseWriter, r *http.Request) {
	topics, err := s.svc.Topics.List(r.Context(), r.URL.Query().Get("status"), r.URL.Query().Get("frequency"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"topics": topics})
}

func (s *Server) createTopic(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Frequency   string `json:"frequency"`
		Category    string `json:"category"`
		Order       *int   `json:"order"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	t, err := s.svc.Topics.Create(r.Context(), topic.CreateInput{
		Name:        req.Name,
		Description: req.Description,
		Frequency:   req.Frequency,
		Category:    req.Category,
		Order:       req.Order,
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) getTopic(w http.ResponseWriter, r *http.Request) {
	t, err := s.svc.Topics.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) updateTopic(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		Frequency   *string `json:"frequency"`
		Category    *string `json:"category"`
		Order       *int    `json:"order"`
		Status      *string `json:"status"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	t, err := s.svc.Topics.Update(r.Context(), chi.URLParam(r, "id"), topic.UpdateInput{
		Name:        req.Name,
		Description: req.Description,
		Frequency:   req.Frequency,
		Category:    req.Category,
		Order:       req.Order,
		Status:      req.Status,
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) deleteTopic(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Topics.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) reorderTopics(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TopicIDs []string `json:"topicIds"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	topics, err := s.svc.Topics.Reorder(r.Context(), req.TopicIDs)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"topics": topics})
}

func (s *Server) synthesizeTopic(w http.ResponseWriter, r *http.Request) {
	entry, err := s.svc.Knowledge.Synthesize(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := s.svc.Knowledge.ListEntries(r.Context(), r.URL.Query().Get("status"), r.URL.Query().Get("topicId"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (s *Server) getEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := s.svc.Knowledge.GetEntry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) updateEntry(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status   *string `json:"status"`
		Sections *struct {
			Overview        *string  `json:"overview"`
			Frequency       *string  `json:"frequency"`
			KeyTasks        []string `json:"keyTasks"`
			KeyDates        []string `json:"keyDates"`
			Contacts        []string `json:"contacts"`
			SystemsAndTools []string `json:"systemsAndTools"`
			WatchOutFor     []string `json:"watchOutFor"`
			ProTips         []string `json:"proTips"`
		} `json:"sections"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	in := knowledge.UpdateEntryInput{Status: req.Status}
	if req.Sections != nil {
		in.Sections = &knowledge.SectionsPatch{
			Overview:        req.Sections.Overview,
			Frequency:       req.Sections.Frequency,
			KeyTasks:        req.Sections.KeyTasks,
			KeyDates:        req.Sections.KeyDates,
			Contacts:        req.Sections.Contacts,
			SystemsAndTools: req.Sections.SystemsAndTools,
			WatchOutFor:     req.Sections.WatchOutFor,
			ProTips:         req.Sections.ProTips,
		}
	}
	entry, err := s.svc.Knowledge.UpdateEntry(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) deleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Knowledge.DeleteEntry(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
