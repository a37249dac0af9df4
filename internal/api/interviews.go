package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/handoverhq/handover/internal/interview"
)

type startInterviewRequest struct {
	Role        string               `json:"role"`
	ExpertName  string               `json:"expertName"`
	Industry    string               `json:"industry"`
	Description string               `json:"description"`
	ExpertID    string               `json:"expertId"`
	TopicID     string               `json:"topicId"`
	Questions   []interview.Question `json:"questions"`
}

func (s *Server) startInterview(w http.ResponseWriter, r *http.Request) {
	var req startInterviewRequest
	if err := decode(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	iv, err := s.svc.Interviews.Start(r.Context(), interview.StartInput{
		Role:        req.Role,
		ExpertName:  req.ExpertName,
		Industry:    req.Industry,
		Description: req.Description,
		ExpertID:    req.ExpertID,
		TopicID:     req.TopicID,
		Questions:   req.Questions,
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, iv)
}

// interviewView adds the derived status to the stored document.
type interviewView struct {
	*interview.Interview
	Status string `json:"status"`
}

func viewOf(iv *interview.Interview) interviewView {
	return interviewView{Interview: iv, Status: iv.Status()}
}

func (s *Server) listInterviews(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ivs, err := s.svc.Interviews.List(r.Context(), interview.ListFilter{
		Status:   q.Get("status"),
		ExpertID: q.Get("expertId"),
		TopicID:  q.Get("topicId"),
		Role:     q.Get("role"),
		SortBy:   q.Get("sortBy"),
		Order:    q.Get("order"),
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	views := make([]interviewView, len(ivs))
	for i, iv := range ivs {
		views[i] = viewOf(iv)
	}

	if p, ok := paginationParams(r, 20); ok {
		page, totalPages := paginate(views, p)
		writeJSON(w, http.StatusOK, map[string]any{
			"interviews": page,
			"pagination": map[string]int{
				"currentPage":     p.Page,
				"totalPages":      totalPages,
				"totalInterviews": len(views),
				"limit":           p.Limit,
			},
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"interviews": views})
}

func (s *Server) getInterview(w http.ResponseWriter, r *http.Request) {
	iv, err := s.svc.Interviews.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(iv))
}

type updateInterviewRequest struct {
	ExpertName         *string              `json:"expertName"`
	Industry           *string              `json:"industry"`
	Phase              *string              `json:"phase"`
	ExpertID           *string              `json:"expertId"`
	TopicID            *string              `json:"topicId"`
	Questions          []interview.Question `json:"questions"`
	QuestionsCompleted []string             `json:"questionsCompleted"`
}

func (s *Server) updateInterview(w http.ResponseWriter, r *http.Request) {
	var req updateInterviewRequest
	if err := decode(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	iv, err := s.svc.Interviews.Update(r.Context(), chi.URLParam(r, "id"), interview.UpdateInput{
		ExpertName:         req.ExpertName,
		Industry:           req.Industry,
		Phase:              req.Phase,
		ExpertID:           req.ExpertID,
		TopicID:            req.TopicID,
		Questions:          req.Questions,
		QuestionsCompleted: req.QuestionsCompleted,
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(iv))
}

func (s *Server) deleteInterview(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Interviews.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	res, err := s.svc.Interviews.PostMessage(r.Context(), chi.URLParam(r, "id"), req.Message)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) completeInterview(w http.ResponseWriter, r *http.Request) {
	iv, err := s.svc.Interviews.Complete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(iv))
}

func (s *Server) interviewCoverage(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.Interviews.Coverage(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) interviewTranscript(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Interviews.Transcript(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) interviewSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.svc.Interviews.Summarize(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) listSnapshots(w http.ResponseWriter, r *http.Request) {
	snaps, err := s.svc.Snapshots.List(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"snapshots": snaps})
}

// createSnapshot runs the extractor synchronously; the scheduled path goes
// through the job queue instead.
func (s *Server) createSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.Snapshots.Create(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	if snap == nil {
		writeJSON(w, http.StatusOK, map[string]any{"snapshot": nil, "message": "nothing to snapshot"})
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) topicProgress(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.Interviews.TopicProgress(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) initializeTopics(w http.ResponseWriter, r *http.Request) {
	iv, err := s.svc.Interviews.InitializeTopics(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(iv))
}

func (s *Server) selectTopic(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Interviews.SelectTopic(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "topicID"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) completeTopic(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Interviews.CompleteTopic(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "topicID"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) validateTopic(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ValidationStatus string `json:"validationStatus"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	tp, err := s.svc.Interviews.ValidateTopic(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "topicID"), req.ValidationStatus)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tp)
}
