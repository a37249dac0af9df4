// Package api is the HTTP surface: route wiring, request decoding, auth
// middleware and the error-to-status mapping. Handlers stay thin; all
// behavior lives in the services.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/handoverhq/handover/internal/apperr"
	"github.com/handoverhq/handover/internal/auth"
	"github.com/handoverhq/handover/internal/interview"
	"github.com/handoverhq/handover/internal/knowledge"
	"github.com/handoverhq/handover/internal/persona"
	"github.com/handoverhq/handover/internal/qa"
	"github.com/handoverhq/handover/internal/roles"
	"github.com/handoverhq/handover/internal/snapshot"
	"github.com/handoverhq/handover/internal/store"
	"github.com/handoverhq/handover/internal/topic"
)

// Services bundles everything the handlers call.
type Services struct {
	Auth       *auth.Service
	Interviews *interview.Service
	Snapshots  *snapshot.Extractor
	Knowledge  *knowledge.Service
	Topics     *topic.Service
	Personas   *persona.Service
	QA         *qa.Service
	Catalog    *roles.Catalog
	Store      store.Store
}

type Server struct {
	router *chi.Mux
	svc    Services
	logger *slog.Logger
}

func NewServer(svc Services, logger *slog.Logger) *Server {
	s := &Server{router: chi.NewRouter(), svc: svc, logger: logger}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/health", s.health)
	s.router.Post("/auth/register", s.register)
	s.router.Post("/auth/login", s.login)

	s.router.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Get("/auth/me", s.me)
		r.Put("/auth/me", s.updateMe)

		r.Get("/dashboard/stats", s.dashboardStats)
		r.Get("/roles", s.listRoles)
		r.Get("/roles/{role}/checklist", s.roleChecklist)

		r.Route("/interviews", func(r chi.Router) {
			r.Get("/", s.listInterviews)
			r.Post("/start", s.startInterview)
			r.Get("/{id}", s.getInterview)
			r.Put("/{id}", s.updateInterview)
			r.Delete("/{id}", s.deleteInterview)
			r.Post("/{id}/message", s.postMessage)
			r.Post("/{id}/complete", s.completeInterview)
			r.Get("/{id}/coverage", s.interviewCoverage)
			r.Get("/{id}/transcript", s.interviewTranscript)
			r.Get("/{id}/summary", s.interviewSummary)
			r.Get("/{id}/snapshots", s.listSnapshots)
			r.Post("/{id}/note-snapshot", s.createSnapshot)
			r.Get("/{id}/topic-progress", s.topicProgress)
			r.Post("/{id}/topics/initialize", s.initializeTopics)
			r.Post("/{id}/topic/{topicID}/select", s.selectTopic)
			r.Post("/{id}/topic/{topicID}/complete", s.completeTopic)
			r.Post("/{id}/topics/{topicID}/validate", s.validateTopic)
			r.Post("/{id}/topics/{topicID}/workflow", s.generateWorkflow)
			r.Get("/{id}/knowledge-points", s.knowledgePoints)
			r.Post("/{id}/knowledge-points", s.createKnowledgePoint)
			r.Get("/{id}/workflows", s.listWorkflows)
		})

		r.Put("/knowledge-points/{interviewID}/{pointID}", s.updateKnowledgePoint)
		r.Delete("/knowledge-points/{interviewID}/{pointID}", s.deleteKnowledgePoint)

		r.Get("/workflows/{interviewID}/{workflowID}", s.getWorkflow)
		r.Put("/workflows/{interviewID}/{workflowID}", s.updateWorkflow)
		r.Delete("/workflows/{interviewID}/{workflowID}", s.deleteWorkflow)

		r.Route("/topics", func(r chi.Router) {
			r.Get("/", s.listTopics)
			r.Post("/", s.createTopic)
			r.Put("/reorder", s.reorderTopics)
			r.Get("/{id}", s.getTopic)
			r.Put("/{id}", s.updateTopic)
			r.Delete("/{id}", s.deleteTopic)
			r.Post("/{id}/synthesize", s.synthesizeTopic)
		})

		r.Route("/knowledge-entries", func(r chi.Router) {
			r.Get("/", s.listEntries)
			r.Get("/{id}", s.getEntry)
			r.Put("/{id}", s.updateEntry)
			r.Delete("/{id}", s.deleteEntry)
		})

		r.Route("/personas", func(r chi.Router) {
			r.Get("/", s.listPersonas)
			r.Post("/build", s.buildPersona)
			r.Post("/build/{interviewID}", s.buildPersona)
			r.Post("/bulk-delete", s.bulkDeletePersonas)
			r.Get("/{id}", s.getPersona)
			r.Put("/{id}", s.updatePersona)
			r.Delete("/{id}", s.deletePersona)
			r.Post("/{id}/view", s.viewPersona)
			r.Post("/{id}/advise", s.advisePersona)
			r.Post("/{id}/feedback", s.personaFeedback)
		})

		r.Route("/qa", func(r chi.Router) {
			r.Get("/scenarios/{role}", s.listScenarios)
			r.Post("/run", s.runScenario)
			r.Post("/evaluate", s.scoreEvaluation)
			r.Get("/evaluations", s.listEvaluations)
			r.Get("/evaluations/{id}", s.getEvaluation)
			r.Get("/analytics/personas/{id}", s.personaAnalytics)
			r.Get("/analytics/scenarios", s.scenarioAnalytics)
			r.Get("/analytics/summary", s.qaSummary)
			r.Get("/analytics/export", s.exportEvaluations)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Get("/dashboard", s.adminDashboard)
			r.Get("/advisor-logs", s.listAdvisorLogs)
			r.Get("/advisor-logs/{id}", s.getAdvisorLog)
		})
	})

	return s
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type contextKey string

const expertKey contextKey = "expert"

// requireAuth rejects requests without a valid bearer token and stashes the
// account on the context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "missing bearer token"})
			return
		}
		expert, err := s.svc.Auth.Verify(r.Context(), token)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid or expired token"})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), expertKey, expert)))
	})
}

func expertFrom(ctx context.Context) *auth.Expert {
	expert, _ := ctx.Value(expertKey).(*auth.Expert)
	return expert
}

func (s *Server) listRoles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"roles": s.svc.Catalog.Roles})
}

func (s *Server) roleChecklist(w http.ResponseWriter, r *http.Request) {
	role, ok := s.svc.Catalog.Role(chi.URLParam(r, "role"))
	if !ok {
		writeError(w, s.logger, apperr.NotFound("role %q not found", chi.URLParam(r, "role")))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"role":        role.Name,
		"description": role.ChecklistDescription,
		"topics":      role.Topics,
	})
}
