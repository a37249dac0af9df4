package api

import (
	"net/http"

	"github.com/handoverhq/handover/internal/auth"
)

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Name     string `json:"name"`
		Role     string `json:"role"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	expert, err := s.svc.Auth.Register(r.Context(), req.Username, req.Password, req.Name, req.Role)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	token, _, err := s.svc.Auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"token":  token,
		"expert": expert.Public(),
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	token, expert, err := s.svc.Auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token":  token,
		"expert": expert.Public(),
	})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	expert := expertFrom(r.Context())
	writeJSON(w, http.StatusOK, expert.Public())
}

func (s *Server) updateMe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name *string `json:"name"`
		Role *string `json:"role"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	expert := expertFrom(r.Context())
	updated, err := s.svc.Auth.Update(r.Context(), expert.ID, auth.UpdateInput{
		Name: req.Name,
		Role: req.Role,
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, updated.Public())
}
