package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/handoverhq/handover/internal/auth"
	"github.com/handoverhq/handover/internal/coverage"
	"github.com/handoverhq/handover/internal/interview"
	"github.com/handoverhq/handover/internal/jobs"
	"github.com/handoverhq/handover/internal/knowledge"
	"github.com/handoverhq/handover/internal/llm"
	"github.com/handoverhq/handover/internal/persona"
	"github.com/handoverhq/handover/internal/qa"
	"github.com/handoverhq/handover/internal/roles"
	"github.com/handoverhq/handover/internal/snapshot"
	"github.com/handoverhq/handover/internal/store"
	"github.com/handoverhq/handover/internal/topic"
)

type fakeLLM struct {
	reply string
}

func (f *fakeLLM) Complete(_ context.Context, _ string, _ []llm.Message) (string, error) {
	return f.reply, nil
}

type fakeQueue struct {
	jobs []jobs.Job
}

func (f *fakeQueue) Submit(_ context.Context, job jobs.Job) error {
	f.jobs = append(f.jobs, job)
	return nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	st := store.NewMemory()
	catalog := roles.MustLoad()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := &fakeLLM{reply: "Tell me more about your month-end close."}

	topics := topic.NewService(st)
	points := knowledge.NewService(st, client, catalog, topics, logger)
	extractor := snapshot.NewExtractor(st, client, points, logger)
	interviews := interview.NewService(st, client, catalog, coverage.NewKeyword(catalog), &fakeQueue{}, topics, 5, logger)
	personas := persona.NewService(st, client, extractor, logger)
	evaluations := qa.NewService(st, client, catalog, personas, logger)
	experts := auth.NewService(st, "test-secret", time.Hour)

	return NewServer(Services{
		Auth:       experts,
		Interviews: interviews,
		Snapshots:  extractor,
		Knowledge:  points,
		Topics:     topics,
		Personas:   personas,
		QA:         evaluations,
		Catalog:    catalog,
		Store:      st,
	}, logger)
}

func doRequest(t *testing.T, srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	return w
}

func registerExpert(t *testing.T, srv *Server) string {
	t.Helper()
	w := doRequest(t, srv, "POST", "/auth/register", "", map[string]string{
		"username": "margaret",
		"password": "handover1",
		"name":     "Margaret Hollan",
		"role":     "Finance Director",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register returned %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	if body.Token == "" {
		t.Fatal("register returned no token")
	}
	return body.Token
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	w := doRequest(t, srv, "GET", "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %q", body["status"])
	}
}

func TestAuthRequired(t *testing.T) {
	srv := newTestServer(t)

	w := doRequest(t, srv, "GET", "/interviews", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token: expected 401, got %d", w.Code)
	}

	w = doRequest(t, srv, "GET", "/interviews", "not-a-jwt", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad token: expected 401, got %d", w.Code)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	srv := newTestServer(t)
	token := registerExpert(t, srv)

	// Duplicate username, different case.
	w := doRequest(t, srv, "POST", "/auth/register", "", map[string]string{
		"username": "Margaret",
		"password": "handover1",
	})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate register: expected 409, got %d", w.Code)
	}

	w = doRequest(t, srv, "POST", "/auth/login", "", map[string]string{
		"username": "margaret",
		"password": "wrong-password",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad login: expected 400, got %d", w.Code)
	}

	w = doRequest(t, srv, "GET", "/auth/me", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", w.Code)
	}
	var me struct {
		Username string `json:"username"`
		Name     string `json:"name"`
	}
	if err := json.NewDecoder(w.Body).Decode(&me); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if me.Username != "margaret" || me.Name != "Margaret Hollan" {
		t.Errorf("unexpected expert: %+v", me)
	}
	if strings.Contains(w.Body.String(), "passwordHash") {
		t.Error("response leaked the password hash")
	}
}

func TestInterviewFlow(t *testing.T) {
	srv := newTestServer(t)
	token := registerExpert(t, srv)

	w := doRequest(t, srv, "POST", "/interviews/start", token, map[string]string{
		"role":       "Finance Director",
		"expertName": "Margaret",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("start: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var iv struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(w.Body).Decode(&iv); err != nil {
		t.Fatalf("decode interview: %v", err)
	}

	w = doRequest(t, srv, "POST", "/interviews/"+iv.ID+"/message", token, map[string]string{
		"message": "We close the books on working day five.",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("message: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var reply struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(w.Body).Decode(&reply); err != nil {
		t.Fatalf("decode reply: %v", err)
	}
	if reply.Response == "" {
		t.Error("expected a non-empty interviewer response")
	}

	w = doRequest(t, srv, "GET", "/interviews/"+iv.ID, token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", w.Code)
	}
	var got struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode get: %v", err)
	}
	if got.Status != "in-progress" {
		t.Errorf("expected status in-progress, got %q", got.Status)
	}

	w = doRequest(t, srv, "GET", "/interviews?page=1&limit=10", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", w.Code)
	}
	var list struct {
		Interviews []json.RawMessage `json:"interviews"`
		Pagination struct {
			TotalInterviews int `json:"totalInterviews"`
		} `json:"pagination"`
	}
	if err := json.NewDecoder(w.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Interviews) != 1 || list.Pagination.TotalInterviews != 1 {
		t.Errorf("expected one paginated interview, got %d (total %d)", len(list.Interviews), list.Pagination.TotalInterviews)
	}
}

func TestErrorMapping(t *testing.T) {
	srv := newTestServer(t)
	token := registerExpert(t, srv)

	w := doRequest(t, srv, "GET", "/interviews/nope", token, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing interview: expected 404, got %d", w.Code)
	}

	w = doRequest(t, srv, "POST", "/interviews/start", token, map[string]string{
		"role": "Underwater Basket Weaver",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad role: expected 400, got %d", w.Code)
	}
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body.Error == "" {
		t.Error("expected an error message in the body")
	}
}

func TestTopicRoutes(t *testing.T) {
	srv := newTestServer(t)
	token := registerExpert(t, srv)

	w := doRequest(t, srv, "POST", "/topics", token, map[string]string{
		"name":      "Quarterly VAT return",
		"frequency": "quarterly",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create topic: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(w.Body).Decode(&created); err != nil {
		t.Fatalf("decode topic: %v", err)
	}

	w = doRequest(t, srv, "GET", "/topics", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list topics: expected 200, got %d", w.Code)
	}
	var list struct {
		Topics []struct {
			ID string `json:"id"`
		} `json:"topics"`
	}
	if err := json.NewDecoder(w.Body).Decode(&list); err != nil {
		t.Fatalf("decode topics: %v", err)
	}
	if len(list.Topics) != 1 || list.Topics[0].ID != created.ID {
		t.Errorf("expected the created topic back, got %+v", list.Topics)
	}

	w = doRequest(t, srv, "DELETE", "/topics/"+created.ID, token, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("delete topic: expected 204, got %d", w.Code)
	}
}

func TestBuildPersonaFromBody(t *testing.T) {
	srv := newTestServer(t)
	token := registerExpert(t, srv)

	w := doRequest(t, srv, "POST", "/interviews/start", token, map[string]string{
		"role": "Finance Director",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("start: expected 200, got %d", w.Code)
	}
	var iv struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(w.Body).Decode(&iv); err != nil {
		t.Fatalf("decode interview: %v", err)
	}

	w = doRequest(t, srv, "POST", "/personas/build", token, map[string]string{
		"interviewId": iv.ID,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("build: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var p struct {
		ID   string `json:"id"`
		Role string `json:"role"`
	}
	if err := json.NewDecoder(w.Body).Decode(&p); err != nil {
		t.Fatalf("decode persona: %v", err)
	}
	if p.ID == "" || p.Role != "Finance Director" {
		t.Errorf("unexpected persona %+v", p)
	}

	w = doRequest(t, srv, "POST", "/personas/build", token, map[string]string{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing interviewId: expected 400, got %d", w.Code)
	}
}

func TestDashboardTranscriptsReady(t *testing.T) {
	srv := newTestServer(t)
	token := registerExpert(t, srv)

	for _, id := range []string{"iv1", "iv2"} {
		iv := &interview.Interview{ID: id, Role: "Finance Director", Phase: "warm-up", CreatedAt: time.Now().UTC()}
		if err := srv.svc.Store.Put(context.Background(), interview.Key(id), iv); err != nil {
			t.Fatal(err)
		}
	}
	// Two snapshots for one interview, none for the other: only one
	// interview has a transcript ready.
	for _, key := range []string{"snapshots/iv1/s1", "snapshots/iv1/s2"} {
		if err := srv.svc.Store.Put(context.Background(), key, map[string]any{"id": key}); err != nil {
			t.Fatal(err)
		}
	}

	w := doRequest(t, srv, "GET", "/dashboard/stats", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stats: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var stats struct {
		TranscriptsReady int `json:"transcriptsReady"`
		Interviews       struct {
			Total int `json:"total"`
		} `json:"interviews"`
	}
	if err := json.NewDecoder(w.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Interviews.Total != 2 {
		t.Errorf("interview total = %d, want 2", stats.Interviews.Total)
	}
	if stats.TranscriptsReady != 1 {
		t.Errorf("transcriptsReady = %d, want 1", stats.TranscriptsReady)
	}
}

func TestExportHeaders(t *testing.T) {
	srv := newTestServer(t)
	token := registerExpert(t, srv)

	w := doRequest(t, srv, "GET", "/qa/analytics/export?format=xlsx", token, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("xlsx: expected 400, got %d", w.Code)
	}

	w = doRequest(t, srv, "GET", "/qa/analytics/export", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("csv: expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("expected text/csv, got %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "qa-evaluations.csv") {
		t.Errorf("unexpected disposition %q", cd)
	}
	if !strings.HasPrefix(w.Body.String(), `"Evaluation ID"`) {
		t.Errorf("unexpected CSV header: %q", w.Body.String()[:40])
	}
}
