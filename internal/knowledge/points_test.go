package knowledge

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/handoverhq/handover/internal/apperr"
	"github.com/handoverhq/handover/internal/interview"
	"github.com/handoverhq/handover/internal/llm"
	"github.com/handoverhq/handover/internal/roles"
	"github.com/handoverhq/handover/internal/store"
	"github.com/handoverhq/handover/internal/topic"
)

type fakeLLM struct {
	reply string
	err   error
}

func (f *fakeLLM) Complete(context.Context, string, []llm.Message) (string, error) {
	return f.reply, f.err
}

func newTestService(t *testing.T) (*Service, store.Store, *fakeLLM) {
	t.Helper()
	st := store.NewMemory()
	client := &fakeLLM{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(st, client, roles.MustLoad(), topic.NewService(st), logger)
	return svc, st, client
}

func seedInterview(t *testing.T, st store.Store, iv *interview.Interview) {
	t.Helper()
	if iv.ID == "" {
		iv.ID = "iv1"
	}
	if iv.Phase == "" {
		iv.Phase = interview.PhaseWarmUp
	}
	iv.CreatedAt = time.Now().UTC()
	if err := st.Put(context.Background(), interview.Key(iv.ID), iv); err != nil {
		t.Fatal(err)
	}
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		content string
		want    string
	}{
		{"A common mistake is posting to the wrong period", "pitfalls"},
		{"Always reconcile before close, a real mistake not to", "pitfalls"},
		{"Best practice is to batch invoice runs", "tips"},
		{"Contact the treasury team for limits", "contacts"},
		{"The ledger system holds the templates", "systems"},
		{"The statutory deadline is 31 May", "dates"},
		{"The first step of the journal posting", "tasks"},
		{"The purpose of the reserves policy", "overview"},
		{"Reconciliations happen quietly", "tips"},
	}
	for _, tt := range tests {
		if got := Categorize(tt.content); got != tt.want {
			t.Errorf("Categorize(%q) = %q, want %q", tt.content, got, tt.want)
		}
	}
}

func TestIsDuplicate(t *testing.T) {
	existing := []string{"always reconcile the control account before close"}
	tests := []struct {
		content string
		want    bool
	}{
		{"Always reconcile the control account before close", true},
		{"reconcile the control account", true}, // contained in existing
		{"Always reconcile the control account before close every month", true},
		{"Escalate supplier disputes to the category manager", false},
	}
	for _, tt := range tests {
		if got := isDuplicate(tt.content, existing); got != tt.want {
			t.Errorf("isDuplicate(%q) = %v, want %v", tt.content, got, tt.want)
		}
	}
}

func TestSimilarity(t *testing.T) {
	if got := similarity("abc", "abc"); got != 1 {
		t.Errorf("equal strings = %v, want 1", got)
	}
	if got := similarity("ab", "abcdefghij"); got != 0 {
		t.Errorf("very different lengths = %v, want 0", got)
	}
	if got := similarity("abcdefgh", "abcdefghij"); got != 0.8 {
		t.Errorf("containment = %v, want 0.8", got)
	}
}

func TestAddFromSnapshot(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	iv := &interview.Interview{ID: "iv1", Role: "Finance Director", CurrentTopicID: "budget-setting"}
	seedInterview(t, st, iv)

	created, err := svc.AddFromSnapshot(ctx, iv, []string{
		"Always run the suspense account report before the close meeting",
		"short", // below the length floor
	}, []string{
		"13-week cash flow model",
		"x", // below the length floor
	})
	if err != nil {
		t.Fatalf("AddFromSnapshot: %v", err)
	}
	if created != 2 {
		t.Fatalf("created = %d, want 2", created)
	}
	points, _ := svc.ListPoints(ctx, "iv1")
	byContent := map[string]*Point{}
	for _, p := range points {
		byContent[p.Content] = p
	}
	fw := byContent["Framework: 13-week cash flow model"]
	if fw == nil {
		t.Fatal("framework point missing")
	}
	if fw.Area != "tasks" || fw.Source != "snapshot" || fw.TopicID != "budget-setting" {
		t.Errorf("framework point = %+v", fw)
	}

	// Feeding the same insights again should create nothing.
	again, err := svc.AddFromSnapshot(ctx, iv, []string{"Always run the suspense account report before the close meeting"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if again != 0 {
		t.Errorf("duplicate pass created %d points", again)
	}
}

func TestCreatePointValidation(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	seedInterview(t, st, &interview.Interview{ID: "iv1", Role: "Finance Director"})

	if _, err := svc.CreatePoint(ctx, "iv1", CreatePointInput{Content: "  "}); err == nil {
		t.Error("empty content accepted")
	}
	if _, err := svc.CreatePoint(ctx, "iv1", CreatePointInput{Content: "x", Area: "gossip"}); err == nil {
		t.Error("invalid area accepted")
	}
	var ae *apperr.Error
	_, err := svc.CreatePoint(ctx, "missing", CreatePointInput{Content: "x"})
	if !errors.As(err, &ae) || ae.Kind != apperr.KindNotFound {
		t.Errorf("missing interview err = %v, want not found", err)
	}

	p, err := svc.CreatePoint(ctx, "iv1", CreatePointInput{Content: "Escalate disputes early"})
	if err != nil {
		t.Fatalf("CreatePoint: %v", err)
	}
	if p.Area != "tips" || p.TopicID != "general" || p.Source != "manual" || p.Status != PointDraft {
		t.Errorf("defaults not applied: %+v", p)
	}
}

func TestUpdateAndDeletePoint(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	seedInterview(t, st, &interview.Interview{ID: "iv1", Role: "Finance Director"})

	p, _ := svc.CreatePoint(ctx, "iv1", CreatePointInput{Content: "Check the bank rec daily"})

	status := PointApproved
	area := "tasks"
	updated, err := svc.UpdatePoint(ctx, "iv1", p.ID, UpdatePointInput{Status: &status, Area: &area})
	if err != nil {
		t.Fatalf("UpdatePoint: %v", err)
	}
	if updated.Status != PointApproved || updated.Area != "tasks" {
		t.Errorf("update not applied: %+v", updated)
	}

	bad := "published"
	if _, err := svc.UpdatePoint(ctx, "iv1", p.ID, UpdatePointInput{Status: &bad}); err == nil {
		t.Error("invalid status accepted")
	}

	if err := svc.DeletePoint(ctx, "iv1", p.ID); err != nil {
		t.Fatalf("DeletePoint: %v", err)
	}
	var ae *apperr.Error
	if err := svc.DeletePoint(ctx, "iv1", p.ID); !errors.As(err, &ae) || ae.Kind != apperr.KindNotFound {
		t.Errorf("second delete err = %v, want not found", err)
	}
}

func TestPointsByTopic(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	seedInterview(t, st, &interview.Interview{ID: "iv1", Role: "Finance Director"})

	role, _ := roles.MustLoad().Role("Finance Director")
	first := role.Topics[0]
	if _, err := svc.CreatePoint(ctx, "iv1", CreatePointInput{Content: "Budget guidance issues in June", TopicID: first.ID, Area: "dates"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreatePoint(ctx, "iv1", CreatePointInput{Content: "Keep a contingency list"}); err != nil {
		t.Fatal(err)
	}

	report, err := svc.PointsByTopic(ctx, "iv1")
	if err != nil {
		t.Fatalf("PointsByTopic: %v", err)
	}
	if len(report.Topics) != 10 { // 9 checklist topics plus the general bucket
		t.Fatalf("topic groups = %d, want 10", len(report.Topics))
	}
	if report.Summary.TotalPoints != 2 || report.Summary.DraftPoints != 2 {
		t.Errorf("summary = %+v", report.Summary)
	}
	var firstGroup, general *PointTopicGroup
	for _, g := range report.Topics {
		switch g.TopicID {
		case first.ID:
			firstGroup = g
		case "general":
			general = g
		}
	}
	if firstGroup == nil || firstGroup.PointCount != 1 || len(firstGroup.Areas["dates"]) != 1 {
		t.Errorf("checklist group = %+v", firstGroup)
	}
	if general == nil || general.PointCount != 1 || general.TopicName != "General Knowledge" {
		t.Errorf("general group = %+v", general)
	}
	for _, areaKey := range roles.MustLoad().AreaKeys() {
		if _, ok := general.Areas[areaKey]; !ok {
			t.Errorf("general bucket missing area %q", areaKey)
		}
	}
}
