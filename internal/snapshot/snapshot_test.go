package snapshot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/handoverhq/handover/internal/apperr"
	"github.com/handoverhq/handover/internal/interview"
	"github.com/handoverhq/handover/internal/knowledge"
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

const goodReply = `{
  "topicsCovered": ["Budget setting timeline"],
  "keyInsights": ["Member briefings start in September, before the figures are final"],
  "frameworksMentioned": ["Medium term financial strategy"],
  "gaps": ["Reserves policy not discussed"],
  "suggestedProbes": ["How are growth bids prioritised?"]
}`

func newExtractor(t *testing.T) (*Extractor, store.Store, *fakeLLM) {
	t.Helper()
	st := store.NewMemory()
	client := &fakeLLM{reply: goodReply}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	points := knowledge.NewService(st, client, roles.MustLoad(), topic.NewService(st), logger)
	return NewExtractor(st, client, points, logger), st, client
}

func seedInterview(t *testing.T, st store.Store, id string, messages int) {
	t.Helper()
	iv := &interview.Interview{ID: id, Role: "Finance Director", Phase: interview.PhaseCoreFrameworks, CreatedAt: time.Now()}
	for i := 0; i < messages; i++ {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		iv.Messages = append(iv.Messages, interview.Message{Role: role, Content: "turn", Timestamp: time.Now()})
	}
	if err := st.Put(context.Background(), interview.Key(id), iv); err != nil {
		t.Fatal(err)
	}
}

func TestCreate(t *testing.T) {
	ex, st, _ := newExtractor(t)
	ctx := context.Background()
	seedInterview(t, st, "iv1", 4)

	snap, err := ex.Create(ctx, "iv1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if snap == nil {
		t.Fatal("no snapshot created")
	}
	if snap.Phase != interview.PhaseCoreFrameworks || snap.MessageCount != 4 {
		t.Errorf("snapshot = %+v", snap)
	}
	if len(snap.KeyInsights) != 1 || len(snap.SuggestedProbes) != 1 {
		t.Errorf("arrays not carried over: %+v", snap)
	}
	// One insight plus one framework clears the length floors.
	if snap.KnowledgePointsCreated != 2 {
		t.Errorf("knowledgePointsCreated = %d, want 2", snap.KnowledgePointsCreated)
	}

	stored, err := ex.Get(ctx, "iv1", snap.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.KnowledgePointsCreated != 2 {
		t.Errorf("stored count = %d", stored.KnowledgePointsCreated)
	}
}

func TestCreateSkipsMissingOrEmptyInterview(t *testing.T) {
	ex, st, _ := newExtractor(t)
	ctx := context.Background()

	snap, err := ex.Create(ctx, "ghost")
	if err != nil || snap != nil {
		t.Errorf("missing interview: snap=%v err=%v, want nil,nil", snap, err)
	}

	seedInterview(t, st, "empty", 0)
	snap, err = ex.Create(ctx, "empty")
	if err != nil || snap != nil {
		t.Errorf("empty interview: snap=%v err=%v, want nil,nil", snap, err)
	}
}

func TestParseReply(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		wantErr bool
	}{
		{"bare json", goodReply, false},
		{"fenced", "```json\n" + goodReply + "\n```", false},
		{"prose prefix", "Here is the extraction:\n" + goodReply, false},
		{"no json", "I cannot analyze this transcript.", true},
		{"missing array", `{"topicsCovered": [], "keyInsights": [], "frameworksMentioned": [], "gaps": []}`, true},
		{"wrong type", `{"topicsCovered": "budget", "keyInsights": [], "frameworksMentioned": [], "gaps": [], "suggestedProbes": []}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseReply(tt.reply)
			if tt.wantErr {
				var ae *apperr.Error
				if !errors.As(err, &ae) || ae.Kind != apperr.KindParse {
					t.Fatalf("err = %v, want parse error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseReply: %v", err)
			}
			if len(got.TopicsCovered) != 1 {
				t.Errorf("topicsCovered = %v", got.TopicsCovered)
			}
		})
	}
}

func TestListNewestFirst(t *testing.T) {
	ex, st, _ := newExtractor(t)
	ctx := context.Background()

	old := &Snapshot{ID: "s1", InterviewID: "iv1", Timestamp: time.Now().Add(-time.Hour)}
	recent := &Snapshot{ID: "s2", InterviewID: "iv1", Timestamp: time.Now()}
	for _, s := range []*Snapshot{old, recent} {
		if err := st.Put(ctx, "snapshots/iv1/"+s.ID, s); err != nil {
			t.Fatal(err)
		}
	}

	snaps, err := ex.List(ctx, "iv1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(snaps) != 2 || snaps[0].ID != "s2" {
		t.Errorf("order wrong: %v, %v", snaps[0].ID, snaps[1].ID)
	}

	chrono, err := ex.ListOldestFirst(ctx, "iv1")
	if err != nil {
		t.Fatalf("ListOldestFirst: %v", err)
	}
	if chrono[0].ID != "s1" {
		t.Errorf("chronological order wrong: %v", chrono[0].ID)
	}
}
