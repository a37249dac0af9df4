package topic

import (
	"context"
	"errors"
	"testing"

	"github.com/handoverhq/handover/internal/apperr"
	"github.com/handoverhq/handover/internal/store"
)

func service() *Service {
	return NewService(store.NewMemory())
}

func TestCreateDefaults(t *testing.T) {
	s := service()
	got, err := s.Create(context.Background(), CreateInput{Name: "  Month-End Close  "})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if got.Name != "Month-End Close" {
		t.Errorf("Name = %q, want trimmed", got.Name)
	}
	if got.Frequency != "ad-hoc" {
		t.Errorf("Frequency = %q, want ad-hoc", got.Frequency)
	}
	if got.Status != StatusPending {
		t.Errorf("Status = %q, want pending", got.Status)
	}
	if got.Order != 0 {
		t.Errorf("Order = %d, want 0", got.Order)
	}

	second, err := s.Create(context.Background(), CreateInput{Name: "Year-End"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if second.Order != 1 {
		t.Errorf("second Order = %d, want 1", second.Order)
	}
}

func TestCreateValidation(t *testing.T) {
	s := service()
	tests := []struct {
		name string
		in   CreateInput
	}{
		{"empty name", CreateInput{Name: "   "}},
		{"bad frequency", CreateInput{Name: "X", Frequency: "hourly"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Create(context.Background(), tt.in)
			var ae *apperr.Error
			if !errors.As(err, &ae) || ae.Kind != apperr.KindValidation {
				t.Errorf("Create() error = %v, want validation", err)
			}
		})
	}
}

func TestGetMissing(t *testing.T) {
	_, err := service().Get(context.Background(), "nope")
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Kind != apperr.KindNotFound {
		t.Errorf("Get() error = %v, want not found", err)
	}
}

func TestListFilterAndOrder(t *testing.T) {
	s := service()
	ctx := context.Background()
	a, _ := s.Create(ctx, CreateInput{Name: "A", Frequency: "monthly"})
	b, _ := s.Create(ctx, CreateInput{Name: "B", Frequency: "annual"})
	if _, err := s.Update(ctx, b.ID, UpdateInput{Status: strPtr(StatusComplete)}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	all, err := s.List(ctx, "", "")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 2 || all[0].ID != a.ID {
		t.Errorf("List() order wrong: %+v", all)
	}

	complete, _ := s.List(ctx, StatusComplete, "")
	if len(complete) != 1 || complete[0].ID != b.ID {
		t.Errorf("List(complete) = %+v, want just B", complete)
	}

	monthly, _ := s.List(ctx, "", "monthly")
	if len(monthly) != 1 || monthly[0].ID != a.ID {
		t.Errorf("List(monthly) = %+v, want just A", monthly)
	}
}

func TestReorder(t *testing.T) {
	s := service()
	ctx := context.Background()
	a, _ := s.Create(ctx, CreateInput{Name: "A"})
	b, _ := s.Create(ctx, CreateInput{Name: "B"})

	updated, err := s.Reorder(ctx, []string{b.ID, "ghost", a.ID})
	if err != nil {
		t.Fatalf("Reorder() error = %v", err)
	}
	if len(updated) != 2 {
		t.Fatalf("Reorder() updated %d topics, want 2", len(updated))
	}

	all, _ := s.List(ctx, "", "")
	if all[0].ID != b.ID || all[1].ID != a.ID {
		t.Errorf("order after reorder: %s, %s; want %s, %s", all[0].ID, all[1].ID, b.ID, a.ID)
	}
}

func TestMarkCompleteIdempotent(t *testing.T) {
	s := service()
	ctx := context.Background()
	tp, _ := s.Create(ctx, CreateInput{Name: "A"})

	if err := s.MarkComplete(ctx, tp.ID); err != nil {
		t.Fatalf("MarkComplete() error = %v", err)
	}
	if err := s.MarkComplete(ctx, tp.ID); err != nil {
		t.Fatalf("second MarkComplete() error = %v", err)
	}
	got, _ := s.Get(ctx, tp.ID)
	if got.Status != StatusComplete {
		t.Errorf("Status = %q, want complete", got.Status)
	}
}

func strPtr(s string) *string { return &s }
