package store

import (
	"context"
	"errors"
	"sort"
	"testing"
)

type testDoc struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Memory and File must agree on semantics; run the same suite over both.
func stores(t *testing.T) map[string]Store {
	t.Helper()
	f, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	return map[string]Store{
		"memory": NewMemory(),
		"file":   f,
	}
}

func TestPutGetRoundtrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			want := testDoc{Name: "month-end", Count: 3}
			if err := s.Put(ctx, "topics/abc", want); err != nil {
				t.Fatalf("put: %v", err)
			}
			var got testDoc
			if err := s.Get(ctx, "topics/abc", &got); err != nil {
				t.Fatalf("get: %v", err)
			}
			if got != want {
				t.Errorf("got %+v, want %+v", got, want)
			}
		})
	}
}

func TestGetMissing(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			var doc testDoc
			err := s.Get(ctx, "topics/nope", &doc)
			if !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestPutOverwrites(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Put(ctx, "topics/abc", testDoc{Name: "first"}); err != nil {
				t.Fatalf("put: %v", err)
			}
			if err := s.Put(ctx, "topics/abc", testDoc{Name: "second"}); err != nil {
				t.Fatalf("put: %v", err)
			}
			var got testDoc
			if err := s.Get(ctx, "topics/abc", &got); err != nil {
				t.Fatalf("get: %v", err)
			}
			if got.Name != "second" {
				t.Errorf("expected last write to win, got %q", got.Name)
			}
		})
	}
}

func TestListReturnsDirectChildren(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for _, key := range []string{
				"snapshots/iv1/s1",
				"snapshots/iv1/s2",
				"snapshots/iv2/s3",
				"interviews/iv1",
			} {
				if err := s.Put(ctx, key, testDoc{Name: key}); err != nil {
					t.Fatalf("put %s: %v", key, err)
				}
			}

			ids, err := s.List(ctx, "snapshots/iv1")
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			sort.Strings(ids)
			if len(ids) != 2 || ids[0] != "s1" || ids[1] != "s2" {
				t.Errorf("expected [s1 s2], got %v", ids)
			}

			// Nested documents are not direct children of the top level.
			top, err := s.List(ctx, "snapshots")
			if err != nil {
				t.Fatalf("list top: %v", err)
			}
			for _, id := range top {
				if id == "s1" || id == "s2" || id == "s3" {
					t.Errorf("nested document leaked into top-level list: %v", top)
				}
			}
		})
	}
}

func TestListMissingPrefix(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ids, err := s.List(ctx, "nothing/here")
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(ids) != 0 {
				t.Errorf("expected empty list, got %v", ids)
			}
		})
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Put(ctx, "topics/abc", testDoc{}); err != nil {
				t.Fatalf("put: %v", err)
			}
			if err := s.Delete(ctx, "topics/abc"); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if err := s.Delete(ctx, "topics/abc"); err != nil {
				t.Errorf("second delete should not error, got %v", err)
			}
			var doc testDoc
			if err := s.Get(ctx, "topics/abc", &doc); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound after delete, got %v", err)
			}
		})
	}
}

func TestDeleteAllCascades(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for _, key := range []string{"snapshots/iv1/s1", "snapshots/iv1/s2", "snapshots/iv2/s3"} {
				if err := s.Put(ctx, key, testDoc{}); err != nil {
					t.Fatalf("put %s: %v", key, err)
				}
			}
			if err := s.DeleteAll(ctx, "snapshots/iv1"); err != nil {
				t.Fatalf("delete all: %v", err)
			}
			ids, err := s.List(ctx, "snapshots/iv1")
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(ids) != 0 {
				t.Errorf("expected cascade to empty iv1, got %v", ids)
			}
			var doc testDoc
			if err := s.Get(ctx, "snapshots/iv2/s3", &doc); err != nil {
				t.Errorf("cascade must not touch other namespaces: %v", err)
			}
		})
	}
}
