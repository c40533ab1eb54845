package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"companion/task"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func build(t *testing.T, name string) *task.Task {
	t.Helper()
	tk, err := task.NewBuilder("AcWing").
		SetURL("https://www.acwing.com/problem/content/1/").
		SetName(name).
		SetTimeLimit(1000).
		SetMemoryLimit(64).
		AddTest("1 2", "3").
		AddTest("3\n4 5", "9").
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return tk
}

func TestSaveAndGet(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	tk := build(t, "A + B")

	if err := s.Save(ctx, "AcWing", tk); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	e, err := s.Get(ctx, tk.Batch().ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if e.Judge != "AcWing" || e.Name != "A + B" || e.URL != tk.URL() {
		t.Errorf("unexpected entry %+v", e)
	}
	if e.TimeLimitMs != 1000 || e.MemoryLimitMb != 64 {
		t.Errorf("limits = %d/%d", e.TimeLimitMs, e.MemoryLimitMb)
	}
	want := tk.Tests()
	if len(e.Tests) != len(want) || e.Tests[0] != want[0] || e.Tests[1] != want[1] {
		t.Errorf("tests = %+v, expected %+v", e.Tests, want)
	}
	if e.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestGetMissing(t *testing.T) {
	s := openTemp(t)
	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRecentNewestFirst(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	names := []string{"first", "second", "third"}
	for i, name := range names {
		at := base.Add(time.Duration(i) * time.Minute)
		s.now = func() time.Time { return at }
		if err := s.Save(ctx, "AcWing", build(t, name)); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	entries, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 2 || entries[0].Name != "third" || entries[1].Name != "second" {
		t.Errorf("unexpected order: %+v", entries)
	}
	if !entries[0].CreatedAt.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("CreatedAt = %v", entries[0].CreatedAt)
	}

	if entries, _ := s.Recent(ctx, 0); entries != nil {
		t.Errorf("Recent(0) = %+v", entries)
	}
}

func TestSaveReplacesBatch(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	tk := build(t, "A + B")

	for i := 0; i < 2; i++ {
		if err := s.Save(ctx, "AcWing", tk); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}
	entries, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected 1 entry, got %d", len(entries))
	}
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	tk := build(t, "A + B")
	if err := s.Save(context.Background(), "AcWing", tk); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()
	if _, err := s.Get(context.Background(), tk.Batch().ID); err != nil {
		t.Errorf("Get after reopen failed: %v", err)
	}
}
