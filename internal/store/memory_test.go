package store

import (
	"context"
	"testing"
	"time"
)

func TestMemorySetGet(t *testing.T) {
	m := NewMemory(0)
	ctx := context.Background()

	if _, ok, _ := m.Get(ctx, "nope"); ok {
		t.Fatal("Expected missing job")
	}

	files := []string{"/out/doc_2.pdf"}
	if err := m.Set(ctx, "job", Status{State: "completed", Files: files}); err != nil {
		t.Fatal(err)
	}
	files[0] = "mutated"

	st, ok, err := m.Get(ctx, "job")
	if err != nil || !ok {
		t.Fatalf("Expected job, got ok=%v err=%v", ok, err)
	}
	if st.State != "completed" || st.Files[0] != "/out/doc_2.pdf" {
		t.Errorf("Unexpected status %+v", st)
	}
}

func TestMemoryExpiry(t *testing.T) {
	m := NewMemory(time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	_ = m.Set(context.Background(), "job", Status{State: "idle"})
	now = now.Add(30 * time.Second)
	if _, ok, _ := m.Get(context.Background(), "job"); !ok {
		t.Fatal("Expected job before ttl")
	}
	now = now.Add(time.Minute)
	if _, ok, _ := m.Get(context.Background(), "job"); ok {
		t.Fatal("Expected job to expire")
	}
}
