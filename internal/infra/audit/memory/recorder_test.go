package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"gedtree/internal/audit/core"
)

func entry(op string, at time.Time) core.Entry {
	return core.Entry{ID: uuid.New(), Operation: op, Subject: "I1", Status: core.StatusOK, StartedAt: at}
}

func TestRecentNewestFirstWithFilterAndLimit(t *testing.T) {
	ctx := context.Background()
	r := New()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, op := range []string{"load", "descendants", "cousins", "descendants"} {
		if err := r.Record(ctx, entry(op, base.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	all, err := r.Recent(ctx, core.Filter{})
	if err != nil || len(all) != 4 {
		t.Fatalf("expected 4 entries, got %d err=%v", len(all), err)
	}
	if all[0].Operation != "descendants" || all[3].Operation != "load" {
		t.Fatalf("unexpected order %+v", all)
	}

	desc, _ := r.Recent(ctx, core.Filter{Operation: "descendants"})
	if len(desc) != 2 || !desc[0].StartedAt.After(desc[1].StartedAt) {
		t.Fatalf("unexpected filtered entries %+v", desc)
	}

	limited, _ := r.Recent(ctx, core.Filter{Limit: 1})
	if len(limited) != 1 || limited[0].StartedAt != base.Add(3*time.Second) {
		t.Fatalf("unexpected limited entries %+v", limited)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestRecordHonoursCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := New()
	if err := r.Record(ctx, entry("load", time.Now())); err == nil {
		t.Fatalf("expected canceled context error")
	}
	if got, _ := r.Recent(context.Background(), core.Filter{}); len(got) != 0 {
		t.Fatalf("expected nothing recorded, got %+v", got)
	}
}
