package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"testing"

	"gedtree/internal/audit"
	"gedtree/internal/blob"
	"gedtree/pkg/domain"
)

func TestParseQuery(t *testing.T) {
	cases := map[string]Query{
		"descendants:I1": {Kind: QueryDescendants, Subject: "I1"},
		"Ancestors:I5":   {Kind: QueryAncestors, Subject: "I5"},
		"cousins:I5":     {Kind: QueryCousins, Subject: "I5", Degree: 1},
		"cousins:I5:2":   {Kind: QueryCousins, Subject: "I5", Degree: 2},
		" cousins:I5:0 ": {Kind: QueryCousins, Subject: "I5", Degree: 0},
	}
	for in, want := range cases {
		got, err := ParseQuery(in)
		if err != nil || got != want {
			t.Fatalf("ParseQuery(%q) = %+v, %v; want %+v", in, got, err, want)
		}
	}
	for _, bad := range []string{"", "I1", "descendants:", "siblings:I1", "cousins:I1:x", "ancestors:I1:2", "a:b:c:d"} {
		if _, err := ParseQuery(bad); !domain.IsUnsupportedQuery(err) {
			t.Fatalf("ParseQuery(%q): expected unsupported query, got %v", bad, err)
		}
	}
	if s := (Query{Kind: QueryCousins, Subject: "I5", Degree: 2}).String(); s != "cousins:I5:2" {
		t.Fatalf("unexpected String %q", s)
	}
	if s := (Query{Kind: QueryAncestors, Subject: "I5"}).String(); s != "ancestors:I5" {
		t.Fatalf("unexpected String %q", s)
	}
}

func TestRunBatchKeepsInputOrder(t *testing.T) {
	ctx := context.Background()
	var seq atomic.Int64
	h := newHarness(t, WithBatchLimit(2), WithRunID(func() string { return fmt.Sprint(seq.Add(1)) }))
	tr := h.loadSample(t)

	queries := []Query{
		{Kind: QueryAncestors, Subject: "I5"},
		{Kind: QueryCousins, Subject: "I99", Degree: 1},
		{Kind: QueryDescendants, Subject: "I3"},
		{Kind: QueryCousins, Subject: "I8", Degree: 1},
	}
	results, err := h.svc.RunBatch(ctx, tr, queries, true)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if len(results) != len(queries) {
		t.Fatalf("expected %d results, got %d", len(queries), len(results))
	}
	for i, r := range results {
		if r.Query != queries[i] {
			t.Fatalf("result %d out of order: %+v", i, r.Query)
		}
	}
	if results[0].Err != nil || results[0].Lines[len(results[0].Lines)-1] != "0 Caroline KENNEDY" {
		t.Fatalf("unexpected ancestors result %+v", results[0])
	}
	if !domain.IsNotFound(results[1].Err) || results[1].Key != "" || results[1].Lines != nil {
		t.Fatalf("expected per-query not found, got %+v", results[1])
	}
	if got := strings.Join(results[3].Lines, "|"); got != "1st cousins for Kathleen KENNEDY|  Caroline KENNEDY" {
		t.Fatalf("unexpected cousins result %q", got)
	}

	charts, err := h.store.List(ctx, blob.ChartPrefix)
	if err != nil || len(charts) != 3 {
		t.Fatalf("expected three published charts, got %+v err=%v", charts, err)
	}
	for _, i := range []int{0, 2, 3} {
		if !strings.HasPrefix(results[i].Key, blob.ChartPrefix+string(queries[i].Kind)+"/") {
			t.Fatalf("unexpected key %q for %s", results[i].Key, queries[i])
		}
	}
	entries, _ := h.audit.Recent(ctx, audit.Filter{Operation: OpBatch})
	if len(entries) != 1 || entries[0].Detail != "failed=1" {
		t.Fatalf("unexpected batch audit %+v", entries)
	}
}

type brokenStore struct{ blob.Store }

func (brokenStore) Put(context.Context, string, io.Reader, blob.PutOptions) (blob.Info, error) {
	return blob.Info{}, errors.New("bucket gone")
}

func TestRunBatchAbortsOnPublishFailure(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	tr := h.loadSample(t)
	svc := NewService(brokenStore{blob.NewMemory()}, WithAuditRecorder(h.audit))

	_, err := svc.RunBatch(ctx, tr, []Query{{Kind: QueryAncestors, Subject: "I5"}}, true)
	if err == nil || !strings.Contains(err.Error(), "bucket gone") {
		t.Fatalf("expected publish failure, got %v", err)
	}
	if _, err := svc.RunBatch(ctx, nil, nil, false); !errors.Is(err, ErrNoTree) {
		t.Fatalf("expected ErrNoTree, got %v", err)
	}
	results, err := svc.RunBatch(ctx, tr, nil, false)
	if err != nil || len(results) != 0 {
		t.Fatalf("empty batch: %+v %v", results, err)
	}
}

func TestRunBatchCanceled(t *testing.T) {
	h := newHarness(t)
	tr := h.loadSample(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := h.svc.RunBatch(ctx, tr, []Query{{Kind: QueryAncestors, Subject: "I5"}}, false); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}
