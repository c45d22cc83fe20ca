package fs

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gedtree/internal/blob/core"
)

func newTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return store
}

const sampleSource = "0 @I1@ INDI\n1 NAME Ada /Lovelace/\n0 TRLR\n"

func TestStore_PutGetHeadListDelete(t *testing.T) {
	ctx := context.Background()
	store := newTempStore(t)
	info, err := store.Put(ctx, "sources/lovelace.ged", strings.NewReader(sampleSource), core.PutOptions{
		ContentType: "text/vnd.familysearch.gedcom",
		Metadata:    map[string]string{"origin": "test"},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Key != "sources/lovelace.ged" || info.Size != int64(len(sampleSource)) || len(info.ETag) != 64 {
		t.Fatalf("unexpected info %+v", info)
	}
	if !strings.HasPrefix(info.URL, "file://") || !strings.HasSuffix(info.URL, "/sources/lovelace.ged") {
		t.Fatalf("unexpected url %q", info.URL)
	}

	if _, err := store.Put(ctx, "sources/lovelace.ged", strings.NewReader("x"), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}

	head, err := store.Head(ctx, "sources/lovelace.ged")
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	got, rc, err := store.Get(ctx, "sources/lovelace.ged")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	if err := rc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if string(body) != sampleSource || got.ETag != head.ETag || got.Metadata["origin"] != "test" {
		t.Fatalf("unexpected get result %+v", got)
	}

	if _, err := store.Put(ctx, "charts/ancestors/I1-run.txt", strings.NewReader("0 Ada LOVELACE\n"), core.PutOptions{}); err != nil {
		t.Fatalf("put chart: %v", err)
	}
	list, err := store.List(ctx, "sources/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Key != "sources/lovelace.ged" {
		t.Fatalf("unexpected list %+v", list)
	}
	all, err := store.List(ctx, "")
	if err != nil || len(all) != 2 || all[0].Key != "charts/ancestors/I1-run.txt" {
		t.Fatalf("unexpected full list %+v err=%v", all, err)
	}

	ok, err := store.Delete(ctx, "sources/lovelace.ged")
	if err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	if ok, err := store.Delete(ctx, "sources/lovelace.ged"); err != nil || ok {
		t.Fatalf("second delete should report false, got %v %v", ok, err)
	}
	if _, err := store.Head(ctx, "sources/lovelace.ged"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestStore_RejectsUnsafeKeys(t *testing.T) {
	ctx := context.Background()
	store := newTempStore(t)
	for _, key := range []string{"", "  ", "/etc/passwd", "../escape.ged", "a/../../b", "sources/x.ged.meta", "..\\win.ged"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), core.PutOptions{}); err == nil {
			t.Fatalf("expected key %q to be rejected", key)
		}
	}
}

func TestStore_MissingKey(t *testing.T) {
	ctx := context.Background()
	store := newTempStore(t)
	if _, _, err := store.Get(ctx, "sources/none.ged"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.PresignURL(ctx, "sources/none.ged", core.SignedURLOptions{}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected presign of missing key to fail, got %v", err)
	}
}

func TestStore_PresignURL(t *testing.T) {
	ctx := context.Background()
	store := newTempStore(t)
	info, err := store.Put(ctx, "charts/dump/all-1.txt", strings.NewReader("I1:Ada\n"), core.PutOptions{})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	u, err := store.PresignURL(ctx, "charts/dump/all-1.txt", core.SignedURLOptions{Method: "get"})
	if err != nil || u != info.URL {
		t.Fatalf("unexpected presign %q err=%v", u, err)
	}
	if _, err := store.PresignURL(ctx, "charts/dump/all-1.txt", core.SignedURLOptions{Method: "PUT"}); !errors.Is(err, core.ErrUnsupported) {
		t.Fatalf("expected unsupported PUT presign, got %v", err)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("stream broke") }

func TestStore_PutReadErrorLeavesNothing(t *testing.T) {
	ctx := context.Background()
	store := newTempStore(t)
	if _, err := store.Put(ctx, "sources/broken.ged", failingReader{}, core.PutOptions{}); err == nil {
		t.Fatalf("expected read error")
	}
	if list, err := store.List(ctx, ""); err != nil || len(list) != 0 {
		t.Fatalf("expected empty store, got %+v err=%v", list, err)
	}
	entries, _ := os.ReadDir(filepath.Join(store.Root(), "sources"))
	if len(entries) != 0 {
		t.Fatalf("expected temp file cleanup, found %d entries", len(entries))
	}
}

func TestStore_CorruptSidecar(t *testing.T) {
	ctx := context.Background()
	store := newTempStore(t)
	if _, err := store.Put(ctx, "sources/a.ged", strings.NewReader("x"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := os.WriteFile(filepath.Join(store.Root(), "sources", "a.ged.meta"), []byte("{"), 0o644); err != nil {
		t.Fatalf("corrupt sidecar: %v", err)
	}
	if _, err := store.Head(ctx, "sources/a.ged"); err == nil || errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected decode error, got %v", err)
	}
	if _, err := store.List(ctx, ""); err == nil {
		t.Fatalf("expected list to surface the decode error")
	}
}

func TestStore_CanceledContext(t *testing.T) {
	store := newTempStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.Put(ctx, "sources/a.ged", strings.NewReader("x"), core.PutOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled put, got %v", err)
	}
	if _, err := store.Head(ctx, "sources/a.ged"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled head, got %v", err)
	}
}

func TestNew_RequiresRoot(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatalf("expected empty root to be rejected")
	}
	store := newTempStore(t)
	if store.Driver() != core.DriverFilesystem {
		t.Fatalf("unexpected driver %s", store.Driver())
	}
}
