package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/lookout/internal/index"
	"github.com/hyperjump/lookout/internal/indexer"
	"github.com/hyperjump/lookout/internal/storage"
)

func newTestIndexer(t *testing.T) (*indexer.Indexer, storage.Storage) {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "nodes.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })

	idx, err := index.OpenMemOnly(index.DefaultName)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = idx.Close() })

	return indexer.NewIndexer(store, idx, nil, zap.NewNop(), nil), store
}

func writeNodeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadNodeFile(t *testing.T) {
	dir := t.TempDir()

	path := writeNodeFile(t, dir, "n1.json", `{"id":"explicit","type":"content","name":"One"}`)
	node, err := readNodeFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if node.ID != "explicit" || node.Name != "One" {
		t.Errorf("node = %+v", node)
	}
}

func TestReadNodeFileIDFallback(t *testing.T) {
	dir := t.TempDir()

	path := writeNodeFile(t, dir, "fallback.json", `{"type":"content","name":"No ID"}`)
	node, err := readNodeFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if node.ID != "fallback" {
		t.Errorf("id = %q, want file name", node.ID)
	}
}

func TestReadNodeFileInvalid(t *testing.T) {
	dir := t.TempDir()
	path := writeNodeFile(t, dir, "bad.json", "{not json")
	if _, err := readNodeFile(path); err == nil {
		t.Error("expected error for invalid json")
	}
}

func TestIsNodeFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"a/b/node.json", true},
		{"a/b/node.JSON", true},
		{"a/b/node.txt", false},
		{"a/b/json", false},
	}
	for _, tt := range tests {
		if got := isNodeFile(tt.path); got != tt.want {
			t.Errorf("isNodeFile(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestNodeID(t *testing.T) {
	if got := nodeID("/content/articles/alpha.json"); got != "alpha" {
		t.Errorf("nodeID() = %q", got)
	}
}

func TestSyncIndexesExistingFiles(t *testing.T) {
	dir := t.TempDir()
	writeNodeFile(t, dir, "alpha.json", `{"type":"content","name":"Alpha","text":"beach"}`)
	if err := os.MkdirAll(filepath.Join(dir, "nested"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeNodeFile(t, filepath.Join(dir, "nested"), "beta.json", `{"type":"content","name":"Beta"}`)
	writeNodeFile(t, dir, "ignored.txt", "not a node")

	ix, store := newTestIndexer(t)
	w := New(dir, ix, zap.NewNop())
	if err := w.Sync(context.Background()); err != nil {
		t.Fatal(err)
	}

	count, err := store.CountNodes(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("stored %d nodes, want 2", count)
	}
}

func TestWatcherIndexesNewFile(t *testing.T) {
	dir := t.TempDir()
	ix, store := newTestIndexer(t)
	w := New(dir, ix, zap.NewNop(), WithDebounce(20*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	writeNodeFile(t, dir, "alpha.json", `{"type":"content","name":"Alpha"}`)

	waitForNode(t, store, "alpha", true)
}

func TestWatcherRemovesDeletedFile(t *testing.T) {
	dir := t.TempDir()
	ix, store := newTestIndexer(t)
	w := New(dir, ix, zap.NewNop(), WithDebounce(20*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	path := writeNodeFile(t, dir, "alpha.json", `{"type":"content","name":"Alpha"}`)
	waitForNode(t, store, "alpha", true)

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	waitForNode(t, store, "alpha", false)
}

func TestWatcherStartTwice(t *testing.T) {
	dir := t.TempDir()
	ix, _ := newTestIndexer(t)
	w := New(dir, ix, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	if err := w.Start(ctx); err != nil {
		t.Errorf("second Start: %v", err)
	}
}

// waitForNode polls storage until the node appears (or disappears), failing
// after a generous timeout to keep slow CI honest.
func waitForNode(t *testing.T, store storage.Storage, id string, present bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		_, err := store.GetNode(context.Background(), id)
		if present && err == nil {
			return
		}
		if !present && err != nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("node %s presence never reached %v", id, present)
}
