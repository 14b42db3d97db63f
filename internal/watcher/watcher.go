// Package watcher keeps an index in sync with a directory of node files.
//
// Nodes are dropped into the content directory as JSON documents; the file
// name (without extension) is the node ID. Creating or updating a file
// indexes the node, removing it deletes the node from the index and store.
package watcher

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/hyperjump/lookout/internal/indexer"
	"github.com/hyperjump/lookout/internal/models"
)

const (
	nodeFileExt     = ".json"
	defaultDebounce = 400 * time.Millisecond
)

// Watcher watches a content directory and feeds node files to an Indexer.
type Watcher struct {
	dir     string
	indexer *indexer.Indexer
	logger  *zap.Logger

	debounce time.Duration

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	timers  map[string]*time.Timer
	started bool

	done     chan struct{}
	stopOnce sync.Once
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides the write-coalescing delay.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// New creates a watcher over dir. The directory is created if missing when
// the watcher starts.
func New(dir string, idx *indexer.Indexer, logger *zap.Logger, opts ...Option) *Watcher {
	w := &Watcher{
		dir:      filepath.Clean(dir),
		indexer:  idx,
		logger:   logger,
		debounce: defaultDebounce,
		timers:   make(map[string]*time.Timer),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. It runs until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		w.mu.Unlock()
		return err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	if err := addTree(fsw, w.dir); err != nil {
		_ = fsw.Close()
		w.mu.Unlock()
		return err
	}
	w.fsw = fsw
	w.started = true
	w.mu.Unlock()

	w.logger.Debug("watcher started", zap.String("dir", w.dir))
	go w.run(ctx)
	return nil
}

// Sync indexes every node file already present under the content directory.
// Call after Start to pick up files written while the watcher was down.
func (w *Watcher) Sync(ctx context.Context) error {
	return filepath.WalkDir(w.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !isNodeFile(path) {
			return nil
		}
		w.indexFile(ctx, path)
		return nil
	})
}

// Stop stops the watcher and cancels pending debounced work.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
	_ = w.fsw.Close()
	w.fsw = nil
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Debug("watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, ev fsnotify.Event) {
	path := ev.Name
	switch {
	case ev.Op.Has(fsnotify.Create), ev.Op.Has(fsnotify.Write):
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			w.watchNewDirectory(ctx, path)
			return
		}
		if isNodeFile(path) {
			w.scheduleIndex(ctx, path)
		}
	case ev.Op.Has(fsnotify.Remove), ev.Op.Has(fsnotify.Rename):
		w.cancelPending(path)
		if isNodeFile(path) {
			w.removeFile(ctx, path)
		}
	}
}

// scheduleIndex coalesces bursts of writes to the same file into one
// indexing pass.
func (w *Watcher) scheduleIndex(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		w.indexFile(ctx, path)
	})
}

func (w *Watcher) cancelPending(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok {
		t.Stop()
		delete(w.timers, path)
	}
}

func (w *Watcher) indexFile(ctx context.Context, path string) {
	node, err := readNodeFile(path)
	if err != nil {
		w.logger.Warn("skipping unreadable node file", zap.String("path", path), zap.Error(err))
		return
	}
	if err := w.indexer.IndexNode(ctx, node); err != nil {
		w.logger.Warn("failed to index node file", zap.String("path", path), zap.Error(err))
		return
	}
	w.logger.Debug("indexed node file", zap.String("path", path), zap.String("id", node.ID))
}

func (w *Watcher) removeFile(ctx context.Context, path string) {
	id := nodeID(path)
	if id == "" {
		return
	}
	if err := w.indexer.DeleteNode(ctx, id); err != nil {
		w.logger.Warn("failed to remove node", zap.String("id", id), zap.Error(err))
		return
	}
	w.logger.Debug("removed node", zap.String("id", id))
}

func (w *Watcher) watchNewDirectory(ctx context.Context, dir string) {
	w.mu.Lock()
	fsw := w.fsw
	w.mu.Unlock()
	if fsw == nil {
		return
	}
	if err := addTree(fsw, dir); err != nil {
		w.logger.Debug("failed to watch new directory", zap.String("path", dir), zap.Error(err))
	}
	// Files moved in with the directory never fire their own events.
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if isNodeFile(path) {
			w.scheduleIndex(ctx, path)
		}
		return nil
	})
}

// readNodeFile decodes a node document. A missing ID falls back to the file
// name so plain hand-written files index without boilerplate.
func readNodeFile(path string) (*models.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var node models.Node
	if err := json.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if node.ID == "" {
		node.ID = nodeID(path)
	}
	return &node, nil
}

func addTree(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
}

func isNodeFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), nodeFileExt)
}

func nodeID(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
