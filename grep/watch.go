package grep

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// settle is how long a changed file is left alone before it is searched, so
// that a burst of writes is searched once.
const settle = 100 * time.Millisecond

// Watcher searches files again whenever they are written.
type Watcher struct {
	searcher *Searcher
	watcher  *fsnotify.Watcher
	emit     func(FileResult) error
	pending  map[string]pendingSearch
	gen      uint64
	changed  chan change
	done     chan struct{}
}

// pendingSearch is the settle timer of a changed file. Every new event on
// the file replaces it with a timer of a later generation.
type pendingSearch struct {
	timer *time.Timer
	gen   uint64
}

type change struct {
	path string
	gen  uint64
}

// NewWatcher returns a Watcher that searches changed files with s and hands
// each result to emit. Directories are registered with Add.
func (s *Searcher) NewWatcher(emit func(FileResult) error) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		searcher: s,
		watcher:  w,
		emit:     emit,
		pending:  make(map[string]pendingSearch),
		changed:  make(chan change),
		done:     make(chan struct{}),
	}, nil
}

// Add watches dir and every directory below it that is not excluded.
func (w *Watcher) Add(dir string) error {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && w.searcher.exclude != nil && w.searcher.exclude.MatchString(filepath.ToSlash(path)) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
	if err != nil {
		return fmt.Errorf("error adding directory to watcher: %w", err)
	}
	return nil
}

// Run handles file events until ctx is done or emit fails, then closes the
// watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		close(w.done)
		for _, p := range w.pending {
			p.timer.Stop()
		}
		w.watcher.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleFileEvent(event)
		case c := <-w.changed:
			if !w.settled(c) {
				continue
			}
			if err := w.emit(w.searcher.SearchFile(ctx, c.path)); err != nil {
				return err
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.searcher.logger.Error("Watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleFileEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	if event.Has(fsnotify.Create) && w.isDir(event.Name) {
		if err := w.Add(event.Name); err != nil {
			w.searcher.logger.Error("Error watching directory", zap.String("path", event.Name), zap.Error(err))
		}
		return
	}
	if !w.searcher.scanner(event.Name).Accepts(event.Name) {
		return
	}

	path := event.Name
	if p, ok := w.pending[path]; ok {
		p.timer.Stop()
	}
	w.gen++
	c := change{path: path, gen: w.gen}
	t := time.AfterFunc(settle, func() {
		select {
		case w.changed <- c:
		case <-w.done:
		}
	})
	w.pending[path] = pendingSearch{timer: t, gen: c.gen}
}

// settled reports whether c comes from the latest timer of its file, and if
// so forgets the file. A timer that fired before being replaced is stale.
func (w *Watcher) settled(c change) bool {
	p, ok := w.pending[c.path]
	if !ok || p.gen != c.gen {
		return false
	}
	delete(w.pending, c.path)
	return true
}

func (w *Watcher) isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
