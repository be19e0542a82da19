// Package watcher hot-reloads a schema or regex source file and rebuilds
// the fsmindex.Index it compiles to, grounded on the teacher's
// internal/watcher/watcher.go (fsnotify + per-path debounce timers).
package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/screenager/constrain/fsmindex"
	"github.com/screenager/constrain/schema"
	"github.com/screenager/constrain/vocab"
)

// Source names what kind of document path compiles to a regex: "regex" uses
// the file's contents directly, "schema" runs them through package schema.
type Source int

const (
	SourceRegex Source = iota
	SourceSchema
)

// Watcher watches one schema/regex source file and keeps an *fsmindex.Index
// rebuilt against its latest contents.
type Watcher struct {
	fw     *fsnotify.Watcher
	path   string
	source Source
	opts   schema.Options
	vocab  *vocab.Vocabulary

	mu  indexBox
	out func(string) // progress sink; defaults to os.Stderr
}

// indexBox holds the current Index behind a mutex-free snapshot pointer,
// replaced wholesale on each rebuild rather than mutated in place — a Guide
// built against the old pointer keeps working against a consistent index
// even while a rebuild is in flight.
type indexBox struct {
	current atomic.Pointer[fsmindex.Index]
}

// New builds a Watcher and performs an initial compile of path so Current
// is usable before Watch is ever called.
func New(path string, source Source, opts schema.Options, v *vocab.Vocabulary) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	w := &Watcher{
		fw:     fw,
		path:   path,
		source: source,
		opts:   opts,
		vocab:  v,
		out:    func(s string) { fmt.Fprint(os.Stderr, s) },
	}
	if err := w.rebuild(); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

// Current returns the most recently built Index. Safe to call concurrently
// with Watch, since rebuild() replaces the pointer with a single atomic store.
func (w *Watcher) Current() *fsmindex.Index { return w.mu.current.Load() }

func (w *Watcher) rebuild() error {
	raw, err := os.ReadFile(w.path)
	if err != nil {
		return fmt.Errorf("read %s: %w", w.path, err)
	}
	regex := strings.TrimSpace(string(raw))
	if w.source == SourceSchema {
		regex, err = schema.FromSchema(raw, w.opts)
		if err != nil {
			return fmt.Errorf("compile schema %s: %w", w.path, err)
		}
	}
	idx, err := fsmindex.BuildMemoized(regex, w.vocab)
	if err != nil {
		return fmt.Errorf("build index from %s: %w", w.path, err)
	}
	w.mu.current.Store(idx)
	return nil
}

// Watch blocks, rebuilding the Index (debounced 500ms, matching the
// teacher's debounce window) whenever path changes, until done closes.
func (w *Watcher) Watch(done <-chan struct{}) error {
	if err := w.fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", w.path, err)
	}

	var timer *time.Timer
	for {
		select {
		case <-done:
			return w.fw.Close()

		case event, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(500*time.Millisecond, func() {
				w.out(fmt.Sprintf("[watch] recompiling %s\n", w.path))
				if err := w.rebuild(); err != nil {
					w.out(fmt.Sprintf("[watch] error: %v\n", err))
				}
			})

		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			w.out(fmt.Sprintf("[watch] error: %v\n", err))
		}
	}
}
