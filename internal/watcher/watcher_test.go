package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/screenager/constrain/schema"
	"github.com/screenager/constrain/vocab"
)

func testVocab(t *testing.T) *vocab.Vocabulary {
	t.Helper()
	v, err := vocab.New(0, map[string][]uint32{
		"a": {1}, "b": {2}, "ab": {3},
	})
	if err != nil {
		t.Fatalf("vocab.New: %v", err)
	}
	return v
}

func TestNewCompilesInitialIndex(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pattern.regex")
	if err := os.WriteFile(path, []byte("a|b"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	w, err := New(path, SourceRegex, schema.DefaultOptions(), testVocab(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.fw.Close()

	if w.Current() == nil {
		t.Fatal("expected a compiled Index after New")
	}
}

func TestWatchRebuildsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pattern.regex")
	if err := os.WriteFile(path, []byte("a"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	w, err := New(path, SourceRegex, schema.DefaultOptions(), testVocab(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	initial := w.Current()

	done := make(chan struct{})
	errCh := make(chan error, 1)
	go func() { errCh <- w.Watch(done) }()

	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(path, []byte("a|b"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for rebuild")
		default:
		}
		if w.Current() != initial {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	close(done)
	if err := <-errCh; err != nil {
		t.Fatalf("Watch: %v", err)
	}
}
