package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsBase(t *testing.T) {
	base := Default()
	got, err := Load(filepath.Join(t.TempDir(), "missing.toml"), base)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != base {
		t.Fatalf("expected base unchanged, got %+v", got)
	}
}

func TestLoadOverridesPresentFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".constrain.toml")
	if err := os.WriteFile(path, []byte("backend = \"onnxruntime\"\nmax-rollback = 64\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path, Default())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Backend != "onnxruntime" {
		t.Errorf("Backend = %q, want onnxruntime", got.Backend)
	}
	if got.MaxRollback != 64 {
		t.Errorf("MaxRollback = %d, want 64", got.MaxRollback)
	}
	if got.ModelDir != Default().ModelDir {
		t.Errorf("ModelDir should be unchanged, got %q", got.ModelDir)
	}
}
