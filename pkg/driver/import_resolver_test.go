package driver

import (
	"os"
	"path/filepath"
	"testing"

	"pscript/pkg/perr"
)

func TestResolveFindsFileOnSearchRoot(t *testing.T) {
	dir := t.TempDir()
	modDir := filepath.Join(dir, "std")
	if err := os.MkdirAll(modDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(modDir, "io.ps"), []byte("fn print(x:int) -> int { return x; }"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	r := NewImportResolver([]string{dir})
	abs, src, already, err := r.Resolve("std.io")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if already {
		t.Fatalf("expected first resolve to not be marked already-imported")
	}
	if src == "" {
		t.Fatalf("expected source content")
	}
	if abs == "" {
		t.Fatalf("expected absolute path")
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	modDir := filepath.Join(dir, "std")
	os.MkdirAll(modDir, 0o755)
	os.WriteFile(filepath.Join(modDir, "io.ps"), []byte("let x = 1;"), 0o644)

	r := NewImportResolver([]string{dir})
	if _, _, already, err := r.Resolve("std.io"); err != nil || already {
		t.Fatalf("expected first import to succeed and not be cached yet: %v %v", err, already)
	}
	if _, _, already, err := r.Resolve("std.io"); err != nil || !already {
		t.Fatalf("expected second import to be a no-op, got already=%v err=%v", already, err)
	}
}

func TestResolveMissingModule(t *testing.T) {
	r := NewImportResolver([]string{t.TempDir()})
	_, _, _, err := r.Resolve("nope.nothing")
	if !perr.Is(err, perr.ModuleNotFound) {
		t.Fatalf("expected ModuleNotFound, got %v", err)
	}
}
