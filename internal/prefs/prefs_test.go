package prefs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestColumnsDefaultsWithoutFile(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "missing.yaml"))
	cols := s.Columns()
	if !cols["title"] || cols["reviewers"] {
		t.Fatalf("defaults = %v", cols)
	}
	if len(cols) != len(Columns) {
		t.Fatalf("got %d columns, want %d", len(cols), len(Columns))
	}
}

func TestSetColumnsPersistsAndKeepsOtherKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs", "preferences.yaml")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("theme: dark\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewStore(path)

	got := s.SetColumns(map[string]bool{"reviewers": true, "status": false, "bogus": true})
	if !got["reviewers"] || got["status"] {
		t.Fatalf("SetColumns = %v", got)
	}
	if _, ok := got["bogus"]; ok {
		t.Fatal("unknown column was stored")
	}

	again := NewStore(path).Columns()
	if !again["reviewers"] || again["status"] {
		t.Fatalf("reloaded = %v", again)
	}
	raw, _ := os.ReadFile(path)
	if !strings.Contains(string(raw), "theme: dark") || !strings.Contains(string(raw), Key) {
		t.Fatalf("file = %s", raw)
	}
}

func TestColumnsSwallowsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.yaml")
	if err := os.WriteFile(path, []byte(":\n\t- not yaml ["), 0o644); err != nil {
		t.Fatal(err)
	}
	cols := NewStore(path).Columns()
	if !cols["title"] {
		t.Fatalf("corrupt file should fall back to defaults, got %v", cols)
	}
}

func TestSetColumnsSwallowsWriteFailure(t *testing.T) {
	dir := t.TempDir()
	// A directory where the file should be makes every write fail.
	path := filepath.Join(dir, "preferences.yaml")
	if err := os.Mkdir(path, 0o755); err != nil {
		t.Fatal(err)
	}
	got := NewStore(path).SetColumns(map[string]bool{"title": false})
	if got["title"] {
		t.Fatalf("SetColumns should still return the requested state, got %v", got)
	}
}
