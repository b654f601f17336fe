package workflow

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, RootDir), 0755); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "chapters", "deep")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	t.Run("finds project from nested directory", func(t *testing.T) {
		m, err := Discover(nested)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m.ProjectRoot() != root {
			t.Errorf("expected root %s, got %s", root, m.ProjectRoot())
		}
	})

	t.Run("fails outside a project", func(t *testing.T) {
		_, err := Discover(t.TempDir())
		if !errors.Is(err, ErrNoProject) {
			t.Errorf("expected ErrNoProject, got %v", err)
		}
	})
}

func TestEnsureDirectories(t *testing.T) {
	m := NewManager(t.TempDir())
	if err := m.EnsureDirectories(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, dir := range []string{m.SpecPath(), m.OutlinePath(), m.ChaptersPath(), m.DraftsPath(), m.RefsPath(), m.StatePath()} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Errorf("missing directory %s: %v", dir, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("%s is not a directory", dir)
		}
	}

	// Idempotent on an existing project.
	if err := m.EnsureDirectories(); err != nil {
		t.Fatalf("second run failed: %v", err)
	}
}

func TestResolveInProject(t *testing.T) {
	m := NewManager(t.TempDir())

	t.Run("resolves relative paths", func(t *testing.T) {
		abs, err := m.ResolveInProject("spec/world/geography.md")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := filepath.Join(m.ProjectRoot(), "spec", "world", "geography.md")
		if abs != want {
			t.Errorf("expected %s, got %s", want, abs)
		}
	})

	t.Run("rejects absolute paths", func(t *testing.T) {
		if _, err := m.ResolveInProject("/etc/passwd"); err == nil {
			t.Error("expected error for absolute path")
		}
	})

	t.Run("rejects traversal", func(t *testing.T) {
		if _, err := m.ResolveInProject("../outside.md"); err == nil {
			t.Error("expected error for traversal")
		}
		if _, err := m.ResolveInProject("spec/../../outside.md"); err == nil {
			t.Error("expected error for nested traversal")
		}
	})
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"The Clockwork Heir", "the-clockwork-heir"},
		{"chapter_one draft", "chapter-one-draft"},
		{"  odd  spacing  ", "odd-spacing"},
		{"emoji 🎉 stripped", "emoji-stripped"},
	}

	for _, tt := range tests {
		if got := Slugify(tt.input); got != tt.expected {
			t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
