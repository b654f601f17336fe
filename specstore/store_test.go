package specstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSpecFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestStoreRefresh(t *testing.T) {
	root := t.TempDir()

	writeSpecFile(t, root, "spec/characters/elara.md",
		"---\nid: characters/elara\ntitle: Elara Voss\nstatus: confirmed\n---\n\nThe cartographer.\n")
	writeSpecFile(t, root, "spec/characters/elara-dup.md",
		"---\nid: characters/elara\ntitle: Duplicate\n---\n\nShould be skipped.\n")
	writeSpecFile(t, root, "spec/world/broken.md",
		"---\nid: [oops\n---\n\nBroken frontmatter.\n")
	writeSpecFile(t, root, "spec/world/no-id.md",
		"Just markdown, no frontmatter.\n")

	store := NewStore(root)

	t.Run("indexes valid entries", func(t *testing.T) {
		entry, _, err := store.Get("characters/elara")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		// Sorted walk: elara-dup.md comes before elara.md, so the dup
		// file wins the first-occurrence rule.
		if entry.Title != "Duplicate" {
			t.Errorf("expected first occurrence to win, got title %q", entry.Title)
		}
	})

	t.Run("records warnings for dup, malformed, and id-less files", func(t *testing.T) {
		warnings := store.Warnings()
		if len(warnings) != 3 {
			t.Fatalf("expected 3 warnings, got %d: %v", len(warnings), warnings)
		}
		joined := strings.Join(warnings, "\n")
		for _, want := range []string{"duplicate spec id", "frontmatter", "missing id"} {
			if !strings.Contains(joined, want) {
				t.Errorf("warnings missing %q: %v", want, warnings)
			}
		}
	})

	t.Run("list is sorted by id", func(t *testing.T) {
		entries := store.List()
		if len(entries) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(entries))
		}
	})

	t.Run("missing entry returns ErrNotFound", func(t *testing.T) {
		if _, _, err := store.Get("characters/nobody"); err == nil {
			t.Error("expected error for missing entry")
		}
	})
}

func TestStoreRefreshEmptyProject(t *testing.T) {
	store := NewStore(t.TempDir())
	if err := store.Refresh(); err != nil {
		t.Fatalf("refresh on empty project: %v", err)
	}
	if len(store.List()) != 0 {
		t.Error("expected no entries")
	}
}

func TestUnifiedDiff(t *testing.T) {
	t.Run("equal texts produce no diff", func(t *testing.T) {
		if got := UnifiedDiff("spec/a.md", "same\n", "same\n"); got != "(no diff)" {
			t.Errorf("unexpected diff: %q", got)
		}
	})

	t.Run("changed lines appear with +/- markers", func(t *testing.T) {
		diff := UnifiedDiff("spec/a.md", "old line\nshared\n", "new line\nshared\n")
		if !strings.Contains(diff, "--- a/spec/a.md") || !strings.Contains(diff, "+++ b/spec/a.md") {
			t.Errorf("missing headers: %q", diff)
		}
		if !strings.Contains(diff, "-old line") {
			t.Errorf("missing removal: %q", diff)
		}
		if !strings.Contains(diff, "+new line") {
			t.Errorf("missing addition: %q", diff)
		}
	})

	t.Run("creation diffs against empty old text", func(t *testing.T) {
		diff := UnifiedDiff("spec/b.md", "", "brand new\n")
		if !strings.Contains(diff, "+brand new") {
			t.Errorf("missing addition: %q", diff)
		}
		if !strings.Contains(diff, "@@ -0,0 +1 @@") {
			t.Errorf("missing creation hunk header: %q", diff)
		}
	})

	t.Run("hunks carry headers and trim distant context", func(t *testing.T) {
		var old, new []string
		for i := 1; i <= 12; i++ {
			old = append(old, fmt.Sprintf("line %d", i))
			new = append(new, fmt.Sprintf("line %d", i))
		}
		new[7] = "line 8 revised"
		diff := UnifiedDiff("spec/a.md", strings.Join(old, "\n")+"\n", strings.Join(new, "\n")+"\n")

		if !strings.Contains(diff, "@@ -5,7 +5,7 @@") {
			t.Errorf("missing hunk header: %q", diff)
		}
		if strings.Contains(diff, " line 1\n") {
			t.Errorf("distant line leaked into context: %q", diff)
		}
		if !strings.Contains(diff, "-line 8\n") || !strings.Contains(diff, "+line 8 revised\n") {
			t.Errorf("missing change lines: %q", diff)
		}
	})
}
