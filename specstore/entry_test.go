package specstore

import (
	"strings"
	"testing"
)

func TestValidateID(t *testing.T) {
	valid := []string{
		"characters/elara",
		"world/floating-isles",
		"system/aether-cost-rules",
		"characters/elara/arc-act-one",
	}
	for _, id := range valid {
		if err := ValidateID(id); err != nil {
			t.Errorf("ValidateID(%q) = %v, want nil", id, err)
		}
	}

	invalid := []string{
		"",
		"elara",              // no domain prefix
		"Characters/Elara",   // uppercase
		"characters/",        // empty leaf
		"/elara",             // empty domain
		"characters/el ara",  // whitespace
		"sorcery/elara",      // unknown domain
		"characters//elara",  // empty segment
		"characters/-leading",
	}
	for _, id := range invalid {
		if err := ValidateID(id); err == nil {
			t.Errorf("ValidateID(%q) = nil, want error", id)
		}
	}
}

func TestEntryText(t *testing.T) {
	entry := &Entry{
		ID:      "characters/elara",
		Title:   "Elara Voss",
		Status:  StatusConfirmed,
		Tags:    []string{"protagonist"},
		Aliases: []string{"the cartographer"},
	}
	body := "Elara maps the floating isles.\n"

	text, err := BuildEntryText(entry, body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(text, "---\n") {
		t.Error("entry text should start with frontmatter")
	}
	if !strings.HasSuffix(text, "\n") {
		t.Error("entry text should end with a newline")
	}

	parsed, parsedBody, err := ParseEntryText(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed.ID != entry.ID {
		t.Errorf("expected id %s, got %s", entry.ID, parsed.ID)
	}
	if parsed.Title != entry.Title {
		t.Errorf("expected title %s, got %s", entry.Title, parsed.Title)
	}
	if parsed.Status != StatusConfirmed {
		t.Errorf("expected confirmed, got %s", parsed.Status)
	}
	if len(parsed.Aliases) != 1 || parsed.Aliases[0] != "the cartographer" {
		t.Errorf("aliases not preserved: %v", parsed.Aliases)
	}
	if strings.TrimSpace(parsedBody) != strings.TrimSpace(body) {
		t.Errorf("body not preserved: %q", parsedBody)
	}
}

func TestParseEntryTextEdgeCases(t *testing.T) {
	t.Run("no frontmatter yields nil entry", func(t *testing.T) {
		entry, body, err := ParseEntryText("plain markdown, no frontmatter")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if entry != nil {
			t.Error("expected nil entry without frontmatter")
		}
		if body != "plain markdown, no frontmatter" {
			t.Errorf("body not preserved: %q", body)
		}
	})

	t.Run("broken yaml is an error", func(t *testing.T) {
		if _, _, err := ParseEntryText("---\nid: [broken\n---\nbody"); err == nil {
			t.Error("expected error for broken frontmatter")
		}
	})

	t.Run("unterminated frontmatter is an error", func(t *testing.T) {
		if _, _, err := ParseEntryText("---\nid: characters/elara\nno close"); err == nil {
			t.Error("expected error for unterminated frontmatter")
		}
	})
}

func TestEntryRelPath(t *testing.T) {
	got, err := EntryRelPath("characters/elara")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "spec/characters/elara.md" {
		t.Errorf("unexpected path: %s", got)
	}

	if _, err := EntryRelPath("not-an-id"); err == nil {
		t.Error("expected error for invalid id")
	}
}
