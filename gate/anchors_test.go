package gate

import (
	"testing"
)

func TestScanAnchors(t *testing.T) {
	t.Run("finds anchors with line numbers", func(t *testing.T) {
		text := "## Chapter 1\n\nElara departs. @spec:characters/elara\n@spec:world/floating-isles and @spec:system/aether-cost\n"
		anchors := ScanAnchors(text)
		if len(anchors) != 3 {
			t.Fatalf("expected 3 anchors, got %d", len(anchors))
		}
		if anchors[0].EntryID != "characters/elara" || anchors[0].Line != 3 {
			t.Errorf("unexpected first anchor: %+v", anchors[0])
		}
		if anchors[1].EntryID != "world/floating-isles" || anchors[1].Line != 4 {
			t.Errorf("unexpected second anchor: %+v", anchors[1])
		}
		if anchors[2].EntryID != "system/aether-cost" {
			t.Errorf("unexpected third anchor: %+v", anchors[2])
		}
	})

	t.Run("ignores malformed references", func(t *testing.T) {
		text := "@spec: characters/elara\n@spec:Elara\nspec:world/isles\n@spec:no-slash\n"
		if anchors := ScanAnchors(text); len(anchors) != 0 {
			t.Errorf("expected no anchors, got %+v", anchors)
		}
	})

	t.Run("empty text yields nothing", func(t *testing.T) {
		if anchors := ScanAnchors(""); len(anchors) != 0 {
			t.Errorf("expected no anchors, got %+v", anchors)
		}
	})
}
