package workflow

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestModeTransitions(t *testing.T) {
	t.Run("forward advances one step", func(t *testing.T) {
		if !ModeBrainstorm.CanTransitionTo(ModeSpecFinalize) {
			t.Error("brainstorm should advance to spec-finalize")
		}
		if !ModeSpecFinalize.CanTransitionTo(ModeOutline) {
			t.Error("spec-finalize should advance to outline")
		}
		if !ModeFineOutline.CanTransitionTo(ModeProse) {
			t.Error("fine-outline should advance to prose")
		}
	})

	t.Run("forward skipping is rejected", func(t *testing.T) {
		if ModeBrainstorm.CanTransitionTo(ModeOutline) {
			t.Error("brainstorm must not skip to outline")
		}
		if ModeSpecFinalize.CanTransitionTo(ModeProse) {
			t.Error("spec-finalize must not skip to prose")
		}
	})

	t.Run("regression to any earlier mode is allowed", func(t *testing.T) {
		if !ModeProse.CanTransitionTo(ModeBrainstorm) {
			t.Error("prose should regress to brainstorm")
		}
		if !ModeProse.CanTransitionTo(ModeOutline) {
			t.Error("prose should regress to outline")
		}
		if !ModeOutline.CanTransitionTo(ModeSpecFinalize) {
			t.Error("outline should regress to spec-finalize")
		}
	})

	t.Run("self transition is rejected", func(t *testing.T) {
		if ModeOutline.CanTransitionTo(ModeOutline) {
			t.Error("self transition should be rejected")
		}
	})

	t.Run("unknown modes are invalid", func(t *testing.T) {
		if Mode("editing").IsValid() {
			t.Error("unknown mode should be invalid")
		}
	})
}

func TestModeCanWrite(t *testing.T) {
	tests := []struct {
		mode    Mode
		relPath string
		want    bool
	}{
		{ModeBrainstorm, "drafts/ideas.md", true},
		{ModeBrainstorm, "spec/characters/elara.md", false},
		{ModeSpecFinalize, "spec/world/geography.md", false},
		{ModeSpecFinalize, "refs/style-guide.md", true},
		{ModeOutline, "outline/outline.md", true},
		{ModeOutline, "chapters/ch01.md", false},
		{ModeFineOutline, "outline/fine/ch01.md", true},
		{ModeProse, "chapters/ch01.md", true},
		{ModeProse, "spec/premise/logline.md", false},
	}

	for _, tt := range tests {
		if got := tt.mode.CanWrite(tt.relPath); got != tt.want {
			t.Errorf("%s.CanWrite(%q) = %v, want %v", tt.mode, tt.relPath, got, tt.want)
		}
	}
}

func TestModePersistence(t *testing.T) {
	m := NewManager(t.TempDir())

	t.Run("defaults to brainstorm", func(t *testing.T) {
		mode, err := m.CurrentMode()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if mode != ModeBrainstorm {
			t.Errorf("expected brainstorm, got %s", mode)
		}
	})

	t.Run("valid transition persists", func(t *testing.T) {
		if err := m.SetMode(ModeSpecFinalize); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		mode, err := m.CurrentMode()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if mode != ModeSpecFinalize {
			t.Errorf("expected spec-finalize, got %s", mode)
		}
	})

	t.Run("invalid transition is rejected", func(t *testing.T) {
		if err := m.SetMode(ModeProse); err == nil {
			t.Error("expected error for skipping transition")
		}
	})

	t.Run("regression persists", func(t *testing.T) {
		if err := m.SetMode(ModeBrainstorm); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		mode, _ := m.CurrentMode()
		if mode != ModeBrainstorm {
			t.Errorf("expected brainstorm after regression, got %s", mode)
		}
	})
}

func writeGateReport(t *testing.T, m *Manager, gateName, result string) {
	t.Helper()
	dir := filepath.Join(m.StatePath(), "gates")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("create gates dir: %v", err)
	}
	report := fmt.Sprintf(`{"gate": %q, "result": %q}`, gateName, result)
	if err := os.WriteFile(filepath.Join(dir, gateName+".json"), []byte(report), 0644); err != nil {
		t.Fatalf("write gate report: %v", err)
	}
}

func TestSetModeGateGuard(t *testing.T) {
	m := NewManager(t.TempDir())

	t.Run("failing gate blocks forward transition", func(t *testing.T) {
		writeGateReport(t, m, "spec", "FAIL")
		err := m.SetMode(ModeSpecFinalize)
		if !errors.Is(err, ErrGateBlocked) {
			t.Fatalf("SetMode past failing gate: %v, want ErrGateBlocked", err)
		}
		if mode, _ := m.CurrentMode(); mode != ModeBrainstorm {
			t.Errorf("mode advanced to %s despite failing gate", mode)
		}
	})

	t.Run("passing gate allows forward transition", func(t *testing.T) {
		writeGateReport(t, m, "spec", "PASS")
		if err := m.SetMode(ModeSpecFinalize); err != nil {
			t.Fatalf("SetMode with passing gate: %v", err)
		}
	})

	t.Run("regression ignores gate reports", func(t *testing.T) {
		writeGateReport(t, m, "spec", "FAIL")
		if err := m.SetMode(ModeBrainstorm); err != nil {
			t.Fatalf("regression past failing gate: %v", err)
		}
	})

	t.Run("missing report does not block", func(t *testing.T) {
		if err := m.SetMode(ModeSpecFinalize); err != nil {
			t.Fatalf("SetMode with no outline report: %v", err)
		}
		// spec report still FAIL, but outline guards the next step.
		writeGateReport(t, m, "spec", "PASS")
		if err := m.SetMode(ModeOutline); err != nil {
			t.Fatalf("SetMode into outline: %v", err)
		}
	})
}

func TestOverrideMode(t *testing.T) {
	m := NewManager(t.TempDir())
	writeGateReport(t, m, "spec", "FAIL")

	t.Run("requires a reason", func(t *testing.T) {
		if err := m.OverrideMode(ModeSpecFinalize, ""); err == nil {
			t.Fatal("expected error for override without reason")
		}
	})

	t.Run("records a decision and advances", func(t *testing.T) {
		if err := m.OverrideMode(ModeSpecFinalize, "canon fixes deferred to next pass"); err != nil {
			t.Fatalf("OverrideMode: %v", err)
		}
		if mode, _ := m.CurrentMode(); mode != ModeSpecFinalize {
			t.Errorf("mode = %s, want spec-finalize", mode)
		}

		decisions, err := m.Decisions()
		if err != nil {
			t.Fatalf("Decisions: %v", err)
		}
		if len(decisions) != 1 {
			t.Fatalf("len(decisions) = %d, want 1", len(decisions))
		}
		d := decisions[0]
		if d.Mode != ModeSpecFinalize || d.Gate != "spec" || d.Reason == "" {
			t.Errorf("decision = %+v", d)
		}
	})

	t.Run("still validates the transition", func(t *testing.T) {
		if err := m.OverrideMode(ModeProse, "skip ahead"); err == nil {
			t.Error("expected error for skipping transition even with override")
		}
	})
}

func TestCouldHaveWritten(t *testing.T) {
	tests := []struct {
		mode    Mode
		relPath string
		want    bool
	}{
		{ModeBrainstorm, "drafts/ideas.md", true},
		{ModeBrainstorm, "outline/outline.md", false},
		{ModeBrainstorm, "chapters/ch01.md", false},
		{ModeOutline, "outline/outline.md", true},
		{ModeProse, "outline/outline.md", true}, // written back in outline mode
		{ModeProse, "chapters/ch01.md", true},
		{ModeFineOutline, "chapters/ch01.md", false},
		{ModeProse, "spec/characters/elara.md", false},
	}

	for _, tt := range tests {
		if got := tt.mode.CouldHaveWritten(tt.relPath); got != tt.want {
			t.Errorf("%s.CouldHaveWritten(%q) = %v, want %v", tt.mode, tt.relPath, got, tt.want)
		}
	}
}
