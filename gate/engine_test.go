package gate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/novelaire/novelaire/specstore"
	"github.com/novelaire/novelaire/workflow"
)

func newTestEngine(t *testing.T) (*Engine, string) {
	t.Helper()
	root := t.TempDir()
	manager := workflow.NewManager(root)
	if err := manager.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	store := specstore.NewStore(root)
	return NewEngine(manager, store, nil), root
}

func writeArtifact(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func writeEntry(t *testing.T, root, id, title string, status specstore.EntryStatus, body string) {
	t.Helper()
	entry := &specstore.Entry{ID: id, Title: title, Status: status}
	text, err := specstore.BuildEntryText(entry, body)
	if err != nil {
		t.Fatal(err)
	}
	rel, err := specstore.EntryRelPath(id)
	if err != nil {
		t.Fatal(err)
	}
	writeArtifact(t, root, rel, text)
}

func findingWith(findings []Finding, substr string) *Finding {
	for i := range findings {
		if strings.Contains(findings[i].Problem, substr) {
			return &findings[i]
		}
	}
	return nil
}

func TestSpecGate(t *testing.T) {
	t.Run("clean entries pass", func(t *testing.T) {
		engine, root := newTestEngine(t)
		writeEntry(t, root, "characters/elara", "Elara Voss", specstore.StatusConfirmed, "The cartographer.")

		report, err := engine.Run(TypeSpec, "")
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if report.Result != Pass {
			t.Errorf("expected PASS, got %s: %+v", report.Result, report.Findings)
		}
		if report.Blocked() {
			t.Error("passing gate must not block")
		}
	})

	t.Run("invalid status fails", func(t *testing.T) {
		engine, root := newTestEngine(t)
		writeArtifact(t, root, "spec/characters/borin.md",
			"---\nid: characters/borin\nstatus: maybe\n---\n\nBody.\n")

		report, err := engine.Run(TypeSpec, "")
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if report.Result != Fail {
			t.Errorf("expected FAIL, got %s", report.Result)
		}
		if !report.Blocked() {
			t.Error("failing gate must block")
		}
	})

	t.Run("confirmed entry without title fails", func(t *testing.T) {
		engine, root := newTestEngine(t)
		writeEntry(t, root, "world/isles", "", specstore.StatusConfirmed, "The isles drift.")

		report, err := engine.Run(TypeSpec, "")
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if report.Result != Fail {
			t.Errorf("expected FAIL, got %s: %+v", report.Result, report.Findings)
		}
	})

	t.Run("empty body fails", func(t *testing.T) {
		engine, root := newTestEngine(t)
		writeEntry(t, root, "premise/core", "Core", specstore.StatusDraft, "")

		report, err := engine.Run(TypeSpec, "")
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if report.Result != Fail {
			t.Errorf("expected FAIL, got %s: %+v", report.Result, report.Findings)
		}
	})

	t.Run("duplicate ids fail", func(t *testing.T) {
		engine, root := newTestEngine(t)
		writeEntry(t, root, "characters/elara", "Elara", specstore.StatusDraft, "One.")
		writeArtifact(t, root, "spec/characters/elara-copy.md",
			"---\nid: characters/elara\ntitle: Elara again\n---\n\nTwo.\n")

		report, err := engine.Run(TypeSpec, "")
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if report.Result != Fail {
			t.Errorf("expected FAIL for duplicate id, got %s", report.Result)
		}
	})
}

func TestOutlineGate(t *testing.T) {
	t.Run("missing outline fails", func(t *testing.T) {
		engine, _ := newTestEngine(t)
		report, err := engine.Run(TypeOutline, "")
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if report.Result != Fail {
			t.Errorf("expected FAIL, got %s", report.Result)
		}
		if findingWith(report.Findings, "outline is missing") == nil {
			t.Errorf("expected missing-outline finding: %+v", report.Findings)
		}
	})

	t.Run("complete outline with resolving anchors passes", func(t *testing.T) {
		engine, root := newTestEngine(t)
		writeEntry(t, root, "characters/elara", "Elara", specstore.StatusConfirmed, "The cartographer.")
		writeArtifact(t, root, "outline/outline.md", strings.Join([]string{
			"# The Clockwork Heir",
			"",
			"## Act One",
			"",
			"Elara discovers the isles are sinking and sets out to map the",
			"deep currents before the council seals the archive. @spec:characters/elara",
			"",
			"## Stakes",
			"",
			"The isles fall if the map stays unfinished.",
			"",
		}, "\n"))

		report, err := engine.Run(TypeOutline, "")
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if report.Result != Pass {
			t.Errorf("expected PASS, got %s: %+v", report.Result, report.Findings)
		}
	})

	t.Run("unresolved anchor fails", func(t *testing.T) {
		engine, root := newTestEngine(t)
		writeArtifact(t, root, "outline/outline.md", strings.Join([]string{
			"# Title",
			"",
			"## Act One",
			"",
			"A long act body that easily clears the minimum content bar for",
			"the act requirement of this outline. @spec:characters/ghost",
			"",
			"## Stakes",
			"",
			"Everything.",
			"",
		}, "\n"))

		report, err := engine.Run(TypeOutline, "")
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if report.Result != Fail {
			t.Errorf("expected FAIL for unresolved anchor, got %s: %+v", report.Result, report.Findings)
		}
	})
}

func TestChapterGate(t *testing.T) {
	engine, root := newTestEngine(t)
	writeEntry(t, root, "characters/elara", "Elara", specstore.StatusConfirmed, "The cartographer.")

	long := strings.Repeat("Elara crossed the span as the isle tilted beneath her. ", 12)
	writeArtifact(t, root, "chapters/ch01.md", "# Chapter 1\n\n"+long+"@spec:characters/elara\n")
	writeArtifact(t, root, "chapters/ch02.md", "# Chapter 2\n\nToo short.\n")

	t.Run("solid chapter passes", func(t *testing.T) {
		report, err := engine.Run(TypeChapter, "chapters/ch01.md")
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if report.Result != Pass {
			t.Errorf("expected PASS, got %s: %+v", report.Result, report.Findings)
		}
	})

	t.Run("very short chapter warns", func(t *testing.T) {
		report, err := engine.Run(TypeChapter, "chapters/ch02.md")
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if report.Result != Warn {
			t.Errorf("expected WARN, got %s: %+v", report.Result, report.Findings)
		}
		if report.Blocked() {
			t.Error("warn must not block")
		}
	})

	t.Run("no chapters fails", func(t *testing.T) {
		empty, _ := newTestEngine(t)
		report, err := empty.Run(TypeChapter, "")
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if report.Result != Fail {
			t.Errorf("expected FAIL, got %s", report.Result)
		}
	})
}

func TestRegressionGate(t *testing.T) {
	engine, root := newTestEngine(t)
	writeEntry(t, root, "characters/elara", "Elara", specstore.StatusConfirmed, "The cartographer.")
	writeArtifact(t, root, "chapters/ch01.md",
		"# Chapter 1\n\nShe consulted the charts. @spec:characters/elara\nHe was gone. @spec:characters/borin\n")

	report, err := engine.Run(TypeRegression, "")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Result != Fail {
		t.Fatalf("expected FAIL, got %s: %+v", report.Result, report.Findings)
	}
	finding := findingWith(report.Findings, "characters/borin")
	if finding == nil {
		t.Fatalf("expected finding for removed entry: %+v", report.Findings)
	}
	if !strings.Contains(finding.Location, "chapters/ch01.md:4") {
		t.Errorf("finding should carry file and line, got %s", finding.Location)
	}
}

func TestForgottenElementsGate(t *testing.T) {
	engine, root := newTestEngine(t)
	writeEntry(t, root, "characters/elara", "Elara", specstore.StatusConfirmed, "Anchored.")
	writeEntry(t, root, "characters/borin", "Borin", specstore.StatusConfirmed, "Never mentioned.")
	writeEntry(t, root, "characters/sketch", "Sketch", specstore.StatusDraft, "Draft, exempt.")
	writeArtifact(t, root, "outline/outline.md", "# T\n\n## Act One\n\n@spec:characters/elara and onward through the act.\n")

	report, err := engine.Run(TypeForgotten, "")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Result != Warn {
		t.Fatalf("expected WARN, got %s: %+v", report.Result, report.Findings)
	}
	if findingWith(report.Findings, "never anchored") == nil {
		t.Errorf("expected never-anchored finding: %+v", report.Findings)
	}
	for _, f := range report.Findings {
		if strings.Contains(f.Location, "characters/sketch") {
			t.Error("draft entries must be exempt from the forgotten-elements gate")
		}
	}
}

func advanceMode(t *testing.T, manager *workflow.Manager, target workflow.Mode) {
	t.Helper()
	if err := manager.SetMode(target); err != nil {
		t.Fatalf("set mode %s: %v", target, err)
	}
}

func TestConsistencyGateModeWhitelist(t *testing.T) {
	t.Run("outline written in brainstorm warns", func(t *testing.T) {
		engine, root := newTestEngine(t)
		writeArtifact(t, root, "outline/outline.md", "# T\n\n## Act One\n\nToo early.\n")

		report, err := engine.Run(TypeConsistency, "")
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if report.Result != Warn {
			t.Errorf("expected WARN, got %s: %+v", report.Result, report.Findings)
		}
		if findingWith(report.Findings, "not writable in brainstorm") == nil {
			t.Errorf("expected mode-whitelist finding: %+v", report.Findings)
		}
	})

	t.Run("outline survives into prose mode", func(t *testing.T) {
		engine, root := newTestEngine(t)
		writeArtifact(t, root, "outline/outline.md", "# T\n\n## Act One\n\nWritten back in outline mode.\n")
		for _, target := range []workflow.Mode{workflow.ModeSpecFinalize, workflow.ModeOutline, workflow.ModeFineOutline, workflow.ModeProse} {
			advanceMode(t, engine.manager, target)
		}

		report, err := engine.Run(TypeConsistency, "")
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if report.Result != Pass {
			t.Errorf("expected PASS, got %s: %+v", report.Result, report.Findings)
		}
	})

	t.Run("chapters before prose warn", func(t *testing.T) {
		engine, root := newTestEngine(t)
		writeArtifact(t, root, "chapters/ch01.md", "# Chapter 1\n\nShe left at dawn.\n")
		for _, target := range []workflow.Mode{workflow.ModeSpecFinalize, workflow.ModeOutline, workflow.ModeFineOutline} {
			advanceMode(t, engine.manager, target)
		}

		report, err := engine.Run(TypeConsistency, "")
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if report.Result != Warn {
			t.Errorf("expected WARN, got %s: %+v", report.Result, report.Findings)
		}
		if findingWith(report.Findings, "chapters/ch01.md") == nil {
			t.Errorf("expected finding for premature chapter: %+v", report.Findings)
		}
	})
}

func TestReportPersistence(t *testing.T) {
	engine, root := newTestEngine(t)
	writeEntry(t, root, "characters/elara", "Elara", specstore.StatusConfirmed, "The cartographer.")

	if _, err := engine.Run(TypeSpec, ""); err != nil {
		t.Fatalf("run: %v", err)
	}

	reports, err := engine.LoadReports()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("expected 1 persisted report, got %d", len(reports))
	}
	if reports[0].Gate != TypeSpec {
		t.Errorf("unexpected gate: %s", reports[0].Gate)
	}
}

func TestParseType(t *testing.T) {
	if _, err := ParseType("outline"); err != nil {
		t.Errorf("outline should parse: %v", err)
	}
	if gateType, err := ParseType("characters"); err != nil || gateType != Type("characters") {
		t.Errorf("domain gates should parse, got %v %v", gateType, err)
	}
	if _, err := ParseType("vibes"); err == nil {
		t.Error("unknown gate should be rejected")
	}
}
