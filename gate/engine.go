package gate

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/novelaire/novelaire/observe"
	"github.com/novelaire/novelaire/specstore"
	"github.com/novelaire/novelaire/workflow"
)

// Type identifies a gate.
type Type string

// Structural gates.
const (
	TypeSpec        Type = "spec"
	TypeOutline     Type = "outline"
	TypeFineOutline Type = "fine-outline"
	TypeChapter     Type = "chapter"
	TypeConsistency Type = "consistency"
	TypeRegression  Type = "regression"
	TypeForgotten   Type = "forgotten-elements"
)

// ParseType resolves a gate name. Domain names are valid gate types and
// run the per-domain content gate.
func ParseType(name string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(name)))
	switch t {
	case TypeSpec, TypeOutline, TypeFineOutline, TypeChapter,
		TypeConsistency, TypeRegression, TypeForgotten:
		return t, nil
	}
	if specstore.Domain(t).IsValid() {
		return t, nil
	}
	return "", fmt.Errorf("unknown gate type: %s", name)
}

// Engine runs gates against the spec store and project artifacts.
type Engine struct {
	manager *workflow.Manager
	store   *specstore.Store
	logger  *slog.Logger
}

// NewEngine creates a gate engine.
func NewEngine(manager *workflow.Manager, store *specstore.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{manager: manager, store: store, logger: logger}
}

// Run evaluates one gate. target scopes the run where the gate supports
// it (a domain for spec, a chapter file for chapter); empty means the
// gate's full scope.
func (e *Engine) Run(gateType Type, target string) (*Report, error) {
	if err := e.store.Refresh(); err != nil {
		return nil, fmt.Errorf("refresh spec store: %w", err)
	}

	var findings []Finding
	var err error
	switch gateType {
	case TypeSpec:
		findings, err = e.runSpec(target)
	case TypeOutline:
		findings, err = e.runOutline()
	case TypeFineOutline:
		findings, err = e.runFineOutline()
	case TypeChapter:
		findings, err = e.runChapter(target)
	case TypeConsistency:
		findings, err = e.runConsistency()
	case TypeRegression:
		findings, err = e.runRegression()
	case TypeForgotten:
		findings, err = e.runForgotten()
	default:
		domain := specstore.Domain(gateType)
		if !domain.IsValid() {
			return nil, fmt.Errorf("unknown gate type: %s", gateType)
		}
		findings, err = e.runDomain(domain)
	}
	if err != nil {
		return nil, err
	}

	report := &Report{
		Gate:     gateType,
		Target:   target,
		Result:   aggregate(findings),
		Findings: findings,
		RanAt:    time.Now(),
	}
	report.NextStep = nextStep(report)

	observe.GateRuns.WithLabelValues(string(gateType), string(report.Result)).Inc()
	e.logger.Info("Gate evaluated",
		slog.String("gate", string(gateType)),
		slog.String("result", string(report.Result)),
		slog.Int("findings", len(findings)))

	if err := e.persist(report); err != nil {
		e.logger.Warn("Failed to persist gate report",
			slog.String("gate", string(gateType)),
			slog.String("error", err.Error()))
	}
	return report, nil
}

// nextStep summarizes what the caller should do with the result.
func nextStep(r *Report) string {
	switch r.Result {
	case Fail:
		return "fix the fail findings upstream (or record an explicit override decision) before advancing"
	case Warn:
		return "review warn findings; advancing is allowed"
	default:
		return "gate passed; phase may advance"
	}
}

// persist writes the latest report per gate under .novelaire/state/gates.
func (e *Engine) persist(report *Report) error {
	dir := filepath.Join(e.manager.StatePath(), "gates")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, string(report.Gate)+".json"), data, 0644)
}

// LoadReports reads all persisted gate reports.
func (e *Engine) LoadReports() ([]*Report, error) {
	dir := filepath.Join(e.manager.StatePath(), "gates")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var reports []*Report
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		var r Report
		if err := json.Unmarshal(data, &r); err != nil {
			continue
		}
		reports = append(reports, &r)
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].Gate < reports[j].Gate })
	return reports, nil
}

// --- spec + domain gates ----------------------------------------------------

func (e *Engine) runSpec(target string) ([]Finding, error) {
	var domain specstore.Domain
	if target != "" {
		domain = specstore.Domain(target)
		if !domain.IsValid() {
			return nil, fmt.Errorf("unknown spec domain: %s", target)
		}
	}

	var findings []Finding
	for _, warning := range e.store.Warnings() {
		severity := SeverityWarn
		if strings.Contains(warning, "duplicate spec id") {
			severity = SeverityFail
		}
		findings = append(findings, Finding{
			Severity:     severity,
			Location:     workflow.SpecDir,
			Problem:      warning,
			SuggestedFix: "repair the entry frontmatter",
		})
	}

	for _, entry := range e.store.List() {
		if domain != "" && entry.Domain() != domain {
			continue
		}
		findings = append(findings, e.checkEntry(entry)...)
	}
	return findings, nil
}

func (e *Engine) checkEntry(entry *specstore.Entry) []Finding {
	var findings []Finding

	if err := specstore.ValidateID(entry.ID); err != nil {
		findings = append(findings, Finding{
			Severity:     SeverityFail,
			Location:     entry.Path,
			Problem:      err.Error(),
			SuggestedFix: "rename the entry to a kebab-case domain-prefixed id",
		})
		return findings
	}

	expected, _ := specstore.EntryRelPath(entry.ID)
	if entry.Path != expected {
		findings = append(findings, Finding{
			Severity:     SeverityWarn,
			Location:     entry.Path,
			Problem:      fmt.Sprintf("entry id %s does not match its path (expected %s)", entry.ID, expected),
			SuggestedFix: "move the file so id and path agree",
		})
	}

	if entry.Status != "" && !entry.Status.IsValid() {
		findings = append(findings, Finding{
			Severity:     SeverityFail,
			Location:     entry.ID,
			Problem:      "invalid status: " + string(entry.Status),
			SuggestedFix: "use draft or confirmed",
		})
	}

	_, body, err := e.store.Get(entry.ID)
	if err == nil && strings.TrimSpace(body) == "" {
		findings = append(findings, Finding{
			Severity:     SeverityFail,
			Location:     entry.ID,
			Problem:      "entry has no body",
			SuggestedFix: "write the rule/object description or remove the entry",
		})
	}

	if entry.Status == specstore.StatusConfirmed && strings.TrimSpace(entry.Title) == "" {
		findings = append(findings, Finding{
			Severity:     SeverityFail,
			Location:     entry.ID,
			Problem:      "confirmed entry has no title",
			SuggestedFix: "add a title before confirming",
		})
	}
	return findings
}

func (e *Engine) runDomain(domain specstore.Domain) ([]Finding, error) {
	findings, err := e.runSpec(string(domain))
	if err != nil {
		return nil, err
	}

	reqs := domainRequirements[domain]
	if len(reqs) == 0 {
		return findings, nil
	}
	for _, entry := range e.store.List() {
		if entry.Domain() != domain || entry.Status != specstore.StatusConfirmed {
			continue
		}
		_, body, err := e.store.Get(entry.ID)
		if err != nil {
			continue
		}
		findings = append(findings, checkSections(reqs, entry.Path, body)...)
	}
	return findings, nil
}

// --- artifact gates ---------------------------------------------------------

func (e *Engine) runOutline() ([]Finding, error) {
	rel := filepath.Join(workflow.OutlineDir, workflow.OutlineFile)
	text, ok, err := e.readArtifact(rel)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []Finding{{
			Severity:     SeverityFail,
			Location:     fileLine(rel, 1),
			Problem:      "outline is missing",
			SuggestedFix: "write outline/outline.md before running the outline gate",
		}}, nil
	}

	findings := checkSections(outlineRequirements, rel, text)
	findings = append(findings, e.checkAnchors(rel, text, SeverityFail)...)
	return findings, nil
}

func (e *Engine) runFineOutline() ([]Finding, error) {
	files, err := e.fineOutlineFiles()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		rel := filepath.Join(workflow.OutlineDir, workflow.FineOutlineFile)
		return []Finding{{
			Severity:     SeverityFail,
			Location:     fileLine(rel, 1),
			Problem:      "fine outline is missing",
			SuggestedFix: "write outline/fine-outline.md or outline/fine/*.md",
		}}, nil
	}

	var findings []Finding
	for _, rel := range files {
		text, ok, err := e.readArtifact(rel)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		findings = append(findings, checkSections(fineOutlineRequirements, rel, text)...)
		findings = append(findings, e.checkAnchors(rel, text, SeverityFail)...)
	}
	return findings, nil
}

func (e *Engine) runChapter(target string) ([]Finding, error) {
	var files []string
	if target != "" {
		files = []string{target}
	} else {
		var err error
		files, err = e.globArtifacts(workflow.ChaptersDir, "*.md")
		if err != nil {
			return nil, err
		}
	}
	if len(files) == 0 {
		return []Finding{{
			Severity:     SeverityFail,
			Location:     fileLine(workflow.ChaptersDir, 1),
			Problem:      "no chapters to evaluate",
			SuggestedFix: "draft a chapter under chapters/ first",
		}}, nil
	}

	var findings []Finding
	for _, rel := range files {
		text, ok, err := e.readArtifact(rel)
		if err != nil {
			return nil, err
		}
		if !ok {
			findings = append(findings, Finding{
				Severity:     SeverityFail,
				Location:     fileLine(rel, 1),
				Problem:      "chapter file not found",
				SuggestedFix: "check the chapter path",
			})
			continue
		}
		if strings.TrimSpace(text) == "" {
			findings = append(findings, Finding{
				Severity:     SeverityFail,
				Location:     fileLine(rel, 1),
				Problem:      "chapter is empty",
				SuggestedFix: "draft the chapter before gating it",
			})
			continue
		}
		if len(text) < 500 {
			findings = append(findings, Finding{
				Severity:     SeverityWarn,
				Location:     fileLine(rel, 1),
				Problem:      "chapter is very short",
				SuggestedFix: "confirm the chapter is complete",
			})
		}
		findings = append(findings, e.checkAnchors(rel, text, SeverityFail)...)
	}
	return findings, nil
}

// --- cross-cutting gates ----------------------------------------------------

func (e *Engine) runConsistency() ([]Finding, error) {
	var findings []Finding

	artifacts, err := e.allArtifacts()
	if err != nil {
		return nil, err
	}
	for _, rel := range artifacts {
		text, ok, err := e.readArtifact(rel)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		findings = append(findings, e.checkAnchors(rel, text, SeverityFail)...)
	}

	// Duplicate titles within a domain suggest the same object was
	// codified twice under different ids.
	byTitle := make(map[string][]string)
	for _, entry := range e.store.List() {
		title := strings.ToLower(strings.TrimSpace(entry.Title))
		if title == "" {
			continue
		}
		key := string(entry.Domain()) + "\x00" + title
		byTitle[key] = append(byTitle[key], entry.ID)
	}
	keys := make([]string, 0, len(byTitle))
	for key := range byTitle {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		ids := byTitle[key]
		if len(ids) > 1 {
			findings = append(findings, Finding{
				Severity:     SeverityWarn,
				Location:     ids[0],
				Problem:      "entries share a title within one domain: " + strings.Join(ids, ", "),
				SuggestedFix: "merge the entries or retitle one of them",
			})
		}
	}

	// Artifacts in directories that no mode up to the current one may
	// write to violate the mode whitelist: something skipped ahead.
	mode, err := e.manager.CurrentMode()
	if err != nil {
		return nil, err
	}
	for _, rel := range artifacts {
		if mode.CouldHaveWritten(rel) {
			continue
		}
		findings = append(findings, Finding{
			Severity:     SeverityWarn,
			Location:     fileLine(rel, 1),
			Problem:      fmt.Sprintf("%s is not writable in %s mode or any mode before it", rel, mode),
			SuggestedFix: "advance modes in order or move the file to drafts/",
		})
	}

	return findings, nil
}

// runRegression re-validates every downstream anchor after canon
// changes; a broken anchor means an artifact depends on removed or
// renamed canon.
func (e *Engine) runRegression() ([]Finding, error) {
	var findings []Finding
	artifacts, err := e.allArtifacts()
	if err != nil {
		return nil, err
	}
	for _, rel := range artifacts {
		text, ok, err := e.readArtifact(rel)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		for _, anchor := range ScanAnchors(text) {
			if !e.store.Has(anchor.EntryID) {
				findings = append(findings, Finding{
					Severity:     SeverityFail,
					Location:     fileLine(rel, anchor.Line),
					Problem:      "anchor points at removed or renamed canon: @spec:" + anchor.EntryID,
					SuggestedFix: "restore the entry or update the artifact",
				})
			}
		}
	}
	return findings, nil
}

// runForgotten flags confirmed canon never anchored by any artifact.
func (e *Engine) runForgotten() ([]Finding, error) {
	anchored := make(map[string]bool)
	artifacts, err := e.allArtifacts()
	if err != nil {
		return nil, err
	}
	for _, rel := range artifacts {
		text, ok, err := e.readArtifact(rel)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		for _, anchor := range ScanAnchors(text) {
			anchored[anchor.EntryID] = true
		}
	}

	var findings []Finding
	for _, entry := range e.store.List() {
		if entry.Status != specstore.StatusConfirmed || anchored[entry.ID] {
			continue
		}
		findings = append(findings, Finding{
			Severity:     SeverityWarn,
			Location:     entry.ID,
			Problem:      "confirmed entry is never anchored by any artifact",
			SuggestedFix: "anchor it with @spec:" + entry.ID + " or demote it to draft",
		})
	}
	return findings, nil
}

// --- helpers ----------------------------------------------------------------

// checkAnchors validates anchors in one artifact. Unresolved anchors
// get the given severity; anchors to draft entries warn.
func (e *Engine) checkAnchors(rel, text string, unresolved Severity) []Finding {
	var findings []Finding
	for _, anchor := range ScanAnchors(text) {
		if !e.store.Has(anchor.EntryID) {
			findings = append(findings, Finding{
				Severity:     unresolved,
				Location:     fileLine(rel, anchor.Line),
				Problem:      "anchor references an uncodified entry: @spec:" + anchor.EntryID,
				SuggestedFix: "propose and apply the spec entry before anchoring it",
			})
			continue
		}
		entry, _, err := e.store.Get(anchor.EntryID)
		if err == nil && entry.Status != specstore.StatusConfirmed {
			findings = append(findings, Finding{
				Severity:     SeverityWarn,
				Location:     fileLine(rel, anchor.Line),
				Problem:      "anchor references a draft entry: @spec:" + anchor.EntryID,
				SuggestedFix: "confirm the entry during spec finalize",
			})
		}
	}
	return findings
}

func (e *Engine) readArtifact(rel string) (string, bool, error) {
	path := filepath.Join(e.manager.ProjectRoot(), rel)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read artifact %s: %w", rel, err)
	}
	return string(data), true, nil
}

func (e *Engine) globArtifacts(dir, pattern string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(e.manager.ProjectRoot(), dir, pattern))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	var rels []string
	for _, match := range matches {
		rel, err := filepath.Rel(e.manager.ProjectRoot(), match)
		if err != nil {
			continue
		}
		rels = append(rels, rel)
	}
	return rels, nil
}

func (e *Engine) fineOutlineFiles() ([]string, error) {
	single := filepath.Join(workflow.OutlineDir, workflow.FineOutlineFile)
	if _, err := os.Stat(filepath.Join(e.manager.ProjectRoot(), single)); err == nil {
		return []string{single}, nil
	}
	return e.globArtifacts(filepath.Join(workflow.OutlineDir, workflow.FineOutlineDir), "*.md")
}

func (e *Engine) allArtifacts() ([]string, error) {
	var all []string
	if _, err := os.Stat(filepath.Join(e.manager.ProjectRoot(), workflow.OutlineDir, workflow.OutlineFile)); err == nil {
		all = append(all, filepath.Join(workflow.OutlineDir, workflow.OutlineFile))
	}
	fine, err := e.fineOutlineFiles()
	if err != nil {
		return nil, err
	}
	all = append(all, fine...)
	chapters, err := e.globArtifacts(workflow.ChaptersDir, "*.md")
	if err != nil {
		return nil, err
	}
	all = append(all, chapters...)
	return all, nil
}
