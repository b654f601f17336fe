package snapshot

import (
	"fmt"
	"sort"
	"strings"

	"github.com/novelaire/novelaire/specstore"
)

// FileChange is one changed file between two snapshots.
type FileChange struct {
	Path   string `json:"path"`
	Action string `json:"action"` // added, removed, modified
	Diff   string `json:"diff,omitempty"`
}

// Delta is the difference between two snapshots.
type Delta struct {
	A       string       `json:"a"`
	B       string       `json:"b"`
	Changes []FileChange `json:"changes"`
}

// Diff compares two snapshots by ref (id or label) and returns per-file
// changes with unified diffs for modified files.
func (m *Manager) Diff(refA, refB string) (*Delta, error) {
	a, err := m.Get(refA)
	if err != nil {
		return nil, err
	}
	b, err := m.Get(refB)
	if err != nil {
		return nil, err
	}

	aFiles := indexFiles(a)
	bFiles := indexFiles(b)

	paths := make(map[string]bool)
	for path := range aFiles {
		paths[path] = true
	}
	for path := range bFiles {
		paths[path] = true
	}
	sorted := make([]string, 0, len(paths))
	for path := range paths {
		sorted = append(sorted, path)
	}
	sort.Strings(sorted)

	delta := &Delta{A: a.ID, B: b.ID}
	for _, path := range sorted {
		inA, inB := aFiles[path], bFiles[path]
		switch {
		case inA == "" && inB != "":
			content, err := m.ReadFile(b.ID, path)
			if err != nil {
				return nil, fmt.Errorf("read %s from %s: %w", path, b.ID, err)
			}
			delta.Changes = append(delta.Changes, FileChange{
				Path:   path,
				Action: "added",
				Diff:   specstore.UnifiedDiff(path, "", string(content)),
			})
		case inA != "" && inB == "":
			content, err := m.ReadFile(a.ID, path)
			if err != nil {
				return nil, fmt.Errorf("read %s from %s: %w", path, a.ID, err)
			}
			delta.Changes = append(delta.Changes, FileChange{
				Path:   path,
				Action: "removed",
				Diff:   specstore.UnifiedDiff(path, string(content), ""),
			})
		case inA != inB:
			oldContent, err := m.ReadFile(a.ID, path)
			if err != nil {
				return nil, fmt.Errorf("read %s from %s: %w", path, a.ID, err)
			}
			newContent, err := m.ReadFile(b.ID, path)
			if err != nil {
				return nil, fmt.Errorf("read %s from %s: %w", path, b.ID, err)
			}
			delta.Changes = append(delta.Changes, FileChange{
				Path:   path,
				Action: "modified",
				Diff:   specstore.UnifiedDiff(path, string(oldContent), string(newContent)),
			})
		}
	}
	return delta, nil
}

// Render formats a delta for terminal output.
func (d *Delta) Render() string {
	if len(d.Changes) == 0 {
		return "(no changes)\n"
	}
	var sb strings.Builder
	for _, change := range d.Changes {
		fmt.Fprintf(&sb, "%s %s\n", change.Action, change.Path)
	}
	return sb.String()
}

func indexFiles(manifest *Manifest) map[string]string {
	out := make(map[string]string, len(manifest.Files))
	for _, file := range manifest.Files {
		out[file.Path] = file.Hash
	}
	return out
}
