// Package snapshot versions the project working set at milestones and
// supports diff and approval-gated rollback.
package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/novelaire/novelaire/observe"
	"github.com/novelaire/novelaire/specstore"
	"github.com/novelaire/novelaire/workflow"
)

// Scope describes why a snapshot exists.
const (
	ScopeMilestone   = "milestone"
	ScopePreRollback = "pre-rollback"
)

// Snapshot errors.
var (
	// ErrApprovalRequired is returned when rollback is attempted without
	// explicit approval.
	ErrApprovalRequired = errors.New("rollback requires explicit approval")
	// ErrNotFound is returned for unknown snapshot refs.
	ErrNotFound = errors.New("snapshot not found")
	// ErrLabelExists is returned when a label collides.
	ErrLabelExists = errors.New("snapshot label already exists")
)

// FileRecord is one captured file.
type FileRecord struct {
	Path string `json:"path"`
	Hash string `json:"hash"`
	Size int64  `json:"size"`
}

// Manifest describes a snapshot.
type Manifest struct {
	ID        string       `json:"id"`
	Label     string       `json:"label,omitempty"`
	Reason    string       `json:"reason,omitempty"`
	Scope     string       `json:"scope"`
	CreatedAt time.Time    `json:"created_at"`
	Files     []FileRecord `json:"files"`
}

// Manager creates, diffs, and restores snapshots under
// .novelaire/state/snapshots. Snapshots capture the working set (spec,
// outline, chapters, drafts, refs) plus the seal state, not the whole
// tree, to bound storage growth.
type Manager struct {
	manager *workflow.Manager
	logger  *slog.Logger
}

// NewManager creates a snapshot manager.
func NewManager(manager *workflow.Manager, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{manager: manager, logger: logger}
}

func (m *Manager) root() string {
	return filepath.Join(m.manager.StatePath(), "snapshots")
}

// capturedRoots lists the project-relative directories a snapshot
// captures.
func capturedRoots() []string {
	return []string{
		workflow.SpecDir,
		workflow.OutlineDir,
		workflow.ChaptersDir,
		workflow.DraftsDir,
		workflow.RefsDir,
	}
}

// sealStateRel is the one state file captured alongside artifacts, so a
// rollback across a seal boundary also restores the seal status.
var sealStateRel = filepath.Join(workflow.RootDir, workflow.StateDir, "spec_state.json")

// Create captures a milestone snapshot. An empty label is allowed;
// non-empty labels must be unique.
func (m *Manager) Create(label, reason string) (*Manifest, error) {
	return m.create(label, reason, ScopeMilestone)
}

// CreateSnapshot implements specstore.Snapshotter for sealing.
func (m *Manager) CreateSnapshot(label, reason string) (specstore.SnapshotRef, error) {
	manifest, err := m.Create(label, reason)
	if err != nil {
		return specstore.SnapshotRef{}, err
	}
	return specstore.SnapshotRef{ID: manifest.ID, Label: manifest.Label}, nil
}

func (m *Manager) create(label, reason, scope string) (*Manifest, error) {
	label = strings.TrimSpace(label)
	if label != "" {
		existing, err := m.List()
		if err != nil {
			return nil, err
		}
		for _, manifest := range existing {
			if manifest.Label == label {
				return nil, fmt.Errorf("%w: %s", ErrLabelExists, label)
			}
		}
	}

	id := "snap_" + uuid.New().String()
	dir := filepath.Join(m.root(), id)
	filesDir := filepath.Join(dir, "files")
	if err := os.MkdirAll(filesDir, 0755); err != nil {
		return nil, fmt.Errorf("create snapshot directory: %w", err)
	}

	manifest := &Manifest{
		ID:        id,
		Label:     label,
		Reason:    strings.TrimSpace(reason),
		Scope:     scope,
		CreatedAt: time.Now(),
	}

	rels, err := m.workingSet()
	if err != nil {
		return nil, err
	}
	for _, rel := range rels {
		src := filepath.Join(m.manager.ProjectRoot(), rel)
		data, err := os.ReadFile(src)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", rel, err)
		}
		dst := filepath.Join(filesDir, rel)
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return nil, fmt.Errorf("create snapshot subdirectory: %w", err)
		}
		if err := os.WriteFile(dst, data, 0644); err != nil {
			return nil, fmt.Errorf("copy %s: %w", rel, err)
		}
		sum := sha256.Sum256(data)
		manifest.Files = append(manifest.Files, FileRecord{
			Path: filepath.ToSlash(rel),
			Hash: hex.EncodeToString(sum[:]),
			Size: int64(len(data)),
		})
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "manifest.json"), data, 0644); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	observe.SnapshotsCreated.WithLabelValues(scope).Inc()
	m.logger.Info("Created snapshot",
		slog.String("id", id),
		slog.String("label", label),
		slog.String("scope", scope),
		slog.Int("files", len(manifest.Files)))
	return manifest, nil
}

// workingSet enumerates the project-relative files a snapshot captures.
func (m *Manager) workingSet() ([]string, error) {
	var rels []string
	for _, dir := range capturedRoots() {
		root := filepath.Join(m.manager.ProjectRoot(), dir)
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if os.IsNotExist(err) {
					return filepath.SkipDir
				}
				return err
			}
			if d.IsDir() || d.Type()&fs.ModeSymlink != 0 {
				return nil
			}
			rel, relErr := filepath.Rel(m.manager.ProjectRoot(), path)
			if relErr != nil {
				return relErr
			}
			rels = append(rels, rel)
			return nil
		})
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("walk %s: %w", dir, err)
		}
	}
	if _, err := os.Stat(filepath.Join(m.manager.ProjectRoot(), sealStateRel)); err == nil {
		rels = append(rels, sealStateRel)
	}
	sort.Strings(rels)
	return rels, nil
}

// List returns all snapshot manifests, newest first.
func (m *Manager) List() ([]*Manifest, error) {
	entries, err := os.ReadDir(m.root())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	var manifests []*Manifest
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		manifest, err := m.Get(entry.Name())
		if err != nil {
			continue
		}
		manifests = append(manifests, manifest)
	}
	sort.Slice(manifests, func(i, j int) bool {
		return manifests[i].CreatedAt.After(manifests[j].CreatedAt)
	})
	return manifests, nil
}

// Get loads a manifest by snapshot id or label.
func (m *Manager) Get(ref string) (*Manifest, error) {
	ref = strings.TrimSpace(ref)
	data, err := os.ReadFile(filepath.Join(m.root(), ref, "manifest.json"))
	if err == nil {
		var manifest Manifest
		if err := json.Unmarshal(data, &manifest); err != nil {
			return nil, fmt.Errorf("parse manifest: %w", err)
		}
		return &manifest, nil
	}

	// Fall back to label lookup.
	entries, dirErr := os.ReadDir(m.root())
	if dirErr != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		data, readErr := os.ReadFile(filepath.Join(m.root(), entry.Name(), "manifest.json"))
		if readErr != nil {
			continue
		}
		var manifest Manifest
		if json.Unmarshal(data, &manifest) == nil && manifest.Label == ref {
			return &manifest, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
}

// ReadFile returns a captured file's content from a snapshot.
func (m *Manager) ReadFile(ref, rel string) ([]byte, error) {
	manifest, err := m.Get(ref)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(filepath.Join(m.root(), manifest.ID, "files", filepath.FromSlash(rel)))
}
