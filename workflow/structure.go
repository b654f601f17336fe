// Package workflow provides the Novelaire authoring workflow: project
// layout, authoring modes, and the session plan.
package workflow

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Directory constants for the project structure.
const (
	RootDir      = ".novelaire"
	StateDir     = "state"
	ConfigDir    = "config"
	ArtifactsDir = "artifacts"
	CacheDir     = "cache"
	TmpDir       = "tmp"

	SpecDir     = "spec"
	OutlineDir  = "outline"
	ChaptersDir = "chapters"
	DraftsDir   = "drafts"
	RefsDir     = "refs"

	OutlineFile     = "outline.md"
	FineOutlineFile = "fine-outline.md"
	FineOutlineDir  = "fine"
)

// ErrNoProject is returned when no .novelaire directory can be found.
var ErrNoProject = errors.New("no novelaire project found (missing .novelaire directory)")

// Manager provides file operations rooted at a Novelaire project.
type Manager struct {
	projectRoot string
}

// NewManager creates a new workflow manager for the given project root.
func NewManager(projectRoot string) *Manager {
	return &Manager{projectRoot: projectRoot}
}

// Discover walks up from start looking for a .novelaire directory and
// returns a Manager rooted at the containing project.
func Discover(start string) (*Manager, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return nil, err
	}
	for {
		candidate := filepath.Join(dir, RootDir)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return NewManager(dir), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, ErrNoProject
		}
		dir = parent
	}
}

// ProjectRoot returns the project root path.
func (m *Manager) ProjectRoot() string {
	return m.projectRoot
}

// RootPath returns the full path to the .novelaire directory.
func (m *Manager) RootPath() string {
	return filepath.Join(m.projectRoot, RootDir)
}

// StatePath returns the path to .novelaire/state.
func (m *Manager) StatePath() string {
	return filepath.Join(m.RootPath(), StateDir)
}

// ConfigPath returns the path to .novelaire/config.
func (m *Manager) ConfigPath() string {
	return filepath.Join(m.RootPath(), ConfigDir)
}

// ArtifactsPath returns the path to .novelaire/artifacts.
func (m *Manager) ArtifactsPath() string {
	return filepath.Join(m.RootPath(), ArtifactsDir)
}

// SpecPath returns the path to the canonical spec directory.
func (m *Manager) SpecPath() string {
	return filepath.Join(m.projectRoot, SpecDir)
}

// OutlinePath returns the path to the outline directory.
func (m *Manager) OutlinePath() string {
	return filepath.Join(m.projectRoot, OutlineDir)
}

// ChaptersPath returns the path to the chapters directory.
func (m *Manager) ChaptersPath() string {
	return filepath.Join(m.projectRoot, ChaptersDir)
}

// DraftsPath returns the path to the drafts directory.
func (m *Manager) DraftsPath() string {
	return filepath.Join(m.projectRoot, DraftsDir)
}

// RefsPath returns the path to the refs directory.
func (m *Manager) RefsPath() string {
	return filepath.Join(m.projectRoot, RefsDir)
}

// EnsureDirectories creates the project directory structure if it
// doesn't exist.
func (m *Manager) EnsureDirectories() error {
	dirs := []string{
		m.RootPath(),
		m.StatePath(),
		m.ConfigPath(),
		m.ArtifactsPath(),
		filepath.Join(m.RootPath(), CacheDir),
		filepath.Join(m.RootPath(), TmpDir),
		m.SpecPath(),
		m.OutlinePath(),
		m.ChaptersPath(),
		m.DraftsPath(),
		m.RefsPath(),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// ResolveInProject resolves a relative path against the project root,
// rejecting absolute paths and traversal outside the project.
func (m *Manager) ResolveInProject(rel string) (string, error) {
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("path must be relative: %s", rel)
	}
	clean := filepath.Clean(rel)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes project root: %s", rel)
	}
	return filepath.Join(m.projectRoot, clean), nil
}

// Slugify converts a description to a file-friendly slug.
func Slugify(description string) string {
	slug := strings.ToLower(description)

	slug = strings.ReplaceAll(slug, " ", "-")
	slug = strings.ReplaceAll(slug, "_", "-")

	reg := regexp.MustCompile(`[^a-z0-9-]`)
	slug = reg.ReplaceAllString(slug, "")

	reg = regexp.MustCompile(`-+`)
	slug = reg.ReplaceAllString(slug, "-")

	slug = strings.Trim(slug, "-")

	if len(slug) > 50 {
		slug = slug[:50]
		slug = strings.TrimRight(slug, "-")
	}

	return slug
}
