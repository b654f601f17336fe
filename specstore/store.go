package specstore

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Store indexes the canonical spec entries under spec/.
type Store struct {
	projectRoot string

	mu       sync.RWMutex
	byID     map[string]*Entry
	warnings []string
}

// NewStore creates a store rooted at the given project and loads the
// current index.
func NewStore(projectRoot string) *Store {
	s := &Store{projectRoot: projectRoot}
	_ = s.Refresh()
	return s
}

// specRoot returns the absolute path of the spec directory.
func (s *Store) specRoot() string {
	return filepath.Join(s.projectRoot, "spec")
}

// Warnings returns the warnings collected during the last refresh.
func (s *Store) Warnings() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.warnings))
	copy(out, s.warnings)
	return out
}

// Refresh rescans spec/ and rebuilds the id index. Malformed entries
// are skipped with a warning; duplicates keep the first occurrence.
func (s *Store) Refresh() error {
	byID := make(map[string]*Entry)
	var warnings []string

	root := s.specRoot()
	info, err := os.Stat(root)
	if os.IsNotExist(err) {
		s.swap(byID, warnings)
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat spec directory: %w", err)
	}
	if !info.IsDir() {
		warnings = append(warnings, "spec/ exists but is not a directory")
		s.swap(byID, warnings)
		return nil
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk spec directory: %w", err)
	}
	sort.Strings(paths)

	for _, path := range paths {
		rel, relErr := filepath.Rel(s.projectRoot, path)
		if relErr != nil {
			continue
		}
		rel = filepath.ToSlash(rel)

		data, readErr := os.ReadFile(path)
		if readErr != nil {
			warnings = append(warnings, fmt.Sprintf("failed to read spec entry %s: %v", rel, readErr))
			continue
		}
		entry, _, parseErr := ParseEntryText(string(data))
		if parseErr != nil {
			warnings = append(warnings, fmt.Sprintf("failed to parse spec frontmatter %s: %v", rel, parseErr))
			continue
		}
		if entry == nil || strings.TrimSpace(entry.ID) == "" {
			warnings = append(warnings, fmt.Sprintf("skipped spec entry missing id: %s", rel))
			continue
		}
		entry.ID = strings.TrimSpace(entry.ID)
		if _, dup := byID[entry.ID]; dup {
			warnings = append(warnings, fmt.Sprintf("duplicate spec id %q at %s; keeping first", entry.ID, rel))
			continue
		}
		entry.Path = rel
		byID[entry.ID] = entry
	}

	s.swap(byID, warnings)
	return nil
}

func (s *Store) swap(byID map[string]*Entry, warnings []string) {
	s.mu.Lock()
	s.byID = byID
	s.warnings = warnings
	s.mu.Unlock()
}

// Get returns an entry and its markdown body by id.
func (s *Store) Get(id string) (*Entry, string, error) {
	id = strings.TrimSpace(id)
	s.mu.RLock()
	entry, ok := s.byID[id]
	s.mu.RUnlock()
	if !ok {
		return nil, "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	data, err := os.ReadFile(filepath.Join(s.projectRoot, filepath.FromSlash(entry.Path)))
	if err != nil {
		return nil, "", fmt.Errorf("read spec entry %s: %w", entry.Path, err)
	}
	_, body, err := ParseEntryText(string(data))
	if err != nil {
		return nil, "", fmt.Errorf("parse spec entry %s: %w", entry.Path, err)
	}
	return entry, body, nil
}

// Has reports whether an entry with the given id exists.
func (s *Store) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byID[strings.TrimSpace(id)]
	return ok
}

// List returns all entries sorted by id.
func (s *Store) List() []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Entry, 0, len(s.byID))
	for _, entry := range s.byID {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// QueryResult is a single query match.
type QueryResult struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
	Path  string `json:"path"`
}

// Query matches entries whose id, title, tags, or aliases contain the
// query string (case-insensitive). Callers query before proposing a new
// entry to avoid creating duplicate ids for the same object.
func (s *Store) Query(query string, maxResults int) []QueryResult {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	if maxResults <= 0 {
		maxResults = 20
	}

	s.mu.RLock()
	entries := make([]*Entry, 0, len(s.byID))
	for _, entry := range s.byID {
		entries = append(entries, entry)
	}
	s.mu.RUnlock()
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })

	var results []QueryResult
	for _, entry := range entries {
		hay := strings.ToLower(strings.Join([]string{
			entry.ID,
			entry.Title,
			strings.Join(entry.Tags, " "),
			strings.Join(entry.Aliases, " "),
		}, " "))
		if strings.Contains(hay, q) {
			results = append(results, QueryResult{ID: entry.ID, Title: entry.Title, Path: entry.Path})
			if len(results) >= maxResults {
				break
			}
		}
	}
	return results
}
