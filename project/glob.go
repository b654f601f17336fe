package project

import (
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultMaxMatches bounds glob and search result sets.
const DefaultMaxMatches = 200

// ignoredDirs are skipped during discovery unless explicitly requested.
var ignoredDirs = map[string]bool{
	".git":         true,
	".novelaire":   true,
	"node_modules": true,
	"dist":         true,
	"build":        true,
}

// GlobOptions tunes file discovery.
type GlobOptions struct {
	// Exclude patterns are matched against project-relative paths.
	Exclude []string
	// MaxResults bounds the returned set; 0 selects the default.
	MaxResults int
	// IncludeIgnored also walks .git, .novelaire and similar dirs.
	IncludeIgnored bool
}

// Glob finds project files matching any of the doublestar patterns.
// Patterns and results are project-relative with forward slashes.
// The second return value reports whether results were cut off.
func (r *Reader) Glob(patterns []string, opts GlobOptions) ([]string, bool, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxMatches
	}

	root := r.manager.ProjectRoot()
	seen := make(map[string]bool)
	var matches []string
	truncated := false

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if !opts.IncludeIgnored && ignoredDirs[d.Name()] && rel != "." {
				return filepath.SkipDir
			}
			return nil
		}
		if truncated {
			return filepath.SkipAll
		}

		for _, pat := range opts.Exclude {
			if ok, _ := doublestar.Match(pat, rel); ok {
				return nil
			}
		}
		for _, pat := range patterns {
			ok, matchErr := doublestar.Match(pat, rel)
			if matchErr != nil {
				return matchErr
			}
			if !ok {
				continue
			}
			if !seen[rel] {
				seen[rel] = true
				matches = append(matches, rel)
				if len(matches) >= maxResults {
					truncated = true
				}
			}
			break
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	sort.Strings(matches)
	return matches, truncated, nil
}
