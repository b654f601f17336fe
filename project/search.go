package project

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
)

// Match is one matching line from a text search.
type Match struct {
	Path string `json:"path"`
	Line int    `json:"line"`
	Text string `json:"text"`
}

// SearchOptions tunes text search.
type SearchOptions struct {
	// Globs restrict the searched files; empty searches all files.
	Globs []string
	// MaxResults bounds the returned matches; 0 selects the default.
	MaxResults int
	// IgnoreCase makes the pattern case-insensitive.
	IgnoreCase bool
}

// SearchText scans project files line by line for a regular expression.
// The second return value reports whether results were cut off.
func (r *Reader) SearchText(pattern string, opts SearchOptions) ([]Match, bool, error) {
	if opts.IgnoreCase {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, false, fmt.Errorf("invalid search pattern: %w", err)
	}

	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxMatches
	}

	globs := opts.Globs
	if len(globs) == 0 {
		globs = []string{"**/*"}
	}
	files, _, err := r.Glob(globs, GlobOptions{MaxResults: 1 << 16})
	if err != nil {
		return nil, false, err
	}

	var matches []Match
	for _, rel := range files {
		abs, err := r.manager.ResolveInProject(rel)
		if err != nil {
			continue
		}
		fileMatches, err := scanFile(abs, rel, re, maxResults-len(matches))
		if err != nil {
			continue
		}
		matches = append(matches, fileMatches...)
		if len(matches) >= maxResults {
			return matches, true, nil
		}
	}
	return matches, false, nil
}

func scanFile(abs, rel string, re *regexp.Regexp, limit int) ([]Match, error) {
	f, err := os.Open(abs)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var matches []Match
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if re.MatchString(text) {
			matches = append(matches, Match{Path: rel, Line: line, Text: text})
			if len(matches) >= limit {
				break
			}
		}
	}
	return matches, scanner.Err()
}
