// Package project provides read-only access to the files of an authoring
// project: bounded text reads, glob discovery, line search, and writing
// statistics. All paths are project-relative and resolved through the
// workflow manager so nothing can escape the project root.
package project

import (
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/novelaire/novelaire/workflow"
)

// Default read bounds.
const (
	DefaultMaxChars        = 8000
	DefaultMaxCharsPerFile = 8000
	DefaultMaxTotalChars   = 24000
)

// Text is the result of a bounded file read.
type Text struct {
	Path      string `json:"path"`
	Content   string `json:"content"`
	Truncated bool   `json:"truncated"`
}

// Reader reads project files with escape protection and size limits.
type Reader struct {
	manager *workflow.Manager
}

// NewReader creates a reader rooted at the given project.
func NewReader(manager *workflow.Manager) *Reader {
	return &Reader{manager: manager}
}

// ReadText reads a UTF-8 text file under the project root, truncating
// to maxChars characters. maxChars <= 0 selects the default bound.
func (r *Reader) ReadText(rel string, maxChars int) (*Text, error) {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}

	abs, err := r.manager.ResolveInProject(rel)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, err
	}

	content, truncated := truncateChars(decodeText(data), maxChars)
	return &Text{
		Path:      filepath.ToSlash(filepath.Clean(rel)),
		Content:   content,
		Truncated: truncated,
	}, nil
}

// ManyResult is one entry of a multi-file read. Err is set when the
// individual file could not be read; other entries are unaffected.
type ManyResult struct {
	Path      string `json:"path"`
	Content   string `json:"content,omitempty"`
	Truncated bool   `json:"truncated"`
	Err       string `json:"error,omitempty"`
}

// ReadTextMany reads several files with a per-file and an overall
// character budget. Unreadable files are reported inline rather than
// failing the whole batch.
func (r *Reader) ReadTextMany(paths []string, maxCharsPerFile, maxTotalChars int) ([]ManyResult, bool) {
	if maxCharsPerFile <= 0 {
		maxCharsPerFile = DefaultMaxCharsPerFile
	}
	if maxTotalChars <= 0 {
		maxTotalChars = DefaultMaxTotalChars
	}

	var results []ManyResult
	total := 0
	totalTruncated := false

	for _, rel := range paths {
		if total >= maxTotalChars {
			totalTruncated = true
			break
		}

		abs, err := r.manager.ResolveInProject(rel)
		if err != nil {
			results = append(results, ManyResult{Path: rel, Err: err.Error()})
			continue
		}
		data, err := os.ReadFile(abs)
		if err != nil {
			results = append(results, ManyResult{Path: filepath.ToSlash(filepath.Clean(rel)), Err: err.Error()})
			continue
		}

		content, truncated := truncateChars(decodeText(data), maxCharsPerFile)
		if remaining := maxTotalChars - total; utf8.RuneCountInString(content) > remaining {
			content, _ = truncateChars(content, remaining)
			truncated = true
			totalTruncated = true
		}
		total += utf8.RuneCountInString(content)

		results = append(results, ManyResult{
			Path:      filepath.ToSlash(filepath.Clean(rel)),
			Content:   content,
			Truncated: truncated,
		})
	}

	return results, totalTruncated
}

// decodeText interprets bytes as UTF-8, replacing invalid sequences so
// a mangled file still yields usable output.
func decodeText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), string(utf8.RuneError))
}

// truncateChars cuts s to at most n runes.
func truncateChars(s string, n int) (string, bool) {
	if n < 0 {
		n = 0
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i], true
		}
		count++
	}
	return s, false
}
