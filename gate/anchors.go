package gate

import (
	"regexp"
	"strings"
)

// anchorPattern matches @spec:<id> references embedded in downstream
// artifacts. An anchor is a relation to a canonical entry, never an
// ownership link.
var anchorPattern = regexp.MustCompile(`@spec:([a-z][a-z0-9-]*(?:/[a-z0-9][a-z0-9-]*)+)`)

// Anchor is one @spec reference found in an artifact.
type Anchor struct {
	EntryID string
	Line    int
}

// ScanAnchors extracts all spec anchors from artifact text with their
// 1-based line numbers.
func ScanAnchors(text string) []Anchor {
	var anchors []Anchor
	for i, line := range strings.Split(text, "\n") {
		for _, match := range anchorPattern.FindAllStringSubmatch(line, -1) {
			anchors = append(anchors, Anchor{EntryID: match[1], Line: i + 1})
		}
	}
	return anchors
}
