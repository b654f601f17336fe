package project

import (
	"strings"
	"unicode"
)

// Stats summarizes a piece of prose. Chars counts runes after UTF-8
// decoding; Words counts ASCII-letter word runs with internal
// apostrophes allowed, which matches English prose while leaving Han
// text to the dedicated counter.
type Stats struct {
	Path        string `json:"path"`
	Truncated   bool   `json:"truncated"`
	Chars       int    `json:"chars"`
	Han         int    `json:"han"`
	Punctuation int    `json:"punctuation"`
	Letters     int    `json:"letters"`
	Words       int    `json:"words"`
	Lines       int    `json:"lines"`
}

// TextStats computes writing statistics for a file under the project
// root, analyzing at most maxChars characters (0 means the whole file).
func (r *Reader) TextStats(rel string, maxChars int) (*Stats, error) {
	if maxChars <= 0 {
		maxChars = 1 << 30
	}
	text, err := r.ReadText(rel, maxChars)
	if err != nil {
		return nil, err
	}

	stats := CountText(text.Content)
	stats.Path = text.Path
	stats.Truncated = text.Truncated
	return stats, nil
}

// CountText computes statistics over an in-memory string.
func CountText(text string) *Stats {
	stats := &Stats{}

	inWord := false
	prevApostrophe := false

	for _, ch := range text {
		stats.Chars++
		if ch == '\n' {
			stats.Lines++
		}
		if isHan(ch) {
			stats.Han++
		}
		if unicode.IsPunct(ch) {
			stats.Punctuation++
		}

		if isASCIILetter(ch) {
			stats.Letters++
			inWord = true
			prevApostrophe = false
			continue
		}
		if ch == '\'' && inWord && !prevApostrophe {
			prevApostrophe = true
			continue
		}
		if inWord {
			stats.Words++
		}
		inWord = false
		prevApostrophe = false
	}
	if inWord {
		stats.Words++
	}
	if stats.Chars > 0 && !strings.HasSuffix(text, "\n") {
		stats.Lines++
	}

	return stats
}

// isHan covers the common CJK Unified Ideograph ranges. Best effort,
// not exhaustive.
func isHan(ch rune) bool {
	return (ch >= 0x4E00 && ch <= 0x9FFF) ||
		(ch >= 0x3400 && ch <= 0x4DBF) ||
		(ch >= 0xF900 && ch <= 0xFAFF)
}

func isASCIILetter(ch rune) bool {
	return (ch >= 'A' && ch <= 'Z') || (ch >= 'a' && ch <= 'z')
}
