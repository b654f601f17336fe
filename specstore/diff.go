package specstore

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// hunkContext is the number of unchanged lines shown around each
// change, matching git's default.
const hunkContext = 3

// lineOp is one line of a diff with its marker: ' ', '-' or '+'.
type lineOp struct {
	op   byte
	text string
}

// UnifiedDiff renders a unified diff between two texts with a/ and b/
// file headers and @@ hunk headers, using line-level reduction to
// avoid newline boundary artifacts.
func UnifiedDiff(relPath, old, new string) string {
	if old == new {
		return "(no diff)"
	}

	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(old, new)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var ops []lineOp
	for _, d := range diffs {
		var op byte
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			op = ' '
		case diffmatchpatch.DiffDelete:
			op = '-'
		case diffmatchpatch.DiffInsert:
			op = '+'
		}
		for _, line := range splitLines(d.Text) {
			ops = append(ops, lineOp{op: op, text: line})
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "--- a/%s\n", relPath)
	fmt.Fprintf(&sb, "+++ b/%s\n", relPath)

	oldLine, newLine := 1, 1
	i := 0
	for i < len(ops) {
		if ops[i].op == ' ' {
			oldLine++
			newLine++
			i++
			continue
		}

		// Back up to include leading context.
		start := i
		for start > 0 && i-start < hunkContext && ops[start-1].op == ' ' {
			start--
		}
		oldStart := oldLine - (i - start)
		newStart := newLine - (i - start)

		// Extend past further changes that fall within one shared
		// context run, then append trailing context.
		end := i
		for end < len(ops) {
			if ops[end].op != ' ' {
				end++
				continue
			}
			run := end
			for run < len(ops) && ops[run].op == ' ' {
				run++
			}
			if run < len(ops) && run-end <= 2*hunkContext {
				end = run
				continue
			}
			if run-end > hunkContext {
				run = end + hunkContext
			}
			end = run
			break
		}

		oldCount, newCount := 0, 0
		for _, op := range ops[start:end] {
			if op.op != '+' {
				oldCount++
			}
			if op.op != '-' {
				newCount++
			}
		}
		fmt.Fprintf(&sb, "@@ -%s +%s @@\n", hunkRange(oldStart, oldCount), hunkRange(newStart, newCount))
		for _, op := range ops[start:end] {
			fmt.Fprintf(&sb, "%c%s\n", op.op, op.text)
		}
		oldLine = oldStart + oldCount
		newLine = newStart + newCount
		i = end
	}
	return sb.String()
}

// hunkRange formats one side of an @@ header; an empty side reports
// the line before it, so a file creation reads -0,0.
func hunkRange(start, count int) string {
	if count == 0 {
		return fmt.Sprintf("%d,0", start-1)
	}
	if count == 1 {
		return fmt.Sprintf("%d", start)
	}
	return fmt.Sprintf("%d,%d", start, count)
}

// splitLines splits text into lines, dropping the trailing empty
// element produced by a final newline.
func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
