// Package gate evaluates project artifacts against checklists and
// returns PASS/WARN/FAIL reports. A FAIL report is a hard block: the
// calling workflow must not proceed past it without fixing upstream or
// recording an explicit override decision.
package gate

import (
	"fmt"
	"time"
)

// Result is the overall outcome of a gate run.
type Result string

const (
	Pass Result = "PASS"
	Warn Result = "WARN"
	Fail Result = "FAIL"
)

// Severity is the severity of an individual finding.
type Severity string

const (
	SeverityInfo Severity = "info"
	SeverityWarn Severity = "warn"
	SeverityFail Severity = "fail"
)

// Finding is a single located problem. Location is always concrete: a
// file plus line, or an entry id.
type Finding struct {
	Severity     Severity `json:"severity"`
	Location     string   `json:"location"`
	Problem      string   `json:"problem"`
	SuggestedFix string   `json:"suggested_fix,omitempty"`
}

// Report is the result of one gate invocation. Reports drive control
// flow but are not canon.
type Report struct {
	Gate     Type      `json:"gate"`
	Target   string    `json:"target"`
	Result   Result    `json:"result"`
	Findings []Finding `json:"findings,omitempty"`
	NextStep string    `json:"next_step,omitempty"`
	RanAt    time.Time `json:"ran_at"`
}

// Blocked reports whether the gate blocks phase progression.
func (r *Report) Blocked() bool {
	return r.Result == Fail
}

// aggregate computes the overall result: any fail finding forces FAIL
// regardless of what else passed; otherwise any warn yields WARN.
func aggregate(findings []Finding) Result {
	result := Pass
	for _, f := range findings {
		switch f.Severity {
		case SeverityFail:
			return Fail
		case SeverityWarn:
			result = Warn
		}
	}
	return result
}

// fileLine renders a file+line location.
func fileLine(path string, line int) string {
	return fmt.Sprintf("%s:%d", path, line)
}
