package gate

import (
	"regexp"

	"github.com/novelaire/novelaire/specstore"
)

// sectionRequirement is an internal blueprint for one checklist item:
// a section an artifact must contain. Requirements are compiled into
// the binary; users never edit them directly.
type sectionRequirement struct {
	Name        string
	Pattern     *regexp.Regexp
	MinContent  int // minimum body length after the header (0 = header only)
	Severity    Severity
	Description string
}

// outlineRequirements are the minimum sections for outline/outline.md.
var outlineRequirements = []sectionRequirement{
	{
		Name:        "Title",
		Pattern:     regexp.MustCompile(`(?m)^#\s+.+`),
		Severity:    SeverityFail,
		Description: "Outline title (# heading)",
	},
	{
		Name:        "Acts",
		Pattern:     regexp.MustCompile(`(?mi)^##\s+(act|part)\b`),
		MinContent:  50,
		Severity:    SeverityFail,
		Description: "At least one act/part section",
	},
	{
		Name:        "Stakes",
		Pattern:     regexp.MustCompile(`(?mi)^#{2,3}\s+stakes\b`),
		Severity:    SeverityWarn,
		Description: "Stakes section naming what can be lost",
	},
}

// fineOutlineRequirements apply to fine-outline chapter breakdowns.
var fineOutlineRequirements = []sectionRequirement{
	{
		Name:        "Chapter Sections",
		Pattern:     regexp.MustCompile(`(?mi)^##\s+chapter\s+\d+`),
		Severity:    SeverityFail,
		Description: "Numbered chapter sections (## Chapter N)",
	},
	{
		Name:        "Beats",
		Pattern:     regexp.MustCompile(`(?m)^-\s+.+`),
		Severity:    SeverityFail,
		Description: "Bulleted beats under chapters",
	},
}

// domainRequirements map each spec domain to the sections its entries
// should carry. Missing sections warn rather than fail: canon grows
// incrementally, but confirmed entries are held to the checklist.
var domainRequirements = map[specstore.Domain][]sectionRequirement{
	specstore.DomainPremise: {
		{
			Name:        "Logline",
			Pattern:     regexp.MustCompile(`(?mi)^#{1,3}\s+logline\b`),
			Severity:    SeverityWarn,
			Description: "One-sentence logline",
		},
	},
	specstore.DomainWorld: {
		{
			Name:        "Rules",
			Pattern:     regexp.MustCompile(`(?mi)^#{1,3}\s+rules?\b`),
			Severity:    SeverityWarn,
			Description: "Explicit world rules section",
		},
	},
	specstore.DomainSystem: {
		{
			Name:        "Constraints",
			Pattern:     regexp.MustCompile(`(?mi)^#{1,3}\s+(constraints?|costs?|limits?)\b`),
			Severity:    SeverityWarn,
			Description: "System constraints, costs, or limits",
		},
	},
	specstore.DomainCharacters: {
		{
			Name:        "Motivation",
			Pattern:     regexp.MustCompile(`(?mi)^#{1,3}\s+(motivation|goals?|wants?)\b`),
			Severity:    SeverityWarn,
			Description: "Character motivation or goals",
		},
	},
	specstore.DomainTimeline: {
		{
			Name:        "Order",
			Pattern:     regexp.MustCompile(`(?m)^(-|\d+\.)\s+.+`),
			Severity:    SeverityWarn,
			Description: "Ordered event list",
		},
	},
	specstore.DomainStyle: {
		{
			Name:        "Voice",
			Pattern:     regexp.MustCompile(`(?mi)^#{1,3}\s+(voice|tone|register)\b`),
			Severity:    SeverityWarn,
			Description: "Voice/tone guidance",
		},
	},
	specstore.DomainSerialization: {
		{
			Name:        "Cadence",
			Pattern:     regexp.MustCompile(`(?mi)^#{1,3}\s+(cadence|schedule|hooks?)\b`),
			Severity:    SeverityWarn,
			Description: "Release cadence or chapter hook rules",
		},
	},
}

// checkSections evaluates section requirements against artifact text.
func checkSections(reqs []sectionRequirement, location, text string) []Finding {
	var findings []Finding
	for _, req := range reqs {
		loc := anchorOrStart(req.Pattern, location, text)
		idx := req.Pattern.FindStringIndex(text)
		if idx == nil {
			findings = append(findings, Finding{
				Severity:     req.Severity,
				Location:     loc,
				Problem:      "missing required section: " + req.Name,
				SuggestedFix: "add " + req.Description,
			})
			continue
		}
		if req.MinContent > 0 {
			body := sectionBody(text, idx[1])
			if len(body) < req.MinContent {
				findings = append(findings, Finding{
					Severity:     SeverityWarn,
					Location:     loc,
					Problem:      "section too thin: " + req.Name,
					SuggestedFix: "expand " + req.Description,
				})
			}
		}
	}
	return findings
}

// nextSectionPattern matches the start of the following section.
var nextSectionPattern = regexp.MustCompile(`(?m)^#{1,2}\s+`)

// sectionBody returns the text between a section header and the next
// header (or end of document).
func sectionBody(text string, from int) string {
	rest := text[from:]
	if next := nextSectionPattern.FindStringIndex(rest); next != nil {
		return rest[:next[0]]
	}
	return rest
}

// anchorOrStart locates a requirement: the matched line when present,
// line 1 otherwise.
func anchorOrStart(pattern *regexp.Regexp, location, text string) string {
	idx := pattern.FindStringIndex(text)
	if idx == nil {
		return fileLine(location, 1)
	}
	line := 1
	for _, ch := range text[:idx[0]] {
		if ch == '\n' {
			line++
		}
	}
	return fileLine(location, line)
}
