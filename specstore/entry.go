// Package specstore persists canonical spec entries as markdown files
// with YAML frontmatter under spec/, and mediates all mutation through
// a propose/apply/seal protocol.
package specstore

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Domain identifies the canonical grouping of a spec entry.
type Domain string

// Spec domains.
const (
	DomainPremise       Domain = "premise"
	DomainWorld         Domain = "world"
	DomainSystem        Domain = "system"
	DomainCharacters    Domain = "characters"
	DomainTimeline      Domain = "timeline"
	DomainContinuity    Domain = "continuity"
	DomainNarrative     Domain = "narrative"
	DomainStyle         Domain = "style"
	DomainObjects       Domain = "objects"
	DomainFactions      Domain = "factions"
	DomainLocations     Domain = "locations"
	DomainGlossary      Domain = "glossary"
	DomainSerialization Domain = "serialization"
	DomainQuality       Domain = "quality"
	DomainModules       Domain = "modules"
)

// Domains lists all valid spec domains in canonical order.
var Domains = []Domain{
	DomainPremise, DomainWorld, DomainSystem, DomainCharacters,
	DomainTimeline, DomainContinuity, DomainNarrative, DomainStyle,
	DomainObjects, DomainFactions, DomainLocations, DomainGlossary,
	DomainSerialization, DomainQuality, DomainModules,
}

// IsValid returns true if the domain is a known spec domain.
func (d Domain) IsValid() bool {
	for _, known := range Domains {
		if d == known {
			return true
		}
	}
	return false
}

// EntryStatus is the confirmation status of an entry.
type EntryStatus string

const (
	StatusDraft     EntryStatus = "draft"
	StatusConfirmed EntryStatus = "confirmed"
)

// IsValid returns true if the status is a known entry status.
func (s EntryStatus) IsValid() bool {
	return s == StatusDraft || s == StatusConfirmed
}

// Entry is a canonical spec entry. One entry describes exactly one
// object or rule.
type Entry struct {
	// ID is the stable, domain-prefixed identifier, e.g. "premise/core".
	ID string `yaml:"id"`

	// Title is the human-readable title.
	Title string `yaml:"title,omitempty"`

	// Status is draft or confirmed.
	Status EntryStatus `yaml:"status,omitempty"`

	// Tags are free-form keywords for query matching.
	Tags []string `yaml:"tags,omitempty"`

	// Aliases are alternative names matched during query, used for
	// dedupe-before-write.
	Aliases []string `yaml:"aliases,omitempty"`

	// Path is the project-relative file path (not serialized).
	Path string `yaml:"-"`
}

// Domain returns the domain segment of the entry id.
func (e *Entry) Domain() Domain {
	if i := strings.IndexByte(e.ID, '/'); i > 0 {
		return Domain(e.ID[:i])
	}
	return ""
}

// idPattern constrains entry ids to kebab-case, domain-prefixed form.
var idPattern = regexp.MustCompile(`^[a-z][a-z0-9-]*(/[a-z0-9][a-z0-9-]*)+$`)

// ValidateID checks that an entry id is well-formed and carries a known
// domain prefix.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("entry id is required")
	}
	if !idPattern.MatchString(id) {
		return fmt.Errorf("invalid entry id %q: expected kebab-case domain-prefixed id like premise/core", id)
	}
	domain := Domain(id[:strings.IndexByte(id, '/')])
	if !domain.IsValid() {
		return fmt.Errorf("unknown spec domain %q in id %q", domain, id)
	}
	return nil
}

// EntryRelPath derives the project-relative path for an entry id:
// spec/<id>.md.
func EntryRelPath(id string) (string, error) {
	if err := ValidateID(id); err != nil {
		return "", err
	}
	return filepath.ToSlash(filepath.Join("spec", id+".md")), nil
}

// BuildEntryText renders the full markdown text of an entry: YAML
// frontmatter followed by the body, with a normalized trailing newline.
func BuildEntryText(entry *Entry, body string) (string, error) {
	if err := ValidateID(entry.ID); err != nil {
		return "", err
	}
	if entry.Status != "" && !entry.Status.IsValid() {
		return "", fmt.Errorf("invalid entry status: %s", entry.Status)
	}

	fm, err := yaml.Marshal(entry)
	if err != nil {
		return "", fmt.Errorf("marshal frontmatter: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("---\n")
	sb.Write(fm)
	sb.WriteString("---\n\n")
	sb.WriteString(strings.TrimLeft(body, "\n"))
	text := sb.String()
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	return text, nil
}

// ParseEntryText parses entry markdown into frontmatter and body.
// Content without a frontmatter block yields a nil entry.
func ParseEntryText(content string) (*Entry, string, error) {
	if !strings.HasPrefix(content, "---\n") && !strings.HasPrefix(content, "---\r\n") {
		return nil, content, nil
	}

	rest := content[strings.IndexByte(content, '\n')+1:]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return nil, "", fmt.Errorf("unterminated frontmatter block")
	}
	fmText := rest[:end+1]
	body := rest[end+len("\n---"):]
	body = strings.TrimPrefix(body, "\r")
	body = strings.TrimPrefix(body, "\n")
	body = strings.TrimPrefix(body, "\n")

	var entry Entry
	if err := yaml.Unmarshal([]byte(fmText), &entry); err != nil {
		return nil, "", fmt.Errorf("parse frontmatter: %w", err)
	}
	return &entry, body, nil
}
