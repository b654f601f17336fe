package ingest

import (
	"strings"
	"testing"
)

func TestExtractHTMLTitle(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"simple", "<html><head><title>My Page</title></head><body></body></html>", "My Page"},
		{"whitespace trimmed", "<html><head><title>  Spaced Title  </title></head></html>", "Spaced Title"},
		{"absent", "<html><head></head><body>Content</body></html>", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractHTMLTitle([]byte(tt.html)); got != tt.want {
				t.Errorf("extractHTMLTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractMarkdownTitle(t *testing.T) {
	tests := []struct {
		name     string
		markdown string
		want     string
	}{
		{"h1 at start", "# Hello World\n\nContent here", "Hello World"},
		{"h1 after preamble", "Some text\n\n# Title Here\n\nMore content", "Title Here"},
		{"h2 only", "## Section\n\nContent", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractMarkdownTitle(tt.markdown); got != tt.want {
				t.Errorf("extractMarkdownTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCleanMarkdown(t *testing.T) {
	got := cleanMarkdown("Line 1   \n\n\n\n\n\nLine 2\t\n")
	if strings.Contains(got, "\n\n\n\n") {
		t.Error("blank-line runs not collapsed")
	}
	for _, line := range strings.Split(got, "\n") {
		if line != strings.TrimRight(line, " \t") {
			t.Errorf("trailing whitespace survived: %q", line)
		}
	}
	if !strings.HasPrefix(got, "Line 1") || !strings.HasSuffix(got, "Line 2") {
		t.Errorf("content mangled: %q", got)
	}
}

func TestConvert(t *testing.T) {
	page := []byte(`<!DOCTYPE html>
<html>
<head><title>Field Notes</title></head>
<body>
<nav>Navigation</nav>
<main>
<h1>The Old Quarter</h1>
<p>Green lanterns burn along the <strong>canal</strong> after dusk.</p>
<ul>
<li>the ferry landing</li>
<li>the salt market</li>
</ul>
</main>
<footer>Footer</footer>
</body>
</html>`)

	result, err := NewConverter().Convert(page, "https://example.com/notes")
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if result.Title != "Field Notes" {
		t.Errorf("Title = %q, want %q", result.Title, "Field Notes")
	}
	for _, fragment := range []string{"The Old Quarter", "the ferry landing", "**canal**"} {
		if !strings.Contains(result.Markdown, fragment) {
			t.Errorf("markdown missing %q:\n%s", fragment, result.Markdown)
		}
	}
}
