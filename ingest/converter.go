package ingest

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

var (
	scriptRe     = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleRe      = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	blankRunsRe  = regexp.MustCompile(`\n{4,}`)
	chromeTags   = []string{"nav", "header", "footer", "aside", "script", "style", "noscript", "iframe", "object", "embed", "form", "input", "button"}
	chromeLabels = []string{"nav", "navbar", "navigation", "sidebar", "menu", "toc", "table-of-contents", "footer", "header", "ad", "advertisement", "social", "share", "comments", "related", "breadcrumb"}
)

// ConvertResult is a converted reference page.
type ConvertResult struct {
	Title    string
	Markdown string
}

// Converter turns fetched HTML into reference markdown. Readability
// article extraction runs first; pages without a recognizable article
// fall back to stripping navigation chrome by hand.
type Converter struct {
	md *md.Converter
}

// NewConverter creates a converter with GitHub-flavored markdown rules.
func NewConverter() *Converter {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	return &Converter{md: converter}
}

// Convert transforms an HTML page into markdown. pageURL resolves
// relative links during article extraction and may be empty.
func (c *Converter) Convert(htmlContent []byte, pageURL string) (*ConvertResult, error) {
	body := extractArticle(htmlContent, pageURL)
	if body == "" {
		body = stripChrome(htmlContent)
	}

	markdown, err := c.md.ConvertString(body)
	if err != nil {
		return nil, err
	}
	markdown = cleanMarkdown(markdown)

	title := extractHTMLTitle(htmlContent)
	if title == "" {
		title = extractMarkdownTitle(markdown)
	}
	return &ConvertResult{Title: title, Markdown: markdown}, nil
}

// extractArticle runs readability extraction, returning the article
// body as HTML or "" when none is found.
func extractArticle(content []byte, pageURL string) string {
	var parsed *url.URL
	if pageURL != "" {
		parsed, _ = url.Parse(pageURL)
	}
	article, err := readability.FromReader(bytes.NewReader(content), parsed)
	if err != nil {
		return ""
	}
	return article.Content
}

// extractHTMLTitle returns the first <title> text in the document.
func extractHTMLTitle(content []byte) string {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return ""
	}
	var title string
	walk(doc, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
			title = strings.TrimSpace(n.FirstChild.Data)
			return false
		}
		return true
	})
	return title
}

// stripChrome is the fallback extraction path: prefer a main/article
// container, otherwise drop navigation chrome and render the body.
func stripChrome(content []byte) string {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		// Unparseable input still gets scripts and styles stripped.
		stripped := scriptRe.ReplaceAllString(string(content), "")
		return styleRe.ReplaceAllString(stripped, "")
	}

	if container := findContainer(doc); container != nil {
		return render(container)
	}

	dropChrome(doc)
	if body := findTag(doc, "body"); body != nil {
		return render(body)
	}
	return string(content)
}

// walk visits nodes depth first until fn returns false.
func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

// findContainer returns the first main content element: <main>,
// <article>, or anything with role=main.
func findContainer(doc *html.Node) *html.Node {
	var found *html.Node
	walk(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		if n.Data == "main" || n.Data == "article" || attrIs(n, "role", "main") {
			found = n
			return false
		}
		return true
	})
	return found
}

func findTag(doc *html.Node, tag string) *html.Node {
	var found *html.Node
	walk(doc, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == tag {
			found = n
			return false
		}
		return true
	})
	return found
}

// dropChrome removes navigation/boilerplate elements, matched by tag
// name or by common class names.
func dropChrome(doc *html.Node) {
	tags := make(map[string]bool, len(chromeTags))
	for _, tag := range chromeTags {
		tags[tag] = true
	}
	labels := make(map[string]bool, len(chromeLabels))
	for _, label := range chromeLabels {
		labels[label] = true
	}

	var doomed []*html.Node
	walk(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		if tags[n.Data] || hasClassIn(n, labels) {
			doomed = append(doomed, n)
			return true
		}
		return true
	})
	for _, n := range doomed {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}
}

func attrIs(n *html.Node, key, value string) bool {
	for _, a := range n.Attr {
		if a.Key == key && a.Val == value {
			return true
		}
	}
	return false
}

func hasClassIn(n *html.Node, labels map[string]bool) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, class := range strings.Fields(strings.ToLower(a.Val)) {
			if labels[class] {
				return true
			}
		}
	}
	return false
}

func render(n *html.Node) string {
	var sb strings.Builder
	if err := html.Render(&sb, n); err != nil {
		return ""
	}
	return sb.String()
}

// cleanMarkdown trims trailing whitespace per line and collapses runs
// of blank lines.
func cleanMarkdown(content string) string {
	content = blankRunsRe.ReplaceAllString(content, "\n\n\n")
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// extractMarkdownTitle returns the first H1 text, if any.
func extractMarkdownTitle(content string) string {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
