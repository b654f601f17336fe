package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/novelaire/novelaire/workflow"
)

// ImportResult describes one imported reference.
type ImportResult struct {
	URL     string
	Title   string
	RelPath string
	Bytes   int
}

// Importer fetches web pages and stores them as markdown under refs/.
type Importer struct {
	manager   *workflow.Manager
	fetcher   *Fetcher
	converter *Converter
	logger    *slog.Logger
}

// NewImporter creates an importer for the given project.
func NewImporter(manager *workflow.Manager, fetcher *Fetcher, logger *slog.Logger) *Importer {
	return &Importer{
		manager:   manager,
		fetcher:   fetcher,
		converter: NewConverter(),
		logger:    logger,
	}
}

// Import fetches a URL, converts it to markdown, and writes it to
// refs/<slug>.md. An existing file for the same source is overwritten;
// re-importing refreshes the reference.
func (i *Importer) Import(ctx context.Context, rawURL string) (*ImportResult, error) {
	fetched, err := i.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	converted, err := i.converter.Convert(fetched.Body, rawURL)
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", rawURL, err)
	}
	if strings.TrimSpace(converted.Markdown) == "" {
		return nil, fmt.Errorf("no readable content at %s", rawURL)
	}

	title := converted.Title
	if title == "" {
		title = ExtractDomain(rawURL)
	}

	relPath := filepath.Join(workflow.RefsDir, RefSlug(rawURL)+".md")
	content := buildRefDocument(title, rawURL, converted.Markdown)

	abs, err := i.manager.ResolveInProject(relPath)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return nil, fmt.Errorf("failed to create refs directory: %w", err)
	}
	if err := os.WriteFile(abs, []byte(content), 0644); err != nil {
		return nil, fmt.Errorf("failed to write reference: %w", err)
	}

	i.logger.Info("Imported reference",
		slog.String("url", rawURL),
		slog.String("path", relPath),
		slog.Int("bytes", len(content)))

	return &ImportResult{
		URL:     rawURL,
		Title:   title,
		RelPath: filepath.ToSlash(relPath),
		Bytes:   len(content),
	}, nil
}

// buildRefDocument wraps converted markdown with source frontmatter so a
// reference always records where it came from and when.
func buildRefDocument(title, rawURL, markdown string) string {
	var sb strings.Builder
	sb.WriteString("---\n")
	sb.WriteString("title: " + strings.ReplaceAll(title, "\n", " ") + "\n")
	sb.WriteString("source: " + rawURL + "\n")
	sb.WriteString("fetched_at: " + time.Now().UTC().Format(time.RFC3339) + "\n")
	sb.WriteString("---\n\n")
	sb.WriteString(markdown)
	sb.WriteString("\n")
	return sb.String()
}
