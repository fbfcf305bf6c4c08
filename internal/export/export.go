// Package export writes backend-generated artifacts (APA references,
// BibTeX, markdown, PDF) into a local export directory, and renders a
// print-style plain-text fallback when the backend cannot produce a PDF.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/muesli/reflow/wordwrap"

	"github.com/csheth/reviewdeck/internal/api"
)

const printWrapWidth = 78

// Adapter saves export downloads under a single directory.
type Adapter struct {
	dir string
}

// NewAdapter creates the export directory if necessary.
func NewAdapter(dir string) (*Adapter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	return &Adapter{dir: dir}, nil
}

// Write stores a downloaded artifact and returns the written path. The
// filename gets a date stamp so repeated exports never clobber each other.
func (a *Adapter) Write(download api.Download) (string, error) {
	name := stampName(download.Name, time.Now())
	path := filepath.Join(a.dir, name)
	if err := os.WriteFile(path, download.Data, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}

// WritePrintFallback renders the synthesis document into a print-styled
// text file: title, rule-underlined headings, wrapped paragraphs. Used
// when the backend reports server-side PDF generation unavailable.
func (a *Adapter) WritePrintFallback(doc api.SynthesisDocument) (string, error) {
	text := renderPrintText(doc)
	name := stampName("research_synthesis_print.txt", time.Now())
	path := filepath.Join(a.dir, name)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("write print fallback: %w", err)
	}
	return path, nil
}

func renderPrintText(doc api.SynthesisDocument) string {
	var b strings.Builder
	title := strings.TrimSpace(doc.Parsed.Topic)
	if title == "" {
		title = "Research Synthesis"
	}
	b.WriteString(title + "\n")
	b.WriteString(strings.Repeat("=", min(len(title), printWrapWidth)) + "\n\n")
	if doc.Parsed.Date != "" {
		b.WriteString("Generated: " + doc.Parsed.Date + "\n")
	}
	if doc.Parsed.Model != "" {
		b.WriteString("AI Provider: " + doc.Parsed.Model + "\n")
	}
	b.WriteString("\n")

	for _, line := range strings.Split(doc.Markdown, "\n") {
		switch {
		case strings.HasPrefix(line, "# "):
			heading := strings.TrimSpace(strings.TrimPrefix(line, "# "))
			b.WriteString(heading + "\n" + strings.Repeat("=", min(len(heading), printWrapWidth)) + "\n")
		case strings.HasPrefix(line, "## "):
			heading := strings.TrimSpace(strings.TrimPrefix(line, "## "))
			b.WriteString(heading + "\n" + strings.Repeat("-", min(len(heading), printWrapWidth)) + "\n")
		case strings.HasPrefix(line, "### "):
			b.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "### ")) + "\n")
		case strings.HasPrefix(strings.TrimSpace(line), "- "), strings.HasPrefix(strings.TrimSpace(line), "* "):
			item := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-* "))
			b.WriteString(wordwrap.String("  • "+item, printWrapWidth) + "\n")
		case strings.TrimSpace(line) == "":
			b.WriteString("\n")
		default:
			b.WriteString(wordwrap.String(strings.TrimSpace(line), printWrapWidth) + "\n")
		}
	}
	return b.String()
}

func stampName(name string, now time.Time) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(filepath.Base(name), ext)
	return fmt.Sprintf("%s_%s%s", base, now.Format("20060102_150405"), ext)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
