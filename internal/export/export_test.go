package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/csheth/reviewdeck/internal/api"
)

func TestWriteStampsFilename(t *testing.T) {
	t.Parallel()

	adapter, err := NewAdapter(t.TempDir())
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}
	path, err := adapter.Write(api.Download{Name: "references.bib", Data: []byte("@article{a}")})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	base := filepath.Base(path)
	if !strings.HasPrefix(base, "references_") || !strings.HasSuffix(base, ".bib") {
		t.Fatalf("unexpected filename %q", base)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "@article{a}" {
		t.Fatalf("data = %q", data)
	}
}

func TestStampNameKeepsExtension(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	got := stampName("research_synthesis.pdf", now)
	if got != "research_synthesis_20260314_092653.pdf" {
		t.Fatalf("stamped name = %q", got)
	}
}

func TestPrintFallbackRendersHeadingsAndBullets(t *testing.T) {
	t.Parallel()

	doc := api.SynthesisDocument{
		Markdown: strings.Join([]string{
			"# Research Synthesis",
			"",
			"## 1. Introduction",
			"",
			"A paragraph about the reviewed literature.",
			"- first bullet",
			"* second bullet",
		}, "\n"),
		Parsed: api.Parsed{Topic: "Graph Neural Networks", Date: "2026-08-30", Model: "gemini"},
	}

	text := renderPrintText(doc)
	if !strings.HasPrefix(text, "Graph Neural Networks\n=====================") {
		t.Fatalf("missing title block:\n%s", text)
	}
	if !strings.Contains(text, "1. Introduction\n---------------") {
		t.Fatalf("section heading not underlined:\n%s", text)
	}
	if !strings.Contains(text, "• first bullet") || !strings.Contains(text, "• second bullet") {
		t.Fatalf("bullets not rendered:\n%s", text)
	}
	if !strings.Contains(text, "AI Provider: gemini") {
		t.Fatalf("metadata missing:\n%s", text)
	}
}

func TestPrintFallbackWritesFile(t *testing.T) {
	t.Parallel()

	adapter, err := NewAdapter(t.TempDir())
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}
	path, err := adapter.WritePrintFallback(api.SynthesisDocument{Markdown: "## Conclusion\n\nDone."})
	if err != nil {
		t.Fatalf("fallback: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !strings.Contains(string(data), "Conclusion") {
		t.Fatalf("fallback content missing:\n%s", data)
	}
}
