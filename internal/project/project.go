// Package project turns a synthesis document into one of the three output
// format projections: academic section blocks, a flowing blog rendition,
// or an executive summary. Projections are pure — the same document and
// format always produce the same data — so the terminal layer only has to
// mount them.
package project

import (
	"errors"
	"regexp"
	"strings"

	"github.com/csheth/reviewdeck/internal/api"
)

// Format selects how the synthesis document is projected.
type Format string

const (
	FormatAcademic Format = "academic"
	FormatBlog     Format = "blog"
	FormatSummary  Format = "summary"
)

// Next cycles to the following format in display order.
func (f Format) Next() Format {
	switch f {
	case FormatAcademic:
		return FormatBlog
	case FormatBlog:
		return FormatSummary
	default:
		return FormatAcademic
	}
}

// ErrNoContent is returned by Blog when none of its source sections carry
// any text; the caller shows a notice instead of an empty shell.
var ErrNoContent = errors.New("no synthesis content to project")

const (
	// previewRunes is the collapsed preview length of an academic block.
	previewRunes = 320
	// minSectionRunes is the floor below which a section counts as not
	// yet generated and is omitted from the academic projection.
	minSectionRunes = 40

	abstractRunes   = 500
	conclusionRunes = 400
)

// SectionBlock is one academic-format block. Preview holds the collapsed
// text; the full Content is revealed by the caller's expand action.
type SectionBlock struct {
	Key       string
	Title     string
	Content   string
	Preview   string
	Truncated bool
	WordCount int
}

type namedSection struct {
	key   string
	title string
	text  func(api.Parsed) string
}

var academicOrder = []namedSection{
	{"introduction", "Introduction", func(p api.Parsed) string { return p.Introduction }},
	{"methods", "Methodological Comparison", func(p api.Parsed) string { return p.Methods }},
	{"results", "Results Synthesis", func(p api.Parsed) string { return p.Results }},
	{"discussion", "Discussion", func(p api.Parsed) string { return p.Discussion }},
	{"conclusion", "Conclusion", func(p api.Parsed) string { return p.Conclusion }},
	{"references", "References", func(p api.Parsed) string { return p.References }},
}

// Academic projects the document into its fixed section blocks. Sections
// that are empty or below the minimum length are omitted entirely.
func Academic(parsed api.Parsed) []SectionBlock {
	blocks := make([]SectionBlock, 0, len(academicOrder))
	for _, section := range academicOrder {
		content := strings.TrimSpace(section.text(parsed))
		if len([]rune(content)) < minSectionRunes {
			continue
		}
		preview, truncated := truncateRunes(content, previewRunes)
		blocks = append(blocks, SectionBlock{
			Key:       section.key,
			Title:     section.title,
			Content:   content,
			Preview:   preview,
			Truncated: truncated,
			WordCount: len(strings.Fields(content)),
		})
	}
	return blocks
}

// Paragraph is one blog-format paragraph. The first paragraph is the lead
// and is rendered visually distinguished.
type Paragraph struct {
	Text string
	Lead bool
}

var blogOrder = []func(api.Parsed) string{
	func(p api.Parsed) string { return p.Introduction },
	func(p api.Parsed) string { return p.Methods },
	func(p api.Parsed) string { return p.Results },
	func(p api.Parsed) string { return p.Conclusion },
}

var paragraphBreak = regexp.MustCompile(`\n\s*\n`)

// Blog concatenates the narrative sections (introduction, methods,
// results, conclusion — discussion and references excluded) in that fixed
// order and splits them into paragraphs.
func Blog(parsed api.Parsed) ([]Paragraph, error) {
	var paragraphs []Paragraph
	for _, text := range blogOrder {
		section := strings.TrimSpace(text(parsed))
		if section == "" {
			continue
		}
		for _, chunk := range paragraphBreak.Split(section, -1) {
			chunk = strings.TrimSpace(chunk)
			if chunk == "" {
				continue
			}
			paragraphs = append(paragraphs, Paragraph{Text: chunk, Lead: len(paragraphs) == 0})
		}
	}
	if len(paragraphs) == 0 {
		return nil, ErrNoContent
	}
	return paragraphs, nil
}

var (
	boldRun   = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicRun = regexp.MustCompile(`\*([^*]+)\*`)
)

// Emphasis converts inline markdown emphasis runs into display emphasis
// using the supplied style functions. Bold runs are converted before
// italic runs so ** markers are never half-consumed.
func Emphasis(text string, bold, italic func(string) string) string {
	text = boldRun.ReplaceAllStringFunc(text, func(match string) string {
		return bold(boldRun.FindStringSubmatch(match)[1])
	})
	return italicRun.ReplaceAllStringFunc(text, func(match string) string {
		return italic(italicRun.FindStringSubmatch(match)[1])
	})
}

// SummaryView is the summary-format projection. Each part is optional and
// independently omitted when absent.
type SummaryView struct {
	Abstract   string
	Conclusion string
	Themes     []string
}

// Summary projects the abstract, conclusion, and cross-paper themes. The
// second return value is false when all three parts are absent.
func Summary(parsed api.Parsed, themes []string) (SummaryView, bool) {
	view := SummaryView{Themes: themes}
	if abstract := strings.TrimSpace(parsed.Abstract); abstract != "" {
		view.Abstract, _ = truncateRunes(abstract, abstractRunes)
	}
	if conclusion := strings.TrimSpace(parsed.Conclusion); conclusion != "" {
		view.Conclusion, _ = truncateRunes(conclusion, conclusionRunes)
	}
	ok := view.Abstract != "" || view.Conclusion != "" || len(view.Themes) > 0
	return view, ok
}

func truncateRunes(text string, limit int) (string, bool) {
	runes := []rune(text)
	if len(runes) <= limit {
		return text, false
	}
	return strings.TrimSpace(string(runes[:limit])) + "…", true
}
