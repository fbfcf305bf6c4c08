package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/csheth/reviewdeck/internal/api"
	"github.com/csheth/reviewdeck/internal/compare"
	"github.com/csheth/reviewdeck/internal/project"
)

func (m *model) View() string {
	parts := []string{m.heroView(), m.tabBarView()}
	switch {
	case m.pdfLoading:
		parts = append(parts, fmt.Sprintf("%s Extracting text from %q…", m.spinner.View(), m.pdfTitle))
	case m.pdfText != "":
		parts = append(parts, m.pdfPreviewView())
	default:
		switch m.view {
		case viewSearch:
			parts = append(parts, m.searchBodyView())
		case viewPipeline:
			parts = append(parts, m.pipelineBodyView())
		case viewSynthesis:
			parts = append(parts, m.synthesisBodyView())
		case viewReports:
			parts = append(parts, m.reportsBodyView())
		}
	}
	if m.errorMessage != "" {
		parts = append(parts, errorStyle.Render(m.errorMessage))
	}
	if m.infoMessage != "" {
		parts = append(parts, helperStyle.Render(m.infoMessage))
	}
	if legend := m.keyLegendView(); legend != "" {
		parts = append(parts, legend)
	}
	return joinNonEmpty(parts)
}

func (m *model) heroView() string {
	logo := renderLogo()
	return lipgloss.JoinVertical(
		lipgloss.Left,
		logo,
		taglineStyle.Render(heroTagline),
	)
}

func (m *model) tabBarView() string {
	tabs := make([]string, 0, 4)
	for _, v := range []view{viewSearch, viewPipeline, viewSynthesis, viewReports} {
		label := fmt.Sprintf(" %d %s ", int(v)+1, v.label())
		if v == m.view {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}
	bar := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	if !m.probed {
		return bar
	}
	if m.online {
		return lipgloss.JoinHorizontal(lipgloss.Top, bar, onlineStyle.Render("  ● online"))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, bar, offlineStyle.Render("  ● offline"))
}

func (m *model) searchBodyView() string {
	var b strings.Builder
	b.WriteString(sectionHeaderStyle.Render("Search Topics"))
	b.WriteRune('\n')
	b.WriteString(m.topicInput.View())
	b.WriteRune('\n')
	if m.searching {
		b.WriteString(fmt.Sprintf("%s Searching…", m.spinner.View()))
		return b.String()
	}
	if len(m.papers) == 0 {
		b.WriteString(helperStyle.Render("Comma-separate topics to search several at once."))
		return b.String()
	}
	b.WriteRune('\n')
	b.WriteString(sectionHeaderStyle.Render(fmt.Sprintf("Results — %d picked of %d max", m.triage.Count(), maxTriagePicks)))
	b.WriteRune('\n')
	for idx, paper := range m.papers {
		b.WriteString(m.paperRow(idx, paper))
		b.WriteRune('\n')
	}
	return b.String()
}

func (m *model) paperRow(idx int, paper api.Paper) string {
	cursor := " "
	if idx == m.paperIdx {
		cursor = ">"
	}
	check := " "
	if m.triage.Has(idx) {
		check = "x"
	}
	meta := string(paper.Year)
	if paper.Venue != "" {
		meta = fmt.Sprintf("%s, %s", meta, paper.Venue)
	}
	row := fmt.Sprintf(" %s [%s] %s (%s)", cursor, check, paper.Title, meta)
	if idx == m.paperIdx {
		return currentLineStyle.Render(row)
	}
	if m.triage.Has(idx) {
		return pickedStyle.Render(row)
	}
	return row
}

func (m *model) pipelineBodyView() string {
	var b strings.Builder
	b.WriteString(sectionHeaderStyle.Render("Extraction Pipeline"))
	b.WriteRune('\n')
	if m.pipelineBusy && m.pipelineLabel != "" {
		b.WriteString(fmt.Sprintf("%s %s", m.spinner.View(), m.pipelineLabel))
		b.WriteRune('\n')
	}
	for _, stage := range m.stages {
		b.WriteString(m.stageCard(stage))
		b.WriteRune('\n')
	}
	return b.String()
}

func (m *model) stageCard(stage api.Stage) string {
	icon := "○"
	style := pendingStageStyle
	switch stage.Status {
	case api.StageRunning:
		icon = m.spinner.View()
		style = runningStageStyle
	case api.StageDone:
		icon = "✓"
		style = doneStageStyle
	case api.StageError:
		icon = "✗"
		style = errorStageStyle
	}
	header := style.Render(fmt.Sprintf("%s %s", icon, stage.Title))
	sub := helperStyle.Render("  " + stage.Subtitle)
	bar := "  " + renderProgressBar(stage.Progress, 30)
	return strings.Join([]string{header, sub, bar}, "\n")
}

func renderProgressBar(progress, width int) string {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	filled := progress * width / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("%s %3d%%", progressStyle.Render(bar), progress)
}

func (m *model) synthesisBodyView() string {
	if m.comparing {
		return m.comparisonView()
	}
	var b strings.Builder
	if m.synthesisBusy {
		label := "Synthesizing the review…"
		if m.elapsed > 0 {
			label = fmt.Sprintf("Synthesizing the review… %ds elapsed", m.elapsed)
		}
		b.WriteString(fmt.Sprintf("%s %s", m.spinner.View(), label))
		b.WriteRune('\n')
	}
	if m.doc == nil || !m.doc.HasContent() {
		if !m.synthesisBusy {
			b.WriteString(helperStyle.Render("No synthesis yet. Press s to generate one from the analyzed papers."))
		}
		return b.String()
	}
	b.WriteString(formatBarStyle.Render(fmt.Sprintf("Format: %s (f to switch)", m.format)))
	b.WriteRune('\n')
	m.refreshProjectionIfDirty()
	b.WriteString(m.viewport.View())
	if strip := m.paperStripView(); strip != "" {
		b.WriteRune('\n')
		b.WriteString(strip)
	}
	if m.composing {
		b.WriteRune('\n')
		b.WriteString(sectionHeaderStyle.Render("Revise"))
		b.WriteRune('\n')
		b.WriteString(m.reviseInput.View())
	}
	return b.String()
}

// refreshProjectionIfDirty rebuilds the projection region from scratch so
// switching formats always leaves exactly one projection mounted.
func (m *model) refreshProjectionIfDirty() {
	if !m.viewportDirty {
		return
	}
	m.viewportDirty = false
	if m.doc == nil {
		m.viewport.SetContent("")
		return
	}
	var content string
	switch m.format {
	case project.FormatBlog:
		content = m.blogContent()
	case project.FormatSummary:
		content = m.summaryContent()
	default:
		content = m.academicContent()
	}
	m.viewport.SetContent(content)
	m.viewport.SetYOffset(0)
}

func (m *model) academicContent() string {
	blocks := project.Academic(m.doc.Parsed)
	if len(blocks) == 0 {
		return helperStyle.Render("Sections not yet generated.")
	}
	wrap := m.wrapWidth(2)
	var b strings.Builder
	for idx, block := range blocks {
		cursor := " "
		if idx == m.sectionIdx {
			cursor = ">"
		}
		header := fmt.Sprintf("%s %s (%d words)", cursor, block.Title, block.WordCount)
		if idx == m.sectionIdx {
			b.WriteString(currentLineStyle.Render(header))
		} else {
			b.WriteString(sectionHeaderStyle.Render(header))
		}
		b.WriteRune('\n')
		body := block.Preview
		if m.expanded[block.Key] {
			body = block.Content
		} else if block.Truncated {
			body += helperStyle.Render("  (e expands)")
		}
		b.WriteString(wordwrap.String(body, wrap))
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *model) blogContent() string {
	paragraphs, err := project.Blog(m.doc.Parsed)
	if err != nil {
		return helperStyle.Render("No content to tell as a story yet.")
	}
	wrap := m.wrapWidth(0)
	var b strings.Builder
	for _, para := range paragraphs {
		text := project.Emphasis(para.Text,
			func(s string) string { return boldStyle.Render(s) },
			func(s string) string { return italicStyle.Render(s) })
		text = wordwrap.String(text, wrap)
		if para.Lead {
			b.WriteString(leadParagraphStyle.Render(text))
		} else {
			b.WriteString(text)
		}
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *model) summaryContent() string {
	var themes []string
	if m.similarity != nil {
		themes = m.similarity.KeyThemes
	}
	view, ok := project.Summary(m.doc.Parsed, themes)
	if !ok {
		return helperStyle.Render("Summary not available yet.")
	}
	wrap := m.wrapWidth(0)
	var b strings.Builder
	if view.Abstract != "" {
		b.WriteString(sectionHeaderStyle.Render("Abstract"))
		b.WriteRune('\n')
		b.WriteString(wordwrap.String(view.Abstract, wrap))
		b.WriteString("\n\n")
	}
	if view.Conclusion != "" {
		b.WriteString(sectionHeaderStyle.Render("Conclusion"))
		b.WriteRune('\n')
		b.WriteString(wordwrap.String(view.Conclusion, wrap))
		b.WriteString("\n\n")
	}
	if len(view.Themes) > 0 {
		b.WriteString(sectionHeaderStyle.Render("Research Themes"))
		b.WriteRune('\n')
		b.WriteString(wordwrap.String(strings.Join(view.Themes, ", "), wrap))
		b.WriteRune('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *model) paperStripView() string {
	if len(m.papers) == 0 {
		return ""
	}
	cells := make([]string, 0, len(m.papers))
	for idx := range m.papers {
		label := fmt.Sprintf(" %d ", idx+1)
		switch {
		case idx == m.paperIdx && m.synthPapers.Has(idx):
			cells = append(cells, stripCurrentOnStyle.Render(label))
		case idx == m.paperIdx:
			cells = append(cells, stripCurrentStyle.Render(label))
		case m.synthPapers.Has(idx):
			cells = append(cells, stripOnStyle.Render(label))
		default:
			cells = append(cells, stripOffStyle.Render(label))
		}
	}
	counter := helperStyle.Render(fmt.Sprintf("  %d/%d in synthesis (h/l move, space toggles)", m.synthPapers.Count(), len(m.papers)))
	return lipgloss.JoinHorizontal(lipgloss.Top, append(cells, counter)...)
}

func (m *model) comparisonView() string {
	var b strings.Builder
	b.WriteString(sectionHeaderStyle.Render(fmt.Sprintf("Comparing %d papers", len(m.columns))))
	b.WriteRune('\n')
	colWidth := m.columnWidth()
	rendered := make([]string, 0, len(m.columns))
	for _, col := range m.columns {
		rendered = append(rendered, m.comparisonColumn(col, colWidth))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, rendered...))
	if m.similarity != nil {
		if pair, ok := compare.HighestPair(m.similarity); ok {
			b.WriteRune('\n')
			callout := fmt.Sprintf("Most similar: %q and %q — %s",
				pair.PaperATitle, pair.PaperBTitle, compare.Percent(pair.Similarity))
			b.WriteString(calloutStyle.Render(wordwrap.String(callout, m.wrapWidth(4))))
		}
	}
	return b.String()
}

func (m *model) comparisonColumn(col compare.Column, width int) string {
	var b strings.Builder
	b.WriteString(boldStyle.Render(wordwrap.String(col.Title, width)))
	b.WriteRune('\n')
	b.WriteString(helperStyle.Render(wordwrap.String(col.Authors, width)))
	b.WriteRune('\n')
	if col.Venue != "" {
		b.WriteString(italicStyle.Render(wordwrap.String(col.Venue, width)))
		b.WriteRune('\n')
	}
	b.WriteString(wordwrap.String(col.Abstract, width))
	b.WriteRune('\n')
	for _, finding := range col.Findings {
		b.WriteString(wordwrap.String("• "+finding, width))
		b.WriteRune('\n')
	}
	return columnBoxStyle.Width(width + 2).Render(b.String())
}

func (m *model) columnWidth() int {
	count := len(m.columns)
	if count == 0 {
		count = 1
	}
	width := m.wrapWidth(0)/count - 4
	if width < 18 {
		width = 18
	}
	return width
}

func (m *model) reportsBodyView() string {
	if m.openReport != nil {
		return m.reportDetailView()
	}
	var b strings.Builder
	b.WriteString(sectionHeaderStyle.Render("Archived Reports"))
	b.WriteRune('\n')
	if m.reportsBusy {
		b.WriteString(fmt.Sprintf("%s Loading…", m.spinner.View()))
		return b.String()
	}
	if len(m.reports) == 0 {
		b.WriteString(helperStyle.Render("Nothing archived yet. Completed syntheses land here."))
		return b.String()
	}
	for idx, report := range m.reports {
		cursor := " "
		if idx == m.reportIdx {
			cursor = ">"
		}
		bib := " "
		if report.HasBib {
			bib = "bib"
		}
		row := fmt.Sprintf(" %s %s — %s (%s, %d papers, %d words, %s) %s",
			cursor, report.Title, report.Topic, report.Date, report.Papers, report.Words, report.Status, bib)
		if idx == m.reportIdx {
			b.WriteString(currentLineStyle.Render(row))
		} else {
			b.WriteString(row)
		}
		b.WriteRune('\n')
	}
	return b.String()
}

func (m *model) reportDetailView() string {
	detail := m.openReport
	var b strings.Builder
	b.WriteString(sectionHeaderStyle.Render(detail.Parsed.Topic))
	b.WriteRune('\n')
	meta := fmt.Sprintf("%s — %s — %d paper(s)", detail.Parsed.Date, detail.Parsed.Model, len(detail.Papers))
	b.WriteString(helperStyle.Render(meta))
	b.WriteString("\n\n")
	wrap := m.wrapWidth(0)
	if detail.Parsed.Abstract != "" {
		b.WriteString(wordwrap.String(detail.Parsed.Abstract, wrap))
		b.WriteString("\n\n")
	}
	if detail.APA != "" {
		b.WriteString(sectionHeaderStyle.Render("References (APA)"))
		b.WriteRune('\n')
		b.WriteString(wordwrap.String(detail.APA, wrap))
		b.WriteRune('\n')
	}
	return b.String()
}

func (m *model) pdfPreviewView() string {
	var b strings.Builder
	b.WriteString(sectionHeaderStyle.Render("PDF Text — " + m.pdfTitle))
	b.WriteRune('\n')
	text := m.pdfText
	const previewRunes = 4000
	if runes := []rune(text); len(runes) > previewRunes {
		text = string(runes[:previewRunes]) + "…"
	}
	b.WriteString(wordwrap.String(text, m.wrapWidth(0)))
	return b.String()
}

type keyHint struct {
	Key         string
	Description string
}

func (m *model) keyLegendView() string {
	var hints []keyHint
	switch m.view {
	case viewSearch:
		hints = []keyHint{
			{"/", "Edit topics"},
			{"j/k", "Move"},
			{"space", "Pick paper"},
			{"p", "Run pipeline"},
			{"o", "PDF text"},
			{"1-4", "Switch view"},
		}
	case viewPipeline:
		hints = []keyHint{
			{"s", "Synthesize"},
			{"p", "Re-run pipeline"},
			{"1-4", "Switch view"},
		}
	case viewSynthesis:
		hints = []keyHint{
			{"f", "Format"},
			{"j/k", "Section"},
			{"e", "Expand"},
			{"r", "Revise"},
			{"c", "Compare"},
			{"a/b/m/x", "Export APA/Bib/MD/PDF"},
			{"space", "Toggle paper"},
		}
	case viewReports:
		hints = []keyHint{
			{"j/k", "Move"},
			{"enter", "Open"},
			{"r", "Refresh"},
			{"esc", "Close"},
		}
	}
	cells := make([]string, 0, len(hints))
	for _, hint := range hints {
		key := keyStyle.Render(hint.Key)
		desc := keyDescStyle.Render(" " + hint.Description)
		cells = append(cells, lipgloss.JoinHorizontal(lipgloss.Top, key, desc), "  ")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

func (m *model) wrapWidth(padding int) int {
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}
	if padding < 0 {
		padding = 0
	}
	available := width - padding
	if available < 20 {
		available = 20
	}
	return available
}

func joinNonEmpty(parts []string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		filtered = append(filtered, part)
	}
	return strings.Join(filtered, "\n\n")
}

func renderLogo() string {
	if len(logoArtLines) == 0 {
		return ""
	}
	width := 0
	lineRunes := make([][]rune, len(logoArtLines))
	for i, line := range logoArtLines {
		runes := []rune(line)
		lineRunes[i] = runes
		if len(runes) > width {
			width = len(runes)
		}
	}
	width += 1 // allow horizontal shadow shift
	height := len(logoArtLines) + 1

	type cell struct {
		r     rune
		style lipgloss.Style
	}

	grid := make([][]cell, height)
	for i := range grid {
		grid[i] = make([]cell, width)
	}

	// draw shadow first (offset down/right)
	for y, runes := range lineRunes {
		for x, r := range runes {
			if r == ' ' {
				continue
			}
			if y+1 < height && x+1 < width {
				grid[y+1][x+1] = cell{r: r, style: logoShadowStyle}
			}
		}
	}

	// draw face on top
	for y, runes := range lineRunes {
		for x, r := range runes {
			if r == ' ' {
				continue
			}
			grid[y][x] = cell{r: r, style: logoFaceStyle}
		}
	}

	lines := make([]string, height)
	for y, row := range grid {
		var b strings.Builder
		for _, c := range row {
			if c.r == 0 {
				b.WriteRune(' ')
				continue
			}
			b.WriteString(c.style.Render(string(c.r)))
		}
		lines[y] = b.String()
	}
	return logoContainerStyle.Render(strings.Join(lines, "\n"))
}

var (
	sectionHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helperStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	boldStyle          = lipgloss.NewStyle().Bold(true)
	italicStyle        = lipgloss.NewStyle().Italic(true)

	heroAccentColor        = lipgloss.Color("#2dd4bf")
	heroInkColor           = lipgloss.Color("#04211d")
	heroTextColor          = lipgloss.Color("#e6fffa")
	heroSecondaryTextColor = lipgloss.Color("#5eead4")

	taglineStyle = lipgloss.NewStyle().Foreground(heroSecondaryTextColor).Italic(true)

	tabStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	activeTabStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0f0f0f")).Background(heroAccentColor)
	onlineStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#a3be8c"))
	offlineStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

	currentLineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6"))
	pickedStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#a3be8c"))

	pendingStageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	runningStageStyle = lipgloss.NewStyle().Bold(true).Foreground(heroAccentColor)
	doneStageStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#a3be8c"))
	errorStageStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	progressStyle     = lipgloss.NewStyle().Foreground(heroAccentColor)

	formatBarStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#ffd166")).Padding(0, 1)
	leadParagraphStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))

	stripOnStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#a3be8c"))
	stripOffStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	stripCurrentStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6"))
	stripCurrentOnStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#5eead4"))

	columnBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#56526e")).Padding(0, 1)
	calloutStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(heroAccentColor).Padding(0, 1)

	keyStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#ffd166")).Padding(0, 1)
	keyDescStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0def4"))

	logoFaceStyle      = lipgloss.NewStyle().Bold(true).Foreground(heroTextColor).Background(heroInkColor)
	logoShadowStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#021512"))
	logoContainerStyle = lipgloss.NewStyle().Padding(0, 1)
	logoArtLines       = []string{
		"██████╗   ███████╗  ██╗   ██╗  ██╗  ███████╗  ██╗    ██╗  ██████╗   ███████╗   ██████╗  ██╗  ██╗",
		"██╔══██╗  ██╔════╝  ██║   ██║  ██║  ██╔════╝  ██║    ██║  ██╔══██╗  ██╔════╝  ██╔════╝  ██║ ██╔╝",
		"██████╔╝  █████╗    ██║   ██║  ██║  █████╗    ██║ █╗ ██║  ██║  ██║  █████╗    ██║       █████╔╝ ",
		"██╔══██╗  ██╔══╝    ╚██╗ ██╔╝  ██║  ██╔══╝    ██║███╗██║  ██║  ██║  ██╔══╝    ██║       ██╔═██╗ ",
		"██║  ██║  ███████╗   ╚████╔╝   ██║  ███████╗  ╚███╔███╔╝  ██████╔╝  ███████╗  ╚██████╗  ██║  ██╗",
		"╚═╝  ╚═╝  ╚══════╝    ╚═══╝    ╚═╝  ╚══════╝   ╚══╝╚══╝   ╚═════╝   ╚══════╝   ╚═════╝  ╚═╝  ╚═╝",
	}
)
