package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/reviewdeck/internal/api"
	"github.com/csheth/reviewdeck/internal/compare"
	"github.com/csheth/reviewdeck/internal/export"
	"github.com/csheth/reviewdeck/internal/pipeline"
	"github.com/csheth/reviewdeck/internal/project"
	"github.com/csheth/reviewdeck/internal/selection"
)

// Config wires runtime options into the TUI program.
type Config struct {
	Client            *api.Client
	Exports           *export.Adapter
	PipelineInterval  time.Duration
	SynthesisInterval time.Duration
	WatchdogAfter     time.Duration
}

// New returns a tea.Model ready to be mounted into a Program.
func New(config Config) tea.Model {
	if config.PipelineInterval <= 0 {
		config.PipelineInterval = pipelinePollInterval
	}
	if config.SynthesisInterval <= 0 {
		config.SynthesisInterval = synthesisPollInterval
	}
	if config.WatchdogAfter <= 0 {
		config.WatchdogAfter = synthesisWatchdog
	}

	topicInput := textinput.New()
	topicInput.Placeholder = "graph neural networks, molecular dynamics…"
	topicInput.CharLimit = 160
	topicInput.Width = 60
	topicInput.Focus()

	reviseInput := textinput.New()
	reviseInput.Placeholder = "Shorten the methods section…"
	reviseInput.CharLimit = 280
	reviseInput.Width = 60

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	vp := viewport.New(80, 20)
	vp.MouseWheelEnabled = true

	return &model{
		config:        config,
		view:          viewSearch,
		topicInput:    topicInput,
		reviseInput:   reviseInput,
		spinner:       spin,
		viewport:      vp,
		triage:        selection.New(0, maxTriagePicks),
		synthPapers:   selection.New(1, 0),
		stages:        pipeline.DefaultStages(),
		format:        project.FormatAcademic,
		expanded:      map[string]bool{},
		pipelinePoll:  poller{interval: config.PipelineInterval},
		synthesisPoll: poller{interval: config.SynthesisInterval},
		infoMessage:   "Enter a topic and press Enter to search.",
	}
}

type model struct {
	config Config
	view   view

	topicInput  textinput.Model
	reviseInput textinput.Model
	spinner     spinner.Model
	viewport    viewport.Model

	online      bool
	probed      bool
	searching   bool
	papers      []api.Paper
	paperIdx    int
	triage      *selection.Set
	synthPapers *selection.Set

	stages        []api.Stage
	pipelineBusy  bool
	pipelinePoll  poller
	pipelineLabel string

	doc           *api.SynthesisDocument
	generationID  string
	synthesisBusy bool
	synthesisPoll poller
	watchdogFired bool
	elapsed       int
	format        project.Format
	sectionIdx    int
	expanded      map[string]bool
	composing     bool

	comparing  bool
	columns    []compare.Column
	similarity *api.Similarity

	reports     []api.Report
	reportsBusy bool
	reportIdx   int
	openReport  *api.ReportDetail

	pdfTitle   string
	pdfText    string
	pdfLoading bool

	infoMessage  string
	errorMessage string

	viewportDirty bool
	width         int
	height        int
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, probeStatusCmd(m.config.Client))
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.busy() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		if m.view == viewSynthesis {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		newWidth := msg.Width - viewportHorizontalPadding
		if newWidth < minViewportWidth {
			newWidth = minViewportWidth
		}
		m.viewport.Width = newWidth
		height := msg.Height - 12
		if height < 5 {
			height = 5
		}
		m.viewport.Height = height
		m.markViewportDirty()
		return m, nil
	case statusMsg:
		return m.handleStatus(msg)
	case searchResultMsg:
		return m.handleSearchResult(msg)
	case papersResultMsg:
		return m.handlePapersResult(msg)
	case pipelineStartedMsg:
		return m.handlePipelineStarted(msg)
	case pipelineTickMsg:
		if !m.pipelinePoll.current(msg.token) {
			return m, nil
		}
		return m, pipelineStatusCmd(m.config.Client, msg.token)
	case pipelineStatusMsg:
		return m.handlePipelineStatus(msg)
	case synthesisStartedMsg:
		return m.handleSynthesisStarted(msg)
	case synthesisTickMsg:
		if !m.synthesisPoll.current(msg.token) {
			return m, nil
		}
		return m, synthesisStatusCmd(m.config.Client, msg.token)
	case synthesisStatusMsg:
		return m.handleSynthesisStatus(msg)
	case watchdogMsg:
		return m.handleWatchdog(msg)
	case similarityMsg:
		return m.handleSimilarity(msg)
	case reportsMsg:
		return m.handleReports(msg)
	case reportDetailMsg:
		return m.handleReportDetail(msg)
	case exportDoneMsg:
		return m.handleExportDone(msg)
	case pdfTextMsg:
		return m.handlePDFText(msg)
	}
	return m, nil
}

func (m *model) busy() bool {
	return m.searching || m.pipelineBusy || m.synthesisBusy || m.reportsBusy || m.pdfLoading
}

func (m *model) handleStatus(msg statusMsg) (tea.Model, tea.Cmd) {
	m.probed = true
	if msg.err != nil {
		m.online = false
		m.errorMessage = offlineNotice
		m.infoMessage = "Working offline. Pipeline stages shown as pending."
		m.stages = pipeline.DefaultStages()
		return m, nil
	}
	m.online = true
	m.errorMessage = ""
	if msg.status.PapersLoaded > 0 {
		m.infoMessage = fmt.Sprintf("Connected. %d paper(s) already loaded — press 2 for the pipeline view.", msg.status.PapersLoaded)
		return m, fetchPapersCmd(m.config.Client)
	}
	m.infoMessage = "Connected. Enter a topic and press Enter to search."
	return m, nil
}

func (m *model) handleSearchResult(msg searchResultMsg) (tea.Model, tea.Cmd) {
	m.searching = false
	if msg.err != nil {
		m.applyFetchError(msg.err, "Search failed.")
		return m, nil
	}
	m.replacePapers(msg.papers)
	m.errorMessage = ""
	if len(msg.papers) == 0 {
		m.infoMessage = fmt.Sprintf("No papers found for %q.", msg.topic)
	} else {
		m.infoMessage = fmt.Sprintf("Found %d paper(s) for %q. Space toggles triage picks (max %d).", len(msg.papers), msg.topic, maxTriagePicks)
	}
	return m, nil
}

func (m *model) handlePapersResult(msg papersResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.applyFetchError(msg.err, "Could not refresh the paper list.")
		return m, nil
	}
	m.replacePapers(msg.papers)
	return m, nil
}

// replacePapers swaps the list wholesale and resets both selection sets:
// triage starts empty, the synthesis set defaults back to all papers.
func (m *model) replacePapers(papers []api.Paper) {
	m.papers = papers
	m.paperIdx = 0
	m.triage.Clear()
	m.synthPapers.Fill(len(papers))
	m.markViewportDirty()
}

func (m *model) handlePipelineStarted(msg pipelineStartedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.pipelineBusy = false
		m.applyFetchError(msg.err, "Pipeline did not start.")
		return m, nil
	}
	m.pipelineBusy = true
	m.pipelineLabel = "Starting extraction…"
	if !m.pipelinePoll.start() {
		return m, nil
	}
	return m, tea.Batch(m.spinner.Tick, pipelineTick(m.pipelinePoll.token, m.pipelinePoll.interval))
}

func (m *model) handlePipelineStatus(msg pipelineStatusMsg) (tea.Model, tea.Cmd) {
	if !m.pipelinePoll.current(msg.token) {
		return m, nil
	}
	if msg.err != nil {
		m.pipelinePoll.stop()
		m.pipelineBusy = false
		m.applyFetchError(msg.err, "Lost contact with the pipeline.")
		return m, nil
	}
	if len(msg.status.Stages) > 0 {
		m.stages = msg.status.Stages
	}
	if msg.status.Running {
		if active, ok := pipeline.ActiveStage(m.stages); ok {
			m.pipelineLabel = fmt.Sprintf("%s — %s", active.Title, active.Subtitle)
		}
		return m, pipelineTick(msg.token, m.pipelinePoll.interval)
	}
	m.pipelinePoll.stop()
	m.pipelineBusy = false
	if pipeline.AllDone(m.stages) {
		m.pipelineLabel = ""
		m.errorMessage = ""
		m.infoMessage = "Extraction complete. Press s to synthesize the review."
		return m, fetchPapersCmd(m.config.Client)
	}
	m.pipelineLabel = ""
	if msg.status.Error != "" {
		m.errorMessage = fmt.Sprintf("Pipeline failed: %s", msg.status.Error)
	} else {
		m.errorMessage = "Pipeline stopped before finishing."
	}
	return m, nil
}

func (m *model) handleSynthesisStarted(msg synthesisStartedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.synthesisBusy = false
		m.applyFetchError(msg.err, "Synthesis did not start.")
		return m, nil
	}
	m.synthesisBusy = true
	m.watchdogFired = false
	m.elapsed = 0
	m.generationID = msg.ack.GenerationID
	if msg.revise {
		m.infoMessage = "Revision queued."
	} else {
		m.infoMessage = "Synthesis queued."
	}
	// The poll loop may still be live from a generation the watchdog gave
	// up on. Reuse it rather than double-ticking, but the new generation
	// always gets its own watchdog.
	started := m.synthesisPoll.start()
	token := m.synthesisPoll.token
	cmds := []tea.Cmd{
		m.spinner.Tick,
		watchdogTick(token, m.config.WatchdogAfter),
	}
	if started {
		cmds = append(cmds, synthesisTick(token, m.synthesisPoll.interval))
	}
	return m, tea.Batch(cmds...)
}

func (m *model) handleSynthesisStatus(msg synthesisStatusMsg) (tea.Model, tea.Cmd) {
	if !m.synthesisPoll.current(msg.token) {
		return m, nil
	}
	if msg.err != nil {
		m.synthesisPoll.stop()
		m.synthesisBusy = false
		m.applyFetchError(msg.err, "Lost contact during synthesis.")
		return m, nil
	}
	// A document minted by a superseded run or revision is never merged,
	// but the poll keeps going: the generation we care about is still in
	// flight server-side.
	if m.generationID != "" && msg.doc.GenerationID != "" && msg.doc.GenerationID != m.generationID {
		return m, synthesisTick(msg.token, m.synthesisPoll.interval)
	}
	if msg.doc.Running {
		m.elapsed = msg.doc.ElapsedSeconds
		return m, synthesisTick(msg.token, m.synthesisPoll.interval)
	}
	m.synthesisPoll.stop()
	m.synthesisBusy = false
	if msg.doc.HasContent() {
		doc := msg.doc
		m.doc = &doc
		m.expanded = map[string]bool{}
		m.sectionIdx = 0
		m.markViewportDirty()
		if !m.watchdogFired {
			m.errorMessage = ""
			m.infoMessage = "Synthesis ready. Press f to switch formats, r to revise."
		}
		return m, nil
	}
	if msg.doc.Error != "" {
		m.errorMessage = fmt.Sprintf("Synthesis failed: %s", msg.doc.Error)
	} else if !m.watchdogFired {
		m.infoMessage = "Synthesis finished without producing content."
	}
	return m, nil
}

// handleWatchdog force-clears the in-progress state when a synthesis
// generation overstays its welcome. The poller is left running: the job
// may still complete, in which case the result merges without a notice.
func (m *model) handleWatchdog(msg watchdogMsg) (tea.Model, tea.Cmd) {
	if !m.synthesisPoll.current(msg.token) || !m.synthesisBusy {
		return m, nil
	}
	m.synthesisBusy = false
	m.watchdogFired = true
	m.infoMessage = "Synthesis is taking longer than expected. It may still finish in the background."
	return m, nil
}

func (m *model) handleSimilarity(msg similarityMsg) (tea.Model, tea.Cmd) {
	if !m.comparing && m.format != project.FormatSummary {
		return m, nil
	}
	if msg.err != nil {
		// Comparison still stands on paper data alone; the summary just
		// omits its themes part.
		m.similarity = nil
		if m.comparing {
			m.infoMessage = "Similarity scores unavailable; comparing paper metadata only."
		}
		return m, nil
	}
	sim := msg.sim
	m.similarity = &sim
	m.markViewportDirty()
	return m, nil
}

func (m *model) handleReports(msg reportsMsg) (tea.Model, tea.Cmd) {
	m.reportsBusy = false
	if msg.err != nil {
		m.applyFetchError(msg.err, "Could not load the report archive.")
		return m, nil
	}
	m.reports = msg.reports
	m.reportIdx = 0
	m.errorMessage = ""
	if len(msg.reports) == 0 {
		m.infoMessage = "No archived reports yet."
	} else {
		m.infoMessage = fmt.Sprintf("%d archived report(s). Enter opens the highlighted one.", len(msg.reports))
	}
	return m, nil
}

func (m *model) handleReportDetail(msg reportDetailMsg) (tea.Model, tea.Cmd) {
	m.reportsBusy = false
	if msg.err != nil {
		m.applyFetchError(msg.err, "Could not open the report.")
		return m, nil
	}
	detail := msg.detail
	m.openReport = &detail
	m.errorMessage = ""
	m.infoMessage = "Esc closes the report."
	return m, nil
}

func (m *model) handleExportDone(msg exportDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.applyFetchError(msg.err, fmt.Sprintf("%s export failed.", strings.ToUpper(msg.kind)))
		return m, nil
	}
	m.errorMessage = ""
	if msg.fallback {
		m.infoMessage = fmt.Sprintf("Server-side PDF unavailable; wrote print-styled text to %s", msg.path)
	} else {
		m.infoMessage = fmt.Sprintf("Exported %s to %s", msg.kind, msg.path)
	}
	return m, nil
}

func (m *model) handlePDFText(msg pdfTextMsg) (tea.Model, tea.Cmd) {
	m.pdfLoading = false
	if msg.err != nil {
		m.errorMessage = fmt.Sprintf("PDF text unavailable: %v", msg.err)
		return m, nil
	}
	m.pdfTitle = msg.title
	m.pdfText = msg.text
	m.errorMessage = ""
	m.infoMessage = "Esc closes the PDF preview."
	return m, nil
}

// applyFetchError sorts a failed request into the offline or application
// bucket and surfaces the matching notice.
func (m *model) applyFetchError(err error, context string) {
	if errors.Is(err, api.ErrUnreachable) {
		m.online = false
		m.errorMessage = offlineNotice
		return
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		m.errorMessage = fmt.Sprintf("%s %s", context, apiErr.Message)
		return
	}
	m.errorMessage = fmt.Sprintf("%s %v", context, err)
}

const offlineNotice = "Backend unreachable. Start the review server and retry."

func (m *model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	if m.topicInput.Focused() {
		return m.handleTopicKey(key)
	}
	if m.composing {
		return m.handleReviseKey(key)
	}
	if key.Type == tea.KeyEsc {
		return m.handleEsc()
	}
	switch key.String() {
	case "1":
		m.view = viewSearch
		return m, nil
	case "2":
		m.view = viewPipeline
		return m, nil
	case "3":
		m.view = viewSynthesis
		m.markViewportDirty()
		return m, nil
	case "4":
		return m.enterReports()
	case "tab":
		if m.view == viewReports {
			m.view = viewSearch
			return m, nil
		}
		m.view++
		if m.view == viewReports {
			return m.enterReports()
		}
		m.markViewportDirty()
		return m, nil
	}
	switch m.view {
	case viewSearch:
		return m.handleSearchKey(key)
	case viewPipeline:
		return m.handlePipelineKey(key)
	case viewSynthesis:
		return m.handleSynthesisKey(key)
	case viewReports:
		return m.handleReportsKey(key)
	}
	return m, nil
}

func (m *model) handleEsc() (tea.Model, tea.Cmd) {
	switch {
	case m.pdfText != "" || m.pdfLoading:
		m.pdfText = ""
		m.pdfTitle = ""
		m.pdfLoading = false
		return m, nil
	case m.openReport != nil:
		m.openReport = nil
		return m, nil
	case m.comparing:
		m.deactivateComparison()
		return m, nil
	default:
		return m, tea.Quit
	}
}

func (m *model) enterReports() (tea.Model, tea.Cmd) {
	m.view = viewReports
	m.reportsBusy = true
	return m, tea.Batch(m.spinner.Tick, fetchReportsCmd(m.config.Client))
}

func (m *model) handleTopicKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.Type {
	case tea.KeyEsc:
		m.topicInput.Blur()
		return m, nil
	case tea.KeyEnter:
		topic := strings.TrimSpace(m.topicInput.Value())
		if topic == "" {
			m.errorMessage = "Enter at least one topic to search."
			return m, nil
		}
		m.topicInput.Blur()
		m.searching = true
		m.errorMessage = ""
		m.infoMessage = fmt.Sprintf("Searching for %q…", topic)
		return m, tea.Batch(m.spinner.Tick, searchCmd(m.config.Client, topic, api.MaxSearchResults))
	}
	var cmd tea.Cmd
	m.topicInput, cmd = m.topicInput.Update(key)
	return m, cmd
}

func (m *model) handleReviseKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.Type {
	case tea.KeyEsc:
		m.composing = false
		m.reviseInput.SetValue("")
		m.reviseInput.Blur()
		m.infoMessage = "Revision canceled."
		return m, nil
	case tea.KeyEnter:
		instruction := strings.TrimSpace(m.reviseInput.Value())
		if instruction == "" {
			// No request leaves the client. The composer stays focused so
			// a real instruction can be typed straight away.
			m.reviseInput.Focus()
			m.infoMessage = "Type a revision instruction or press Esc to cancel."
			return m, nil
		}
		m.composing = false
		m.reviseInput.SetValue("")
		m.reviseInput.Blur()
		m.errorMessage = ""
		m.infoMessage = "Submitting revision…"
		return m, tea.Batch(m.spinner.Tick, reviseCmd(m.config.Client, instruction))
	}
	var cmd tea.Cmd
	m.reviseInput, cmd = m.reviseInput.Update(key)
	return m, cmd
}

func (m *model) handleSearchKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "/":
		m.topicInput.Focus()
		return m, textinput.Blink
	case "up", "k":
		m.movePaperCursor(-1)
	case "down", "j":
		m.movePaperCursor(1)
	case " ":
		m.toggleTriage()
	case "o":
		return m.openPDFPreview()
	case "p":
		return m.startPipeline()
	case "r":
		return m, fetchPapersCmd(m.config.Client)
	}
	return m, nil
}

func (m *model) movePaperCursor(delta int) {
	if len(m.papers) == 0 {
		return
	}
	target := m.paperIdx + delta
	if target < 0 {
		target = 0
	}
	if target >= len(m.papers) {
		target = len(m.papers) - 1
	}
	m.paperIdx = target
}

func (m *model) toggleTriage() {
	if len(m.papers) == 0 {
		m.infoMessage = "Search for papers before picking any."
		return
	}
	if err := m.triage.Toggle(m.paperIdx); err != nil {
		m.errorMessage = fmt.Sprintf("Cannot pick more than %d papers for analysis.", maxTriagePicks)
		return
	}
	m.errorMessage = ""
	m.infoMessage = fmt.Sprintf("%d of %d paper(s) picked for analysis.", m.triage.Count(), maxTriagePicks)
}

func (m *model) openPDFPreview() (tea.Model, tea.Cmd) {
	if len(m.papers) == 0 {
		return m, nil
	}
	paper := m.papers[m.paperIdx]
	if paper.PDF == "" {
		m.infoMessage = "The highlighted paper has no PDF link."
		return m, nil
	}
	m.pdfLoading = true
	m.pdfTitle = paper.Title
	m.pdfText = ""
	m.infoMessage = "Fetching PDF text…"
	return m, tea.Batch(m.spinner.Tick, pdfTextCmd(m.paperIdx, paper))
}

func (m *model) startPipeline() (tea.Model, tea.Cmd) {
	if m.pipelineBusy {
		m.infoMessage = "Extraction is already running."
		return m, nil
	}
	count := m.triage.Count()
	if count < 1 || count > maxTriagePicks {
		m.errorMessage = fmt.Sprintf("Pick between 1 and %d papers before running the pipeline.", maxTriagePicks)
		return m, nil
	}
	m.view = viewPipeline
	m.pipelineBusy = true
	m.errorMessage = ""
	m.infoMessage = "Requesting extraction…"
	return m, tea.Batch(m.spinner.Tick, runPipelineCmd(m.config.Client, m.triage.Ordinals()))
}

func (m *model) handlePipelineKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "s":
		return m.startSynthesis()
	case "p":
		return m.startPipeline()
	}
	return m, nil
}

func (m *model) startSynthesis() (tea.Model, tea.Cmd) {
	if m.synthesisBusy {
		m.infoMessage = "Synthesis is already running."
		return m, nil
	}
	if len(m.papers) == 0 {
		m.errorMessage = "Run the extraction pipeline before synthesizing."
		return m, nil
	}
	if m.synthPapers.Count() < 1 {
		m.errorMessage = "At least one paper must stay selected for synthesis."
		return m, nil
	}
	m.view = viewSynthesis
	m.synthesisBusy = true
	m.errorMessage = ""
	m.infoMessage = "Requesting synthesis…"
	m.markViewportDirty()
	return m, tea.Batch(m.spinner.Tick, runSynthesisCmd(m.config.Client))
}

func (m *model) handleSynthesisKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "f":
		m.format = m.format.Next()
		m.sectionIdx = 0
		m.markViewportDirty()
		m.infoMessage = fmt.Sprintf("Format: %s.", m.format)
		if m.format == project.FormatSummary && m.similarity == nil && m.doc != nil {
			return m, similarityCmd(m.config.Client)
		}
		return m, nil
	case "up", "k":
		m.moveSectionCursor(-1)
		return m, nil
	case "down", "j":
		m.moveSectionCursor(1)
		return m, nil
	case "enter", "e":
		m.toggleExpand()
		return m, nil
	case "left", "h":
		m.movePaperCursor(-1)
		return m, nil
	case "right", "l":
		m.movePaperCursor(1)
		return m, nil
	case " ":
		m.toggleSynthesisPaper()
		return m, nil
	case "r":
		return m.openComposer()
	case "c":
		return m.toggleComparison()
	case "s":
		return m.startSynthesis()
	case "a":
		return m.export("apa")
	case "b":
		return m.export("bibtex")
	case "m":
		return m.export("markdown")
	case "x":
		return m.export("pdf")
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(key)
	return m, cmd
}

func (m *model) moveSectionCursor(delta int) {
	if m.format != project.FormatAcademic || m.doc == nil {
		if delta > 0 {
			m.viewport.LineDown(1)
		} else {
			m.viewport.LineUp(1)
		}
		return
	}
	blocks := project.Academic(m.doc.Parsed)
	if len(blocks) == 0 {
		return
	}
	target := m.sectionIdx + delta
	if target < 0 {
		target = 0
	}
	if target >= len(blocks) {
		target = len(blocks) - 1
	}
	if target != m.sectionIdx {
		m.sectionIdx = target
		m.markViewportDirty()
	}
}

func (m *model) toggleExpand() {
	if m.format != project.FormatAcademic || m.doc == nil {
		return
	}
	blocks := project.Academic(m.doc.Parsed)
	if m.sectionIdx >= len(blocks) {
		return
	}
	key := blocks[m.sectionIdx].Key
	m.expanded[key] = !m.expanded[key]
	m.markViewportDirty()
}

func (m *model) toggleSynthesisPaper() {
	if len(m.papers) == 0 {
		return
	}
	if err := m.synthPapers.Toggle(m.paperIdx); err != nil {
		m.errorMessage = "At least one paper must stay selected for synthesis."
		return
	}
	m.errorMessage = ""
	m.infoMessage = fmt.Sprintf("%d of %d paper(s) feeding the synthesis.", m.synthPapers.Count(), len(m.papers))
	m.markViewportDirty()
}

func (m *model) openComposer() (tea.Model, tea.Cmd) {
	if m.doc == nil {
		m.errorMessage = "Run a synthesis before revising it."
		return m, nil
	}
	m.composing = true
	m.reviseInput.SetValue("")
	m.reviseInput.Focus()
	m.infoMessage = "Describe the revision and press Enter."
	return m, textinput.Blink
}

func (m *model) toggleComparison() (tea.Model, tea.Cmd) {
	if m.comparing {
		m.deactivateComparison()
		if m.format == project.FormatSummary && m.doc != nil {
			return m, similarityCmd(m.config.Client)
		}
		return m, nil
	}
	columns, err := compare.Snapshot(m.papers)
	if err != nil {
		m.errorMessage = "Load at least two papers before comparing."
		return m, nil
	}
	m.comparing = true
	m.columns = columns
	m.similarity = nil
	m.errorMessage = ""
	m.infoMessage = "Comparing papers. Esc or c closes the grid."
	m.markViewportDirty()
	return m, similarityCmd(m.config.Client)
}

// deactivateComparison drops the snapshot and similarity entirely so the
// next activation recomputes both.
func (m *model) deactivateComparison() {
	m.comparing = false
	m.columns = nil
	m.similarity = nil
	m.markViewportDirty()
}

func (m *model) export(kind string) (tea.Model, tea.Cmd) {
	if m.doc == nil || !m.doc.HasContent() {
		m.errorMessage = "Nothing to export until a synthesis completes."
		return m, nil
	}
	if m.config.Exports == nil {
		m.errorMessage = "No export directory configured."
		return m, nil
	}
	m.infoMessage = fmt.Sprintf("Exporting %s…", kind)
	return m, exportCmd(m.config.Client, m.config.Exports, kind, *m.doc)
}

func (m *model) handleReportsKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "up", "k":
		if m.reportIdx > 0 {
			m.reportIdx--
		}
	case "down", "j":
		if m.reportIdx < len(m.reports)-1 {
			m.reportIdx++
		}
	case "enter":
		if m.reportIdx < len(m.reports) {
			m.reportsBusy = true
			return m, tea.Batch(m.spinner.Tick, fetchReportCmd(m.config.Client, m.reports[m.reportIdx].ID))
		}
	case "r":
		return m.enterReports()
	}
	return m, nil
}

func (m *model) markViewportDirty() {
	m.viewportDirty = true
}
