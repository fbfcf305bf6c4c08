package tui

import (
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/reviewdeck/internal/api"
	"github.com/csheth/reviewdeck/internal/pipeline"
	"github.com/csheth/reviewdeck/internal/project"
)

func newTestModel(t *testing.T) *model {
	t.Helper()
	m, ok := New(Config{Client: api.New("http://127.0.0.1:1")}).(*model)
	if !ok {
		t.Fatal("New should return the concrete model")
	}
	return m
}

func fixturePapers(n int) []api.Paper {
	papers := make([]api.Paper, n)
	for i := range papers {
		papers[i] = api.Paper{
			Title:       fmt.Sprintf("Paper %d", i+1),
			Authors:     []string{"A. Author", "B. Author"},
			Year:        api.Year("2024"),
			Venue:       "TestConf",
			Abstract:    "An abstract long enough to be truncated meaningfully in the grid.",
			KeyFindings: []string{"finding one", "finding two", "finding three"},
			PDF:         "http://example.com/p.pdf",
		}
	}
	return papers
}

func fixtureDoc(gen string) api.SynthesisDocument {
	section := strings.Repeat("A thorough treatment of the subject matter at hand. ", 8)
	return api.SynthesisDocument{
		Markdown: strings.Repeat("x", 200),
		Parsed: api.Parsed{
			Topic:        "Graph Neural Networks",
			Abstract:     section,
			Introduction: section,
			Methods:      section,
			Results:      section,
			Discussion:   section,
			Conclusion:   section,
			References:   section,
		},
		Done:         true,
		GenerationID: gen,
	}
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestOfflineProbeFallsBackToPendingStages(t *testing.T) {
	m := newTestModel(t)
	m.handleStatus(statusMsg{err: api.ErrUnreachable})
	if m.online {
		t.Fatal("failed probe should mark the backend offline")
	}
	if m.errorMessage != offlineNotice {
		t.Fatalf("expected offline notice, got %q", m.errorMessage)
	}
	if len(m.stages) != 6 {
		t.Fatalf("expected the 6 default stages, got %d", len(m.stages))
	}
	for _, stage := range m.stages {
		if stage.Status != api.StagePending || stage.Progress != 0 {
			t.Fatalf("stage %s should be pending/0%%, got %s/%d", stage.ID, stage.Status, stage.Progress)
		}
	}
}

func TestTriageSeventhToggleRejected(t *testing.T) {
	m := newTestModel(t)
	m.papers = fixturePapers(8)
	for i := 0; i < 6; i++ {
		m.paperIdx = i
		m.toggleTriage()
	}
	if m.triage.Count() != 6 {
		t.Fatalf("expected 6 picks, got %d", m.triage.Count())
	}
	m.paperIdx = 6
	m.toggleTriage()
	if m.triage.Count() != 6 {
		t.Fatalf("seventh toggle must not change the set, got %d", m.triage.Count())
	}
	if m.errorMessage == "" {
		t.Fatal("rejected toggle should emit a warning")
	}
	// Removal is still symmetric afterwards.
	m.paperIdx = 0
	m.toggleTriage()
	if m.triage.Count() != 5 || m.triage.Has(0) {
		t.Fatalf("toggle-off after rejection failed, count=%d", m.triage.Count())
	}
}

func TestPipelineGateRequiresPicks(t *testing.T) {
	m := newTestModel(t)
	m.papers = fixturePapers(3)
	if _, cmd := m.startPipeline(); cmd != nil {
		t.Fatal("pipeline must not start with an empty triage set")
	}
	if m.errorMessage == "" {
		t.Fatal("empty-triage start should emit a validation warning")
	}
	if m.pipelineBusy {
		t.Fatal("validation failure must not flip the busy flag")
	}
}

func TestPipelineStatusRunningKeepsPolling(t *testing.T) {
	m := newTestModel(t)
	m.handlePipelineStarted(pipelineStartedMsg{ack: api.Ack{OK: true}})
	if !m.pipelinePoll.active {
		t.Fatal("started pipeline should arm the poller")
	}
	token := m.pipelinePoll.token

	stages := pipeline.DefaultStages()
	stages[0].Status = api.StageRunning
	stages[0].Progress = 40
	_, cmd := m.handlePipelineStatus(pipelineStatusMsg{token: token, status: api.PipelineStatus{Running: true, Stages: stages}})
	if cmd == nil {
		t.Fatal("running status should schedule the next tick")
	}
	if !m.pipelineBusy {
		t.Fatal("busy flag should survive a running status")
	}
	if m.stages[0].Progress != 40 {
		t.Fatalf("stage progress not merged, got %d", m.stages[0].Progress)
	}
}

func TestPipelineCompletionStopsAndRefreshesPapers(t *testing.T) {
	m := newTestModel(t)
	m.handlePipelineStarted(pipelineStartedMsg{ack: api.Ack{OK: true}})
	token := m.pipelinePoll.token

	stages := pipeline.DefaultStages()
	for i := range stages {
		stages[i].Status = api.StageDone
		stages[i].Progress = 100
	}
	_, cmd := m.handlePipelineStatus(pipelineStatusMsg{token: token, status: api.PipelineStatus{Running: false, Stages: stages}})
	if m.pipelinePoll.active {
		t.Fatal("completion should stop the poller")
	}
	if m.pipelineBusy {
		t.Fatal("completion should clear the busy flag")
	}
	if cmd == nil {
		t.Fatal("completion should trigger a paper list refresh")
	}
	if !strings.Contains(m.infoMessage, "complete") {
		t.Fatalf("expected a success notice, got %q", m.infoMessage)
	}
}

func TestPipelineTransportErrorStopsImmediately(t *testing.T) {
	m := newTestModel(t)
	m.handlePipelineStarted(pipelineStartedMsg{ack: api.Ack{OK: true}})
	token := m.pipelinePoll.token

	m.handlePipelineStatus(pipelineStatusMsg{token: token, err: api.ErrUnreachable})
	if m.pipelinePoll.active {
		t.Fatal("transport failure should stop polling on the spot")
	}
	if m.pipelineBusy {
		t.Fatal("transport failure should clear the busy flag")
	}
	if m.errorMessage != offlineNotice {
		t.Fatalf("expected offline notice, got %q", m.errorMessage)
	}
}

func TestStalePipelineStatusDiscarded(t *testing.T) {
	m := newTestModel(t)
	m.handlePipelineStarted(pipelineStartedMsg{ack: api.Ack{OK: true}})
	token := m.pipelinePoll.token
	m.pipelinePoll.stop()
	m.pipelinePoll.start()

	before := m.stages[0].Progress
	stale := pipeline.DefaultStages()
	stale[0].Progress = 99
	if _, cmd := m.handlePipelineStatus(pipelineStatusMsg{token: token, status: api.PipelineStatus{Running: true, Stages: stale}}); cmd != nil {
		t.Fatal("stale status must not schedule another tick")
	}
	if m.stages[0].Progress != before {
		t.Fatal("stale status must not merge into the store")
	}
}

func TestSynthesisWithoutSuccessIndicatorsClearsQuietly(t *testing.T) {
	m := newTestModel(t)
	m.handleSynthesisStarted(synthesisStartedMsg{ack: api.Ack{OK: true, GenerationID: "gen-1"}})
	token := m.synthesisPoll.token

	m.handleSynthesisStatus(synthesisStatusMsg{token: token, doc: api.SynthesisDocument{Running: false, Done: false, GenerationID: "gen-1"}})
	if m.synthesisBusy {
		t.Fatal("in-progress flag should clear")
	}
	if m.synthesisPoll.active {
		t.Fatal("poller should stop")
	}
	if m.doc != nil {
		t.Fatal("an empty document must not be merged")
	}
	if strings.Contains(m.infoMessage, "ready") {
		t.Fatalf("no success notice expected, got %q", m.infoMessage)
	}
}

func TestSynthesisGenerationMismatchKeepsPolling(t *testing.T) {
	m := newTestModel(t)
	m.handleSynthesisStarted(synthesisStartedMsg{ack: api.Ack{OK: true, GenerationID: "gen-2"}})
	token := m.synthesisPoll.token

	_, cmd := m.handleSynthesisStatus(synthesisStatusMsg{token: token, doc: fixtureDoc("gen-1")})
	if m.doc != nil {
		t.Fatal("a superseded generation's document must be discarded")
	}
	if cmd == nil {
		t.Fatal("mismatch should keep the poller ticking")
	}
	if !m.synthesisPoll.active || !m.synthesisBusy {
		t.Fatal("mismatch must not stop the poll or clear the busy flag")
	}

	if _, cmd := m.handleSynthesisStatus(synthesisStatusMsg{token: token, doc: fixtureDoc("gen-2")}); cmd != nil {
		t.Fatalf("matching completion should stop polling, got follow-up %T", cmd)
	}
	if m.doc == nil || m.doc.GenerationID != "gen-2" {
		t.Fatal("matching generation should merge")
	}
}

func TestWatchdogClearsBusyButNotThePoller(t *testing.T) {
	m := newTestModel(t)
	m.handleSynthesisStarted(synthesisStartedMsg{ack: api.Ack{OK: true, GenerationID: "gen-1"}})
	token := m.synthesisPoll.token

	m.handleWatchdog(watchdogMsg{token: token})
	if m.synthesisBusy {
		t.Fatal("watchdog should force-clear the in-progress flag")
	}
	if !m.synthesisPoll.active {
		t.Fatal("watchdog must not stop the poller")
	}
	if !strings.Contains(m.infoMessage, "longer than expected") {
		t.Fatalf("expected the watchdog notice, got %q", m.infoMessage)
	}

	// A late completion still merges, silently.
	notice := m.infoMessage
	m.handleSynthesisStatus(synthesisStatusMsg{token: token, doc: fixtureDoc("gen-1")})
	if m.doc == nil {
		t.Fatal("late completion should still merge the document")
	}
	if m.infoMessage != notice {
		t.Fatalf("late merge should be silent, notice changed to %q", m.infoMessage)
	}
}

func TestStaleWatchdogIgnored(t *testing.T) {
	m := newTestModel(t)
	m.handleSynthesisStarted(synthesisStartedMsg{ack: api.Ack{OK: true, GenerationID: "gen-1"}})
	token := m.synthesisPoll.token
	m.handleSynthesisStatus(synthesisStatusMsg{token: token, doc: fixtureDoc("gen-1")})

	notice := m.infoMessage
	m.handleWatchdog(watchdogMsg{token: token})
	if m.infoMessage != notice {
		t.Fatal("a watchdog for a finished generation must be a no-op")
	}
}

func TestSynthesisSelectionKeepsLastMember(t *testing.T) {
	m := newTestModel(t)
	m.replacePapers(fixturePapers(2))
	if m.synthPapers.Count() != 2 {
		t.Fatalf("reload should select all papers, got %d", m.synthPapers.Count())
	}
	m.paperIdx = 0
	m.toggleSynthesisPaper()
	if m.synthPapers.Count() != 1 {
		t.Fatalf("expected 1 member, got %d", m.synthPapers.Count())
	}
	m.paperIdx = 1
	m.toggleSynthesisPaper()
	if m.synthPapers.Count() != 1 || !m.synthPapers.Has(1) {
		t.Fatal("removing the last member must be rejected without a state change")
	}
	if m.errorMessage == "" {
		t.Fatal("rejected removal should emit a warning")
	}
}

func TestComparisonRefusedWithOnePaper(t *testing.T) {
	m := newTestModel(t)
	m.papers = fixturePapers(1)
	if _, cmd := m.toggleComparison(); cmd != nil {
		t.Fatal("refused activation must not fetch similarity")
	}
	if m.comparing {
		t.Fatal("comparison mode should stay off")
	}
	if m.errorMessage == "" {
		t.Fatal("refused activation should emit a warning")
	}
}

func TestSimilarityFailureDegradesToColumns(t *testing.T) {
	m := newTestModel(t)
	m.papers = fixturePapers(3)
	if _, cmd := m.toggleComparison(); cmd == nil {
		t.Fatal("activation should fetch similarity")
	}
	m.handleSimilarity(similarityMsg{err: api.ErrUnreachable})
	if !m.comparing {
		t.Fatal("similarity failure must not deactivate comparison")
	}
	if m.similarity != nil {
		t.Fatal("failed fetch should leave similarity empty")
	}
	grid := m.comparisonView()
	if !strings.Contains(grid, "Paper 1") || !strings.Contains(grid, "Paper 3") {
		t.Fatal("grid should still render the paper columns")
	}
	if strings.Contains(grid, "Most similar") {
		t.Fatal("highest-similarity callout should be omitted without scores")
	}
}

func TestRestartDuringLivePollRearmsWatchdog(t *testing.T) {
	m := newTestModel(t)
	m.handleSynthesisStarted(synthesisStartedMsg{ack: api.Ack{OK: true, GenerationID: "gen-1"}})
	token := m.synthesisPoll.token
	m.handleWatchdog(watchdogMsg{token: token})
	if m.synthesisBusy {
		t.Fatal("first watchdog should clear the busy flag")
	}

	_, cmd := m.handleSynthesisStarted(synthesisStartedMsg{ack: api.Ack{OK: true, GenerationID: "gen-2"}, revise: true})
	if cmd == nil {
		t.Fatal("a restart over a live poll must still arm its own watchdog")
	}
	if !m.synthesisBusy || m.watchdogFired {
		t.Fatal("restart should reset the in-progress state")
	}
	if !m.synthesisPoll.active || m.synthesisPoll.token != token {
		t.Fatal("the live poll loop is reused, not replaced")
	}
	if m.generationID != "gen-2" {
		t.Fatalf("tracked generation = %q, want gen-2", m.generationID)
	}

	m.handleWatchdog(watchdogMsg{token: token})
	if m.synthesisBusy {
		t.Fatal("the new generation's watchdog should clear the busy flag again")
	}
}

func TestSummaryFormatFetchesThemes(t *testing.T) {
	m := newTestModel(t)
	doc := fixtureDoc("gen-1")
	m.doc = &doc
	m.view = viewSynthesis

	m.handleSynthesisKey(keyRune('f'))
	_, cmd := m.handleSynthesisKey(keyRune('f'))
	if m.format != project.FormatSummary {
		t.Fatalf("expected summary format, got %s", m.format)
	}
	if cmd == nil {
		t.Fatal("switching to summary should fetch similarity for the themes part")
	}
	m.handleSimilarity(similarityMsg{sim: api.Similarity{KeyThemes: []string{"attention", "scaling laws"}}})
	got := m.summaryContent()
	if !strings.Contains(got, "Research Themes") || !strings.Contains(got, "attention") {
		t.Fatalf("summary should list the cross-paper themes, got %q", got)
	}
}

func TestThemesReturnAfterComparisonClosesInSummary(t *testing.T) {
	m := newTestModel(t)
	doc := fixtureDoc("gen-1")
	m.doc = &doc
	m.papers = fixturePapers(3)
	m.view = viewSynthesis
	m.handleSynthesisKey(keyRune('f'))
	m.handleSynthesisKey(keyRune('f'))
	m.handleSimilarity(similarityMsg{sim: api.Similarity{KeyThemes: []string{"attention"}}})

	m.toggleComparison()
	_, cmd := m.toggleComparison()
	if m.comparing {
		t.Fatal("second toggle should close the grid")
	}
	if cmd == nil {
		t.Fatal("closing the grid in summary format should refetch the themes")
	}
	m.handleSimilarity(similarityMsg{sim: api.Similarity{KeyThemes: []string{"attention"}}})
	if got := m.summaryContent(); !strings.Contains(got, "attention") {
		t.Fatalf("themes should return once the grid closes, got %q", got)
	}
}

func TestComparisonDeactivationDropsSnapshot(t *testing.T) {
	m := newTestModel(t)
	m.papers = fixturePapers(3)
	m.toggleComparison()
	sim := api.Similarity{Pairs: []api.SimilarPair{{PaperATitle: "a", PaperBTitle: "b", Similarity: 0.87}}}
	m.handleSimilarity(similarityMsg{sim: sim})
	if m.similarity == nil {
		t.Fatal("similarity should merge while comparing")
	}
	m.toggleComparison()
	if m.comparing || m.columns != nil || m.similarity != nil {
		t.Fatal("deactivation must drop the snapshot and scores entirely")
	}
}

func TestEmptyRevisionNeverLeavesTheClient(t *testing.T) {
	m := newTestModel(t)
	doc := fixtureDoc("gen-1")
	m.doc = &doc
	m.openComposer()
	if !m.composing || !m.reviseInput.Focused() {
		t.Fatal("composer should open focused")
	}

	m.reviseInput.SetValue("   ")
	_, cmd := m.handleReviseKey(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Fatal("empty instruction must not produce a request command")
	}
	if !m.composing || !m.reviseInput.Focused() {
		t.Fatal("composer should stay open and focused for a retry")
	}
	if m.synthesisPoll.active {
		t.Fatal("no poller may start for an empty instruction")
	}
}

func TestRevisionSubmitStartsJob(t *testing.T) {
	m := newTestModel(t)
	doc := fixtureDoc("gen-1")
	m.doc = &doc
	m.openComposer()
	m.reviseInput.SetValue("shorten the methods section")
	_, cmd := m.handleReviseKey(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("a non-empty instruction should submit")
	}
	if m.composing {
		t.Fatal("composer should close on submit")
	}
}

func TestFormatCycleRebuildsSingleProjection(t *testing.T) {
	m := newTestModel(t)
	doc := fixtureDoc("gen-1")
	m.doc = &doc
	m.view = viewSynthesis

	if m.format != project.FormatAcademic {
		t.Fatalf("default format should be academic, got %s", m.format)
	}
	academic := m.academicContent()
	if !strings.Contains(academic, "Introduction") || !strings.Contains(academic, "words") {
		t.Fatal("academic projection should carry section blocks with word counts")
	}

	m.handleSynthesisKey(keyRune('f'))
	if m.format != project.FormatBlog {
		t.Fatalf("f should cycle to blog, got %s", m.format)
	}
	m.refreshProjectionIfDirty()
	if m.viewportDirty {
		t.Fatal("refresh should clear the dirty flag")
	}

	m.handleSynthesisKey(keyRune('f'))
	m.handleSynthesisKey(keyRune('f'))
	if m.format != project.FormatAcademic {
		t.Fatalf("three cycles should return to academic, got %s", m.format)
	}
	if rebuilt := m.academicContent(); rebuilt != academic {
		t.Fatal("projection must rebuild deterministically from the same document")
	}
}

func TestBlogProjectionWithoutContentShowsNotice(t *testing.T) {
	m := newTestModel(t)
	m.doc = &api.SynthesisDocument{Markdown: strings.Repeat("x", 200)}
	if got := m.blogContent(); !strings.Contains(got, "No content") {
		t.Fatalf("empty blog projection should show the no-content notice, got %q", got)
	}
}

func TestAcademicExpandRevealsFullText(t *testing.T) {
	m := newTestModel(t)
	doc := fixtureDoc("gen-1")
	m.doc = &doc

	preview := m.academicContent()
	if !strings.Contains(preview, "(e expands)") {
		t.Fatal("truncated sections should advertise the expand action")
	}
	m.toggleExpand()
	expanded := m.academicContent()
	if len(expanded) <= len(preview) {
		t.Fatal("expanding should reveal more text than the preview")
	}
}

func TestViewSwitchingKeys(t *testing.T) {
	m := newTestModel(t)
	m.topicInput.Blur()
	m.handleKey(keyRune('2'))
	if m.view != viewPipeline {
		t.Fatalf("2 should open the pipeline view, got %v", m.view)
	}
	m.handleKey(keyRune('3'))
	if m.view != viewSynthesis {
		t.Fatalf("3 should open the synthesis view, got %v", m.view)
	}
	if _, cmd := m.handleKey(keyRune('4')); cmd == nil {
		t.Fatal("entering reports should fetch the archive")
	}
	if m.view != viewReports {
		t.Fatalf("4 should open the reports view, got %v", m.view)
	}
}

func TestExportRequiresContent(t *testing.T) {
	m := newTestModel(t)
	if _, cmd := m.export("apa"); cmd != nil {
		t.Fatal("export without a document must not issue a request")
	}
	if m.errorMessage == "" {
		t.Fatal("export without content should warn")
	}
}
