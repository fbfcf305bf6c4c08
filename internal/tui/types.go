package tui

import (
	"github.com/csheth/reviewdeck/internal/api"
)

type view int

const (
	viewSearch view = iota
	viewPipeline
	viewSynthesis
	viewReports
)

func (v view) label() string {
	switch v {
	case viewSearch:
		return "Search"
	case viewPipeline:
		return "Pipeline"
	case viewSynthesis:
		return "Synthesis"
	case viewReports:
		return "Reports"
	default:
		return "?"
	}
}

const heroTagline = "Survey the literature without leaving the terminal."

const (
	minViewportWidth          = 40
	viewportHorizontalPadding = 4
	maxTriagePicks            = 6
)

// Messages delivered back into Update by commands. Poll-driven messages
// carry the token of the poller generation that requested them so results
// from a superseded poll can be discarded on arrival.

type statusMsg struct {
	status api.Status
	err    error
}

type searchResultMsg struct {
	topic  string
	papers []api.Paper
	err    error
}

type papersResultMsg struct {
	papers []api.Paper
	err    error
}

type pipelineStartedMsg struct {
	ack api.Ack
	err error
}

type pipelineTickMsg struct {
	token int
}

type pipelineStatusMsg struct {
	token  int
	status api.PipelineStatus
	err    error
}

type synthesisStartedMsg struct {
	ack    api.Ack
	revise bool
	err    error
}

type synthesisTickMsg struct {
	token int
}

type synthesisStatusMsg struct {
	token int
	doc   api.SynthesisDocument
	err   error
}

type watchdogMsg struct {
	token int
}

type similarityMsg struct {
	sim api.Similarity
	err error
}

type reportsMsg struct {
	reports []api.Report
	err     error
}

type reportDetailMsg struct {
	detail api.ReportDetail
	err    error
}

type exportDoneMsg struct {
	kind     string
	path     string
	fallback bool
	err      error
}

type pdfTextMsg struct {
	index int
	title string
	text  string
	err   error
}
