package tui

import (
	"context"
	"errors"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/reviewdeck/internal/api"
	"github.com/csheth/reviewdeck/internal/export"
	"github.com/csheth/reviewdeck/internal/pdftext"
)

const requestTimeout = 30 * time.Second

func probeStatusCmd(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		status, err := client.Status(ctx)
		return statusMsg{status: status, err: err}
	}
}

func searchCmd(client *api.Client, topic string, limit int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		papers, err := client.Search(ctx, topic, limit)
		log.Printf("[search] topic=%q results=%d err=%v", topic, len(papers), err)
		return searchResultMsg{topic: topic, papers: papers, err: err}
	}
}

func fetchPapersCmd(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		papers, err := client.Papers(ctx)
		return papersResultMsg{papers: papers, err: err}
	}
}

func runPipelineCmd(client *api.Client, picks []int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		ack, err := client.RunPipeline(ctx)
		log.Printf("[pipeline] run picks=%v ok=%v err=%v", picks, ack.OK, err)
		return pipelineStartedMsg{ack: ack, err: err}
	}
}

func pipelineStatusCmd(client *api.Client, token int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		status, err := client.PipelineStatus(ctx)
		return pipelineStatusMsg{token: token, status: status, err: err}
	}
}

func runSynthesisCmd(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		ack, err := client.RunSynthesis(ctx)
		log.Printf("[synthesis] run gen=%s err=%v", ack.GenerationID, err)
		return synthesisStartedMsg{ack: ack, err: err}
	}
}

func reviseCmd(client *api.Client, instruction string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		ack, err := client.Revise(ctx, instruction)
		log.Printf("[synthesis] revise gen=%s err=%v", ack.GenerationID, err)
		return synthesisStartedMsg{ack: ack, revise: true, err: err}
	}
}

func synthesisStatusCmd(client *api.Client, token int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		doc, err := client.Synthesis(ctx)
		return synthesisStatusMsg{token: token, doc: doc, err: err}
	}
}

func similarityCmd(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		sim, err := client.Similarity(ctx)
		return similarityMsg{sim: sim, err: err}
	}
}

func fetchReportsCmd(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		reports, err := client.Reports(ctx)
		return reportsMsg{reports: reports, err: err}
	}
}

func fetchReportCmd(client *api.Client, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		detail, err := client.Report(ctx, id)
		return reportDetailMsg{detail: detail, err: err}
	}
}

// exportCmd fetches one export artifact and writes it through the
// adapter. A PDF export that the backend declines falls back to a local
// print-styled text rendering of the current document.
func exportCmd(client *api.Client, adapter *export.Adapter, kind string, doc api.SynthesisDocument) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
		defer cancel()
		var (
			download api.Download
			err      error
		)
		switch kind {
		case "apa":
			download, err = client.ExportAPA(ctx)
		case "bibtex":
			download, err = client.ExportBib(ctx)
		case "markdown":
			download, err = client.ExportMarkdown(ctx)
		case "pdf":
			download, err = client.ExportPDF(ctx)
			if errors.Is(err, api.ErrPDFUnavailable) {
				path, fbErr := adapter.WritePrintFallback(doc)
				log.Printf("[export] pdf unavailable, print fallback path=%s err=%v", path, fbErr)
				return exportDoneMsg{kind: kind, path: path, fallback: true, err: fbErr}
			}
		}
		if err != nil {
			return exportDoneMsg{kind: kind, err: err}
		}
		path, err := adapter.Write(download)
		log.Printf("[export] %s path=%s err=%v", kind, path, err)
		return exportDoneMsg{kind: kind, path: path, err: err}
	}
}

func pdfTextCmd(index int, paper api.Paper) tea.Cmd {
	title := paper.Title
	pdfURL := paper.PDF
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		text, err := pdftext.Extract(ctx, pdfURL)
		return pdfTextMsg{index: index, title: title, text: text, err: err}
	}
}
