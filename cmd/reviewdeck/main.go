package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/reviewdeck/internal/api"
	"github.com/csheth/reviewdeck/internal/export"
	"github.com/csheth/reviewdeck/internal/tui"
)

func main() {
	apiBase := flag.String("api", "http://localhost:5000/api", "base URL of the review backend API")
	exportDir := flag.String("export-dir", "exports", "directory for exported reports and bibliographies")
	noAltScreen := flag.Bool("no-alt-screen", false, "disable the alternate screen buffer")
	pipelinePoll := flag.Duration("pipeline-poll", 0, "override the pipeline poll interval")
	synthesisPoll := flag.Duration("synthesis-poll", 0, "override the synthesis poll interval")
	watchdog := flag.Duration("watchdog", 90*time.Second, "synthesis watchdog timeout")
	flag.Parse()

	exports, err := export.NewAdapter(*exportDir)
	if err != nil {
		fmt.Println("failed to prepare export directory:", err)
		os.Exit(1)
	}

	opts := []tea.ProgramOption{}
	if !*noAltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	program := tea.NewProgram(
		tui.New(tui.Config{
			Client:            api.New(*apiBase),
			Exports:           exports,
			PipelineInterval:  *pipelinePoll,
			SynthesisInterval: *synthesisPoll,
			WatchdogAfter:     *watchdog,
		}),
		opts...,
	)

	if _, err := program.Run(); err != nil {
		fmt.Println("program error:", err)
		os.Exit(1)
	}
}
