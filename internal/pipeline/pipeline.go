// Package pipeline describes the fixed six-stage extraction pipeline the
// backend runs over the saved papers. The stage set is the offline
// fallback: when the backend cannot be reached the cards render from these
// defaults instead of an empty view.
package pipeline

import "github.com/csheth/reviewdeck/internal/api"

// DefaultStages returns the fixed pipeline with every stage pending at 0%.
func DefaultStages() []api.Stage {
	return []api.Stage{
		{ID: "pdf-parse", Title: "PDF Parsing", Subtitle: "Waiting…", Status: api.StagePending},
		{ID: "section-extract", Title: "Section Extraction", Subtitle: "Waiting…", Status: api.StagePending},
		{ID: "key-findings", Title: "Key Finding Identification", Subtitle: "Waiting…", Status: api.StagePending},
		{ID: "cross-compare", Title: "Cross-Paper Comparison", Subtitle: "Waiting…", Status: api.StagePending},
		{ID: "embedding", Title: "Semantic Embedding", Subtitle: "Waiting…", Status: api.StagePending},
		{ID: "synthesis-queue", Title: "Synthesis Queue", Subtitle: "Waiting…", Status: api.StagePending},
	}
}

// ActiveStage returns the first running stage, used for the polling
// progress label.
func ActiveStage(stages []api.Stage) (api.Stage, bool) {
	for _, stage := range stages {
		if stage.Status == api.StageRunning {
			return stage, true
		}
	}
	return api.Stage{}, false
}

// AllDone reports whether every stage has completed.
func AllDone(stages []api.Stage) bool {
	if len(stages) == 0 {
		return false
	}
	for _, stage := range stages {
		if stage.Status != api.StageDone {
			return false
		}
	}
	return true
}
