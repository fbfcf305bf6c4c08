package pipeline

import (
	"testing"

	"github.com/csheth/reviewdeck/internal/api"
)

func TestDefaultStagesAllPending(t *testing.T) {
	t.Parallel()

	stages := DefaultStages()
	if len(stages) != 6 {
		t.Fatalf("expected 6 stages, got %d", len(stages))
	}
	for _, stage := range stages {
		if stage.Status != api.StagePending || stage.Progress != 0 {
			t.Fatalf("stage %s not pending/0%%: %+v", stage.ID, stage)
		}
	}
	if stages[0].ID != "pdf-parse" || stages[5].ID != "synthesis-queue" {
		t.Fatalf("stage order wrong: %s..%s", stages[0].ID, stages[5].ID)
	}
}

func TestActiveStage(t *testing.T) {
	t.Parallel()

	stages := DefaultStages()
	if _, ok := ActiveStage(stages); ok {
		t.Fatal("no stage should be active when all are pending")
	}
	stages[2].Status = api.StageRunning
	active, ok := ActiveStage(stages)
	if !ok || active.ID != "key-findings" {
		t.Fatalf("active = %+v ok=%v", active, ok)
	}
}

func TestAllDone(t *testing.T) {
	t.Parallel()

	if AllDone(nil) {
		t.Fatal("empty stage list must not count as done")
	}
	stages := DefaultStages()
	for i := range stages {
		stages[i].Status = api.StageDone
	}
	if !AllDone(stages) {
		t.Fatal("all done stages should report done")
	}
	stages[4].Status = api.StageRunning
	if AllDone(stages) {
		t.Fatal("a running stage must block done")
	}
}
