package selection

import (
	"errors"
	"testing"
)

func TestTriageCapRejectsSeventhMember(t *testing.T) {
	t.Parallel()

	set := New(0, 6)
	for i := 0; i < 6; i++ {
		if err := set.Toggle(i); err != nil {
			t.Fatalf("toggle %d: %v", i, err)
		}
	}
	err := set.Toggle(6)
	if !errors.Is(err, ErrAtCapacity) {
		t.Fatalf("expected ErrAtCapacity, got %v", err)
	}
	if set.Count() != 6 {
		t.Fatalf("count = %d after rejected toggle, want 6", set.Count())
	}
	if set.Has(6) {
		t.Fatal("rejected ordinal must not be selected")
	}
}

func TestToggleIsSymmetric(t *testing.T) {
	t.Parallel()

	set := New(0, 6)
	if err := set.Toggle(3); err != nil {
		t.Fatalf("add: %v", err)
	}
	if !set.Has(3) {
		t.Fatal("ordinal should be selected after first toggle")
	}
	if err := set.Toggle(3); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if set.Has(3) || set.Count() != 0 {
		t.Fatalf("ordinal should be cleared, count=%d", set.Count())
	}
}

func TestSynthesisSetKeepsLastMember(t *testing.T) {
	t.Parallel()

	set := New(1, 0)
	set.Fill(3)
	if err := set.Toggle(0); err != nil {
		t.Fatalf("remove 0: %v", err)
	}
	if err := set.Toggle(1); err != nil {
		t.Fatalf("remove 1: %v", err)
	}
	err := set.Toggle(2)
	if !errors.Is(err, ErrLastMember) {
		t.Fatalf("expected ErrLastMember, got %v", err)
	}
	if !set.Has(2) || set.Count() != 1 {
		t.Fatalf("last member must survive, count=%d", set.Count())
	}
}

func TestBoundsHoldUnderArbitraryToggleOrder(t *testing.T) {
	t.Parallel()

	set := New(0, 6)
	sequence := []int{0, 1, 2, 1, 3, 4, 5, 6, 7, 0, 0, 2, 6, 5, 4, 3, 2, 1, 7, 7}
	for _, ordinal := range sequence {
		set.Toggle(ordinal)
		if set.Count() > 6 {
			t.Fatalf("triage set exceeded cap: %d", set.Count())
		}
	}
}

func TestFillResetsToAll(t *testing.T) {
	t.Parallel()

	set := New(1, 0)
	set.Fill(4)
	set.Toggle(2)
	set.Fill(2)
	if set.Count() != 2 || !set.Has(0) || !set.Has(1) {
		t.Fatalf("fill should select all ordinals, got %v", set.Ordinals())
	}
}

func TestOrdinalsSortedAscending(t *testing.T) {
	t.Parallel()

	set := New(0, 6)
	for _, ordinal := range []int{5, 0, 2} {
		if err := set.Toggle(ordinal); err != nil {
			t.Fatalf("toggle %d: %v", ordinal, err)
		}
	}
	got := set.Ordinals()
	if len(got) != 3 || got[0] != 0 || got[1] != 2 || got[2] != 5 {
		t.Fatalf("ordinals = %v, want [0 2 5]", got)
	}
}
