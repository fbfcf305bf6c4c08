// Package selection enforces the bounded paper pick-lists: the triage set
// chosen before running extraction (at most 6 members) and the synthesis
// set feeding the generated document (at least 1 member).
package selection

import (
	"errors"
	"sort"
)

// ErrAtCapacity is returned when a toggle would grow the set past its
// maximum. The set is left unchanged.
var ErrAtCapacity = errors.New("selection already at capacity")

// ErrLastMember is returned when a toggle would shrink the set below its
// minimum. The set is left unchanged.
var ErrLastMember = errors.New("at least one paper must stay selected")

// Set is a bounded set of paper ordinals. The zero limits mean
// unbounded; bounds are enforced synchronously on every toggle.
type Set struct {
	min     int
	max     int
	members map[int]bool
}

// New returns an empty Set. min is the smallest size a toggle may leave
// behind; max caps growth (0 means no cap).
func New(min, max int) *Set {
	return &Set{min: min, max: max, members: map[int]bool{}}
}

// Toggle adds ordinal if absent and removes it if present, rejecting any
// change that would violate the bounds.
func (s *Set) Toggle(ordinal int) error {
	if s.members[ordinal] {
		if s.min > 0 && s.Count() <= s.min {
			return ErrLastMember
		}
		delete(s.members, ordinal)
		return nil
	}
	if s.max > 0 && s.Count() >= s.max {
		return ErrAtCapacity
	}
	s.members[ordinal] = true
	return nil
}

// Has reports whether ordinal is selected.
func (s *Set) Has(ordinal int) bool {
	return s.members[ordinal]
}

// Count returns the current size.
func (s *Set) Count() int {
	return len(s.members)
}

// Ordinals returns the selected ordinals sorted ascending.
func (s *Set) Ordinals() []int {
	out := make([]int, 0, len(s.members))
	for ordinal := range s.members {
		out = append(out, ordinal)
	}
	sort.Ints(out)
	return out
}

// Clear empties the set. Bounds are not applied: a reload starts fresh.
func (s *Set) Clear() {
	s.members = map[int]bool{}
}

// Fill resets the set to all ordinals below n ("select all"). Used when
// the paper list is reloaded so the set stays a subset of valid ordinals.
func (s *Set) Fill(n int) {
	s.members = make(map[int]bool, n)
	for i := 0; i < n; i++ {
		s.members[i] = true
	}
}
