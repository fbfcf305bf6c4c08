// Package compare builds the side-by-side paper comparison: a snapshot of
// up to four loaded papers plus the highest-similarity pair drawn from the
// backend's pairwise results.
package compare

import (
	"errors"
	"fmt"
	"strings"

	"github.com/csheth/reviewdeck/internal/api"
)

// ErrNotEnoughPapers is returned when fewer than two papers are loaded;
// comparison does not activate.
var ErrNotEnoughPapers = errors.New("need at least two loaded papers to compare")

const (
	// MaxColumns caps how many papers a comparison snapshot covers.
	MaxColumns = 4

	abstractRunes = 220
	maxAuthors    = 3
	maxFindings   = 2
)

// Column is the rendered data for one compared paper.
type Column struct {
	Title    string
	Authors  string
	Abstract string
	Findings []string
	Venue    string
}

// Snapshot copies the first MaxColumns loaded papers into comparison
// columns. Activation always re-snapshots: nothing is cached across
// toggles.
func Snapshot(papers []api.Paper) ([]Column, error) {
	if len(papers) < 2 {
		return nil, ErrNotEnoughPapers
	}
	if len(papers) > MaxColumns {
		papers = papers[:MaxColumns]
	}
	columns := make([]Column, 0, len(papers))
	for _, paper := range papers {
		findings := paper.KeyFindings
		if len(findings) > maxFindings {
			findings = findings[:maxFindings]
		}
		columns = append(columns, Column{
			Title:    paper.Title,
			Authors:  shortenAuthors(paper.Authors),
			Abstract: truncate(paper.Abstract, abstractRunes),
			Findings: append([]string(nil), findings...),
			Venue:    paper.Venue,
		})
	}
	return columns, nil
}

// HighestPair returns the most similar pair from the backend results. The
// second return value is false when no pair data is available, in which
// case the comparison renders without the similarity callout.
func HighestPair(sim *api.Similarity) (api.SimilarPair, bool) {
	if sim == nil || len(sim.Pairs) == 0 {
		return api.SimilarPair{}, false
	}
	best := sim.Pairs[0]
	for _, pair := range sim.Pairs[1:] {
		if pair.Similarity > best.Similarity {
			best = pair
		}
	}
	return best, true
}

// Percent formats a [0,1] similarity score as a percentage with one
// decimal place, clamping out-of-range scores.
func Percent(score float64) string {
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return fmt.Sprintf("%.1f%%", score*100)
}

func shortenAuthors(authors []string) string {
	if len(authors) <= maxAuthors {
		return strings.Join(authors, ", ")
	}
	return strings.Join(authors[:maxAuthors], ", ") + " et al."
}

func truncate(text string, limit int) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= limit {
		return string(runes)
	}
	return strings.TrimSpace(string(runes[:limit])) + "…"
}
