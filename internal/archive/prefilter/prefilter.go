// Package prefilter orders batch descriptors by how likely they are to
// contain matches for a query. It never excludes a batch: keyword hints are
// approximate, and missing a real match is worse than wasted work, so every
// descriptor comes back with at least the floor score.
package prefilter

import (
	"sort"
	"strings"

	"github.com/planquery/appealvault/internal/archive/models"
)

const (
	keywordWeight = 10
	dateWeight    = 5
	floorScore    = 1

	// minTermLength drops noise words like "of" and "to" from the query.
	minTermLength = 3
)

// Ranked is a descriptor tagged with its prefilter score. KeywordMatch
// partitions descriptors into the high-priority set (a real keyword hit)
// and the low-priority set (floor only, still searched).
type Ranked struct {
	Descriptor   models.BatchDescriptor
	Score        int
	KeywordMatch bool
}

// Rank scores every descriptor against the query and returns all of them,
// sorted by descending score. Ties keep manifest order so the traversal is
// reproducible.
func Rank(query string, descriptors []models.BatchDescriptor, opts models.SearchOptions) []Ranked {
	terms := Tokenize(query)

	ranked := make([]Ranked, len(descriptors))
	for i, d := range descriptors {
		score := floorScore

		for _, term := range terms {
			if matchesKeyword(term, d.Keywords) {
				score += keywordWeight
			}
		}

		if opts.DateFilter != nil && rangesOverlap(*opts.DateFilter, d.DateRange) {
			score += dateWeight
		}

		ranked[i] = Ranked{
			Descriptor:   d,
			Score:        score,
			KeywordMatch: score >= floorScore+keywordWeight,
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// Tokenize lowercases the query and returns its terms longer than two
// characters.
func Tokenize(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) >= minTermLength {
			terms = append(terms, f)
		}
	}
	return terms
}

// matchesKeyword reports whether the term is a substring of any keyword
// hint or vice versa, case-insensitively.
func matchesKeyword(term string, keywords []string) bool {
	for _, kw := range keywords {
		kw = strings.ToLower(kw)
		if strings.Contains(kw, term) || strings.Contains(term, kw) {
			return true
		}
	}
	return false
}

// rangesOverlap compares ISO date strings lexicographically. An empty bound
// is treated as unbounded on that side.
func rangesOverlap(a, b models.DateRange) bool {
	if a.Start != "" && b.End != "" && a.Start > b.End {
		return false
	}
	if b.Start != "" && a.End != "" && b.Start > a.End {
		return false
	}
	return true
}
