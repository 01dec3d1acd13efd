// Package gazetteer loads curated term lists per entity category and derives
// regex patterns for structured accession identifiers from seed terms.
package gazetteer

import "sort"

// Set is an ordered mapping from category to its list of canonical terms.
// Category order is insertion order, which keeps downstream lookup-table
// construction deterministic. Duplicate terms within a category are harmless.
type Set struct {
	order []string
	terms map[string][]string
}

// NewSet creates an empty Set.
func NewSet() *Set {
	return &Set{terms: make(map[string][]string)}
}

// Add appends terms to a category, registering the category on first use.
func (s *Set) Add(category string, terms ...string) {
	if _, ok := s.terms[category]; !ok {
		s.order = append(s.order, category)
	}
	s.terms[category] = append(s.terms[category], terms...)
}

// Categories returns the categories in insertion order.
func (s *Set) Categories() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Terms returns the terms for a category, or nil if the category is absent.
func (s *Set) Terms(category string) []string {
	return s.terms[category]
}

// Len returns the number of categories.
func (s *Set) Len() int {
	return len(s.order)
}

// TotalTerms returns the number of terms across all categories.
func (s *Set) TotalTerms() int {
	n := 0
	for _, c := range s.order {
		n += len(s.terms[c])
	}
	return n
}

// MergeMap additively merges extra terms per category. Categories are merged
// in sorted key order so the result does not depend on map iteration.
func (s *Set) MergeMap(extra map[string][]string) {
	cats := make([]string, 0, len(extra))
	for c := range extra {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	for _, c := range cats {
		s.Add(c, extra[c]...)
	}
}
