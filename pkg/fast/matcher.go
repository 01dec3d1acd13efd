package fast

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/coregx/ahocorasick"
	"github.com/orsinium-labs/stopwords"

	"github.com/structflo/structflo-ner/pkg/gazetteer"
	"github.com/structflo/structflo-ner/pkg/ner"
)

// MatchMethod identifies which phase produced a match.
type MatchMethod string

const (
	MethodExact MatchMethod = "exact"
	MethodRegex MatchMethod = "regex"
	MethodFuzzy MatchMethod = "fuzzy"
)

// Match is a single entity occurrence found in text. Start and End are byte
// offsets into the original input, half-open [Start, End). Text is always the
// exact substring of the input at that span.
type Match struct {
	Text      string
	Category  string
	Start     int
	End       int
	Canonical string
	Method    MatchMethod
}

// DefaultFuzzyThreshold is the minimum fuzzy similarity score (0–100)
// accepted when no threshold is configured.
const DefaultFuzzyThreshold = 85

// tokenRe captures alphanumeric runs, allowing internal hyphens, periods, and
// underscores, as fuzzy candidate tokens.
var tokenRe = regexp.MustCompile(`[A-Za-z0-9][\w\-.]*[A-Za-z0-9]|[A-Za-z0-9]`)

type termEntry struct {
	canonical string
	category  string
}

// fuzzyTerm precomputes the lowercase form and rune length used by the fuzzy
// phase's length-ratio pre-filter and scoring.
type fuzzyTerm struct {
	termEntry
	lower   string
	runeLen int
}

// Matcher is the three-phase match engine. All state is built once by
// NewMatcher and never mutated afterwards, so a single instance is safe for
// concurrent Match calls.
type Matcher struct {
	fuzzyThreshold int
	patterns       []gazetteer.AccessionPattern

	// caseSensitive: term → (canonical, category), first write wins.
	caseSensitive map[string]termEntry
	// caseTerms holds the automaton's patterns; index == pattern ID.
	caseTerms []string
	automaton *ahocorasick.Automaton

	// normLookup: normalized variant → (canonical, category), first write wins.
	normLookup map[string]termEntry
	// maxNormLen bounds the sliding window, in bytes of normalized text.
	maxNormLen int

	fuzzyTerms []fuzzyTerm
	stop       *stopwords.Stopwords
}

// NewMatcher builds the immutable lookup state from a gazetteer set:
// a case-sensitive automaton over the raw terms, a normalized variant table
// via ExpandVariants, and the flat fuzzy candidate list. patterns supplies
// derived accession regexes for Phase 2 (nil disables the phase);
// fuzzyThreshold is the minimum fuzzy score 0-100 (zero disables Phase 3).
// Collisions between terms, in either table, resolve first-write-wins in
// gazetteer category order and listed term order.
func NewMatcher(gz *gazetteer.Set, patterns []gazetteer.AccessionPattern, fuzzyThreshold int) (*Matcher, error) {
	m := &Matcher{
		fuzzyThreshold: fuzzyThreshold,
		patterns:       patterns,
		caseSensitive:  make(map[string]termEntry),
		normLookup:     make(map[string]termEntry),
		stop:           stopwords.MustGet("en"),
	}

	for _, category := range gz.Categories() {
		for _, term := range gz.Terms(category) {
			entry := termEntry{canonical: term, category: category}

			if _, ok := m.caseSensitive[term]; !ok {
				m.caseSensitive[term] = entry
				m.caseTerms = append(m.caseTerms, term)
			}

			for _, variant := range ExpandVariants(term) {
				norm := Normalize(variant)
				if norm == "" {
					continue
				}
				if _, ok := m.normLookup[norm]; !ok {
					m.normLookup[norm] = entry
				}
				if len(norm) > m.maxNormLen {
					m.maxNormLen = len(norm)
				}
			}

			m.fuzzyTerms = append(m.fuzzyTerms, fuzzyTerm{
				termEntry: entry,
				lower:     strings.ToLower(term),
				runeLen:   utf8.RuneCountInString(term),
			})
		}
	}

	if len(m.caseTerms) > 0 {
		automaton, err := ahocorasick.NewBuilder().
			AddStrings(m.caseTerms).
			SetMatchKind(ahocorasick.LeftmostLongest).
			SetPrefilter(true).
			Build()
		if err != nil {
			return nil, err
		}
		m.automaton = automaton
	}

	return m, nil
}

// Match finds all entity matches in text. The result is sorted by start
// offset ascending (end descending on ties) and strictly non-overlapping:
// exact beats regex beats fuzzy, and within the exact phase the
// case-sensitive pass beats the normalized pass.
func (m *Matcher) Match(text string) []Match {
	matches := []Match{}
	occupied := make([]bool, len(text))

	matches = append(matches, m.exactMatch(text, occupied)...)
	matches = append(matches, m.regexMatch(text, occupied)...)
	if m.fuzzyThreshold > 0 {
		matches = append(matches, m.fuzzyMatch(text, occupied)...)
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Start != matches[j].Start {
			return matches[i].Start < matches[j].Start
		}
		return matches[i].End > matches[j].End
	})
	return matches
}

// exactMatch is Phase 1: a case-sensitive literal pass over the raw text,
// then a sliding-window pass over the normalized text, both feeding the
// shared occupied set.
func (m *Matcher) exactMatch(text string, occupied []bool) []Match {
	var matches []Match

	// Pass 1: case-sensitive occurrences via the automaton. Candidates are
	// ordered (start asc, end desc) before the greedy occupancy scan so a
	// longer term starting at the same position always wins.
	if m.automaton != nil && text != "" {
		found := m.automaton.FindAllOverlapping([]byte(text))
		sort.Slice(found, func(i, j int) bool {
			if found[i].Start != found[j].Start {
				return found[i].Start < found[j].Start
			}
			if found[i].End != found[j].End {
				return found[i].End > found[j].End
			}
			return found[i].PatternID < found[j].PatternID
		})
		for _, f := range found {
			if !isWordBoundary(text, f.Start, f.End) || overlaps(occupied, f.Start, f.End) {
				continue
			}
			entry := m.caseSensitive[m.caseTerms[f.PatternID]]
			matches = append(matches, Match{
				Text:      text[f.Start:f.End],
				Category:  entry.category,
				Start:     f.Start,
				End:       f.End,
				Canonical: entry.canonical,
				Method:    MethodExact,
			})
			occupy(occupied, f.Start, f.End)
		}
	}

	// Pass 2: slide a window over the normalized text, longest window first,
	// and map accepted spans back to original offsets.
	norm, starts, ends := normalizeWithMap(text)
	maxLen := m.maxNormLen
	if maxLen > len(norm) {
		maxLen = len(norm)
	}
	for windowLen := maxLen; windowLen >= 1; windowLen-- {
		for i := 0; i+windowLen <= len(norm); i++ {
			entry, ok := m.normLookup[norm[i:i+windowLen]]
			if !ok {
				continue
			}
			origStart := starts[i]
			origEnd := ends[i+windowLen-1]
			if overlaps(occupied, origStart, origEnd) {
				continue
			}
			if !isWordBoundary(text, origStart, origEnd) {
				continue
			}
			matches = append(matches, Match{
				Text:      text[origStart:origEnd],
				Category:  entry.category,
				Start:     origStart,
				End:       origEnd,
				Canonical: entry.canonical,
				Method:    MethodExact,
			})
			occupy(occupied, origStart, origEnd)
		}
	}

	return matches
}

// regexMatch is Phase 2: derived accession patterns over the raw text.
// The patterns carry their own word-boundary anchors.
func (m *Matcher) regexMatch(text string, occupied []bool) []Match {
	var matches []Match

	for _, p := range m.patterns {
		category := p.Category
		if category == "" {
			category = ner.CategoryAccession
		}
		for _, loc := range p.Pattern.FindAllStringIndex(text, -1) {
			start, end := loc[0], loc[1]
			if overlaps(occupied, start, end) {
				continue
			}
			matches = append(matches, Match{
				Text:      text[start:end],
				Category:  category,
				Start:     start,
				End:       end,
				Canonical: text[start:end],
				Method:    MethodRegex,
			})
			occupy(occupied, start, end)
		}
	}

	return matches
}

// fuzzyMatch is Phase 3: score unmatched entity-like tokens against the
// candidate list and accept the best scorer at or above the threshold.
func (m *Matcher) fuzzyMatch(text string, occupied []bool) []Match {
	var matches []Match

	for _, loc := range tokenRe.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		if overlaps(occupied, start, end) {
			continue
		}

		token := text[start:end]
		if !isEntityLike(token) {
			continue
		}
		lower := strings.ToLower(token)
		// Plain lowercase stopwords are never worth a fuzzy comparison.
		if lower == token && m.stop.Contains(lower) {
			continue
		}

		tokenLen := utf8.RuneCountInString(token)
		bestScore := 0
		var best fuzzyTerm
		for _, cand := range m.fuzzyTerms {
			candLen := cand.runeLen
			if candLen == 0 {
				candLen = 1
			}
			ratio := float64(tokenLen) / float64(candLen)
			if ratio < 0.7 || ratio > 1.4 {
				continue
			}
			if score := similarity(lower, cand.lower); score > bestScore {
				bestScore = score
				best = cand
			}
		}

		if bestScore >= m.fuzzyThreshold {
			matches = append(matches, Match{
				Text:      token,
				Category:  best.category,
				Start:     start,
				End:       end,
				Canonical: best.canonical,
				Method:    MethodFuzzy,
			})
			occupy(occupied, start, end)
		}
	}

	return matches
}

// similarity is a normalized edit-similarity on a 0–100 scale.
func similarity(a, b string) int {
	if a == b {
		return 100
	}
	la := utf8.RuneCountInString(a)
	lb := utf8.RuneCountInString(b)
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 100
	}
	dist := levenshtein.ComputeDistance(a, b)
	return int(math.Round(100 * (1 - float64(dist)/float64(longest))))
}

// isWordBoundary checks that the span is not a substring of a larger word:
// the runes immediately before and after, when present, must not be
// alphanumeric.
func isWordBoundary(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// isEntityLike gates fuzzy candidates: at least 3 runes, and either an
// uppercase letter, a digit, or 4+ runes.
func isEntityLike(token string) bool {
	n := 0
	hasUpper := false
	hasDigit := false
	for _, r := range token {
		n++
		if unicode.IsUpper(r) {
			hasUpper = true
		}
		if unicode.IsDigit(r) {
			hasDigit = true
		}
	}
	if n < 3 {
		return false
	}
	return hasUpper || hasDigit || n >= 4
}

func overlaps(occupied []bool, start, end int) bool {
	for i := start; i < end && i < len(occupied); i++ {
		if occupied[i] {
			return true
		}
	}
	return false
}

func occupy(occupied []bool, start, end int) {
	for i := start; i < end && i < len(occupied); i++ {
		occupied[i] = true
	}
}
