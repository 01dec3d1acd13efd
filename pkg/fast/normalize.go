// Package fast implements dictionary-based entity extraction: no model call,
// just curated gazetteers, auto-derived accession regexes, and a three-phase
// match engine (exact, regex, fuzzy).
package fast

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// greekLetters maps Unicode Greek symbols to their spelled names. Variant
// expansion substitutes in both directions so "β-lactam" and "beta-lactam"
// resolve to the same canonical term.
var greekLetters = []struct{ symbol, name string }{
	{"α", "alpha"},
	{"β", "beta"},
	{"γ", "gamma"},
	{"δ", "delta"},
	{"ε", "epsilon"},
	{"ζ", "zeta"},
	{"η", "eta"},
	{"θ", "theta"},
	{"κ", "kappa"},
	{"λ", "lambda"},
	{"μ", "mu"},
	{"ν", "nu"},
	{"ξ", "xi"},
	{"π", "pi"},
	{"ρ", "rho"},
	{"σ", "sigma"},
	{"τ", "tau"},
	{"φ", "phi"},
	{"χ", "chi"},
	{"ψ", "psi"},
	{"ω", "omega"},
}

// isUnicodeDash reports whether r is one of the dash variants unified to an
// ASCII hyphen during normalization (hyphen, non-breaking hyphen, figure
// dash, en/em dash, horizontal bar, small/fullwidth forms).
func isUnicodeDash(r rune) bool {
	switch r {
	case '‐', '‑', '‒', '–', '—', '―', '﹘', '﹣', '－':
		return true
	}
	return false
}

// Normalize canonicalizes text for matching: lowercase, unify dash variants
// to ASCII hyphen, collapse whitespace runs to a single space, strip.
// Pure and idempotent.
func Normalize(text string) string {
	norm, _, _ := normalizeWithMap(text)
	return norm
}

// normalizeWithMap normalizes text and records, for every byte of the
// normalized form, the byte range [starts[i], ends[i]) in the original text
// that produced it. Building the map from the normalizer's own emission keeps
// it exact: both slices are monotonic and every index lies within the source.
func normalizeWithMap(text string) (string, []int, []int) {
	var b strings.Builder
	b.Grow(len(text))
	starts := make([]int, 0, len(text))
	ends := make([]int, 0, len(text))

	pendingSpace := false
	spaceStart, spaceEnd := 0, 0
	emitted := false

	for i, r := range text {
		w := utf8.RuneLen(r)
		if unicode.IsSpace(r) {
			if !pendingSpace {
				spaceStart = i
			}
			spaceEnd = i + w
			pendingSpace = true
			continue
		}
		if pendingSpace && emitted {
			b.WriteByte(' ')
			starts = append(starts, spaceStart)
			ends = append(ends, spaceEnd)
		}
		pendingSpace = false

		c := unicode.ToLower(r)
		if isUnicodeDash(c) {
			c = '-'
		}
		n := utf8.RuneLen(c)
		b.WriteRune(c)
		for j := 0; j < n; j++ {
			starts = append(starts, i)
			ends = append(ends, i+w)
		}
		emitted = true
	}

	return b.String(), starts, ends
}

// letterDigitRe finds letter→digit boundaries for optional hyphenation
// ("DprE1" ↔ "DprE-1").
var letterDigitRe = regexp.MustCompile(`([a-zA-Z])([0-9])`)

// ExpandVariants generates every spelling variant of a canonical term that
// should resolve back to it: identity and lowercase, Greek symbol↔name
// substitution, hyphen-optional forms, hyphenation at letter→digit
// boundaries, and period-space removal for abbreviations ("M. tuberculosis").
// Normalized copies of each variant are included alongside the originals;
// the non-normalized forms feed case-sensitive exact matching. The returned
// slice is deduplicated in generation order.
func ExpandVariants(term string) []string {
	var variants []string
	seen := make(map[string]bool)
	add := func(v string) {
		if !seen[v] {
			seen[v] = true
			variants = append(variants, v)
		}
	}

	lower := strings.ToLower(term)
	add(term)
	add(lower)

	for _, g := range greekLetters {
		if strings.Contains(lower, g.symbol) {
			add(strings.ReplaceAll(lower, g.symbol, g.name))
		}
		if strings.Contains(lower, g.name) {
			add(strings.ReplaceAll(lower, g.name, g.symbol))
		}
	}

	if strings.Contains(term, "-") {
		add(strings.ReplaceAll(term, "-", ""))
		add(strings.ReplaceAll(lower, "-", ""))
	}
	if hyphenated := letterDigitRe.ReplaceAllString(term, "$1-$2"); hyphenated != term {
		add(hyphenated)
		add(strings.ToLower(hyphenated))
	}

	if strings.Contains(term, ". ") {
		add(strings.ReplaceAll(term, ". ", " "))
		add(strings.ReplaceAll(lower, ". ", " "))
	}

	for _, v := range variants[:len(variants):len(variants)] {
		add(Normalize(v))
	}
	return variants
}
