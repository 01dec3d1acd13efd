package fast

import (
	"testing"

	"github.com/structflo/structflo-ner/pkg/gazetteer"
)

func simpleSet() *gazetteer.Set {
	gz := gazetteer.NewSet()
	gz.Add("target", "InhA", "DprE1", "MmpL3")
	gz.Add("compound_name", "Bedaquiline", "Isoniazid")
	gz.Add("disease", "TB", "MDR-TB")
	return gz
}

func mustMatcher(t *testing.T, gz *gazetteer.Set, patterns []gazetteer.AccessionPattern, fuzzyThreshold int) *Matcher {
	t.Helper()
	m, err := NewMatcher(gz, patterns, fuzzyThreshold)
	if err != nil {
		t.Fatalf("NewMatcher failed: %v", err)
	}
	return m
}

func TestExactMatchCaseSensitive(t *testing.T) {
	m := mustMatcher(t, simpleSet(), nil, 0)
	matches := m.Match("InhA is essential")

	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1: %v", len(matches), matches)
	}
	got := matches[0]
	if got.Text != "InhA" || got.Category != "target" || got.Canonical != "InhA" {
		t.Errorf("unexpected match %+v", got)
	}
	if got.Start != 0 || got.End != 4 {
		t.Errorf("span (%d,%d), want (0,4)", got.Start, got.End)
	}
	if got.Method != MethodExact {
		t.Errorf("method %q, want exact", got.Method)
	}
}

func TestExactMatchCaseInsensitive(t *testing.T) {
	m := mustMatcher(t, simpleSet(), nil, 0)
	matches := m.Match("bedaquiline is a drug")

	found := false
	for _, match := range matches {
		if match.Canonical == "Bedaquiline" && match.Text == "bedaquiline" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected normalized match for Bedaquiline, got %v", matches)
	}
}

func TestWordBoundaryRejectsSubstring(t *testing.T) {
	gz := gazetteer.NewSet()
	gz.Add("target", "Rho")
	m := mustMatcher(t, gz, nil, DefaultFuzzyThreshold)

	matches := m.Match("Rhodamine staining was performed")
	if len(matches) != 0 {
		t.Errorf("expected no matches, got %v", matches)
	}
}

func TestWordBoundaryInsideUppercaseWord(t *testing.T) {
	m := mustMatcher(t, simpleSet(), nil, 0)
	// "TB" must not match inside "ESTABLISH" (normalized pass would see "tb").
	matches := m.Match("We ESTABLISH the protocol")
	for _, match := range matches {
		if match.Canonical == "TB" {
			t.Errorf("TB matched inside ESTABLISH: %+v", match)
		}
	}
}

func TestNormalizedVariantMatching(t *testing.T) {
	gz := gazetteer.NewSet()
	gz.Add("disease", "MDR-TB")
	m := mustMatcher(t, gz, nil, 0)

	// En-dash in the text, hyphen in the gazetteer.
	matches := m.Match("Patients with MDR–TB were enrolled")
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1: %v", len(matches), matches)
	}
	if matches[0].Canonical != "MDR-TB" {
		t.Errorf("canonical %q, want MDR-TB", matches[0].Canonical)
	}
	if matches[0].Text != "MDR–TB" {
		t.Errorf("surface text %q, want the original en-dash form", matches[0].Text)
	}
}

func TestGreekVariantMatching(t *testing.T) {
	gz := gazetteer.NewSet()
	gz.Add("compound_name", "β-lactam")
	m := mustMatcher(t, gz, nil, 0)

	matches := m.Match("resistance to beta-lactam antibiotics")
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1: %v", len(matches), matches)
	}
	if matches[0].Canonical != "β-lactam" {
		t.Errorf("canonical %q, want β-lactam", matches[0].Canonical)
	}
}

func TestRegexAccessionMatching(t *testing.T) {
	patterns := gazetteer.DeriveAccessionPatterns([]string{"Rv1484"})
	gz := gazetteer.NewSet()
	gz.Add("target", "InhA")
	m := mustMatcher(t, gz, patterns, 0)

	matches := m.Match("The genes Rv3854c and Rv0005 encode InhA homologs")
	var accessions []Match
	for _, match := range matches {
		if match.Method == MethodRegex {
			accessions = append(accessions, match)
		}
	}
	if len(accessions) != 2 {
		t.Fatalf("got %d regex matches, want 2: %v", len(accessions), matches)
	}
	for _, a := range accessions {
		if a.Category != "accession_number" {
			t.Errorf("category %q, want accession_number", a.Category)
		}
	}
	if accessions[0].Text != "Rv3854c" || accessions[1].Text != "Rv0005" {
		t.Errorf("unexpected accession texts: %v", accessions)
	}
}

func TestExactBeatsRegex(t *testing.T) {
	// A term that also looks like an accession: the exact phase claims it
	// first and the regex phase must not double-report it.
	patterns := gazetteer.DeriveAccessionPatterns([]string{"Rv0005"})
	gz := gazetteer.NewSet()
	gz.Add("target", "Rv1484")
	m := mustMatcher(t, gz, patterns, 0)

	matches := m.Match("Rv1484 encodes InhA")
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1: %v", len(matches), matches)
	}
	if matches[0].Method != MethodExact || matches[0].Category != "target" {
		t.Errorf("exact match should win: %+v", matches[0])
	}
}

func TestFuzzyMatching(t *testing.T) {
	m := mustMatcher(t, simpleSet(), nil, 80)
	matches := m.Match("Isoniazi was administered")

	var fuzzy []Match
	for _, match := range matches {
		if match.Method == MethodFuzzy {
			fuzzy = append(fuzzy, match)
		}
	}
	if len(fuzzy) != 1 {
		t.Fatalf("got %d fuzzy matches, want 1: %v", len(fuzzy), matches)
	}
	if fuzzy[0].Canonical != "Isoniazid" {
		t.Errorf("canonical %q, want Isoniazid", fuzzy[0].Canonical)
	}
	if fuzzy[0].Text != "Isoniazi" {
		t.Errorf("surface text %q, want Isoniazi", fuzzy[0].Text)
	}
}

func TestFuzzyDisabledAtZeroThreshold(t *testing.T) {
	m := mustMatcher(t, simpleSet(), nil, 0)
	matches := m.Match("Isoniazi was administered")
	if len(matches) != 0 {
		t.Errorf("expected no matches with fuzzy disabled, got %v", matches)
	}
}

func TestExactBeatsFuzzy(t *testing.T) {
	m := mustMatcher(t, simpleSet(), nil, 80)
	matches := m.Match("Isoniazid was administered")

	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1: %v", len(matches), matches)
	}
	if matches[0].Method != MethodExact {
		t.Errorf("exact candidate should win over fuzzy: %+v", matches[0])
	}
}

func TestEmptyInput(t *testing.T) {
	m := mustMatcher(t, simpleSet(), nil, DefaultFuzzyThreshold)
	if matches := m.Match(""); len(matches) != 0 {
		t.Errorf("empty input should yield no matches, got %v", matches)
	}
}

func TestMatchInvariants(t *testing.T) {
	patterns := gazetteer.DeriveAccessionPatterns([]string{"Rv0005", "4TZK"})
	m := mustMatcher(t, simpleSet(), patterns, 80)

	texts := []string{
		"Bedaquiline inhibits InhA in TB patients",
		"bedaquiline targets DprE1 (Rv3790) and MmpL3 in MDR–TB",
		"Isoniazi resistance maps to Rv1484 and structure 4TZK",
		"",
	}
	for _, text := range texts {
		matches := m.Match(text)
		for i, match := range matches {
			// Round-trip: Text equals the source substring at the span.
			if text[match.Start:match.End] != match.Text {
				t.Errorf("round-trip failed for %+v in %q", match, text)
			}
			// Sort: start ascending, end descending on equal starts.
			if i > 0 {
				prev := matches[i-1]
				if prev.Start > match.Start {
					t.Errorf("matches not sorted by start in %q", text)
				}
				if prev.Start == match.Start && prev.End < match.End {
					t.Errorf("equal-start matches not sorted by end desc in %q", text)
				}
			}
			// Non-overlap across all pairs.
			for _, other := range matches[i+1:] {
				if match.Start < other.End && other.Start < match.End {
					t.Errorf("overlapping matches %+v and %+v in %q", match, other, text)
				}
			}
		}
	}
}

func TestCollisionFirstWriteWins(t *testing.T) {
	// Two canonical terms collide on the normalized variant "mdrtb".
	gz := gazetteer.NewSet()
	gz.Add("disease", "MDR-TB")
	gz.Add("compound_name", "MDRTB")
	m := mustMatcher(t, gz, nil, 0)

	matches := m.Match("mdrtb prevalence")
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1: %v", len(matches), matches)
	}
	// disease was inserted first, so its mapping wins.
	if matches[0].Canonical != "MDR-TB" || matches[0].Category != "disease" {
		t.Errorf("first-write-wins violated: %+v", matches[0])
	}
}

func TestLongerNormalizedMatchPreferred(t *testing.T) {
	gz := gazetteer.NewSet()
	gz.Add("disease", "TB")
	gz.Add("disease", "MDR-TB")
	m := mustMatcher(t, gz, nil, 0)

	// The longest-window-first sweep must claim "mdr-tb" before "tb" can
	// grab its sub-span.
	matches := m.Match("cases of mdr-tb rose")
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1: %v", len(matches), matches)
	}
	if matches[0].Canonical != "MDR-TB" {
		t.Errorf("canonical %q, want MDR-TB", matches[0].Canonical)
	}
}

func TestMultipleCategoriesInOneText(t *testing.T) {
	m := mustMatcher(t, simpleSet(), nil, 0)
	matches := m.Match("Bedaquiline targets InhA in TB")

	categories := make(map[string]bool)
	for _, match := range matches {
		categories[match.Category] = true
	}
	for _, want := range []string{"compound_name", "target", "disease"} {
		if !categories[want] {
			t.Errorf("missing category %q in %v", want, matches)
		}
	}
}

func TestFuzzySkipsStopwords(t *testing.T) {
	gz := gazetteer.NewSet()
	gz.Add("compound_name", "froms") // contrived near-stopword term
	m := mustMatcher(t, gz, nil, 60)

	matches := m.Match("samples from both cohorts")
	for _, match := range matches {
		if match.Method == MethodFuzzy && match.Text == "from" {
			t.Errorf("stopword token should not fuzzy-match: %+v", match)
		}
	}
}

func TestSimilarityScale(t *testing.T) {
	if got := similarity("isoniazid", "isoniazid"); got != 100 {
		t.Errorf("identical strings scored %d, want 100", got)
	}
	if got := similarity("isoniazi", "isoniazid"); got < 85 || got > 95 {
		t.Errorf("one-edit difference scored %d, want high", got)
	}
	if got := similarity("abc", "xyz"); got != 0 {
		t.Errorf("disjoint strings scored %d, want 0", got)
	}
}
