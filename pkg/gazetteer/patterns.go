package gazetteer

import "regexp"

// AccessionPattern matches an entire family of structured identifiers,
// derived from a single observed seed term.
type AccessionPattern struct {
	// Pattern is word-boundary-anchored so it matches the whole ID family,
	// not just the seeds it was derived from.
	Pattern     *regexp.Regexp
	Description string
	// Category overrides the match category; empty means accession_number.
	Category string
}

// accessionRules is the ordered seed-detection table. The seed regex decides
// whether a gazetteer term belongs to the family; the full regex is what gets
// matched against free text.
var accessionRules = []struct {
	seed        *regexp.Regexp
	full        *regexp.Regexp
	description string
}{
	// Rv locus tags: Rv0005, Rv3854c
	{regexp.MustCompile(`^Rv\d{4}[c]?$`), regexp.MustCompile(`\bRv\d{4}[c]?\b`), "Rv locus tag"},
	// Mycobrowser MT IDs: MT0005, MT0049
	{regexp.MustCompile(`^MT\w+$`), regexp.MustCompile(`\bMT\w+\b`), "Mycobrowser ID"},
	// UniProt accessions: P9WGR1, O53617
	{regexp.MustCompile(`^[OPQ][0-9][A-Z0-9]{3}[0-9]$`), regexp.MustCompile(`\b[OPQ][0-9][A-Z0-9]{3}[0-9]\b`), "UniProt accession"},
	// PDB codes: 4TZK, 1P44
	{regexp.MustCompile(`^[0-9][A-Z0-9]{3}$`), regexp.MustCompile(`\b[0-9][A-Z0-9]{3}\b`), "PDB code"},
	// NCBI RefSeq protein: WP_003407354
	{regexp.MustCompile(`^WP_\d+$`), regexp.MustCompile(`\bWP_\d+\b`), "NCBI RefSeq"},
}

// DeriveAccessionPatterns inspects seed terms against the known ID-family
// table and returns one pattern per detected family. Output order follows
// first detection among the input terms; a description never repeats.
func DeriveAccessionPatterns(terms []string) []AccessionPattern {
	var detected []AccessionPattern
	seen := make(map[string]bool)

	for _, term := range terms {
		for _, rule := range accessionRules {
			if seen[rule.description] || !rule.seed.MatchString(term) {
				continue
			}
			detected = append(detected, AccessionPattern{
				Pattern:     rule.full,
				Description: rule.description,
			})
			seen[rule.description] = true
		}
	}
	return detected
}
