package extraction

import (
	"context"
	"strings"
	"testing"

	"github.com/structflo/structflo-ner/pkg/ner"
)

// stubClient returns a canned response and records the prompts it was given.
type stubClient struct {
	response string
	err      error

	lastSystem string
	lastUser   string
	calls      int
}

func (s *stubClient) Chat(_ context.Context, system, user string) (string, error) {
	s.calls++
	s.lastSystem = system
	s.lastUser = user
	return s.response, s.err
}

// ---------------------------------------------------------------------------
// ParseResponse tests
// ---------------------------------------------------------------------------

func TestParseResponse_ValidJSON(t *testing.T) {
	raw := `{
		"extractions": [
			{"extraction_class": "compound_name", "extraction_text": "Gefitinib"},
			{"extraction_class": "target", "extraction_text": "EGFR", "attributes": {"gene_symbol": "ERBB1"}}
		]
	}`

	extractions, err := ParseResponse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(extractions) != 2 {
		t.Fatalf("expected 2 extractions, got %d", len(extractions))
	}
	if extractions[0].Class != "compound_name" || extractions[0].Text != "Gefitinib" {
		t.Errorf("unexpected first extraction: %+v", extractions[0])
	}
	if extractions[1].Attributes["gene_symbol"] != "ERBB1" {
		t.Errorf("expected gene_symbol attribute, got %v", extractions[1].Attributes)
	}
}

func TestParseResponse_WithCodeFence(t *testing.T) {
	raw := "```json\n" + `{
		"extractions": [
			{"extraction_class": "disease", "extraction_text": "NSCLC"}
		]
	}` + "\n```"

	extractions, err := ParseResponse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(extractions) != 1 {
		t.Fatalf("expected 1 extraction, got %d", len(extractions))
	}
	if extractions[0].Text != "NSCLC" {
		t.Errorf("expected 'NSCLC', got %q", extractions[0].Text)
	}
}

func TestParseResponse_BareArray(t *testing.T) {
	raw := `[
		{"extraction_class": "target", "extraction_text": "InhA"},
		{"extraction_class": "compound_name", "extraction_text": "Isoniazid"}
	]`

	extractions, err := ParseResponse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(extractions) != 2 {
		t.Errorf("expected 2 extractions from bare array, got %d", len(extractions))
	}
}

func TestParseResponse_TruncatedJSON(t *testing.T) {
	// Valid extraction objects inside a malformed outer structure.
	raw := `{"extractions": [{"extraction_class": "target", "extraction_text": "DprE1"}, {"extraction_class": "compound_name", "extraction_text": "BTZ0`

	extractions, err := ParseResponse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(extractions) == 0 {
		t.Error("expected at least 1 repaired extraction")
	}
	if extractions[0].Text != "DprE1" {
		t.Errorf("expected DprE1, got %q", extractions[0].Text)
	}
}

func TestParseResponse_EmptyInput(t *testing.T) {
	extractions, err := ParseResponse("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(extractions) != 0 {
		t.Errorf("expected no extractions for empty input, got %d", len(extractions))
	}
}

func TestParseResponse_Garbage(t *testing.T) {
	if _, err := ParseResponse("I could not find any entities, sorry!"); err == nil {
		t.Error("expected an error for an unparseable response")
	}
}

func TestParseResponse_SkipsBlankFields(t *testing.T) {
	raw := `{
		"extractions": [
			{"extraction_class": "", "extraction_text": "orphan"},
			{"extraction_class": "target", "extraction_text": "   "},
			{"extraction_class": "target", "extraction_text": "KatG"}
		]
	}`

	extractions, err := ParseResponse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(extractions) != 1 {
		t.Fatalf("expected 1 extraction after filtering, got %d", len(extractions))
	}
	if extractions[0].Text != "KatG" {
		t.Errorf("expected KatG, got %q", extractions[0].Text)
	}
}

// ---------------------------------------------------------------------------
// BuildUserPrompt tests
// ---------------------------------------------------------------------------

func TestBuildUserPrompt_IncludesProfile(t *testing.T) {
	prompt := BuildUserPrompt("Gefitinib inhibits EGFR.", Chemistry)

	if !strings.Contains(prompt, Chemistry.Prompt) {
		t.Error("expected the profile instruction in the prompt")
	}
	if !strings.Contains(prompt, "compound_name, smiles, cas_number, molecular_formula") {
		t.Error("expected the class list in the prompt")
	}
	if !strings.Contains(prompt, "Gefitinib inhibits EGFR.") {
		t.Error("expected the input text in the prompt")
	}
	if !strings.Contains(prompt, "EXAMPLES:") {
		t.Error("expected few-shot examples in the prompt")
	}
}

func TestBuildUserPrompt_TruncatesLongText(t *testing.T) {
	longText := strings.Repeat("x", MaxTextLength+500)
	prompt := BuildUserPrompt(longText, Disease)
	if strings.Contains(prompt, longText) {
		t.Error("expected text to be truncated")
	}
}

// ---------------------------------------------------------------------------
// Profile tests
// ---------------------------------------------------------------------------

func TestProfileMerge(t *testing.T) {
	merged := Chemistry.Merge(Biology)

	if merged.Name != "chemistry+biology" {
		t.Errorf("unexpected merged name %q", merged.Name)
	}
	if !merged.InScope(ner.CategorySMILES) || !merged.InScope(ner.CategoryGeneName) {
		t.Errorf("merged profile missing classes: %v", merged.EntityClasses)
	}
	if len(merged.Examples) != len(Chemistry.Examples)+len(Biology.Examples) {
		t.Error("merged profile should concatenate examples")
	}
}

func TestProfileMergeDeduplicatesClasses(t *testing.T) {
	merged := Full.Merge(Chemistry)
	seen := make(map[string]bool)
	for _, c := range merged.EntityClasses {
		if seen[c] {
			t.Errorf("duplicate class %q after merge", c)
		}
		seen[c] = true
	}
}

func TestBuiltinProfilesUseKnownCategories(t *testing.T) {
	for _, p := range []Profile{Chemistry, Biology, Bioactivity, Disease, Full} {
		for _, c := range p.EntityClasses {
			if !ner.IsKnownCategory(c) {
				t.Errorf("profile %s lists unknown category %q", p.Name, c)
			}
		}
		for _, ex := range p.Examples {
			for _, e := range ex.Extractions {
				if !p.InScope(e.Class) {
					t.Errorf("profile %s example uses out-of-scope class %q", p.Name, e.Class)
				}
			}
		}
	}
}

// ---------------------------------------------------------------------------
// Extractor tests
// ---------------------------------------------------------------------------

func TestExtract(t *testing.T) {
	stub := &stubClient{response: `{
		"extractions": [
			{"extraction_class": "compound_name", "extraction_text": "Gefitinib"},
			{"extraction_class": "target", "extraction_text": "EGFR"},
			{"extraction_class": "disease", "extraction_text": "NSCLC"}
		]
	}`}
	ex, err := NewExtractor(stub)
	if err != nil {
		t.Fatalf("NewExtractor failed: %v", err)
	}

	text := "Gefitinib inhibits EGFR in NSCLC."
	result, err := ex.Extract(context.Background(), text)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if len(result.Compounds) != 1 || len(result.Targets) != 1 || len(result.Diseases) != 1 {
		t.Fatalf("unexpected bucket counts: %+v", result)
	}
	if stub.lastSystem != SystemPrompt {
		t.Error("system prompt not forwarded to the client")
	}
	if !strings.Contains(stub.lastUser, text) {
		t.Error("input text not forwarded to the client")
	}
}

func TestExtract_SpanAlignment(t *testing.T) {
	stub := &stubClient{response: `{
		"extractions": [
			{"extraction_class": "compound_name", "extraction_text": "Gefitinib"},
			{"extraction_class": "target", "extraction_text": "egfr"},
			{"extraction_class": "disease", "extraction_text": "melanoma"}
		]
	}`}
	ex, _ := NewExtractor(stub)

	text := "Gefitinib inhibits EGFR."
	result, err := ex.Extract(context.Background(), text)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	compound := result.Compounds[0]
	if compound.Start != 0 || compound.End != 9 || compound.Alignment != AlignmentExact {
		t.Errorf("exact alignment failed: %+v", compound)
	}

	// Case-mismatched extraction aligns fuzzily, surface text from the source.
	target := result.Targets[0]
	if target.Text != "EGFR" || target.Alignment != AlignmentFuzzy {
		t.Errorf("fuzzy alignment failed: %+v", target)
	}
	if text[target.Start:target.End] != "EGFR" {
		t.Errorf("fuzzy span (%d,%d) does not cover EGFR", target.Start, target.End)
	}

	// Hallucinated extraction keeps the negative span sentinel.
	disease := result.Diseases[0]
	if disease.Start != -1 || disease.End != -1 || disease.Alignment != "" {
		t.Errorf("unaligned extraction should carry a negative span: %+v", disease)
	}
}

func TestExtract_RepeatedMentions(t *testing.T) {
	stub := &stubClient{response: `{
		"extractions": [
			{"extraction_class": "target", "extraction_text": "InhA"},
			{"extraction_class": "target", "extraction_text": "InhA"}
		]
	}`}
	ex, _ := NewExtractor(stub)

	text := "InhA binds NADH; InhA is essential."
	result, err := ex.Extract(context.Background(), text)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if len(result.Targets) != 2 {
		t.Fatalf("expected 2 targets, got %d", len(result.Targets))
	}
	if result.Targets[0].Start == result.Targets[1].Start {
		t.Errorf("repeated mentions should map to distinct occurrences: %+v", result.Targets)
	}
}

func TestExtract_OutOfProfileClassUnclassified(t *testing.T) {
	stub := &stubClient{response: `{
		"extractions": [
			{"extraction_class": "weather_event", "extraction_text": "monsoon"}
		]
	}`}
	ex, _ := NewExtractor(stub)

	result, err := ex.Extract(context.Background(), "The monsoon season delayed the trial.")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(result.Unclassified) != 1 {
		t.Errorf("unknown class should land in Unclassified: %+v", result)
	}
}

func TestExtract_EmptyTextSkipsLLM(t *testing.T) {
	stub := &stubClient{response: "{}"}
	ex, _ := NewExtractor(stub)

	result, err := ex.Extract(context.Background(), "   ")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if result.Len() != 0 {
		t.Errorf("expected empty result, got %d entities", result.Len())
	}
	if stub.calls != 0 {
		t.Errorf("blank input should not reach the LLM, got %d calls", stub.calls)
	}
}

func TestExtract_ProfileOverride(t *testing.T) {
	stub := &stubClient{response: `{"extractions": []}`}
	ex, _ := NewExtractor(stub, WithProfile(Chemistry))

	if _, err := ex.ExtractWithProfile(context.Background(), "some text", Disease); err != nil {
		t.Fatalf("ExtractWithProfile failed: %v", err)
	}
	if !strings.Contains(stub.lastUser, Disease.Prompt) {
		t.Error("per-call profile should override the default")
	}
}

func TestNewExtractor_RequiresClient(t *testing.T) {
	if _, err := NewExtractor(nil); err == nil {
		t.Error("expected an error for a nil client")
	}
}
