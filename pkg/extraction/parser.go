package extraction

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// ParseResponse parses the raw LLM response into extractions.
// Handles markdown code fences and attempts repair on malformed JSON.
func ParseResponse(raw string) ([]Extraction, error) {
	cleaned := stripCodeFence(strings.TrimSpace(raw))
	if cleaned == "" {
		return nil, nil
	}

	// Expected shape: {"extractions": [...]}
	var wrapped struct {
		Extractions []Extraction `json:"extractions"`
	}
	if err := json.Unmarshal([]byte(cleaned), &wrapped); err == nil {
		return filterExtractions(wrapped.Extractions), nil
	}

	// Some models return the bare array.
	var arr []Extraction
	if err := json.Unmarshal([]byte(cleaned), &arr); err == nil {
		return filterExtractions(arr), nil
	}

	// Last resort: pull complete extraction objects out of broken JSON.
	if repaired := repairExtractions(cleaned); len(repaired) > 0 {
		return repaired, nil
	}

	return nil, fmt.Errorf("extraction: failed to parse LLM response")
}

// stripCodeFence removes markdown code block wrappers (```json ... ```).
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) > 0 {
		lines = lines[1:]
	}
	if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[len(lines)-1]), "```") {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

// filterExtractions drops entries with a blank class or text and trims both.
func filterExtractions(in []Extraction) []Extraction {
	out := make([]Extraction, 0, len(in))
	for _, e := range in {
		e.Class = strings.TrimSpace(e.Class)
		e.Text = strings.TrimSpace(e.Text)
		if e.Class == "" || e.Text == "" {
			continue
		}
		out = append(out, e)
	}
	return out
}

// extractionPattern matches a complete extraction object inside otherwise
// malformed JSON.
var extractionPattern = regexp.MustCompile(
	`\{\s*"extraction_class"\s*:\s*"[^"]+"\s*,\s*"extraction_text"\s*:\s*"[^"]+"\s*(?:,\s*"attributes"\s*:\s*\{[^{}]*\})?\s*\}`,
)

// repairExtractions recovers individual extraction objects from a response
// the JSON decoder rejected.
func repairExtractions(raw string) []Extraction {
	matches := extractionPattern.FindAllString(raw, -1)
	out := make([]Extraction, 0, len(matches))
	for _, m := range matches {
		var e Extraction
		if err := json.Unmarshal([]byte(m), &e); err != nil {
			continue
		}
		e.Class = strings.TrimSpace(e.Class)
		e.Text = strings.TrimSpace(e.Text)
		if e.Class == "" || e.Text == "" {
			continue
		}
		out = append(out, e)
	}
	return out
}
