package extraction

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MaxTextLength is the maximum number of bytes sent to the LLM in one call.
const MaxTextLength = 8000

// SystemPrompt instructs the LLM to return structured JSON only.
const SystemPrompt = `You are an entity extraction assistant for drug discovery literature.
Extract entities exactly as they appear in the text: verbatim spans, no paraphrasing.
Return ONLY a valid JSON object of the form {"extractions": [...]}.
No markdown, no explanation. Start with { and end with }.`

const chemistryPrompt = "Extract chemical entities from the text. " +
	"Include: compound names (generic names, IUPAC names, code names like 'Compound 5b', " +
	"brand names, and abbreviations), SMILES strings (the exact SMILES notation as written), " +
	"CAS registry numbers (e.g. '50-78-2'), and molecular formulas (e.g. 'C9H8O4'). " +
	"Do not infer or generate SMILES; only extract them if explicitly present in the text."

const biologyPrompt = "Extract biological target entities from the text. " +
	"Include: protein targets (e.g. 'EGFR', 'CDK4/6', 'PD-L1'), gene names (e.g. 'KRAS', 'TP53', " +
	"'BRCA1'), receptor names, enzyme names, and pathway names. " +
	"For each target, capture the gene symbol if mentioned alongside a protein name. " +
	"Capture the organism context if specified (e.g. 'human', 'mouse')."

const bioactivityPrompt = "Extract bioactivity measurements and assay data from the text. " +
	"Include: potency values (IC50, EC50, Ki, Kd, GI50, CC50), selectivity ratios, " +
	"percent inhibition values, and Hill coefficients. " +
	"For each value, capture the numeric value, unit (nM, µM, mM), and measurement type. " +
	"Also extract assay descriptions: cell lines used (e.g. 'HeLa', 'A549'), assay formats " +
	"(e.g. 'cell viability', 'binding assay', 'enzymatic assay'), and organisms."

const diseasePrompt = "Extract disease names and clinical indications from the text. " +
	"Include: cancer types (e.g. 'non-small cell lung cancer', 'AML', 'NSCLC'), " +
	"non-oncology diseases (e.g. 'type 2 diabetes', 'rheumatoid arthritis'), " +
	"and therapeutic areas (e.g. 'oncology', 'CNS'). " +
	"Capture both full names and abbreviations. " +
	"For each disease, note the therapeutic area if discernible from context."

const fullPrompt = "Extract all drug discovery entities from the text. " +
	"This includes:\n" +
	"- Chemical entities: compound names (generic, IUPAC, code names, brand names), " +
	"SMILES strings (only if explicitly written), CAS numbers, molecular formulas.\n" +
	"- Biological targets: protein names, gene names, receptor names, enzyme names, pathways.\n" +
	"- Bioactivity data: IC50, EC50, Ki, Kd, and other potency/selectivity measurements " +
	"with their numeric values and units.\n" +
	"- Assay information: cell lines, assay formats, experimental organisms.\n" +
	"- Diseases and indications: cancer types, disease names, therapeutic areas.\n" +
	"- Mechanisms of action: binding modes, inhibition types, selectivity descriptions.\n" +
	"Extract only what is explicitly stated; do not infer or generate values."

// BuildUserPrompt constructs the extraction prompt for one text: profile
// instructions, the allowed class list, few-shot examples rendered as the
// exact JSON shape expected back, then the input text.
func BuildUserPrompt(text string, profile Profile) string {
	if len(text) > MaxTextLength {
		text = text[:MaxTextLength]
	}

	var sb strings.Builder
	sb.WriteString(profile.Prompt)
	sb.WriteString("\n\n")

	sb.WriteString("Each extraction object:\n")
	sb.WriteString(fmt.Sprintf("- \"extraction_class\": One of: %s\n", strings.Join(profile.EntityClasses, ", ")))
	sb.WriteString("- \"extraction_text\": The exact span from the text (string)\n")
	sb.WriteString("- \"attributes\": Optional string-to-string map of qualifiers\n\n")

	if len(profile.Examples) > 0 {
		sb.WriteString("EXAMPLES:\n")
		for _, ex := range profile.Examples {
			sb.WriteString("Input: ")
			sb.WriteString(ex.Text)
			sb.WriteString("\nOutput: ")
			out, err := json.Marshal(struct {
				Extractions []Extraction `json:"extractions"`
			}{ex.Extractions})
			if err == nil {
				sb.Write(out)
			}
			sb.WriteString("\n\n")
		}
	}

	sb.WriteString("RULES:\n")
	sb.WriteString("1. extraction_text must be copied verbatim from the input\n")
	sb.WriteString("2. Only use the listed extraction_class values\n")
	sb.WriteString("3. Deduplicate identical extractions\n")
	sb.WriteString("4. Extract only what is explicitly stated\n\n")

	sb.WriteString("TEXT:\n")
	sb.WriteString(text)

	return sb.String()
}
